package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindParams struct {
	ID   int64  `json:"id" form:"id" binding:"required,gt=0"`
	Name string `json:"name" form:"name" binding:"max=3"`
}

func newContext(method, target, body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return c
}

func TestBindAndValid(t *testing.T) {
	t.Run("query ok", func(t *testing.T) {
		params := &bindParams{}
		valid, errs := BindAndValid(newContext(http.MethodGet, "/?id=3&name=ab", ""), params)
		require.True(t, valid, errs)
		assert.Equal(t, int64(3), params.ID)
		assert.Equal(t, "ab", params.Name)
	})

	t.Run("validation errors", func(t *testing.T) {
		valid, errs := BindAndValid(newContext(http.MethodPost, "/", `{"name":"abcd"}`), &bindParams{})
		require.False(t, valid)
		assert.Len(t, errs, 2)
		assert.NotEmpty(t, errs.ErrorsToString())
		assert.Len(t, errs.MapsToString(), 2)
	})

	t.Run("malformed body", func(t *testing.T) {
		valid, errs := BindAndValid(newContext(http.MethodPost, "/", `{"id":`), &bindParams{})
		require.False(t, valid)
		assert.Contains(t, errs.MapsToString(), "body")
	})
}

func TestPagination(t *testing.T) {
	c := newContext(http.MethodGet, "/?page=0&pageSize=1000", "")
	assert.Equal(t, 1, GetPage(c))
	assert.Equal(t, DefaultPaginationConfig.MaxPageSize, GetPageSize(c))

	c.Set(PaginationKey, PaginationConfig{DefaultPageSize: 5, MaxPageSize: 20})
	assert.Equal(t, 20, GetPageSize(c))

	c = newContext(http.MethodGet, "/?page=3", "")
	c.Set(PaginationKey, PaginationConfig{DefaultPageSize: 5, MaxPageSize: 20})
	pager := NewPager(c, 42)
	assert.Equal(t, Pager{Page: 3, PageSize: 5, TotalRows: 42}, *pager)
	assert.Equal(t, 10, GetPageOffset(3, 5))
}
