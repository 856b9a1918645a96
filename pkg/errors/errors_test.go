package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haierkeys/content-revision-service/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	wrapped := fmt.Errorf("get content: %w", code.ErrorContentNotFound)
	appErr := FromError(wrapped)
	assert.Equal(t, code.ErrorContentNotFound.Code(), appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.HTTPStatus())
	assert.ErrorIs(t, appErr, code.ErrorContentNotFound)

	unknown := FromError(fmt.Errorf("disk on fire"))
	assert.Equal(t, code.ErrorServerInternal.Code(), unknown.Code)
	assert.Equal(t, http.StatusInternalServerError, unknown.HTTPStatus())

	assert.Same(t, appErr, FromError(fmt.Errorf("again: %w", appErr)))
}

func TestErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	ErrorResponse(c, code.ErrorInvalidParams.WithDetails("id"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body AppError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, code.ErrorInvalidParams.Code(), body.Code)
	assert.False(t, body.Status)
	assert.Equal(t, []string{"id"}, body.Details)
	assert.Equal(t, http.StatusBadRequest, c.GetInt("status_code"))
}
