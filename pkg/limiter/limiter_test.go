package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodLimiter_KeyUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewMethodLimiter()

	var got string
	r := gin.New()
	r.PUT("/api/:kind/content", func(c *gin.Context) {
		got = l.Key(c)
	})

	req := httptest.NewRequest(http.MethodPut, "/api/note/content", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "PUT /api/:kind/content", got)
}

func TestMethodLimiter_Buckets(t *testing.T) {
	l := NewMethodLimiter()
	l.AddBuckets(BucketRule{Key: "PUT /x", FillInterval: time.Hour, Capacity: 2, Quantum: 1})
	// second registration of the same key is ignored
	l.AddBuckets(BucketRule{Key: "PUT /x", FillInterval: time.Hour, Capacity: 100, Quantum: 1})

	bucket, ok := l.GetBucket("PUT /x")
	require.True(t, ok)
	assert.Equal(t, int64(2), bucket.Capacity())
	assert.Equal(t, int64(1), bucket.TakeAvailable(1))
	assert.Equal(t, int64(1), bucket.TakeAvailable(1))
	assert.Equal(t, int64(0), bucket.TakeAvailable(1))

	_, ok = l.GetBucket("GET /x")
	assert.False(t, ok)
}
