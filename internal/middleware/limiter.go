package middleware

import (
	"github.com/haierkeys/content-revision-service/pkg/app"
	"github.com/haierkeys/content-revision-service/pkg/code"
	"github.com/haierkeys/content-revision-service/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// RateLimiter 按路由限流，未配置令牌桶的路由直接放行
func RateLimiter(l limiter.Face) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.Key(c)
		bucket, ok := l.GetBucket(key)
		if ok && bucket.TakeAvailable(1) == 0 {
			app.NewResponse(c).ToResponse(code.ErrorTooManyRequest.WithDetails(key))
			c.Abort()
			return
		}

		c.Next()
	}
}
