package middleware

import (
	"github.com/haierkeys/content-revision-service/pkg/app"
	"github.com/haierkeys/content-revision-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// NoFound 404 处理
func NoFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		app.NewResponse(c).ToResponse(code.ErrorNotFound.WithDetails(c.Request.Method + " " + c.Request.URL.Path))
		c.Abort()
	}
}
