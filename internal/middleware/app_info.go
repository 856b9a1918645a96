package middleware

import (
	"github.com/haierkeys/content-revision-service/pkg/app"

	"github.com/gin-gonic/gin"
)

// AppInfo 在上下文中记录应用名称、版本和访问地址
func AppInfo(name, version string) gin.HandlerFunc {

	return func(c *gin.Context) {
		c.Set("app_name", name)
		c.Set("app_version", version)
		c.Set("access_host", app.GetAccessHost(c))

		c.Next()
	}
}

// Pagination 注入分页配置，供 app.GetPageSize 使用
func Pagination(cfg app.PaginationConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(app.PaginationKey, cfg)
		c.Next()
	}
}
