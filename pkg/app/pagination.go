package app

import (
	"github.com/haierkeys/content-revision-service/pkg/convert"

	"github.com/gin-gonic/gin"
)

// PaginationConfig pagination configuration // 分页配置
type PaginationConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultPaginationConfig default pagination configuration // 默认分页配置
var DefaultPaginationConfig = PaginationConfig{
	DefaultPageSize: 10,
	MaxPageSize:     100,
}

// PaginationKey gin context key holding the injected PaginationConfig
const PaginationKey = "pagination"

// paginationFromContext returns the config set by middleware, or the default
func paginationFromContext(c *gin.Context) PaginationConfig {
	if v, ok := c.Get(PaginationKey); ok {
		if cfg, ok := v.(PaginationConfig); ok && cfg.DefaultPageSize > 0 && cfg.MaxPageSize > 0 {
			return cfg
		}
	}
	return DefaultPaginationConfig
}

// NewPager builds the pager echoed back in list responses
// NewPager 构建列表响应中的分页信息
func NewPager(c *gin.Context, totalRows int) *Pager {
	return &Pager{
		Page:      GetPage(c),
		PageSize:  GetPageSize(c),
		TotalRows: totalRows,
	}
}

func GetPage(c *gin.Context) int {

	var page int

	if s, exist := c.GetQuery("page"); exist {
		page = convert.StrTo(s).MustInt()
	} else if s := c.PostForm("page"); s != "" {
		page = convert.StrTo(s).MustInt()
	}

	if page <= 0 {
		return 1
	}

	return page
}

// GetPageSizeWithConfig gets page size (using injected configuration)
// GetPageSizeWithConfig 获取分页大小（使用注入的配置）
func GetPageSizeWithConfig(c *gin.Context, cfg PaginationConfig) int {
	var pageSize int

	if s, exist := c.GetQuery("pageSize"); exist {
		pageSize = convert.StrTo(s).MustInt()
	} else if s := c.PostForm("pageSize"); s != "" {
		pageSize = convert.StrTo(s).MustInt()
	}

	if pageSize <= 0 {
		return cfg.DefaultPageSize
	}
	if pageSize > cfg.MaxPageSize {
		return cfg.MaxPageSize
	}

	return pageSize
}

// GetPageSize gets page size with the config injected into the context
// GetPageSize 获取分页大小（优先使用上下文中注入的配置）
func GetPageSize(c *gin.Context) int {
	return GetPageSizeWithConfig(c, paginationFromContext(c))
}

func GetPageOffset(page, pageSize int) int {
	result := 0
	if page > 0 {
		result = (page - 1) * pageSize
	}

	return result
}
