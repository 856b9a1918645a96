package routers

import (
	"time"

	"github.com/haierkeys/content-revision-service/internal/app"
	"github.com/haierkeys/content-revision-service/internal/middleware"
	"github.com/haierkeys/content-revision-service/internal/routers/api_router"
	"github.com/haierkeys/content-revision-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// writeRoutes 参与限流的写接口
var writeRoutes = []string{
	"POST /api/:kind/contents",
	"PUT /api/:kind/content",
	"DELETE /api/:kind/content",
	"PUT /api/:kind/content/revision/restore",
}

// newMethodLimiter 每个写接口一个令牌桶，perSecond <= 0 时不限流
func newMethodLimiter(perSecond int64) limiter.Face {
	l := limiter.NewMethodLimiter()
	if perSecond <= 0 {
		return l
	}
	rules := make([]limiter.BucketRule, 0, len(writeRoutes))
	for _, key := range writeRoutes {
		rules = append(rules, limiter.BucketRule{
			Key:          key,
			FillInterval: time.Second,
			Capacity:     perSecond,
			Quantum:      perSecond,
		})
	}
	return l.AddBuckets(rules...)
}

// NewRouter 创建对外 API 路由
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfo(app.Name, appContainer.Version().Version))
		api.Use(middleware.TraceMiddleware(middleware.TracerConfig{
			Enabled: cfg.Tracer.Enabled,
			Header:  cfg.Tracer.Header,
		}))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))
		api.Use(middleware.AccessLog(appContainer.Logger()))
		api.Use(middleware.RateLimiter(newMethodLimiter(cfg.App.WriteRateLimit)))
		api.Use(middleware.ContextTimeout(cfg.GetContextTimeout()))
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.Pagination(cfg.GetPaginationConfig()))

		// 创建 Handlers（注入 App Container）
		contentHandler := api_router.NewContentHandler(appContainer)
		revisionHandler := api_router.NewRevisionHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)

		api.GET("/version", versionHandler.ServerVersion)
		api.GET("/health", healthHandler.Check)

		kind := api.Group("/:kind")
		{
			kind.POST("/contents", contentHandler.Create)
			kind.GET("/contents", contentHandler.List)
			kind.GET("/content", contentHandler.Get)
			kind.PUT("/content", contentHandler.Update)
			kind.DELETE("/content", contentHandler.Delete)

			kind.GET("/content/revisions", revisionHandler.List)
			kind.GET("/content/revision", revisionHandler.Get)
			kind.PUT("/content/revision/restore", revisionHandler.Restore)
			kind.GET("/content/revision/verify", revisionHandler.Verify)
		}
	}

	r.NoRoute(middleware.NoFound())

	return r
}
