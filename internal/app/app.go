// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/content-revision-service/internal/dao"
	"github.com/haierkeys/content-revision-service/internal/domain"
	"github.com/haierkeys/content-revision-service/internal/dto"
	"github.com/haierkeys/content-revision-service/internal/metrics"
	"github.com/haierkeys/content-revision-service/internal/service"
	"github.com/haierkeys/content-revision-service/pkg/diff"
	"github.com/haierkeys/content-revision-service/pkg/revision"
	"github.com/haierkeys/content-revision-service/pkg/workerpool"
	"github.com/haierkeys/content-revision-service/pkg/writequeue"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB         // 关系型存储，database.type 为 badger 时为 nil
	Dao    *dao.Dao         // 关系型存储 DAO
	Badger *dao.BadgerStore // 嵌入式存储，仅 badger 模式
	codec  *dao.LedgerCodec // 版本列表编解码
	reg    *prometheus.Registry

	// 并发控制组件
	workerPool    *workerpool.Pool
	writeQueueMgr *writequeue.Manager

	// 版本引擎
	Engine *service.TextEngine

	// Repository 层
	Repos domain.RepositorySet

	// Service 层
	ContentService  service.ContentService
	RevisionService service.RevisionService

	startedAt time.Time

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// db: 数据库连接，database.type 为 badger 时传 nil，由容器自行打开 badger
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	useBadger := cfg.Database.Type == "badger"
	if db == nil && !useBadger {
		return nil, fmt.Errorf("database is required")
	}

	codec, err := dao.NewLedgerCodec(cfg.Revision.CompressLedger)
	if err != nil {
		return nil, fmt.Errorf("ledger codec: %w", err)
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		codec:      codec,
		reg:        prometheus.NewRegistry(),
		startedAt:  time.Now(),
		shutdownCh: make(chan struct{}),
	}
	a.reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// 初始化存储
	if useBadger {
		a.Badger, err = dao.OpenBadger(cfg.GetBadgerConfig(), codec, logger)
		if err != nil {
			codec.Close()
			return nil, err
		}
		a.Repos = a.Badger.Repositories()
	} else {
		dbConfig := cfg.GetDatabaseConfig()
		a.Dao = dao.New(db,
			dao.WithConfig(&dbConfig),
			dao.WithLogger(logger),
			dao.WithLedgerCodec(codec),
		)
		a.Repos = dao.NewContentRepositories(a.Dao)
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化 Write Queue Manager
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(&wqConfig, logger)

	// 版本引擎，指标通过 Observer 上报
	a.Engine = revision.NewEngine[string, string](diff.New(),
		revision.WithMaxRevisions(cfg.Revision.MaxRevisionNumber),
		revision.WithLogger(logger),
		revision.WithObserver(metrics.NewEngineMetrics(a.reg)),
	)
	metrics.RegisterQueues(a.reg, a.writeQueueMgr, a.workerPool)

	// 创建 ServiceConfig（从 AppConfig 提取 Service 层需要的配置）
	svcConfig := &service.ServiceConfig{
		Revision: service.RevisionServiceConfig{
			AuditBatchSize: cfg.GetAuditBatchSize(),
		},
	}

	// 初始化 Service 层（依赖注入）
	a.ContentService = service.NewContentService(a.Repos, a.Engine, a.writeQueueMgr, logger)
	a.RevisionService = service.NewRevisionService(a.Repos, a.Engine, a.writeQueueMgr, a.workerPool, logger, svcConfig)

	logger.Info("App container initialized successfully",
		zap.String("store", cfg.Database.Type),
		zap.Int("maxRevisionNumber", a.Engine.MaxRevisions()),
		zap.Bool("compressLedger", codec.Compressed()),
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity))

	return a, nil
}

// Close 释放应用容器持有的存储资源
func (a *App) Close() error {
	var err error
	if a.DB != nil {
		sqlDB, dbErr := a.DB.DB()
		if dbErr != nil {
			err = fmt.Errorf("failed to get sql.DB: %w", dbErr)
		} else if dbErr := sqlDB.Close(); dbErr != nil {
			err = fmt.Errorf("failed to close database: %w", dbErr)
		} else {
			a.logger.Info("Database connection closed")
		}
	}
	if a.Badger != nil {
		if bErr := a.Badger.Close(); bErr != nil {
			err = fmt.Errorf("failed to close badger: %w", bErr)
		} else {
			a.logger.Info("Badger store closed")
		}
	}
	if a.codec != nil {
		a.codec.Close()
	}
	return err
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Registry 获取 Prometheus 注册表
func (a *App) Registry() *prometheus.Registry {
	return a.reg
}

// LedgerCodec 返回版本列表编解码器
func (a *App) LedgerCodec() *dao.LedgerCodec {
	return a.codec
}

// StartedAt 容器创建时间
func (a *App) StartedAt() time.Time {
	return a.startedAt
}

// Version 获取版本信息
func (a *App) Version() dto.VersionDTO {
	return dto.VersionDTO{
		Version:      Version,
		GitTag:       GitTag,
		BuildTime:    BuildTime,
		MaxRevisions: a.Engine.MaxRevisions(),
	}
}

// Ping 检查存储是否可用
func (a *App) Ping(ctx context.Context) error {
	if a.Badger != nil {
		return a.Badger.Ping()
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// IsProductionMode 是否为生产模式
// 根据日志配置中的 Production 字段判断
func (a *App) IsProductionMode() bool {
	return a.config.Log.Production
}

// WorkerPool 获取 Worker Pool（用于高级操作）
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// WriteQueueManager 获取 Write Queue Manager（用于高级操作）
func (a *App) WriteQueueManager() *writequeue.Manager {
	return a.writeQueueMgr
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：Worker Pool -> Write Queue Manager -> 后台任务 -> 存储
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	// 如果没有提供 context，使用默认超时
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	// 标记关闭
	select {
	case <-a.shutdownCh:
		// 已经关闭
		return nil
	default:
		close(a.shutdownCh)
	}

	a.logger.Info("App container shutting down...")

	var errs []error

	// 1. 关闭 Worker Pool（停止接受新任务，等待现有任务完成）
	if a.workerPool != nil {
		a.logger.Info("Shutting down worker pool...")
		if err := a.workerPool.Shutdown(ctx); err != nil {
			a.logger.Warn("Worker pool shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
		}
	}

	// 2. 关闭 Write Queue Manager（排空所有队列，保证最后的版本已落库）
	if a.writeQueueMgr != nil {
		a.logger.Info("Shutting down write queue manager...")
		if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
			a.logger.Warn("write queue manager shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("write queue manager shutdown: %w", err))
		}
	}

	// 3. 等待所有后台操作完成
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All background operations completed")
	case <-ctx.Done():
		a.logger.Warn("Shutdown timeout waiting for background operations")
		errs = append(errs, fmt.Errorf("background operations timeout: %w", ctx.Err()))
	}

	// 4. 关闭存储
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		a.logger.Warn("App container shutdown completed with errors",
			zap.Int("errorCount", len(errs)))
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownCh 返回关闭信号通道（用于监听关闭事件）
func (a *App) ShutdownCh() <-chan struct{} {
	return a.shutdownCh
}

// TrackOperation 跟踪后台操作（用于优雅关闭时等待）
// 返回一个函数，在操作完成时调用
func (a *App) TrackOperation() func() {
	a.wg.Add(1)
	return func() {
		a.wg.Done()
	}
}
