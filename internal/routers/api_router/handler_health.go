package api_router

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/haierkeys/content-revision-service/internal/app"
	pkgapp "github.com/haierkeys/content-revision-service/pkg/app"
	"github.com/haierkeys/content-revision-service/pkg/code"

	"github.com/denisbrodbeck/machineid"
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler

	instanceOnce sync.Once
	instanceID   string
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status     string      `json:"status"`     // "healthy" 或 "unhealthy"
	Version    string      `json:"version"`    // 服务版本号
	Uptime     float64     `json:"uptime"`     // 运行时间（秒）
	Store      string      `json:"store"`      // 存储类型
	Database   string      `json:"database"`   // "connected" 或 "error"
	InstanceID string      `json:"instanceId"` // 实例标识（机器 ID 的 HMAC）
	Host       *HostStatus `json:"host,omitempty"`
}

// HostStatus 主机与进程资源
type HostStatus struct {
	Goroutines  int     `json:"goroutines"`
	ProcessRSS  uint64  `json:"processRss"`  // 进程常驻内存（字节）
	MemoryUsed  float64 `json:"memoryUsed"`  // 主机内存使用率（%）
	MemoryTotal uint64  `json:"memoryTotal"` // 主机总内存（字节）
	Load1       float64 `json:"load1"`       // 1 分钟负载，Windows 上为 0
	WriteQueues int     `json:"writeQueues"` // 活跃写队列数
	PoolActive  int64   `json:"poolActive"`  // worker pool 活跃任务
	PoolQueued  int     `json:"poolQueued"`  // worker pool 排队任务
}

// Check 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态，包括存储连接与主机资源
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.Res{data=HealthResponse}
// @Router /api/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	cfg := h.App.Config()

	response := HealthResponse{
		Status:     "healthy",
		Version:    h.App.Version().Version,
		Uptime:     time.Since(h.App.StartedAt()).Seconds(),
		Store:      cfg.Database.Type,
		Database:   "connected",
		InstanceID: h.instance(),
		Host:       h.hostStatus(c),
	}

	// 检查存储连接
	if err := h.App.Ping(ctx); err != nil {
		h.logError(ctx, "HealthHandler.Check", err)
		response.Status = "unhealthy"
		response.Database = "error"
		pkgapp.NewResponse(c).ToResponse(code.ErrorServerInternal.WithData(response).WithDetails(err.Error()))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(response))
}

func (h *HealthHandler) instance() string {
	h.instanceOnce.Do(func() {
		id, err := machineid.ProtectedID(app.ServiceName)
		if err != nil {
			h.App.Logger().Debug("machine id unavailable", zap.Error(err))
			id, _ = os.Hostname()
		}
		h.instanceID = id
	})
	return h.instanceID
}

// hostStatus 采集失败的项保持零值
func (h *HealthHandler) hostStatus(c *gin.Context) *HostStatus {
	ctx := c.Request.Context()
	st := &HostStatus{
		Goroutines:  runtime.NumGoroutine(),
		WriteQueues: h.App.WriteQueueManager().QueueCount(),
		PoolActive:  h.App.WorkerPool().ActiveCount(),
		PoolQueued:  h.App.WorkerPool().QueuedCount(),
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		st.MemoryUsed = vm.UsedPercent
		st.MemoryTotal = vm.Total
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		st.Load1 = avg.Load1
	}
	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil {
			st.ProcessRSS = mi.RSS
		}
	}
	return st
}
