// Package app 提供应用容器，封装所有依赖和服务
package app

// 版本信息变量，由构建时注入
// go build -ldflags "-X github.com/haierkeys/content-revision-service/internal/app.Version=..."
var (
	Version   string = "0.1.0"
	GitTag    string = "2000.01.01.release"
	BuildTime string = "2000-01-01T00:00:00+0800"
)

// 应用名称常量
const (
	// Name 应用名称
	Name = "Content Revision Service"
	// ServiceName 用于 tracing 和 metrics 的服务名
	ServiceName = "content-revision-service"
)
