// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	Revision RevisionServiceConfig // Revision related config // 版本相关配置
}

// RevisionServiceConfig revision service configuration
// RevisionServiceConfig 版本服务配置
type RevisionServiceConfig struct {
	AuditBatchSize int // Content ids loaded per audit batch // 巡检每批加载的内容数
}

func (c *ServiceConfig) auditBatchSize() int {
	if c == nil || c.Revision.AuditBatchSize <= 0 {
		return 200
	}
	return c.Revision.AuditBatchSize
}
