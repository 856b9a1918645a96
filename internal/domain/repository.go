// Package domain 定义领域模型和接口
package domain

import "context"

// ContentRepository 内容仓储接口，每种内容类型一个实现
type ContentRepository interface {
	// Kind 仓储对应的内容类型
	Kind() Kind

	// GetByID 根据ID获取内容（含完整账本），不存在时返回 ErrContentNotFound
	GetByID(ctx context.Context, id int64) (*Content, error)

	// Create 创建内容，返回带ID的内容
	Create(ctx context.Context, content *Content) (*Content, error)

	// Save 保存内容的文本与账本
	Save(ctx context.Context, content *Content) error

	// Delete 删除内容及其账本
	Delete(ctx context.Context, id int64) error

	// ListByItem 分页获取条目下的内容，按更新时间倒序
	ListByItem(ctx context.Context, itemID int64, page, pageSize int) ([]*Content, int64, error)

	// ListIDs 按ID升序获取 afterID 之后的内容ID，用于全量巡检
	ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error)
}

// ContentRepositories 按内容类型获取仓储
type ContentRepositories interface {
	For(kind Kind) (ContentRepository, error)
}

// RepositorySet 以 map 实现的 ContentRepositories
type RepositorySet map[Kind]ContentRepository

func (s RepositorySet) For(kind Kind) (ContentRepository, error) {
	if repo, ok := s[kind]; ok {
		return repo, nil
	}
	return nil, ErrUnknownKind
}
