package dao

import (
	"context"
	"time"

	"github.com/haierkeys/content-revision-service/internal/domain"
	"github.com/haierkeys/content-revision-service/internal/model"
	"github.com/haierkeys/content-revision-service/pkg/logger"
	"github.com/haierkeys/content-revision-service/pkg/timex"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// contentModel is a pointer to one of the per-kind content models
type contentModel[T any] interface {
	*T
	Columns() *model.ContentColumns
}

// contentRepository 实现 domain.ContentRepository 接口，每种内容类型一张表
type contentRepository[T any, PT contentModel[T]] struct {
	dao        *Dao
	kind       domain.Kind
	migrateKey string
}

// NewNoteContentRepository 创建笔记内容仓储
func NewNoteContentRepository(dao *Dao) domain.ContentRepository {
	return &contentRepository[model.NoteContent, *model.NoteContent]{dao: dao, kind: domain.KindNote, migrateKey: "NoteContent"}
}

// NewTaskContentRepository 创建任务内容仓储
func NewTaskContentRepository(dao *Dao) domain.ContentRepository {
	return &contentRepository[model.TaskContent, *model.TaskContent]{dao: dao, kind: domain.KindTask, migrateKey: "TaskContent"}
}

// NewTransactionContentRepository 创建交易内容仓储
func NewTransactionContentRepository(dao *Dao) domain.ContentRepository {
	return &contentRepository[model.TransactionContent, *model.TransactionContent]{dao: dao, kind: domain.KindTransaction, migrateKey: "TransactionContent"}
}

// NewContentRepositories 创建全部内容类型的仓储
func NewContentRepositories(dao *Dao) domain.RepositorySet {
	return domain.RepositorySet{
		domain.KindNote:        NewNoteContentRepository(dao),
		domain.KindTask:        NewTaskContentRepository(dao),
		domain.KindTransaction: NewTransactionContentRepository(dao),
	}
}

func (r *contentRepository[T, PT]) Kind() domain.Kind {
	return r.kind
}

// table 返回已迁移的表查询对象
func (r *contentRepository[T, PT]) table(ctx context.Context) (*gorm.DB, error) {
	if err := r.dao.MigrateOnce(r.migrateKey); err != nil {
		return nil, errors.Wrapf(err, "migrate %s", r.migrateKey)
	}
	// Session 使返回的对象可重复构建查询
	return r.dao.DB.WithContext(ctx).Model(PT(new(T))).Session(&gorm.Session{}), nil
}

// toDomain 将数据库模型转换为领域模型
func (r *contentRepository[T, PT]) toDomain(m PT) (*domain.Content, error) {
	cols := m.Columns()
	revs, err := r.dao.codec.Decode(cols.Revisions)
	if err != nil {
		return nil, errors.Wrapf(err, "%s content %d", r.kind, cols.ID)
	}
	return &domain.Content{
		ID:     cols.ID,
		Kind:   r.kind,
		ItemID: cols.ItemID,
		Owner:  cols.Owner,
		Ledger: domain.ContentLedger{
			Current:   cols.Text,
			Base:      cols.BaseText,
			Revisions: revs,
		},
		CreatedAt: cols.CreatedAt.Time(),
		UpdatedAt: cols.UpdatedAt.Time(),
	}, nil
}

// toModel 将领域模型转换为数据库模型
func (r *contentRepository[T, PT]) toModel(c *domain.Content) (PT, error) {
	encoded, err := r.dao.codec.Encode(c.Ledger.Revisions)
	if err != nil {
		return nil, err
	}
	m := PT(new(T))
	*m.Columns() = model.ContentColumns{
		ID:             c.ID,
		ItemID:         c.ItemID,
		Owner:          c.Owner,
		Text:           c.Ledger.Current,
		BaseText:       c.Ledger.Base,
		Revisions:      encoded,
		RevisionCount:  c.Ledger.Len(),
		LastRevisionID: c.Ledger.LastID(),
		CreatedAt:      timex.Time(c.CreatedAt),
		UpdatedAt:      timex.Time(c.UpdatedAt),
	}
	return m, nil
}

// GetByID 根据ID获取内容
func (r *contentRepository[T, PT]) GetByID(ctx context.Context, id int64) (*domain.Content, error) {
	db, err := r.table(ctx)
	if err != nil {
		return nil, err
	}
	m := PT(new(T))
	if err := db.Where("id = ?", id).Take(m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrContentNotFound
		}
		return nil, err
	}
	return r.toDomain(m)
}

// Create 创建内容
func (r *contentRepository[T, PT]) Create(ctx context.Context, c *domain.Content) (*domain.Content, error) {
	db, err := r.table(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.Kind = r.kind

	m, err := r.toModel(c)
	if err != nil {
		return nil, err
	}
	m.Columns().ID = 0
	if err := db.Create(m).Error; err != nil {
		r.dao.logger.Error("content create failed",
			zap.String(logger.FieldMethod, "contentRepository.Create"),
			zap.String(logger.FieldKind, string(r.kind)),
			zap.Int64(logger.FieldItemID, c.ItemID),
			zap.Error(err))
		return nil, err
	}

	out := *c
	out.ID = m.Columns().ID
	return &out, nil
}

// Save 保存文本与账本
func (r *contentRepository[T, PT]) Save(ctx context.Context, c *domain.Content) error {
	db, err := r.table(ctx)
	if err != nil {
		return err
	}
	c.UpdatedAt = time.Now()
	m, err := r.toModel(c)
	if err != nil {
		return err
	}
	err = db.Where("id = ?", c.ID).
		Select("owner", "text", "base_text", "revisions", "revision_count", "last_revision_id", "updated_at").
		Updates(m).Error
	if err != nil {
		r.dao.logger.Error("content save failed",
			zap.String(logger.FieldMethod, "contentRepository.Save"),
			zap.String(logger.FieldKind, string(r.kind)),
			zap.Int64(logger.FieldContentID, c.ID),
			zap.Error(err))
	}
	return err
}

// Delete 删除内容
func (r *contentRepository[T, PT]) Delete(ctx context.Context, id int64) error {
	db, err := r.table(ctx)
	if err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(PT(new(T)))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrContentNotFound
	}
	return nil
}

// ListByItem 分页获取条目下的内容
func (r *contentRepository[T, PT]) ListByItem(ctx context.Context, itemID int64, page, pageSize int) ([]*domain.Content, int64, error) {
	db, err := r.table(ctx)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := db.Where("item_id = ?", itemID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	var rows []T
	err = db.Where("item_id = ?", itemID).Order("updated_at DESC").Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	list := make([]*domain.Content, 0, len(rows))
	for i := range rows {
		c, err := r.toDomain(PT(&rows[i]))
		if err != nil {
			return nil, 0, err
		}
		list = append(list, c)
	}
	return list, total, nil
}

// ListIDs 按ID升序获取 afterID 之后的内容ID
func (r *contentRepository[T, PT]) ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	db, err := r.table(ctx)
	if err != nil {
		return nil, err
	}
	var ids []int64
	err = db.Where("id > ?", afterID).Order("id ASC").Limit(limit).Pluck("id", &ids).Error
	return ids, err
}
