package service

import (
	"context"
	"strings"
	"time"

	"github.com/haierkeys/content-revision-service/internal/domain"
	"github.com/haierkeys/content-revision-service/internal/dto"
	"github.com/haierkeys/content-revision-service/pkg/code"
	"github.com/haierkeys/content-revision-service/pkg/logger"
	"github.com/haierkeys/content-revision-service/pkg/revision"
	"github.com/haierkeys/content-revision-service/pkg/writequeue"
	"go.uber.org/zap"
)

// TextEngine revision engine over plain text
// TextEngine 文本版本引擎
type TextEngine = revision.Engine[string, string]

// ContentService defines the content business service interface
// ContentService 定义内容业务服务接口
type ContentService interface {
	// Create creates a content and records its initial text as revision 1
	// Create 创建内容，并将初始文本记录为版本 1
	Create(ctx context.Context, kind domain.Kind, params *dto.ContentCreateRequest) (*dto.ContentDTO, error)

	// Get retrieves a content with its current text
	// Get 获取内容及当前文本
	Get(ctx context.Context, kind domain.Kind, id int64) (*dto.ContentDTO, error)

	// Update records a new revision and replaces the current text
	// Update 记录新版本并替换当前文本
	Update(ctx context.Context, kind domain.Kind, params *dto.ContentUpdateRequest) (*dto.ContentDTO, error)

	// Delete deletes a content together with its history
	// Delete 删除内容及其历史
	Delete(ctx context.Context, kind domain.Kind, id int64) error

	// List lists the contents of an item, newest update first
	// List 获取条目下的内容，按更新时间倒序
	List(ctx context.Context, kind domain.Kind, itemID int64, page, pageSize int) ([]*dto.ContentNoTextDTO, int64, error)
}

// contentService implementation of ContentService interface
// contentService 实现 ContentService 接口
type contentService struct {
	repos  domain.ContentRepositories // Content repositories // 内容仓储
	engine *TextEngine                // Revision engine // 版本引擎
	queue  *writequeue.Manager        // Per-content write queue // 按内容串行的写队列
	logger *zap.Logger
}

// NewContentService creates ContentService instance
// NewContentService 创建 ContentService 实例
func NewContentService(repos domain.ContentRepositories, engine *TextEngine, queue *writequeue.Manager, lg *zap.Logger) ContentService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &contentService{repos: repos, engine: engine, queue: queue, logger: lg}
}

// sanitize 保证文本为合法 UTF-8，补丁格式依赖合法编码
func sanitize(text string) string {
	return strings.ToValidUTF8(text, "\uFFFD")
}

func (s *contentService) Create(ctx context.Context, kind domain.Kind, params *dto.ContentCreateRequest) (*dto.ContentDTO, error) {
	repo, err := s.repos.For(kind)
	if err != nil {
		return nil, codeError(err, code.ErrorContentKindInvalid)
	}

	text := sanitize(params.Text)
	c := &domain.Content{
		Kind:   kind,
		ItemID: params.ItemID,
		Owner:  params.Owner,
		Ledger: *revision.NewLedger[string, string](text),
	}
	if err := s.engine.Record(&c.Ledger, text, params.Owner); err != nil {
		return nil, codeError(err, code.ErrorContentCreateFailed)
	}

	created, err := repo.Create(ctx, c)
	if err != nil {
		return nil, codeError(err, code.ErrorContentCreateFailed)
	}

	s.logger.Info("content created",
		zap.String(logger.FieldKind, string(kind)),
		zap.Int64(logger.FieldContentID, created.ID),
		zap.Int64(logger.FieldItemID, created.ItemID))
	out, err := contentToDTO(created)
	if err != nil {
		return nil, codeError(err, code.ErrorServerInternal)
	}
	return out, nil
}

func (s *contentService) Get(ctx context.Context, kind domain.Kind, id int64) (*dto.ContentDTO, error) {
	repo, err := s.repos.For(kind)
	if err != nil {
		return nil, codeError(err, code.ErrorContentKindInvalid)
	}
	c, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, codeError(err, code.ErrorDBQuery)
	}
	out, err := contentToDTO(c)
	if err != nil {
		return nil, codeError(err, code.ErrorServerInternal)
	}
	return out, nil
}

// Update runs load, record and save inside the content's write queue.
// Update 在内容的写队列中完成读取、记录、保存
func (s *contentService) Update(ctx context.Context, kind domain.Kind, params *dto.ContentUpdateRequest) (*dto.ContentDTO, error) {
	repo, err := s.repos.For(kind)
	if err != nil {
		return nil, codeError(err, code.ErrorContentKindInvalid)
	}

	start := time.Now()
	var updated *domain.Content
	err = s.queue.Execute(ctx, domain.ContentKey(kind, params.ID), func() error {
		c, err := repo.GetByID(ctx, params.ID)
		if err != nil {
			return err
		}
		if err := s.engine.Record(&c.Ledger, sanitize(params.Text), params.Author); err != nil {
			return err
		}
		if err := repo.Save(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		s.logger.Warn("content update failed",
			zap.String(logger.FieldKind, string(kind)),
			zap.Int64(logger.FieldContentID, params.ID),
			zap.String(logger.FieldAuthor, params.Author),
			zap.Error(err))
		return nil, codeError(err, code.ErrorContentUpdateFailed)
	}

	s.logger.Debug("content updated",
		zap.String(logger.FieldKind, string(kind)),
		zap.Int64(logger.FieldContentID, updated.ID),
		zap.Int64(logger.FieldRevisionID, updated.Ledger.LastID()),
		zap.Duration(logger.FieldDuration, time.Since(start)))
	out, err := contentToDTO(updated)
	if err != nil {
		return nil, codeError(err, code.ErrorServerInternal)
	}
	return out, nil
}

func (s *contentService) Delete(ctx context.Context, kind domain.Kind, id int64) error {
	repo, err := s.repos.For(kind)
	if err != nil {
		return codeError(err, code.ErrorContentKindInvalid)
	}
	err = s.queue.Execute(ctx, domain.ContentKey(kind, id), func() error {
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return codeError(err, code.ErrorContentDeleteFailed)
	}
	s.logger.Info("content deleted", zap.String(logger.FieldKind, string(kind)), zap.Int64(logger.FieldContentID, id))
	return nil
}

func (s *contentService) List(ctx context.Context, kind domain.Kind, itemID int64, page, pageSize int) ([]*dto.ContentNoTextDTO, int64, error) {
	repo, err := s.repos.For(kind)
	if err != nil {
		return nil, 0, codeError(err, code.ErrorContentKindInvalid)
	}
	list, total, err := repo.ListByItem(ctx, itemID, page, pageSize)
	if err != nil {
		return nil, 0, codeError(err, code.ErrorDBQuery)
	}
	out := make([]*dto.ContentNoTextDTO, 0, len(list))
	for _, c := range list {
		item, err := contentToNoTextDTO(c)
		if err != nil {
			return nil, 0, codeError(err, code.ErrorServerInternal)
		}
		out = append(out, item)
	}
	return out, total, nil
}
