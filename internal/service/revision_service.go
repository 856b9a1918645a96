package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/haierkeys/content-revision-service/internal/domain"
	"github.com/haierkeys/content-revision-service/internal/dto"
	"github.com/haierkeys/content-revision-service/pkg/code"
	"github.com/haierkeys/content-revision-service/pkg/logger"
	"github.com/haierkeys/content-revision-service/pkg/workerpool"
	"github.com/haierkeys/content-revision-service/pkg/writequeue"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RevisionService defines the revision history business service interface
// RevisionService 定义版本历史业务服务接口
type RevisionService interface {
	// List returns revision metadata of a content, newest first
	// List 获取内容的版本元信息，最新在前
	List(ctx context.Context, kind domain.Kind, id int64, page, pageSize int) ([]*dto.RevisionDTO, int64, error)

	// Get reconstructs the text right after the given revision
	// Get 重建指定版本应用后的文本
	Get(ctx context.Context, kind domain.Kind, id int64, revisionID int64) (*dto.RevisionTextDTO, error)

	// Restore records the text of a historical revision as a new revision
	// Restore 将历史版本的文本记录为新版本
	Restore(ctx context.Context, kind domain.Kind, params *dto.RevisionRestoreRequest) (*dto.ContentDTO, error)

	// Verify replays the ledger of one content
	// Verify 完整回放单个内容的账本
	Verify(ctx context.Context, kind domain.Kind, id int64) error

	// VerifyAll replays every ledger of a kind on the worker pool
	// VerifyAll 使用 Worker Pool 回放某类型的全部账本
	VerifyAll(ctx context.Context, kind domain.Kind) (*dto.VerifyReportDTO, error)
}

// revisionService implementation of RevisionService interface
// revisionService 实现 RevisionService 接口
type revisionService struct {
	repos  domain.ContentRepositories
	engine *TextEngine
	queue  *writequeue.Manager
	pool   *workerpool.Pool
	sf     *singleflight.Group // Coalesces identical history reads // 合并相同的历史读取
	logger *zap.Logger
	config *ServiceConfig
}

// NewRevisionService creates RevisionService instance
// NewRevisionService 创建 RevisionService 实例
func NewRevisionService(repos domain.ContentRepositories, engine *TextEngine, queue *writequeue.Manager, pool *workerpool.Pool, lg *zap.Logger, config *ServiceConfig) RevisionService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &revisionService{
		repos:  repos,
		engine: engine,
		queue:  queue,
		pool:   pool,
		sf:     &singleflight.Group{},
		logger: lg,
		config: config,
	}
}

func (s *revisionService) List(ctx context.Context, kind domain.Kind, id int64, page, pageSize int) ([]*dto.RevisionDTO, int64, error) {
	repo, err := s.repos.For(kind)
	if err != nil {
		return nil, 0, codeError(err, code.ErrorContentKindInvalid)
	}
	c, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, 0, codeError(err, code.ErrorDBQuery)
	}

	metas := s.engine.List(&c.Ledger)
	total := int64(len(metas))
	if page < 1 {
		page = 1
	}
	start := min((page-1)*pageSize, len(metas))
	end := min(start+pageSize, len(metas))

	out := make([]*dto.RevisionDTO, 0, end-start)
	for _, m := range metas[start:end] {
		d := metaToDTO(m)
		out = append(out, &d)
	}
	return out, total, nil
}

func (s *revisionService) Get(ctx context.Context, kind domain.Kind, id int64, revisionID int64) (*dto.RevisionTextDTO, error) {
	repo, err := s.repos.For(kind)
	if err != nil {
		return nil, codeError(err, code.ErrorContentKindInvalid)
	}

	key := fmt.Sprintf("%s:%d", domain.ContentKey(kind, id), revisionID)
	// 合并的调用方共享同一次加载，不随首个调用方取消
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		c, err := repo.GetByID(shared, id)
		if err != nil {
			return nil, err
		}
		rec, err := s.engine.Reconstruct(&c.Ledger, revisionID)
		if err != nil {
			return nil, err
		}
		return &dto.RevisionTextDTO{
			RevisionDTO: metaToDTO(rec.Meta),
			ContentID:   c.ID,
			Kind:        string(kind),
			Text:        rec.Text,
			Latest:      rec.ID == c.Ledger.LastID(),
		}, nil
	})
	if err != nil {
		return nil, codeError(err, code.ErrorDBQuery)
	}

	// singleflight shares the value between callers
	out := *v.(*dto.RevisionTextDTO)
	return &out, nil
}

func (s *revisionService) Restore(ctx context.Context, kind domain.Kind, params *dto.RevisionRestoreRequest) (*dto.ContentDTO, error) {
	repo, err := s.repos.For(kind)
	if err != nil {
		return nil, codeError(err, code.ErrorContentKindInvalid)
	}

	var restored *domain.Content
	err = s.queue.Execute(ctx, domain.ContentKey(kind, params.ID), func() error {
		c, err := repo.GetByID(ctx, params.ID)
		if err != nil {
			return err
		}
		rec, err := s.engine.Reconstruct(&c.Ledger, params.RevisionID)
		if err != nil {
			return err
		}
		if err := s.engine.Record(&c.Ledger, rec.Text, params.Author); err != nil {
			return err
		}
		if err := repo.Save(ctx, c); err != nil {
			return err
		}
		restored = c
		return nil
	})
	if err != nil {
		return nil, codeError(err, code.ErrorContentUpdateFailed)
	}

	s.logger.Info("revision restored",
		zap.String(logger.FieldKind, string(kind)),
		zap.Int64(logger.FieldContentID, params.ID),
		zap.Int64(logger.FieldRevisionID, params.RevisionID),
		zap.String(logger.FieldAuthor, params.Author))
	out, err := contentToDTO(restored)
	if err != nil {
		return nil, codeError(err, code.ErrorServerInternal)
	}
	return out, nil
}

func (s *revisionService) Verify(ctx context.Context, kind domain.Kind, id int64) error {
	repo, err := s.repos.For(kind)
	if err != nil {
		return codeError(err, code.ErrorContentKindInvalid)
	}
	if err := s.verifyOne(ctx, repo, id); err != nil {
		return codeError(err, code.ErrorRevisionCorrupted)
	}
	return nil
}

// verifyOne 校验单个内容，账本解码失败同样视为损坏
func (s *revisionService) verifyOne(ctx context.Context, repo domain.ContentRepository, id int64) error {
	c, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.engine.Verify(&c.Ledger)
}

func (s *revisionService) VerifyAll(ctx context.Context, kind domain.Kind) (*dto.VerifyReportDTO, error) {
	repo, err := s.repos.For(kind)
	if err != nil {
		return nil, codeError(err, code.ErrorContentKindInvalid)
	}

	report := &dto.VerifyReportDTO{Kind: string(kind), Corrupt: []int64{}}
	var afterID int64
	for {
		ids, err := repo.ListIDs(ctx, afterID, s.config.auditBatchSize())
		if err != nil {
			return nil, codeError(err, code.ErrorDBQuery)
		}
		if len(ids) == 0 {
			break
		}
		afterID = ids[len(ids)-1]

		fns := make([]func(context.Context) error, len(ids))
		for i, id := range ids {
			fns[i] = func(ctx context.Context) error {
				return s.verifyOne(ctx, repo, id)
			}
		}

		for i, err := range s.pool.SubmitAll(ctx, fns) {
			switch {
			case err == nil:
				report.Checked++
			case errors.Is(err, domain.ErrContentNotFound):
				// deleted while auditing
			case errors.Is(err, workerpool.ErrWorkerPoolFull),
				errors.Is(err, workerpool.ErrWorkerPoolClosed),
				errors.Is(err, workerpool.ErrTaskCancelled),
				errors.Is(err, context.Canceled),
				errors.Is(err, context.DeadlineExceeded):
				return report, codeError(err, code.ErrorServerInternal)
			default:
				report.Checked++
				report.Corrupt = append(report.Corrupt, ids[i])
				s.logger.Warn("ledger verification failed",
					zap.String(logger.FieldKind, string(kind)),
					zap.Int64(logger.FieldContentID, ids[i]),
					zap.Error(err))
			}
		}
	}

	s.logger.Info("ledger audit finished",
		zap.String(logger.FieldKind, string(kind)),
		zap.Int("checked", report.Checked),
		zap.Int("corrupt", len(report.Corrupt)))
	return report, nil
}
