package service

import (
	"context"
	"errors"

	"github.com/haierkeys/content-revision-service/internal/domain"
	"github.com/haierkeys/content-revision-service/pkg/code"
	"github.com/haierkeys/content-revision-service/pkg/revision"
	"github.com/haierkeys/content-revision-service/pkg/workerpool"
	"github.com/haierkeys/content-revision-service/pkg/writequeue"
)

// codeError maps a storage, engine or queue error to a response code.
// fallback is used for anything unrecognised and carries err as detail.
//
// codeError 将存储、引擎、队列错误转换为响应码
func codeError(err error, fallback *code.Code) error {
	if err == nil {
		return nil
	}
	var c *code.Code
	switch {
	case errors.As(err, &c):
		return c
	case errors.Is(err, domain.ErrContentNotFound):
		return code.ErrorContentNotFound
	case errors.Is(err, domain.ErrUnknownKind):
		return code.ErrorContentKindInvalid
	case errors.Is(err, revision.ErrRevisionNotFound):
		return code.ErrorRevisionNotFound
	case errors.Is(err, revision.ErrInvariantViolation):
		return code.ErrorRevisionCorrupted.WithDetails(err.Error())
	case errors.Is(err, writequeue.ErrWriteQueueFull),
		errors.Is(err, writequeue.ErrWriteTimeout),
		errors.Is(err, workerpool.ErrWorkerPoolFull):
		return code.ErrorContentBusy
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return code.ErrorRequestTimeout
	}
	return fallback.WithDetails(err.Error())
}
