package task

import (
	"context"

	"github.com/haierkeys/content-revision-service/internal/app"
	"github.com/haierkeys/content-revision-service/internal/domain"
	"github.com/haierkeys/content-revision-service/pkg/logger"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// LedgerAuditTask 定期校验所有内容的版本账本
type LedgerAuditTask struct {
	app      *app.App
	schedule cron.Schedule
}

func init() {
	Register(NewLedgerAuditTask)
}

// NewLedgerAuditTask returns nil when the audit cron is disabled
func NewLedgerAuditTask(a *app.App) (Task, error) {
	cfg := a.Config().Revision
	if !cfg.AuditEnabled() {
		a.Logger().Info("ledger audit task is disabled")
		return nil, nil
	}
	schedule, err := cron.ParseStandard(cfg.AuditCron)
	if err != nil {
		return nil, errors.Wrapf(err, "parse audit-cron %q", cfg.AuditCron)
	}
	return &LedgerAuditTask{app: a, schedule: schedule}, nil
}

func (t *LedgerAuditTask) Name() string { return "LedgerAudit" }

func (t *LedgerAuditTask) Schedule() cron.Schedule { return t.schedule }

func (t *LedgerAuditTask) IsStartupRun() bool { return false }

// Run 逐个类型巡检，单个类型失败不影响其它类型
func (t *LedgerAuditTask) Run(ctx context.Context) error {
	if t.app.IsShuttingDown() {
		return nil
	}
	finish := t.app.TrackOperation()
	defer finish()

	var firstErr error
	for _, kind := range domain.Kinds {
		report, err := t.app.RevisionService.VerifyAll(ctx, kind)
		if err != nil {
			t.app.Logger().Error("task log",
				zap.String("task", t.Name()),
				zap.String(logger.FieldKind, string(kind)),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		fields := []zap.Field{
			zap.String("task", t.Name()),
			zap.String(logger.FieldKind, string(kind)),
			zap.Int("checked", report.Checked),
			zap.Int("corrupt", len(report.Corrupt)),
		}
		if len(report.Corrupt) > 0 {
			t.app.Logger().Warn("ledger audit found corrupt ledgers", append(fields, zap.Int64s("ids", report.Corrupt))...)
		} else {
			t.app.Logger().Info("ledger audit done", fields...)
		}
	}
	return firstErr
}
