package task

import (
	"context"

	"github.com/haierkeys/content-revision-service/internal/app"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// BadgerGCTask 定期回收 badger value log
type BadgerGCTask struct {
	app          *app.App
	schedule     cron.Schedule
	discardRatio float64
}

func init() {
	Register(NewBadgerGCTask)
}

// NewBadgerGCTask returns nil unless the badger store is in use and gc-cron is set
func NewBadgerGCTask(a *app.App) (Task, error) {
	cfg := a.Config().Badger
	if a.Badger == nil || !cfg.GCEnabled() {
		return nil, nil
	}
	schedule, err := cron.ParseStandard(cfg.GCCron)
	if err != nil {
		return nil, errors.Wrapf(err, "parse gc-cron %q", cfg.GCCron)
	}
	return &BadgerGCTask{app: a, schedule: schedule, discardRatio: cfg.GCDiscardRatio}, nil
}

func (t *BadgerGCTask) Name() string { return "BadgerGC" }

func (t *BadgerGCTask) Schedule() cron.Schedule { return t.schedule }

func (t *BadgerGCTask) IsStartupRun() bool { return false }

func (t *BadgerGCTask) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	finish := t.app.TrackOperation()
	defer finish()
	return t.app.Badger.RunGC(t.discardRatio)
}
