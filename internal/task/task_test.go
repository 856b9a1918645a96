package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/content-revision-service/internal/app"
	"github.com/haierkeys/content-revision-service/internal/domain"
	"github.com/haierkeys/content-revision-service/internal/dto"
	"github.com/haierkeys/content-revision-service/pkg/safe_close"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type every time.Duration

func (e every) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }

type countingTask struct {
	runs     atomic.Int32
	schedule cron.Schedule
	startup  bool
	err      error
	panics   bool
}

func (c *countingTask) Name() string            { return "counting" }
func (c *countingTask) Schedule() cron.Schedule { return c.schedule }
func (c *countingTask) IsStartupRun() bool      { return c.startup }

func (c *countingTask) Run(context.Context) error {
	c.runs.Add(1)
	if c.panics {
		panic("task exploded")
	}
	return c.err
}

func TestScheduler_RunsOnScheduleUntilClosed(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)
	task := &countingTask{schedule: every(5 * time.Millisecond), err: errors.New("keeps going")}
	s.AddTask(task)
	s.Start()

	require.Eventually(t, func() bool { return task.runs.Load() >= 3 }, 2*time.Second, time.Millisecond)

	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())
	stopped := task.runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, task.runs.Load())
}

func TestScheduler_StartupRunSurvivesPanic(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)
	task := &countingTask{startup: true, panics: true}
	s.AddTask(task)
	s.Start()

	// no schedule, so the part exits after the startup run
	require.NoError(t, sc.WaitClosed())
	assert.Equal(t, int32(1), task.runs.Load())
}

func newTestApp(t *testing.T, mutate func(*app.AppConfig)) *app.App {
	t.Helper()
	cfg, err := app.DefaultConfig()
	require.NoError(t, err)
	cfg.Database.Type = "badger"
	cfg.Badger.InMemory = true
	if mutate != nil {
		mutate(cfg)
	}
	a, err := app.NewApp(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func TestNewLedgerAuditTask(t *testing.T) {
	a := newTestApp(t, func(c *app.AppConfig) { c.Revision.AuditCron = "off" })
	task, err := NewLedgerAuditTask(a)
	require.NoError(t, err)
	assert.Nil(t, task)

	a = newTestApp(t, func(c *app.AppConfig) { c.Revision.AuditCron = "not a cron" })
	_, err = NewLedgerAuditTask(a)
	assert.Error(t, err)
}

func TestLedgerAuditTask_Run(t *testing.T) {
	a := newTestApp(t, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := a.ContentService.Create(ctx, domain.KindNote, &dto.ContentCreateRequest{ItemID: 1, Owner: "alice", Text: "hello"})
		require.NoError(t, err)
	}

	task, err := NewLedgerAuditTask(a)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "LedgerAudit", task.Name())
	assert.False(t, task.IsStartupRun())

	next := task.Schedule().Next(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local))
	assert.Equal(t, time.Date(2024, 1, 1, 3, 0, 0, 0, time.Local), next)

	assert.NoError(t, task.Run(ctx))
}

func TestBadgerGCTask(t *testing.T) {
	a := newTestApp(t, nil)
	task, err := NewBadgerGCTask(a)
	require.NoError(t, err)
	require.NotNil(t, task)
	// in-memory badger has no value log to collect
	assert.NoError(t, task.Run(context.Background()))

	a = newTestApp(t, func(c *app.AppConfig) { c.Badger.GCCron = "" })
	task, err = NewBadgerGCTask(a)
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestManager_RegisterTasks(t *testing.T) {
	a := newTestApp(t, nil)
	m := NewManager(a, safe_close.NewSafeClose())
	require.NoError(t, m.RegisterTasks())

	names := map[string]bool{}
	for _, task := range m.scheduler.Tasks() {
		names[task.Name()] = true
	}
	assert.True(t, names["LedgerAudit"])
	assert.True(t, names["BadgerGC"])
}
