package revision

import (
	"time"

	"go.uber.org/zap"
)

// DefaultMaxRevisions default retention window
// DefaultMaxRevisions 默认保留版本数
const DefaultMaxRevisions = 10

// Observer receives engine events, used for metrics.
// Observer 接收引擎事件，用于指标统计
type Observer interface {
	// Recorded is called after a successful Record. compacted is the number of folded revisions.
	Recorded(compacted int)
	// Reconstructed is called after a successful Reconstruct. replayed is the number of applied patches.
	Reconstructed(fastPath bool, replayed int)
	// Violation is called for every invariant violation.
	Violation(op string)
}

type nopObserver struct{}

func (nopObserver) Recorded(int)            {}
func (nopObserver) Reconstructed(bool, int) {}
func (nopObserver) Violation(string)        {}

type options struct {
	maxRevisions int
	now          func() time.Time
	logger       *zap.Logger
	observer     Observer
}

// Option configures an Engine.
type Option func(*options)

// WithMaxRevisions sets the retention window. Values below 1 fall back to DefaultMaxRevisions.
// WithMaxRevisions 设置保留版本数上限
func WithMaxRevisions(n int) Option {
	return func(o *options) {
		o.maxRevisions = n
	}
}

// WithClock sets the time source used for revision timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets the logger used to report invariant violations.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver sets the event observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// Engine records and reconstructs revisions of ledgers.
// It holds no per-ledger state and is safe for concurrent use; callers must
// serialize Record calls on the same ledger.
//
// Engine 负责记录与重建版本，本身无状态，可并发使用；
// 同一账本的 Record 调用需要调用方串行化
type Engine[T comparable, P any] struct {
	patcher      Patcher[T, P]
	maxRevisions int
	now          func() time.Time
	logger       *zap.Logger
	observer     Observer
}

// NewEngine creates an engine around the given patcher.
// NewEngine 创建版本引擎
func NewEngine[T comparable, P any](patcher Patcher[T, P], opts ...Option) *Engine[T, P] {
	o := options{
		maxRevisions: DefaultMaxRevisions,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxRevisions < 1 {
		o.maxRevisions = DefaultMaxRevisions
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	return &Engine[T, P]{
		patcher:      patcher,
		maxRevisions: o.maxRevisions,
		now:          o.now,
		logger:       o.logger,
		observer:     o.observer,
	}
}

// MaxRevisions returns the retention window.
func (e *Engine[T, P]) MaxRevisions() int {
	return e.maxRevisions
}

// Record appends a revision turning the current text into newText.
// When the ledger is full the oldest revision is folded into the base first.
// On error the ledger is left untouched.
//
// Record 追加一个版本，将当前文本变为 newText
// 账本已满时先把最早的版本合并进基础快照；出错时账本保持不变
func (e *Engine[T, P]) Record(l *Ledger[T, P], newText T, author string) error {
	if l == nil {
		return ErrNilLedger
	}

	oldText := l.Current
	base := l.Base
	revs := l.Revisions

	var nextID int64 = 1
	if len(revs) == 0 {
		base = oldText
	} else {
		nextID = revs[len(revs)-1].ID + 1
	}

	// A lowered window may leave more than one revision to fold.
	// 上限被调低时可能需要合并多个版本
	compacted := 0
	for len(revs) > 0 && len(revs) >= e.maxRevisions {
		head := revs[0]
		folded, err := e.patcher.Apply(base, head.Patch)
		if err != nil {
			return e.violation("record", head.ID, "fold oldest revision into base", err)
		}
		base = folded
		revs = revs[1:]
		compacted++
	}

	patch, err := e.patcher.Diff(oldText, newText)
	if err != nil {
		return e.violation("record", nextID, "compute patch", err)
	}

	next := make([]Revision[P], len(revs), len(revs)+1)
	copy(next, revs)
	next = append(next, Revision[P]{
		ID:        nextID,
		Patch:     patch,
		CreatedAt: e.now().UnixMilli(),
		Author:    author,
	})

	l.Base = base
	l.Revisions = next
	l.Current = newText

	e.observer.Recorded(compacted)
	return nil
}

// Reconstruct returns the text right after revision id was applied.
// The newest revision is served from the current text without replay.
//
// Reconstruct 返回指定版本应用后的文本，最新版本直接返回当前文本
func (e *Engine[T, P]) Reconstruct(l *Ledger[T, P], id int64) (*Reconstructed[T], error) {
	if l == nil {
		return nil, ErrNilLedger
	}
	n := len(l.Revisions)
	if n == 0 || id < l.Revisions[0].ID || id > l.Revisions[n-1].ID {
		return nil, notFound(id)
	}

	last := l.Revisions[n-1]
	if last.ID == id {
		e.observer.Reconstructed(true, 0)
		return &Reconstructed[T]{Meta: metaOf(last), Text: l.Current}, nil
	}

	acc := l.Base
	for i, rev := range l.Revisions {
		text, err := e.patcher.Apply(acc, rev.Patch)
		if err != nil {
			return nil, e.violation("reconstruct", rev.ID, "apply patch", err)
		}
		acc = text
		if rev.ID == id {
			e.observer.Reconstructed(false, i+1)
			return &Reconstructed[T]{Meta: metaOf(rev), Text: acc}, nil
		}
	}

	return nil, e.violation("reconstruct", id, "replay reached the end without the revision", nil)
}

// List returns revision metadata, newest first.
// List 返回版本元信息，最新在前
func (e *Engine[T, P]) List(l *Ledger[T, P]) []Meta {
	if l == nil {
		return nil
	}
	metas := make([]Meta, 0, len(l.Revisions))
	for i := len(l.Revisions) - 1; i >= 0; i-- {
		metas = append(metas, metaOf(l.Revisions[i]))
	}
	return metas
}

// Verify replays the whole ledger and checks that ids are consecutive and
// that the replay ends at the current text.
//
// Verify 完整回放账本，校验版本号连续且回放结果等于当前文本
func (e *Engine[T, P]) Verify(l *Ledger[T, P]) error {
	if l == nil {
		return ErrNilLedger
	}
	if len(l.Revisions) == 0 {
		if l.Base != l.Current {
			return e.violation("verify", 0, "empty ledger with base different from current", nil)
		}
		return nil
	}

	acc := l.Base
	var prev int64
	for i, rev := range l.Revisions {
		if rev.ID < 1 {
			return e.violation("verify", rev.ID, "revision id below 1", nil)
		}
		if i > 0 && rev.ID != prev+1 {
			return e.violation("verify", rev.ID, "revision ids are not consecutive", nil)
		}
		prev = rev.ID

		text, err := e.patcher.Apply(acc, rev.Patch)
		if err != nil {
			return e.violation("verify", rev.ID, "apply patch", err)
		}
		acc = text
	}

	if acc != l.Current {
		return e.violation("verify", prev, "replay does not end at the current text", nil)
	}
	return nil
}

func (e *Engine[T, P]) violation(op string, id int64, reason string, cause error) error {
	err := &InvariantError{Op: op, RevisionID: id, Reason: reason, Err: cause}
	e.logger.Error("revision ledger invariant violated",
		zap.String("op", op),
		zap.Int64("revisionId", id),
		zap.String("reason", reason),
		zap.Error(cause),
		zap.Stack("stack"))
	e.observer.Violation(op)
	return err
}

func metaOf[P any](rev Revision[P]) Meta {
	return Meta{ID: rev.ID, CreatedAt: rev.CreatedAt, Author: rev.Author}
}
