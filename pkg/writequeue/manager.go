// Package writequeue provides a per-key write queue.
// All operations submitted under one key run one at a time in FIFO order,
// which gives every content its own single writer.
//
// Package writequeue 提供按键串行的写队列，同一个键的写操作按 FIFO 顺序逐个执行
package writequeue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrWriteQueueFull 键对应的写队列已满
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed 写队列管理器已关闭
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout 等待写操作结果超时
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config 写队列配置
type Config struct {
	// QueueCapacity 每个键最多排队的操作数，默认 100
	QueueCapacity int
	// WriteTimeout 调用方等待结果的最长时间，默认 30 秒
	WriteTimeout time.Duration
	// IdleTimeout 键的 worker 空闲多久后退出，默认 10 分钟
	IdleTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

const (
	opPending int32 = iota
	opStarted
	opAbandoned
)

// writeOp is claimed exactly once: by the worker (started) or by the
// caller giving up (abandoned). An abandoned op never runs.
type writeOp struct {
	ctx    context.Context
	fn     func() error
	result chan error
	state  *atomic.Int32
}

// keyQueue is owned by one worker goroutine. Sends and the worker's
// empty-then-remove check both happen under Manager.mu, so no op is
// accepted into a queue whose worker has already left.
type keyQueue struct {
	key string
	ch  chan writeOp
}

// Manager 管理所有键的写队列，每个活跃的键有一个 worker
type Manager struct {
	config Config
	logger *zap.Logger

	mu     sync.Mutex
	queues map[string]*keyQueue
	closed bool

	stopCh   chan struct{}
	workerWg sync.WaitGroup

	executed atomic.Int64
	rejected atomic.Int64
}

// New 创建写队列管理器，cfg 为 nil 时使用默认配置
func New(cfg *Config, logger *zap.Logger) *Manager {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.QueueCapacity > 0 {
			c.QueueCapacity = cfg.QueueCapacity
		}
		if cfg.WriteTimeout > 0 {
			c.WriteTimeout = cfg.WriteTimeout
		}
		if cfg.IdleTimeout > 0 {
			c.IdleTimeout = cfg.IdleTimeout
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		config: c,
		logger: logger,
		queues: make(map[string]*keyQueue),
		stopCh: make(chan struct{}),
	}

	m.logger.Info("write queue manager started",
		zap.Int("queueCapacity", c.QueueCapacity),
		zap.Duration("writeTimeout", c.WriteTimeout),
		zap.Duration("idleTimeout", c.IdleTimeout))

	return m
}

// enqueue puts op on the queue of key, starting its worker if needed
func (m *Manager) enqueue(key string, op writeOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrWriteQueueClosed
	}

	q, ok := m.queues[key]
	if !ok {
		q = &keyQueue{key: key, ch: make(chan writeOp, m.config.QueueCapacity)}
		m.queues[key] = q
		m.workerWg.Add(1)
		go m.worker(q)
		m.logger.Debug("created write queue", zap.String("key", key))
	}

	select {
	case q.ch <- op:
		return nil
	default:
		m.rejected.Add(1)
		return ErrWriteQueueFull
	}
}

// Execute runs fn on the queue of key and waits for its result.
// Operations of the same key never overlap and run in submission order.
// When ctx ends or the write timeout passes before fn starts, fn is dropped
// and never runs; once fn has started, Execute waits for its result.
//
// Execute 在 key 对应的队列上执行 fn 并等待结果
// 超时或取消时尚未开始的操作会被丢弃，已开始的操作会等待其完成
func (m *Manager) Execute(ctx context.Context, key string, fn func() error) error {
	op := writeOp{ctx: ctx, fn: fn, result: make(chan error, 1), state: new(atomic.Int32)}
	if err := m.enqueue(key, op); err != nil {
		return err
	}

	timer := time.NewTimer(m.config.WriteTimeout)
	defer timer.Stop()

	var giveUp error
	select {
	case err := <-op.result:
		return err
	case <-ctx.Done():
		giveUp = ctx.Err()
	case <-timer.C:
		giveUp = ErrWriteTimeout
	}

	if op.state.CompareAndSwap(opPending, opAbandoned) {
		return giveUp
	}
	// 已开始执行，结果以实际执行为准
	return <-op.result
}

func (m *Manager) worker(q *keyQueue) {
	defer m.workerWg.Done()

	idle := time.NewTimer(m.config.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case op := <-q.ch:
			m.run(op)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(m.config.IdleTimeout)

		case <-idle.C:
			if m.retire(q) {
				return
			}
			idle.Reset(m.config.IdleTimeout)

		case <-m.stopCh:
			// 关闭时执行完已排队的操作
			for {
				select {
				case op := <-q.ch:
					m.run(op)
				default:
					return
				}
			}
		}
	}
}

// retire removes q when nothing is queued, reporting whether the worker may exit
func (m *Manager) retire(q *keyQueue) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(q.ch) > 0 || m.closed {
		return false
	}
	delete(m.queues, q.key)
	m.logger.Debug("idle write queue removed", zap.String("key", q.key))
	return true
}

func (m *Manager) run(op writeOp) {
	// 调用方已放弃等待的操作不再执行
	if !op.state.CompareAndSwap(opPending, opStarted) {
		m.logger.Debug("skipped abandoned write operation")
		return
	}
	if err := op.ctx.Err(); err != nil {
		op.result <- err
		return
	}
	op.result <- op.fn()
	m.executed.Add(1)
}

// Shutdown rejects new operations, lets queued ones finish and waits for the
// workers until ctx is done.
//
// Shutdown 关闭写队列管理器并等待已排队的操作完成
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.stopCh)
	m.mu.Unlock()

	m.logger.Info("write queue manager shutting down")

	done := make(chan struct{})
	go func() {
		m.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("write queue manager shutdown completed")
		return nil
	case <-ctx.Done():
		m.logger.Warn("write queue manager shutdown timeout")
		return ctx.Err()
	}
}

// QueueCount 返回当前存在的键队列数量
func (m *Manager) QueueCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues)
}

// QueuedCount 返回指定键队列中等待的操作数
func (m *Manager) QueuedCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.queues[key]; ok {
		return len(q.ch)
	}
	return 0
}

// IsClosed 返回管理器是否已关闭
func (m *Manager) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Metrics 写队列管理器指标
type Metrics struct {
	QueueCapacity int
	ActiveQueues  int
	Executed      int64
	Rejected      int64
	IsClosed      bool
}

// GetMetrics 获取当前指标
func (m *Manager) GetMetrics() Metrics {
	m.mu.Lock()
	active, closed := len(m.queues), m.closed
	m.mu.Unlock()

	return Metrics{
		QueueCapacity: m.config.QueueCapacity,
		ActiveQueues:  active,
		Executed:      m.executed.Load(),
		Rejected:      m.rejected.Load(),
		IsClosed:      closed,
	}
}
