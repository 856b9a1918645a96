// Package metrics exposes revision engine and queue metrics to Prometheus.
// Package metrics 版本引擎与队列的 Prometheus 指标
package metrics

import (
	"github.com/haierkeys/content-revision-service/pkg/revision"
	"github.com/haierkeys/content-revision-service/pkg/workerpool"
	"github.com/haierkeys/content-revision-service/pkg/writequeue"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "content_revision"

// EngineMetrics implements revision.Observer
// EngineMetrics 实现 revision.Observer
type EngineMetrics struct {
	recorded      prometheus.Counter
	compacted     prometheus.Counter
	reconstructed *prometheus.CounterVec
	replayed      prometheus.Histogram
	violations    *prometheus.CounterVec
}

var _ revision.Observer = (*EngineMetrics)(nil)

// NewEngineMetrics registers engine metrics on reg
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	f := promauto.With(reg)
	return &EngineMetrics{
		recorded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revisions_recorded_total",
			Help:      "Revisions appended to ledgers.",
		}),
		compacted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revisions_compacted_total",
			Help:      "Oldest revisions folded into the base text.",
		}),
		reconstructed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconstructions_total",
			Help:      "Historical revisions reconstructed, by path.",
		}, []string{"path"}),
		replayed: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconstruction_replayed_patches",
			Help:      "Patches applied per replayed reconstruction.",
			Buckets:   prometheus.LinearBuckets(1, 2, 10),
		}),
		violations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invariant_violations_total",
			Help:      "Ledger invariant violations, by operation.",
		}, []string{"op"}),
	}
}

func (m *EngineMetrics) Recorded(compacted int) {
	m.recorded.Inc()
	m.compacted.Add(float64(compacted))
}

func (m *EngineMetrics) Reconstructed(fastPath bool, replayed int) {
	if fastPath {
		m.reconstructed.WithLabelValues("fast").Inc()
		return
	}
	m.reconstructed.WithLabelValues("replay").Inc()
	m.replayed.Observe(float64(replayed))
}

func (m *EngineMetrics) Violation(op string) {
	m.violations.WithLabelValues(op).Inc()
}

// RegisterQueues exposes write queue and worker pool gauges
// RegisterQueues 注册写队列与 Worker Pool 指标
func RegisterQueues(reg prometheus.Registerer, wq *writequeue.Manager, pool *workerpool.Pool) {
	f := promauto.With(reg)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "write_queues",
		Help:      "Live per-content write queues.",
	}, func() float64 { return float64(wq.GetMetrics().ActiveQueues) })
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "write_queue_rejected_total",
		Help:      "Writes rejected because the content's queue was full.",
	}, func() float64 { return float64(wq.GetMetrics().Rejected) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "worker_pool_active",
		Help:      "Running worker pool tasks.",
	}, func() float64 { return float64(pool.ActiveCount()) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "worker_pool_queued",
		Help:      "Queued worker pool tasks.",
	}, func() float64 { return float64(pool.QueuedCount()) })
}
