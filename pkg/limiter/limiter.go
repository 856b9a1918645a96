// Package limiter provides token bucket rate limiting for gin routes.
// Package limiter 基于令牌桶的接口限流
package limiter

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// Face rate limiter abstraction used by the middleware
// Face 限流器接口
type Face interface {
	Key(c *gin.Context) string
	GetBucket(key string) (*ratelimit.Bucket, bool)
	AddBuckets(rules ...BucketRule) Face
}

// BucketRule token bucket rule of one key
// BucketRule 单个键的令牌桶规则
type BucketRule struct {
	Key          string        // Route key, e.g. "PUT /api/:kind/content" // 路由键
	FillInterval time.Duration // Interval between refills // 放入令牌的间隔
	Capacity     int64         // Bucket capacity // 桶容量
	Quantum      int64         // Tokens added per interval // 每次放入的令牌数
}

// MethodLimiter limits by HTTP method plus route pattern
// MethodLimiter 按 HTTP 方法和路由模板限流
type MethodLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*ratelimit.Bucket
}

func NewMethodLimiter() *MethodLimiter {
	return &MethodLimiter{buckets: make(map[string]*ratelimit.Bucket)}
}

// Key returns "METHOD /route/pattern"; unmatched routes fall back to the raw path.
func (l *MethodLimiter) Key(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
		if i := strings.Index(route, "?"); i >= 0 {
			route = route[:i]
		}
	}
	return c.Request.Method + " " + route
}

func (l *MethodLimiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	bucket, ok := l.buckets[key]
	return bucket, ok
}

// AddBuckets registers rules; an existing key keeps its bucket.
// AddBuckets 注册规则，已存在的键保持原有令牌桶
func (l *MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rule := range rules {
		if _, ok := l.buckets[rule.Key]; ok {
			continue
		}
		quantum := rule.Quantum
		if quantum <= 0 {
			quantum = 1
		}
		l.buckets[rule.Key] = ratelimit.NewBucketWithQuantum(rule.FillInterval, rule.Capacity, quantum)
	}
	return l
}

var _ Face = (*MethodLimiter)(nil)
