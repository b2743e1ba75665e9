// Package breaker 封装 sony/gobreaker，统一熔断器的日志与指标。
package breaker

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/moodkit/logging"
	"github.com/rushteam/moodkit/metrics"
)

// Config 是熔断器配置。
type Config struct {
	// MaxRequests 半开状态允许的并发请求数
	MaxRequests uint32 `koanf:"max_requests"`

	// Interval 关闭状态下计数清零的周期
	Interval time.Duration `koanf:"interval"`

	// Timeout 打开状态持续多久后进入半开
	Timeout time.Duration `koanf:"timeout"`

	// FailureThreshold 连续失败多少次后打开
	FailureThreshold uint32 `koanf:"failure_threshold"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// Breaker 是带日志与指标的熔断器。
type Breaker[T any] struct {
	name string
	cb   *gobreaker.CircuitBreaker[T]
}

// New 创建熔断器。cfg 中的零值使用默认配置。
func New[T any](name string, cfg Config) *Breaker[T] {
	def := DefaultConfig()
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = def.MaxRequests
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}

	log := logging.Component("breaker")
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return &Breaker[T]{
		name: name,
		cb: gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
			Name:        name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
				metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			},
		}),
	}
}

// Name 返回熔断器名称。
func (b *Breaker[T]) Name() string { return b.name }

// State 返回当前状态。
func (b *Breaker[T]) State() gobreaker.State { return b.cb.State() }

// Execute 在熔断保护下执行 fn。
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case IsRejected(err):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return res, err
}

// IsRejected 报告 err 是否为熔断器拒绝（打开或半开超额）。
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
