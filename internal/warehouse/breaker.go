package warehouse

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"geo-heatmap/internal/logger"
	"geo-heatmap/internal/metrics"
)

const breakerName = "warehouse"

// BreakerSettings：熔断参数
// 约束：连续失败达到 MaxFailures 后打开，Cooldown 后进入半开放行 1 个探测请求
type BreakerSettings struct {
	MaxFailures uint32
	Cooldown    time.Duration
}

func newBreaker(s BreakerSettings) *gobreaker.CircuitBreaker[[]Row] {
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	if s.Cooldown <= 0 {
		s.Cooldown = 30 * time.Second
	}
	metrics.BreakerState.WithLabelValues(breakerName).Set(0)
	return gobreaker.NewCircuitBreaker[[]Row](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= s.MaxFailures
		},
		// 客户端断开导致的取消不计入数仓失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.L().Warn("warehouse_breaker_state", "name", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}
