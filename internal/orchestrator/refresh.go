package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"geo-heatmap/internal/logger"
	"geo-heatmap/internal/metrics"
)

// Report：一次刷新的结果
type Report struct {
	Status    string        `json:"status"` // ok | synthetic | failed
	Regions   int           `json:"regions"`
	Prewarmed []string      `json:"prewarmed"`
	Fallbacks int           `json:"fallbacks"`
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration"`
}

// Refresh：拉取全国数据并回写缓存，再按返回顺序预热前 PrewarmLimit 个州的子区域
// 背景：预热数量有上限，避免每轮对数仓做全量扇出；其余州在首次访问时按需回填
// 约束：数仓未配置时只写入 synthetic 全国数据；全国数据回退到占位数据时不做预热
func (o *Orchestrator) Refresh(ctx context.Context) (rep Report) {
	l := logger.L()
	rep = Report{Started: time.Now(), Prewarmed: []string{}}
	defer func() {
		rep.Duration = time.Since(rep.Started)
		metrics.RefreshRunsTotal.WithLabelValues(rep.Status).Inc()
		l.Info("refresh_done", "status", rep.Status, "regions", rep.Regions, "prewarmed", len(rep.Prewarmed), "fallbacks", rep.Fallbacks, "duration_ms", rep.Duration.Milliseconds())
	}()

	l.Info("refresh_start", "prewarm_limit", o.prewarm)
	nation := fill(ctx, o, o.nation())
	rep.Regions = len(nation.Records)
	switch {
	case !o.src.Configured():
		rep.Status = "synthetic"
		return rep
	case nation.Source != FromWarehouse:
		rep.Status = "failed"
		return rep
	}
	rep.Status = "ok"
	for i, r := range nation.Records {
		if i >= o.prewarm {
			break
		}
		if ctx.Err() != nil {
			l.Warn("refresh_cancelled", "after", i)
			break
		}
		res := fill(ctx, o, o.subRegions(r.State))
		if res.Source != FromWarehouse {
			rep.Fallbacks++
			continue
		}
		rep.Prewarmed = append(rep.Prewarmed, r.State)
	}
	return rep
}

// nextBoundary：下一个整周期时间点（interval=1h 时为下一个整点）
func nextBoundary(now time.Time, interval time.Duration) time.Time {
	return now.Truncate(interval).Add(interval)
}

// Scheduler：定时刷新
// 背景：启动即刷新一次，之后对齐到周期边界执行；固定节奏，无抖动、无失败退避
// 约束：刷新串行执行；Trigger 在已有待执行请求时不重复排队
type Scheduler struct {
	o        *Orchestrator
	interval time.Duration
	trigger  chan struct{}
	stop     chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
	last     atomic.Pointer[Report]
}

// NewScheduler：interval<=0 时按 1 小时
func NewScheduler(o *Orchestrator, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		o:        o,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start：在后台协程中运行；重复调用无效
func (s *Scheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	l := logger.L()
	s.run(ctx)
	for {
		next := nextBoundary(time.Now(), s.interval)
		l.Debug("refresh_scheduled", "next", next)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stop:
			timer.Stop()
			return
		case <-s.trigger:
			timer.Stop()
			l.Info("refresh_triggered")
			s.run(ctx)
		case <-timer.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	rep := s.o.Refresh(ctx)
	s.last.Store(&rep)
}

// Trigger：请求一次额外刷新；已有待执行请求时返回 false
func (s *Scheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Last：最近一次刷新结果
func (s *Scheduler) Last() (Report, bool) {
	if p := s.last.Load(); p != nil {
		return *p, true
	}
	return Report{}, false
}

// Stop：结束调度并等待进行中的刷新完成
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.started.Load() {
		<-s.done
	}
}
