// 包 orchestrator：聚合数据的读取链路（缓存 -> 数仓 -> 占位数据）与定时刷新
package orchestrator

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"

	"geo-heatmap/internal/cachestore"
	"geo-heatmap/internal/logger"
	"geo-heatmap/internal/metrics"
	"geo-heatmap/internal/mock"
	"geo-heatmap/internal/model"
	"geo-heatmap/internal/warehouse"
)

// Source：编排器依赖的数仓能力（由 warehouse.Gateway 实现）
type Source interface {
	Configured() bool
	FetchRegions(ctx context.Context) ([]model.Region, error)
	FetchSubRegions(ctx context.Context, region string) ([]model.SubRegion, error)
	FetchStoreLocations(ctx context.Context, region string) ([]model.StoreLocation, error)
	FetchSellerEntities(ctx context.Context, region string) ([]model.SellerEntity, error)
	FetchStoreLocationsByCitySubRegion(ctx context.Context, city, region string) ([]model.StoreLocation, error)
	FetchNetworkEdges(ctx context.Context, city, region string) ([]model.NetworkEdge, error)
	FetchStoreDetail(ctx context.Context, id int64) (model.StoreLocation, error)
	FetchSellerDetail(ctx context.Context, id int64) (model.SellerEntity, error)
}

// Origin：结果来源
type Origin string

const (
	FromCache     Origin = "cache"
	FromWarehouse Origin = "warehouse"
	FromMock      Origin = "mock"
)

// Result：一次读取的结果及其来源
// 约束：Synthetic=true 表示记录由占位数据生成器产生（无论是否来自缓存）
type Result[T any] struct {
	Records   T
	Source    Origin
	Synthetic bool
}

// Options：编排器参数
type Options struct {
	// PrewarmLimit：每次刷新预热子区域的州数量，0 表示只刷新全国数据
	PrewarmLimit int
	Mock         *mock.Generator
}

// Orchestrator：读取链路
// 背景：按需读取与定时刷新共用同一 singleflight，同一缓存键同时只有一个回填在进行
// 约束：
// - 数仓成功返回（含确认零行）即回写缓存（synthetic=false），零行按空结果返回
// - 查询失败：返回占位数据，不写缓存
// - 数仓未配置：返回占位数据并以 synthetic=true 写缓存
// - 数仓已配置时 synthetic 缓存视为未命中，由真实数据替换
type Orchestrator struct {
	src     Source
	cache   *cachestore.Store
	mock    *mock.Generator
	prewarm int
	group   singleflight.Group
}

// New：src 与 cache 均不可为 nil
func New(src Source, cache *cachestore.Store, opt Options) *Orchestrator {
	if opt.Mock == nil {
		opt.Mock = mock.New()
	}
	if opt.PrewarmLimit < 0 {
		opt.PrewarmLimit = 0
	}
	return &Orchestrator{src: src, cache: cache, mock: opt.Mock, prewarm: opt.PrewarmLimit}
}

// Source：底层数仓（城市级接口直接透传使用）
func (o *Orchestrator) Source() Source { return o.src }

// dataset：一种缓存数据集的读取方式
type dataset[T any] struct {
	kind   model.DatasetKind
	region string
	fetch  func(ctx context.Context) ([]T, error)
	fake   func() []T
	from   func(model.CacheEntry) []T
	into   func(*model.CacheEntry, []T)
}

func (d dataset[T]) entry(recs []T, synthetic bool) model.CacheEntry {
	e := model.CacheEntry{Kind: d.kind, RegionKey: d.region, Synthetic: synthetic}
	d.into(&e, recs)
	return e
}

func (o *Orchestrator) nation() dataset[model.Region] {
	return dataset[model.Region]{
		kind:  model.KindNation,
		fetch: o.src.FetchRegions,
		fake:  o.mock.GenerateRegions,
		from:  func(e model.CacheEntry) []model.Region { return e.Regions },
		into:  func(e *model.CacheEntry, r []model.Region) { e.Regions = r },
	}
}

func (o *Orchestrator) subRegions(region string) dataset[model.SubRegion] {
	return dataset[model.SubRegion]{
		kind:   model.KindSubRegion,
		region: region,
		fetch:  func(ctx context.Context) ([]model.SubRegion, error) { return o.src.FetchSubRegions(ctx, region) },
		fake:   func() []model.SubRegion { return o.mock.GenerateSubRegions(region) },
		from:   func(e model.CacheEntry) []model.SubRegion { return e.SubRegions },
		into:   func(e *model.CacheEntry, r []model.SubRegion) { e.SubRegions = r },
	}
}

// Regions：全国州聚合；任何失败都退化为占位数据，不返回错误
func (o *Orchestrator) Regions(ctx context.Context) Result[[]model.Region] {
	return resolve(ctx, o, o.nation())
}

// SubRegions：州内子区域聚合；region 可为州代码或全称
func (o *Orchestrator) SubRegions(ctx context.Context, region string) Result[[]model.SubRegion] {
	return resolve(ctx, o, o.subRegions(region))
}

func resolve[T any](ctx context.Context, o *Orchestrator, d dataset[T]) Result[[]T] {
	if e, ok := o.cache.Read(d.kind, d.region); ok {
		if !e.Synthetic || !o.src.Configured() {
			return Result[[]T]{Records: d.from(e), Source: FromCache, Synthetic: e.Synthetic}
		}
		logger.L().Debug("cache_synthetic_skipped", "kind", d.kind, "region", d.region)
	}
	return fill(ctx, o, d)
}

// fill：经 singleflight 回填；回填不随单个调用方取消而中断，超时由数仓网关约束
func fill[T any](ctx context.Context, o *Orchestrator, d dataset[T]) Result[[]T] {
	key := cachestore.FileName(d.kind, d.region)
	v, _, _ := o.group.Do(key, func() (any, error) {
		return fetchThrough(context.WithoutCancel(ctx), o, d), nil
	})
	return v.(Result[[]T])
}

func fetchThrough[T any](ctx context.Context, o *Orchestrator, d dataset[T]) Result[[]T] {
	l := logger.L()
	recs, err := d.fetch(ctx)
	switch {
	case err == nil:
		if recs == nil {
			recs = []T{}
		}
		if len(recs) == 0 {
			l.Info("warehouse_empty", "kind", d.kind, "region", d.region)
		}
		o.write(d.entry(recs, false))
		return Result[[]T]{Records: recs, Source: FromWarehouse}
	case errors.Is(err, warehouse.ErrNotConfigured):
		return serveMock(o, d, "unconfigured", true)
	default:
		l.Warn("warehouse_failed_serving_mock", "kind", d.kind, "region", d.region, "err", err)
		return serveMock(o, d, "query_error", false)
	}
}

func serveMock[T any](o *Orchestrator, d dataset[T], reason string, persist bool) Result[[]T] {
	recs := d.fake()
	metrics.MockFallbacksTotal.WithLabelValues(string(d.kind), reason).Inc()
	if persist {
		o.write(d.entry(recs, true))
	}
	return Result[[]T]{Records: recs, Source: FromMock, Synthetic: true}
}

// write：缓存写失败只记录日志，不影响本次响应
func (o *Orchestrator) write(e model.CacheEntry) {
	if err := o.cache.Write(e); err != nil {
		logger.L().Error("cache_write_error", "kind", e.Kind, "region", e.RegionKey, "err", err)
	}
}
