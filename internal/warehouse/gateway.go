package warehouse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"geo-heatmap/internal/geocode"
	"geo-heatmap/internal/logger"
	"geo-heatmap/internal/metrics"
	"geo-heatmap/internal/model"
)

// Options：网关参数
type Options struct {
	Dialect      Dialect
	QueryTimeout time.Duration
	Breaker      BreakerSettings
}

// Gateway：数仓查询网关
// 背景：启动时显式构造并注入各组件，生命周期 New -> 使用 -> Close
// 约束：conn 为 nil 时所有查询返回 ErrNotConfigured；查询失败返回 ErrQuery；确认零行返回非 nil 空切片
type Gateway struct {
	conn    Conn
	dialect Dialect
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[[]Row]
}

// New：conn 可为 nil（未配置模式）
func New(conn Conn, opt Options) *Gateway {
	if opt.Dialect.Name == "" {
		opt.Dialect = Snowflake
	}
	if opt.QueryTimeout <= 0 {
		opt.QueryTimeout = 30 * time.Second
	}
	g := &Gateway{conn: conn, dialect: opt.Dialect, timeout: opt.QueryTimeout}
	if conn != nil {
		g.cb = newBreaker(opt.Breaker)
	}
	return g
}

// Configured：是否持有数仓连接
func (g *Gateway) Configured() bool { return g != nil && g.conn != nil }

// Dialect：当前方言
func (g *Gateway) Dialect() Dialect { return g.dialect }

// BreakerState：熔断状态（closed / half-open / open；未配置时为 disabled）
func (g *Gateway) BreakerState() string {
	if g.cb == nil {
		return "disabled"
	}
	return g.cb.State().String()
}

// Ping：健康检查，同样受超时约束
func (g *Gateway) Ping(ctx context.Context) error {
	if !g.Configured() {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	if err := g.conn.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrQuery, err)
	}
	return nil
}

// Close：释放连接池
func (g *Gateway) Close() error {
	if !g.Configured() {
		return nil
	}
	return g.conn.Close()
}

func (g *Gateway) query(ctx context.Context, op, q string, args ...any) ([]Row, error) {
	if !g.Configured() {
		metrics.WarehouseQueriesTotal.WithLabelValues(op, "unconfigured").Inc()
		return nil, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	start := time.Now()
	rows, err := g.cb.Execute(func() ([]Row, error) {
		return g.conn.Query(ctx, q, args...)
	})
	dur := time.Since(start)
	metrics.WarehouseDurationMs.WithLabelValues(op).Observe(float64(dur.Milliseconds()))
	if err != nil {
		metrics.WarehouseQueriesTotal.WithLabelValues(op, "error").Inc()
		logger.L().Warn("warehouse_query_error", "op", op, "duration_ms", dur.Milliseconds(), "err", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrQuery, op, err)
	}
	if rows == nil {
		rows = []Row{}
	}
	status := "ok"
	if len(rows) == 0 {
		status = "empty"
	}
	metrics.WarehouseQueriesTotal.WithLabelValues(op, status).Inc()
	logger.L().Debug("warehouse_query_done", "op", op, "rows", len(rows), "duration_ms", dur.Milliseconds())
	return rows, nil
}

// regionQuery：按州的全部候选写法发起一次 OR 查询；零行时用尚未尝试过的备选写法再查一次
func (g *Gateway) regionQuery(ctx context.Context, op string, build func(n int) string, prefix []any, region string) ([]Row, error) {
	cands := geocode.Candidates(region)
	if len(cands) == 0 {
		return []Row{}, nil
	}
	rows, err := g.query(ctx, op, build(len(cands)), bind(prefix, cands)...)
	if err != nil || len(rows) > 0 {
		return rows, err
	}
	alts := alternates(cands)
	if len(alts) == 0 {
		return rows, nil
	}
	logger.L().Debug("warehouse_retry_alternate", "op", op, "region", region, "alternates", strings.Join(alts, "|"))
	return g.query(ctx, op, build(len(alts)), bind(prefix, alts)...)
}

func bind(prefix []any, vals []string) []any {
	out := make([]any, 0, len(prefix)+len(vals))
	out = append(out, prefix...)
	for _, v := range vals {
		out = append(out, v)
	}
	return out
}

// alternates：各候选写法的备选形式，剔除已尝试过的
// 约束：可解析的州其代码与全称已在候选中，只有无法解析的写法才补充首字母大写形式
func alternates(tried []string) []string {
	_, _, resolvable := geocode.Resolve(tried[0])
	seen := make(map[string]struct{}, len(tried))
	for _, t := range tried {
		seen[t] = struct{}{}
	}
	var out []string
	add := func(v string) {
		if v == "" {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, t := range tried {
		if a, ok := geocode.Alternate(t); ok {
			add(a)
		}
		if !resolvable {
			add(titleCase(t))
		}
	}
	return out
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FetchRegions：全国级州聚合
func (g *Gateway) FetchRegions(ctx context.Context) ([]model.Region, error) {
	rows, err := g.query(ctx, "regions", regionsSQL())
	if err != nil {
		return nil, err
	}
	return normalizeRegions(rows), nil
}

// FetchSubRegions：州内按 DMA（无 DMA 时按城市）聚合
func (g *Gateway) FetchSubRegions(ctx context.Context, region string) ([]model.SubRegion, error) {
	rows, err := g.regionQuery(ctx, "subregions", subRegionsSQL, nil, region)
	if err != nil {
		return nil, err
	}
	return normalizeSubRegions(rows), nil
}

// FetchStoreLocations：州内门店（按上月 GMV 取前 200）
func (g *Gateway) FetchStoreLocations(ctx context.Context, region string) ([]model.StoreLocation, error) {
	rows, err := g.regionQuery(ctx, "state_stores", func(n int) string { return stateStoresSQL(g.dialect, n) }, nil, region)
	if err != nil {
		return nil, err
	}
	return normalizeStores(rows), nil
}

// FetchSellerEntities：州内销售方（按累计 GMV 取前 100）
func (g *Gateway) FetchSellerEntities(ctx context.Context, region string) ([]model.SellerEntity, error) {
	rows, err := g.regionQuery(ctx, "state_sellers", func(n int) string { return stateSellersSQL(g.dialect, n) }, nil, region)
	if err != nil {
		return nil, err
	}
	return normalizeSellers(rows), nil
}

// cityQuery：城市名原样查询，零行时以大写城市名重试一次
func (g *Gateway) cityQuery(ctx context.Context, op string, build func(n int) string, city, region string) ([]Row, error) {
	city = strings.TrimSpace(city)
	rows, err := g.regionQuery(ctx, op, build, []any{city, city}, region)
	if err != nil || len(rows) > 0 {
		return rows, err
	}
	if up := strings.ToUpper(city); up != city {
		logger.L().Debug("warehouse_retry_city_upper", "op", op, "city", city)
		return g.regionQuery(ctx, op, build, []any{up, up}, region)
	}
	return rows, nil
}

// FetchStoreLocationsByCitySubRegion：城市级门店（附最近销售方姓名与订单汇总）
func (g *Gateway) FetchStoreLocationsByCitySubRegion(ctx context.Context, city, region string) ([]model.StoreLocation, error) {
	rows, err := g.cityQuery(ctx, "city_stores", cityStoresSQL, city, region)
	if err != nil {
		return nil, err
	}
	return normalizeStores(rows), nil
}

// FetchNetworkEdges：城市内门店与销售方的订单连接
func (g *Gateway) FetchNetworkEdges(ctx context.Context, city, region string) ([]model.NetworkEdge, error) {
	rows, err := g.cityQuery(ctx, "network", networkSQL, city, region)
	if err != nil {
		return nil, err
	}
	return normalizeEdges(rows), nil
}

// FetchStoreDetail：门店详情；无此 ID 时返回 ErrNotFound
func (g *Gateway) FetchStoreDetail(ctx context.Context, id int64) (model.StoreLocation, error) {
	rows, err := g.query(ctx, "store_detail", storeDetailSQL(g.dialect), id)
	if err != nil {
		return model.StoreLocation{}, err
	}
	if len(rows) == 0 {
		return model.StoreLocation{}, fmt.Errorf("store %d: %w", id, ErrNotFound)
	}
	return toStore(rows[0]), nil
}

// FetchSellerDetail：销售方详情；无此 ID 时返回 ErrNotFound
func (g *Gateway) FetchSellerDetail(ctx context.Context, id int64) (model.SellerEntity, error) {
	rows, err := g.query(ctx, "seller_detail", sellerDetailSQL(g.dialect), id)
	if err != nil {
		return model.SellerEntity{}, err
	}
	if len(rows) == 0 {
		return model.SellerEntity{}, fmt.Errorf("seller %d: %w", id, ErrNotFound)
	}
	return toSeller(rows[0]), nil
}

// IsTransient：是否为可回退到占位数据的查询失败
func IsTransient(err error) bool {
	return errors.Is(err, ErrQuery)
}
