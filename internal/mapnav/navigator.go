// 包 mapnav：地图下钻导航状态机（全国 -> 州 -> 城市，可切换网络视图）
// 背景：渲染端只消费 Snapshot 与 Scene；所有取数经 Source 完成，导航请求以“最新请求为准”
package mapnav

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"geo-heatmap/internal/logger"
	"geo-heatmap/internal/model"
)

var (
	// ErrSuperseded：请求已被更新的导航取代，结果被丢弃
	ErrSuperseded = errors.New("navigation superseded by a newer request")
	// ErrInvalidTransition：当前层级不支持该操作
	ErrInvalidTransition = errors.New("invalid navigation transition")
	// ErrNetworkUnavailable：当前城市没有可用的网络连接数据
	ErrNetworkUnavailable = errors.New("network view unavailable")
)

// Source：导航所需的数据接口（由 apiclient.Client 实现）
type Source interface {
	StatesGMV(ctx context.Context) ([]model.Region, error)
	CitiesGMV(ctx context.Context, region string) ([]model.SubRegion, error)
	CityStores(ctx context.Context, city, region string) ([]model.StoreLocation, error)
	StateSellers(ctx context.Context, region string) ([]model.SellerEntity, error)
	Network(ctx context.Context, city, region string) ([]model.NetworkEdge, error)
}

// Level：导航层级
type Level int

const (
	LevelNation Level = iota
	LevelState
	LevelCity
)

func (l Level) String() string {
	switch l {
	case LevelState:
		return "state"
	case LevelCity:
		return "city"
	}
	return "nation"
}

// MarshalText：JSON 中以名称输出
func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// Metric：州视图中标记的度量
type Metric string

const (
	MetricTotalGMV   Metric = "total_gmv"
	MetricStoreCount Metric = "store_count"
	MetricAvgGMV     Metric = "avg_gmv_per_store"
)

// Label：度量的展示名
func (m Metric) Label() string {
	switch m {
	case MetricStoreCount:
		return "Store Count"
	case MetricAvgGMV:
		return "Avg GMV Per Store"
	}
	return "Total GMV"
}

// Value：子区域在该度量下的取值（均值按总额/门店数现算）
func (m Metric) Value(s model.SubRegion) float64 {
	switch m {
	case MetricStoreCount:
		return float64(s.StoreCount)
	case MetricAvgGMV:
		return model.AvgPerStore(s.TotalGMV, s.StoreCount)
	}
	return s.TotalGMV
}

// ParseMetric：未知取值返回 false
func ParseMetric(s string) (Metric, bool) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricTotalGMV, MetricStoreCount, MetricAvgGMV:
		return m, true
	}
	return "", false
}

// NetworkStatus：城市网络数据的加载状态
type NetworkStatus string

const (
	NetworkIdle    NetworkStatus = ""
	NetworkLoading NetworkStatus = "loading"
	NetworkReady   NetworkStatus = "ready"
	NetworkEmpty   NetworkStatus = "empty"
	NetworkFailed  NetworkStatus = "failed"
)

// Highlight：悬停产生的高亮集合
type Highlight struct {
	Kind      string  `json:"kind,omitempty"` // region | seller | store | edge
	Region    string  `json:"region,omitempty"`
	SellerIDs []int64 `json:"seller_ids,omitempty"`
	StoreIDs  []int64 `json:"store_ids,omitempty"`
	Edges     []int   `json:"edges,omitempty"`
	// Link：门店悬停时指向其最近销售方的连线
	Link *Link `json:"link,omitempty"`
}

// Link：门店到销售方的临时连线
type Link struct {
	StoreID  int64   `json:"store_id"`
	SellerID int64   `json:"seller_id"`
	From     LatLng  `json:"from"`
	To       LatLng  `json:"to"`
	Color    string  `json:"color"`
	Width    float64 `json:"width"`
}

// LatLng：坐标
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Popup：连线悬停的临时弹窗
type Popup struct {
	Title  string `json:"title"`
	Orders string `json:"orders"`
	GMV    string `json:"gmv"`
}

// Snapshot：导航状态快照；切片字段只读共享
type Snapshot struct {
	Level       Level
	Region      string
	SubRegion   string
	NetworkView bool
	Network     NetworkStatus
	Metric      Metric
	Loading     bool

	Regions    []model.Region
	SubRegions []model.SubRegion
	Stores     []model.StoreLocation
	Sellers    []model.SellerEntity
	Edges      []model.NetworkEdge

	Hover Highlight
}

// NetworkAvailable：网络视图开关是否可用
func (s Snapshot) NetworkAvailable() bool {
	return s.Level == LevelCity && s.Network == NetworkReady
}

// Navigator：导航状态机
// 背景：快速连续点击时，新导航取消上一个进行中的请求；过期结果返回 ErrSuperseded 且不改变状态
// 约束：返回上一级丢弃当前层并重新获取上级数据，不跨导航缓存
type Navigator struct {
	src Source

	mu     sync.Mutex
	state  Snapshot
	ticket uint64
	cancel context.CancelFunc

	subMu  sync.Mutex
	subs   map[int]chan Snapshot
	nextID int
}

// New：初始层级为全国，度量默认总 GMV；需调用 Start 加载数据
func New(src Source) *Navigator {
	return &Navigator{
		src:   src,
		state: Snapshot{Level: LevelNation, Metric: MetricTotalGMV},
		subs:  map[int]chan Snapshot{},
	}
}

// navigation：一次导航的上下文
// 约束：ctx 同时受调用方与后续导航取消，用于前台请求；bg 只在被新导航取代或 Close 时取消，
// 用于调用返回后仍在进行的后台加载（城市网络连线）
type navigation struct {
	ctx    context.Context
	bg     context.Context
	ticket uint64
	stop   func()
}

// begin：领取新票据并取消上一个进行中的导航；调用方结束前台请求后须调用 stop
func (n *Navigator) begin(caller context.Context) navigation {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
	}
	bg, cancel := context.WithCancel(context.WithoutCancel(caller))
	fg, fgCancel := context.WithCancel(caller)
	unlink := context.AfterFunc(bg, fgCancel)
	n.ticket++
	n.cancel = cancel
	n.state.Loading = true
	return navigation{ctx: fg, bg: bg, ticket: n.ticket, stop: func() {
		unlink()
		fgCancel()
	}}
}

// commit：票据仍为最新时应用变更并通知订阅者
func (n *Navigator) commit(ticket uint64, apply func(s *Snapshot)) error {
	n.mu.Lock()
	if ticket != n.ticket {
		n.mu.Unlock()
		return ErrSuperseded
	}
	apply(&n.state)
	snap := n.state
	n.mu.Unlock()
	n.publish(snap)
	return nil
}

// fail：票据仍为最新时结束加载并保持原状态
func (n *Navigator) fail(ticket uint64, op string, err error) error {
	n.mu.Lock()
	current := ticket == n.ticket
	if current {
		n.state.Loading = false
	}
	n.mu.Unlock()
	if !current {
		return ErrSuperseded
	}
	logger.L().Warn("mapnav_fetch_error", "op", op, "err", err)
	return fmt.Errorf("%s: %w", op, err)
}

func (n *Navigator) current() Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Snapshot：当前状态
func (n *Navigator) Snapshot() Snapshot { return n.current() }

// Start：加载全国数据
func (n *Navigator) Start(ctx context.Context) error {
	return n.toNation(ctx)
}

func (n *Navigator) toNation(ctx context.Context) error {
	nav := n.begin(ctx)
	defer nav.stop()
	regions, err := n.src.StatesGMV(nav.ctx)
	if err != nil {
		return n.fail(nav.ticket, "states_gmv", err)
	}
	return n.commit(nav.ticket, func(s *Snapshot) {
		*s = Snapshot{Level: LevelNation, Metric: s.Metric, Regions: regions}
	})
}

// SelectRegion：全国 -> 州，加载子区域
func (n *Navigator) SelectRegion(ctx context.Context, region string) error {
	if n.current().Level != LevelNation {
		return ErrInvalidTransition
	}
	return n.toState(ctx, region)
}

func (n *Navigator) toState(ctx context.Context, region string) error {
	region = strings.TrimSpace(region)
	if region == "" {
		return ErrInvalidTransition
	}
	nav := n.begin(ctx)
	defer nav.stop()
	subs, err := n.src.CitiesGMV(nav.ctx, region)
	if err != nil {
		return n.fail(nav.ticket, "cities_gmv", err)
	}
	return n.commit(nav.ticket, func(s *Snapshot) {
		*s = Snapshot{Level: LevelState, Metric: s.Metric, Region: region, SubRegions: subs}
	})
}

// SelectSubRegion：州 -> 城市，并发加载门店与销售方；网络连接另行加载，失败只关闭网络视图开关
func (n *Navigator) SelectSubRegion(ctx context.Context, city string) error {
	cur := n.current()
	if cur.Level != LevelState {
		return ErrInvalidTransition
	}
	return n.toCity(ctx, cur.Region, strings.TrimSpace(city))
}

func (n *Navigator) toCity(ctx context.Context, region, city string) error {
	if city == "" {
		return ErrInvalidTransition
	}
	nav := n.begin(ctx)
	defer nav.stop()
	var (
		stores  []model.StoreLocation
		sellers []model.SellerEntity
	)
	g, gctx := errgroup.WithContext(nav.ctx)
	g.Go(func() error {
		var err error
		stores, err = n.src.CityStores(gctx, city, region)
		return err
	})
	// 销售方只用于标记与连线，缺失时门店视图照常渲染
	g.Go(func() error {
		var err error
		if sellers, err = n.src.StateSellers(gctx, region); err != nil && gctx.Err() == nil {
			logger.L().Warn("mapnav_sellers_unavailable", "region", region, "err", err)
			sellers = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return n.fail(nav.ticket, "city", err)
	}
	err := n.commit(nav.ticket, func(s *Snapshot) {
		*s = Snapshot{
			Level:     LevelCity,
			Metric:    s.Metric,
			Region:    region,
			SubRegion: city,
			Network:   NetworkLoading,
			Stores:    stores,
			Sellers:   sellers,
		}
	})
	if err != nil {
		return err
	}
	go n.loadNetwork(nav.bg, nav.ticket, city, region)
	return nil
}

func (n *Navigator) loadNetwork(ctx context.Context, t uint64, city, region string) {
	edges, err := n.src.Network(ctx, city, region)
	_ = n.commit(t, func(s *Snapshot) {
		switch {
		case err != nil:
			logger.L().Warn("mapnav_network_unavailable", "city", city, "region", region, "err", err)
			s.Network, s.Edges = NetworkFailed, nil
		case len(edges) == 0:
			s.Network, s.Edges = NetworkEmpty, nil
		default:
			s.Network, s.Edges = NetworkReady, edges
		}
		if s.Network != NetworkReady {
			s.NetworkView = false
		}
	})
}

// ToggleNetwork：城市层切换门店视图与网络视图
func (n *Navigator) ToggleNetwork() error {
	n.mu.Lock()
	if n.state.Level != LevelCity {
		n.mu.Unlock()
		return ErrInvalidTransition
	}
	if n.state.Network != NetworkReady {
		n.mu.Unlock()
		return ErrNetworkUnavailable
	}
	n.state.NetworkView = !n.state.NetworkView
	n.state.Hover = Highlight{}
	snap := n.state
	n.mu.Unlock()
	n.publish(snap)
	return nil
}

// Back：城市 -> 州、州 -> 全国；上级数据重新获取
func (n *Navigator) Back(ctx context.Context) error {
	cur := n.current()
	switch cur.Level {
	case LevelCity:
		return n.toState(ctx, cur.Region)
	case LevelState:
		return n.toNation(ctx)
	}
	return ErrInvalidTransition
}

// SetMetric：切换州视图度量，仅影响渲染
func (n *Navigator) SetMetric(m Metric) error {
	if _, ok := ParseMetric(string(m)); !ok {
		return fmt.Errorf("unknown metric %q", m)
	}
	n.mu.Lock()
	n.state.Metric = m
	snap := n.state
	n.mu.Unlock()
	n.publish(snap)
	return nil
}

func (n *Navigator) setHover(h Highlight) Snapshot {
	n.mu.Lock()
	n.state.Hover = h
	snap := n.state
	n.mu.Unlock()
	n.publish(snap)
	return snap
}

// ClearHover：移出悬停对象
func (n *Navigator) ClearHover() { n.setHover(Highlight{}) }

// HoverRegion：全国层悬停州，返回该州的聚合
func (n *Navigator) HoverRegion(region string) (model.Region, bool) {
	cur := n.current()
	if cur.Level != LevelNation {
		return model.Region{}, false
	}
	for _, r := range cur.Regions {
		if strings.EqualFold(r.State, region) || strings.EqualFold(r.StateCode, region) {
			n.setHover(Highlight{Kind: "region", Region: r.StateCode})
			return r, true
		}
	}
	return model.Region{}, false
}

// HoverSeller：网络视图中悬停销售方，高亮其全部连线与相连门店
func (n *Navigator) HoverSeller(sellerID int64) (Highlight, error) {
	cur := n.current()
	if cur.Level != LevelCity || !cur.NetworkView {
		return Highlight{}, ErrInvalidTransition
	}
	h := Highlight{Kind: "seller", SellerIDs: []int64{sellerID}}
	seen := map[int64]bool{}
	for i, e := range cur.Edges {
		if e.SellerID != sellerID {
			continue
		}
		h.Edges = append(h.Edges, i)
		if !seen[e.StoreID] {
			seen[e.StoreID] = true
			h.StoreIDs = append(h.StoreIDs, e.StoreID)
		}
	}
	n.setHover(h)
	return h, nil
}

// HoverEdge：网络视图中悬停连线，返回订单数与 GMV 弹窗
func (n *Navigator) HoverEdge(i int) (Popup, error) {
	cur := n.current()
	if cur.Level != LevelCity || !cur.NetworkView {
		return Popup{}, ErrInvalidTransition
	}
	if i < 0 || i >= len(cur.Edges) {
		return Popup{}, fmt.Errorf("edge %d out of range", i)
	}
	e := cur.Edges[i]
	n.setHover(Highlight{Kind: "edge", Edges: []int{i}, StoreIDs: []int64{e.StoreID}, SellerIDs: []int64{e.SellerID}})
	return Popup{
		Title:  e.StoreName + " / " + e.SellerFullName,
		Orders: FormatNumber(float64(e.ConnectionCount), false),
		GMV:    FormatCurrency(e.ConnectionGMV, false),
	}, nil
}

// HoverStore：门店视图中悬停门店，连线到其最近销售方（销售方不在当前数据中时无连线）
func (n *Navigator) HoverStore(storeID int64) (Highlight, error) {
	cur := n.current()
	if cur.Level != LevelCity || cur.NetworkView {
		return Highlight{}, ErrInvalidTransition
	}
	var store *model.StoreLocation
	for i := range cur.Stores {
		if cur.Stores[i].StoreID == storeID {
			store = &cur.Stores[i]
			break
		}
	}
	if store == nil {
		return Highlight{}, fmt.Errorf("store %d not in view", storeID)
	}
	h := Highlight{Kind: "store", StoreIDs: []int64{storeID}}
	sellerID := store.SellerID
	if sellerID == 0 {
		sellerID = store.LatestSellerID
	}
	for _, s := range cur.Sellers {
		if sellerID != 0 && s.SellerID == sellerID && s.Latitude != 0 && s.Longitude != 0 {
			h.SellerIDs = []int64{sellerID}
			h.Link = &Link{
				StoreID:  storeID,
				SellerID: sellerID,
				From:     LatLng{store.Latitude, store.Longitude},
				To:       LatLng{s.Latitude, s.Longitude},
				Color:    ConnectionColor,
				Width:    3,
			}
			break
		}
	}
	n.setHover(h)
	return h, nil
}

// Subscribe：订阅状态变化；通道只保留最新快照，慢消费者丢弃中间状态
func (n *Navigator) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	n.subMu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = ch
	n.subMu.Unlock()
	return ch, func() {
		n.subMu.Lock()
		delete(n.subs, id)
		n.subMu.Unlock()
	}
}

func (n *Navigator) publish(s Snapshot) {
	n.subMu.Lock()
	defer n.subMu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// Close：取消进行中的导航
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}
