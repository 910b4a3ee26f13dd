// 包 model：数仓投影的只读记录与缓存条目
// 背景：所有记录都按请求或刷新周期重新计算，不在原处修改；JSON 键与前端及缓存文件约定一致
package model

import "time"

// Region：全国级记录（一个州）
// 约束：State 为规范全称，StateCode 为两位代码；无法解析的行在网关层即被丢弃
type Region struct {
	State      string  `json:"state"`
	StateCode  string  `json:"state_code"`
	StoreCount int64   `json:"store_count"`
	TotalGMV   float64 `json:"total_gmv"`
}

// SubRegion：州级记录（城市或 DMA）
// 约束：AvgGMVPerStore 恒为 TotalGMV/StoreCount，StoreCount 为 0 时为 0
type SubRegion struct {
	City                string  `json:"city"`
	StoreCount          int64   `json:"store_count"`
	TotalGMV            float64 `json:"total_gmv"`
	AvgGMVPerStore      float64 `json:"avg_gmv_per_store"`
	TotalLifetimeGMV    float64 `json:"total_lifetime_gmv"`
	TotalLifetimeOrders int64   `json:"total_lifetime_orders"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
}

// AvgPerStore：按门店数均摊，避免除零
func AvgPerStore(total float64, count int64) float64 {
	if count <= 0 {
		return 0
	}
	return total / float64(count)
}

// HasCoordinates：经纬度均非零才参与地图渲染
func (s SubRegion) HasCoordinates() bool { return s.Latitude != 0 && s.Longitude != 0 }

// StoreLocation：门店行；键名沿用数仓列名，便于前端直接读取
// 约束：指针字段仅由部分查询填充（城市列表、详情），其余查询中省略
type StoreLocation struct {
	StoreID           int64    `json:"STORE_ID"`
	SellerID          int64    `json:"SELLER_ID,omitempty"`
	LatestSellerID    int64    `json:"LATEST_SELLER_ID"`
	SellerFirstName   string   `json:"SELLER_FIRST_NAME,omitempty"`
	SellerLastName    string   `json:"SELLER_LAST_NAME,omitempty"`
	SellerFullName    string   `json:"SELLER_FULL_NAME,omitempty"`
	Name              string   `json:"STORE_LOCATION_NAME"`
	Address           string   `json:"STORE_ADDRESS"`
	City              string   `json:"STORE_CITY"`
	State             string   `json:"STORE_STATE"`
	ZipCode           string   `json:"STORE_ZIP_CODE"`
	Latitude          float64  `json:"LATITUDE"`
	Longitude         float64  `json:"LONGITUDE"`
	LifetimeGMV       float64  `json:"STORE_LIFETIME_GMV"`
	LifetimeOrders    int64    `json:"STORE_LIFETIME_ORDERS"`
	GMVLastMonth      float64  `json:"GMV_LAST_MONTH"`
	GMVCurrentMonth   float64  `json:"GMV_CURRENT_MONTH"`
	OrdersLastMonth   *int64   `json:"ORDERS_LAST_MONTH,omitempty"`
	OrdersMTDGMV      *float64 `json:"ORDERS_MTD_GMV,omitempty"`
	OrdersMTDCount    *int64   `json:"ORDERS_MTD_COUNT,omitempty"`
	TotalOrders       *int64   `json:"TOTAL_ORDERS,omitempty"`
	LastOrderDate     string   `json:"LAST_ORDER_DATE,omitempty"`
	CurrentMonthGMV   *float64 `json:"CURRENT_MONTH_GMV,omitempty"`
	LastMonthOrderGMV *float64 `json:"LAST_MONTH_ORDER_GMV,omitempty"`
	TwoMonthsAgoGMV   *float64 `json:"TWO_MONTHS_AGO_GMV,omitempty"`
}

// SellerEntity：销售方行；与门店经订单历史多对多关联
type SellerEntity struct {
	SellerID             int64    `json:"SELLER_ID"`
	FirstName            string   `json:"SELLER_FIRST_NAME,omitempty"`
	LastName             string   `json:"SELLER_LAST_NAME,omitempty"`
	FullName             string   `json:"SELLER_FULL_NAME"`
	Address              string   `json:"SELLER_ADDRESS"`
	City                 string   `json:"SELLER_CITY"`
	State                string   `json:"SELLER_STATE"`
	ZipCode              string   `json:"SELLER_ZIP_CODE"`
	Latitude             float64  `json:"LATITUDE"`
	Longitude            float64  `json:"LONGITUDE"`
	TotalGMV             float64  `json:"SELLER_TOTAL_GMV"`
	GMVLastMonth         float64  `json:"GMV_LAST_MONTH"`
	GMVMTD               float64  `json:"GMV_MTD"`
	StoresLastMonth      int64    `json:"STORES_LAST_MONTH"`
	OrdersMTD            int64    `json:"ORDERS_MTD"`
	ActiveStoresCount    *int64   `json:"ACTIVE_STORES_COUNT,omitempty"`
	OrdersMTDGMV         *float64 `json:"ORDERS_MTD_GMV,omitempty"`
	OrdersMTDCount       *int64   `json:"ORDERS_MTD_COUNT,omitempty"`
	ConnectedStoresCount *int64   `json:"CONNECTED_STORES_COUNT,omitempty"`
	Last30DaysGMV        *float64 `json:"LAST_30_DAYS_GMV,omitempty"`
	Last30DaysOrders     *int64   `json:"LAST_30_DAYS_ORDERS,omitempty"`
}

// NetworkEdge：门店与销售方之间的订单聚合边（按城市+州计算，不落库）
type NetworkEdge struct {
	StoreID         int64   `json:"STORE_ID"`
	StoreName       string  `json:"STORE_LOCATION_NAME"`
	StoreLat        float64 `json:"store_lat"`
	StoreLng        float64 `json:"store_lng"`
	SellerID        int64   `json:"SELLER_ID"`
	SellerFullName  string  `json:"SELLER_FULL_NAME"`
	SellerLat       float64 `json:"seller_lat"`
	SellerLng       float64 `json:"seller_lng"`
	ConnectionCount int64   `json:"connection_count"`
	ConnectionGMV   float64 `json:"connection_gmv"`
}

// DatasetKind：缓存数据集类型
type DatasetKind string

const (
	KindNation    DatasetKind = "nation"
	KindSubRegion DatasetKind = "subregion"
)

// CacheEntry：缓存条目
// 约束：Synthetic=true 表示记录来自占位数据生成器；FetchedAt 取自文件修改时间，不参与序列化
type CacheEntry struct {
	Kind       DatasetKind
	RegionKey  string
	Synthetic  bool
	FetchedAt  time.Time
	Regions    []Region
	SubRegions []SubRegion
}

// Len：条目中的记录数
func (e CacheEntry) Len() int {
	if e.Kind == KindNation {
		return len(e.Regions)
	}
	return len(e.SubRegions)
}
