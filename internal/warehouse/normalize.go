package warehouse

import (
	"sort"
	"strings"

	"geo-heatmap/internal/geocode"
	"geo-heatmap/internal/logger"
	"geo-heatmap/internal/model"
)

// normalizeRegions：州标识经代码表解析，无法解析的行丢弃，同一州的多行（代码与全称混用）合并
func normalizeRegions(rows []Row) []model.Region {
	out := make([]model.Region, 0, len(rows))
	idx := make(map[string]int, len(rows))
	dropped := 0
	for _, r := range rows {
		code, name, ok := geocode.Resolve(r.String("state"))
		if !ok {
			dropped++
			continue
		}
		if i, dup := idx[code]; dup {
			out[i].StoreCount += r.Int("store_count")
			out[i].TotalGMV += r.Float("total_gmv")
			continue
		}
		idx[code] = len(out)
		out = append(out, model.Region{
			State:      name,
			StateCode:  code,
			StoreCount: r.Int("store_count"),
			TotalGMV:   r.Float("total_gmv"),
		})
	}
	if dropped > 0 {
		logger.L().Warn("warehouse_regions_unresolved", "dropped", dropped)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalGMV > out[j].TotalGMV })
	return out
}

// normalizeSubRegions：缺少坐标的子区域不进入地图层（聚合由数仓完成，不受影响）
func normalizeSubRegions(rows []Row) []model.SubRegion {
	out := make([]model.SubRegion, 0, len(rows))
	for _, r := range rows {
		city := strings.TrimSpace(r.String("city"))
		if city == "" || !hasCoords(r, "latitude", "longitude") {
			continue
		}
		count := r.Int("store_count")
		total := r.Float("total_gmv")
		out = append(out, model.SubRegion{
			City:                city,
			StoreCount:          count,
			TotalGMV:            total,
			AvgGMVPerStore:      model.AvgPerStore(total, count),
			TotalLifetimeGMV:    r.Float("total_lifetime_gmv"),
			TotalLifetimeOrders: r.Int("total_lifetime_orders"),
			Latitude:            r.Float("latitude"),
			Longitude:           r.Float("longitude"),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalGMV > out[j].TotalGMV })
	return out
}

// hasCoords：经纬度都存在且都非零，与 model.SubRegion.HasCoordinates 同一规则
func hasCoords(r Row, lat, lng string) bool {
	return r.Has(lat) && r.Has(lng) && r.Float(lat) != 0 && r.Float(lng) != 0
}

func toStore(r Row) model.StoreLocation {
	return model.StoreLocation{
		StoreID:           r.Int("STORE_ID"),
		SellerID:          r.Int("SELLER_ID"),
		LatestSellerID:    r.Int("LATEST_SELLER_ID"),
		SellerFirstName:   r.String("SELLER_FIRST_NAME"),
		SellerLastName:    r.String("SELLER_LAST_NAME"),
		SellerFullName:    r.String("SELLER_FULL_NAME"),
		Name:              r.String("STORE_LOCATION_NAME"),
		Address:           r.String("STORE_ADDRESS"),
		City:              r.String("STORE_CITY"),
		State:             r.String("STORE_STATE"),
		ZipCode:           r.String("STORE_ZIP_CODE"),
		Latitude:          r.Float("LATITUDE"),
		Longitude:         r.Float("LONGITUDE"),
		LifetimeGMV:       r.Float("STORE_LIFETIME_GMV"),
		LifetimeOrders:    r.Int("STORE_LIFETIME_ORDERS"),
		GMVLastMonth:      r.Float("GMV_LAST_MONTH"),
		GMVCurrentMonth:   r.Float("GMV_CURRENT_MONTH"),
		OrdersLastMonth:   r.IntPtr("ORDERS_LAST_MONTH"),
		OrdersMTDGMV:      r.FloatPtr("ORDERS_MTD_GMV"),
		OrdersMTDCount:    r.IntPtr("ORDERS_MTD_COUNT"),
		TotalOrders:       r.IntPtr("TOTAL_ORDERS"),
		LastOrderDate:     r.String("LAST_ORDER_DATE"),
		CurrentMonthGMV:   r.FloatPtr("CURRENT_MONTH_GMV"),
		LastMonthOrderGMV: r.FloatPtr("LAST_MONTH_ORDER_GMV"),
		TwoMonthsAgoGMV:   r.FloatPtr("TWO_MONTHS_AGO_GMV"),
	}
}

func toSeller(r Row) model.SellerEntity {
	return model.SellerEntity{
		SellerID:             r.Int("SELLER_ID"),
		FirstName:            r.String("SELLER_FIRST_NAME"),
		LastName:             r.String("SELLER_LAST_NAME"),
		FullName:             r.String("SELLER_FULL_NAME"),
		Address:              r.String("SELLER_ADDRESS"),
		City:                 r.String("SELLER_CITY"),
		State:                r.String("SELLER_STATE"),
		ZipCode:              r.String("SELLER_ZIP_CODE"),
		Latitude:             r.Float("LATITUDE"),
		Longitude:            r.Float("LONGITUDE"),
		TotalGMV:             r.Float("SELLER_TOTAL_GMV"),
		GMVLastMonth:         r.Float("GMV_LAST_MONTH"),
		GMVMTD:               r.Float("GMV_MTD"),
		StoresLastMonth:      r.Int("STORES_LAST_MONTH"),
		OrdersMTD:            r.Int("ORDERS_MTD"),
		ActiveStoresCount:    r.IntPtr("ACTIVE_STORES_COUNT"),
		OrdersMTDGMV:         r.FloatPtr("ORDERS_MTD_GMV"),
		OrdersMTDCount:       r.IntPtr("ORDERS_MTD_COUNT"),
		ConnectedStoresCount: r.IntPtr("CONNECTED_STORES_COUNT"),
		Last30DaysGMV:        r.FloatPtr("LAST_30_DAYS_GMV"),
		Last30DaysOrders:     r.IntPtr("LAST_30_DAYS_ORDERS"),
	}
}

func normalizeStores(rows []Row) []model.StoreLocation {
	out := make([]model.StoreLocation, 0, len(rows))
	for _, r := range rows {
		if !hasCoords(r, "LATITUDE", "LONGITUDE") {
			continue
		}
		out = append(out, toStore(r))
	}
	return out
}

func normalizeSellers(rows []Row) []model.SellerEntity {
	out := make([]model.SellerEntity, 0, len(rows))
	for _, r := range rows {
		if !hasCoords(r, "LATITUDE", "LONGITUDE") {
			continue
		}
		out = append(out, toSeller(r))
	}
	return out
}

func normalizeEdges(rows []Row) []model.NetworkEdge {
	out := make([]model.NetworkEdge, 0, len(rows))
	for _, r := range rows {
		if !hasCoords(r, "store_lat", "store_lng") || !hasCoords(r, "seller_lat", "seller_lng") {
			continue
		}
		out = append(out, model.NetworkEdge{
			StoreID:         r.Int("STORE_ID"),
			StoreName:       r.String("STORE_LOCATION_NAME"),
			StoreLat:        r.Float("store_lat"),
			StoreLng:        r.Float("store_lng"),
			SellerID:        r.Int("SELLER_ID"),
			SellerFullName:  r.String("SELLER_FULL_NAME"),
			SellerLat:       r.Float("seller_lat"),
			SellerLng:       r.Float("seller_lng"),
			ConnectionCount: r.Int("connection_count"),
			ConnectionGMV:   r.Float("connection_gmv"),
		})
	}
	return out
}
