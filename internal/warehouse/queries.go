package warehouse

import (
	"fmt"
	"strings"
)

const (
	stateStoresLimit  = 200
	stateSellersLimit = 100
)

// orChain：col = ? OR col = ? ...，n 为候选写法个数
func orChain(col string, n int) string {
	if n <= 1 {
		return col + " = ?"
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = col + " = ?"
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func regionsSQL() string {
	return `
SELECT STORE_STATE AS state,
       COUNT(*) AS store_count,
       SUM(GMV_LAST_MONTH) AS total_gmv
FROM STORES
WHERE STORE_STATE IS NOT NULL
  AND GMV_LAST_MONTH > 0
GROUP BY STORE_STATE
ORDER BY total_gmv DESC`
}

func subRegionsSQL(n int) string {
	return `
SELECT COALESCE(STORE_DMA_NAME, STORE_CITY) AS city,
       COUNT(*) AS store_count,
       SUM(GMV_LAST_MONTH) AS total_gmv,
       SUM(STORE_LIFETIME_GMV) AS total_lifetime_gmv,
       SUM(STORE_LIFETIME_ORDERS) AS total_lifetime_orders,
       AVG(LATITUDE) AS latitude,
       AVG(LONGITUDE) AS longitude
FROM STORES
WHERE ` + orChain("STORE_STATE", n) + `
  AND COALESCE(STORE_DMA_NAME, STORE_CITY) IS NOT NULL
GROUP BY COALESCE(STORE_DMA_NAME, STORE_CITY)
ORDER BY total_gmv DESC`
}

func stateStoresSQL(d Dialect, n int) string {
	return fmt.Sprintf(`
SELECT s.STORE_ID, s.SELLER_ID, s.LATEST_SELLER_ID, s.SELLER_FIRST_NAME, s.SELLER_LAST_NAME,
       s.STORE_LOCATION_NAME, s.STORE_ADDRESS, s.STORE_CITY, s.STORE_STATE, s.STORE_ZIP_CODE,
       s.LATITUDE, s.LONGITUDE, s.STORE_LIFETIME_GMV, s.STORE_LIFETIME_ORDERS,
       s.GMV_LAST_MONTH, s.GMV_CURRENT_MONTH, s.ORDERS_LAST_MONTH,
       SUM(CASE WHEN %[1]s THEN o.ORDER_GMV ELSE 0 END) AS ORDERS_MTD_GMV,
       COUNT(CASE WHEN %[1]s THEN o.ORDER_ID ELSE NULL END) AS ORDERS_MTD_COUNT
FROM STORES s
LEFT JOIN ORDERS o ON s.STORE_ID = o.STORE_ID
WHERE %[2]s
  AND s.LATITUDE IS NOT NULL
  AND s.LONGITUDE IS NOT NULL
GROUP BY s.STORE_ID, s.SELLER_ID, s.LATEST_SELLER_ID, s.SELLER_FIRST_NAME, s.SELLER_LAST_NAME,
         s.STORE_LOCATION_NAME, s.STORE_ADDRESS, s.STORE_CITY, s.STORE_STATE, s.STORE_ZIP_CODE,
         s.LATITUDE, s.LONGITUDE, s.STORE_LIFETIME_GMV, s.STORE_LIFETIME_ORDERS,
         s.GMV_LAST_MONTH, s.GMV_CURRENT_MONTH, s.ORDERS_LAST_MONTH
ORDER BY s.GMV_LAST_MONTH DESC
LIMIT %[3]d`, d.currentMonth("o.ORDER_CREATED_AT"), orChain("s.STORE_STATE", n), stateStoresLimit)
}

func stateSellersSQL(d Dialect, n int) string {
	return fmt.Sprintf(`
SELECT s.SELLER_ID, s.SELLER_FIRST_NAME, s.SELLER_LAST_NAME, s.SELLER_FULL_NAME,
       s.SELLER_ADDRESS, s.SELLER_CITY, s.SELLER_STATE, s.SELLER_ZIP_CODE,
       s.LATITUDE, s.LONGITUDE, s.SELLER_TOTAL_GMV, s.GMV_LAST_MONTH,
       s.GMV_MTD, s.STORES_LAST_MONTH, s.ORDERS_MTD,
       COUNT(DISTINCT o.STORE_ID) AS ACTIVE_STORES_COUNT,
       SUM(CASE WHEN %[1]s THEN o.ORDER_GMV ELSE 0 END) AS ORDERS_MTD_GMV,
       COUNT(CASE WHEN %[1]s THEN o.ORDER_ID ELSE NULL END) AS ORDERS_MTD_COUNT
FROM SELLERS s
LEFT JOIN ORDERS o ON s.SELLER_ID = o.SELLER_ID
WHERE %[2]s
  AND s.LATITUDE IS NOT NULL
  AND s.LONGITUDE IS NOT NULL
GROUP BY s.SELLER_ID, s.SELLER_FIRST_NAME, s.SELLER_LAST_NAME, s.SELLER_FULL_NAME,
         s.SELLER_ADDRESS, s.SELLER_CITY, s.SELLER_STATE, s.SELLER_ZIP_CODE,
         s.LATITUDE, s.LONGITUDE, s.SELLER_TOTAL_GMV, s.GMV_LAST_MONTH,
         s.GMV_MTD, s.STORES_LAST_MONTH, s.ORDERS_MTD
ORDER BY s.SELLER_TOTAL_GMV DESC
LIMIT %[3]d`, d.currentMonth("o.ORDER_CREATED_AT"), orChain("s.SELLER_STATE", n), stateSellersLimit)
}

// 城市条件同时匹配 DMA 名与门店城市：子区域聚合按 COALESCE(DMA, 城市) 分组，下钻时传入的是该分组名
const cityMatch = "(COALESCE(s.STORE_DMA_NAME, s.STORE_CITY) = ? OR s.STORE_CITY = ?)"

func cityStoresSQL(n int) string {
	return `
SELECT s.STORE_ID, s.STORE_LOCATION_NAME, s.STORE_ADDRESS, s.STORE_CITY, s.STORE_STATE,
       s.STORE_ZIP_CODE, s.LATITUDE, s.LONGITUDE, s.STORE_LIFETIME_GMV, s.STORE_LIFETIME_ORDERS,
       s.GMV_LAST_MONTH, s.GMV_CURRENT_MONTH, s.LATEST_SELLER_ID, sel.SELLER_FULL_NAME,
       COUNT(o.ORDER_ID) AS total_orders,
       MAX(o.ORDER_CREATED_AT) AS last_order_date
FROM STORES s
LEFT JOIN ORDERS o ON s.STORE_ID = o.STORE_ID
LEFT JOIN SELLERS sel ON s.LATEST_SELLER_ID = sel.SELLER_ID
WHERE ` + cityMatch + `
  AND ` + orChain("s.STORE_STATE", n) + `
  AND s.LATITUDE IS NOT NULL
  AND s.LONGITUDE IS NOT NULL
GROUP BY s.STORE_ID, s.STORE_LOCATION_NAME, s.STORE_ADDRESS, s.STORE_CITY, s.STORE_STATE,
         s.STORE_ZIP_CODE, s.LATITUDE, s.LONGITUDE, s.STORE_LIFETIME_GMV, s.STORE_LIFETIME_ORDERS,
         s.GMV_LAST_MONTH, s.GMV_CURRENT_MONTH, s.LATEST_SELLER_ID, sel.SELLER_FULL_NAME
ORDER BY s.GMV_LAST_MONTH DESC`
}

func networkSQL(n int) string {
	return `
SELECT s.STORE_ID, s.STORE_LOCATION_NAME,
       s.LATITUDE AS store_lat, s.LONGITUDE AS store_lng,
       o.SELLER_ID, sel.SELLER_FULL_NAME,
       sel.LATITUDE AS seller_lat, sel.LONGITUDE AS seller_lng,
       COUNT(DISTINCT o.ORDER_ID) AS connection_count,
       SUM(o.ORDER_GMV) AS connection_gmv
FROM STORES s
JOIN ORDERS o ON s.STORE_ID = o.STORE_ID
JOIN SELLERS sel ON o.SELLER_ID = sel.SELLER_ID
WHERE ` + cityMatch + `
  AND ` + orChain("s.STORE_STATE", n) + `
  AND s.LATITUDE IS NOT NULL AND s.LONGITUDE IS NOT NULL
  AND sel.LATITUDE IS NOT NULL AND sel.LONGITUDE IS NOT NULL
GROUP BY s.STORE_ID, s.STORE_LOCATION_NAME, s.LATITUDE, s.LONGITUDE,
         o.SELLER_ID, sel.SELLER_FULL_NAME, sel.LATITUDE, sel.LONGITUDE
ORDER BY connection_gmv DESC`
}

func storeDetailSQL(d Dialect) string {
	return fmt.Sprintf(`
SELECT s.STORE_ID, s.STORE_LOCATION_NAME, s.STORE_ADDRESS, s.STORE_CITY, s.STORE_STATE,
       s.STORE_ZIP_CODE, s.LATITUDE, s.LONGITUDE, s.STORE_LIFETIME_GMV, s.STORE_LIFETIME_ORDERS,
       s.GMV_LAST_MONTH, s.GMV_CURRENT_MONTH, s.LATEST_SELLER_ID, sel.SELLER_FULL_NAME,
       COUNT(o.ORDER_ID) AS total_orders,
       MAX(o.ORDER_CREATED_AT) AS last_order_date,
       SUM(CASE WHEN %s THEN o.ORDER_GMV ELSE 0 END) AS current_month_gmv,
       SUM(CASE WHEN %s THEN o.ORDER_GMV ELSE 0 END) AS last_month_order_gmv,
       SUM(CASE WHEN %s THEN o.ORDER_GMV ELSE 0 END) AS two_months_ago_gmv
FROM STORES s
LEFT JOIN ORDERS o ON s.STORE_ID = o.STORE_ID
LEFT JOIN SELLERS sel ON s.LATEST_SELLER_ID = sel.SELLER_ID
WHERE s.STORE_ID = ?
GROUP BY s.STORE_ID, s.STORE_LOCATION_NAME, s.STORE_ADDRESS, s.STORE_CITY, s.STORE_STATE,
         s.STORE_ZIP_CODE, s.LATITUDE, s.LONGITUDE, s.STORE_LIFETIME_GMV, s.STORE_LIFETIME_ORDERS,
         s.GMV_LAST_MONTH, s.GMV_CURRENT_MONTH, s.LATEST_SELLER_ID, sel.SELLER_FULL_NAME`,
		d.currentMonth("o.ORDER_CREATED_AT"), d.monthsAgo("o.ORDER_CREATED_AT", 1), d.monthsAgo("o.ORDER_CREATED_AT", 2))
}

func sellerDetailSQL(d Dialect) string {
	return fmt.Sprintf(`
SELECT s.SELLER_ID, s.SELLER_FULL_NAME, s.SELLER_ADDRESS, s.SELLER_CITY,
       s.SELLER_STATE, s.SELLER_ZIP_CODE, s.LATITUDE, s.LONGITUDE,
       s.SELLER_TOTAL_GMV, s.GMV_LAST_MONTH, s.GMV_MTD, s.STORES_LAST_MONTH, s.ORDERS_MTD,
       COUNT(DISTINCT o.STORE_ID) AS connected_stores_count,
       SUM(CASE WHEN %[1]s THEN o.ORDER_GMV ELSE 0 END) AS last_30_days_gmv,
       COUNT(CASE WHEN %[1]s THEN o.ORDER_ID ELSE NULL END) AS last_30_days_orders
FROM SELLERS s
LEFT JOIN ORDERS o ON s.SELLER_ID = o.SELLER_ID
WHERE s.SELLER_ID = ?
GROUP BY s.SELLER_ID, s.SELLER_FULL_NAME, s.SELLER_ADDRESS, s.SELLER_CITY,
         s.SELLER_STATE, s.SELLER_ZIP_CODE, s.LATITUDE, s.LONGITUDE,
         s.SELLER_TOTAL_GMV, s.GMV_LAST_MONTH, s.GMV_MTD, s.STORES_LAST_MONTH, s.ORDERS_MTD`,
		d.withinDays("o.ORDER_CREATED_AT", 30))
}
