package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"geo-heatmap/internal/config"
	"geo-heatmap/internal/logger"
	"geo-heatmap/internal/utils"
	"geo-heatmap/internal/warehouse"
)

// 文档注释：数仓连通性与表结构自检
// 背景：部署前确认凭据、会话参数、三张表的行数与列填充情况，并用网关跑一遍全国与子区域查询。
// 约束：只读；任一致命步骤失败时退出码为 1。
func main() {
	config.LoadDotenv()
	l := logger.Setup()
	cfg := config.Load()
	w := cfg.Warehouse

	fmt.Println("Connection parameters:")
	fmt.Println("  Driver:", w.Driver)
	switch w.Driver {
	case "postgres":
		fmt.Printf("  Host: %s:%s\n  Database: %s\n  User: %s\n", w.PGHost, w.PGPort, w.PGDB, w.PGUser)
	default:
		fmt.Printf("  Account: %s\n  Username: %s\n  Warehouse: %s\n  Database: %s\n  Schema: %s\n  Role: %s\n  Key pair: %v\n",
			w.SnowflakeAccount, w.SnowflakeUser, w.SnowflakeWarehouse, w.SnowflakeDatabase, w.SnowflakeSchema, w.SnowflakeRole, w.SnowflakePrivateKeyPath != "")
	}

	db, err := utils.OpenWarehouse(w)
	if err != nil {
		l.Error("warehouse_open_error", "err", err)
		os.Exit(1)
	}
	if db == nil {
		fmt.Println("\nWarehouse credentials are incomplete; the server would run on generated data only.")
		os.Exit(1)
	}
	defer db.Close()

	dialect := warehouse.DialectFor(w.Driver)
	conn := warehouse.NewSQLConn(db, dialect)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("\nConnecting...")
	if err := conn.Ping(ctx); err != nil {
		l.Error("warehouse_ping_error", "err", err)
		os.Exit(1)
	}
	fmt.Println("OK connected")

	fmt.Println("\nSession:")
	sessionSQL := `SELECT CURRENT_WAREHOUSE() AS a, CURRENT_DATABASE() AS b, CURRENT_SCHEMA() AS c, CURRENT_ROLE() AS d`
	if dialect == warehouse.Postgres {
		sessionSQL = `SELECT version() AS a, current_database() AS b, current_schema() AS c, current_user AS d`
	}
	if rows, err := conn.Query(ctx, sessionSQL); err != nil {
		fmt.Println("  WARN session query failed:", err)
	} else if len(rows) > 0 {
		r := rows[0]
		fmt.Printf("  %s | %s | %s | %s\n", r.String("a"), r.String("b"), r.String("c"), r.String("d"))
	}

	failed := false
	checks := []struct {
		table string
		sql   string
		cols  []string
	}{
		{"STORES", `SELECT COUNT(*) AS total_rows, COUNT(STORE_STATE) AS state_count, COUNT(STORE_CITY) AS city_count,
       COUNT(GMV_LAST_MONTH) AS gmv_count, COUNT(LATITUDE) AS lat_count, COUNT(LONGITUDE) AS lng_count FROM STORES`,
			[]string{"state_count", "city_count", "gmv_count", "lat_count", "lng_count"}},
		{"SELLERS", `SELECT COUNT(*) AS total_rows, COUNT(LATITUDE) AS lat_count FROM SELLERS`, []string{"lat_count"}},
		{"ORDERS", `SELECT COUNT(*) AS total_rows, COUNT(ORDER_GMV) AS gmv_count FROM ORDERS`, []string{"gmv_count"}},
	}
	for _, c := range checks {
		fmt.Printf("\nTable %s:\n", c.table)
		rows, err := conn.Query(ctx, c.sql)
		if err != nil || len(rows) == 0 {
			fmt.Println("  FAIL", err)
			failed = true
			continue
		}
		fmt.Println("  Total rows:", rows[0].Int("total_rows"))
		for _, col := range c.cols {
			fmt.Printf("  %s: %d\n", col, rows[0].Int(col))
		}
	}

	gw := warehouse.New(conn, warehouse.Options{Dialect: dialect, QueryTimeout: w.QueryTimeout})
	fmt.Println("\nNation query:")
	regions, err := gw.FetchRegions(ctx)
	switch {
	case err != nil:
		fmt.Println("  FAIL", err)
		failed = true
	case len(regions) == 0:
		fmt.Println("  WARN no regions returned, check STORE_STATE and GMV_LAST_MONTH")
	default:
		fmt.Printf("  %d regions; top: %s (%s) stores=%d gmv=%.2f\n", len(regions), regions[0].State, regions[0].StateCode, regions[0].StoreCount, regions[0].TotalGMV)
		fmt.Printf("\nSub-region query for %s:\n", regions[0].State)
		subs, err := gw.FetchSubRegions(ctx, regions[0].State)
		switch {
		case err != nil:
			fmt.Println("  FAIL", err)
			failed = true
		case len(subs) == 0:
			fmt.Println("  WARN no sub-regions returned")
		default:
			s := subs[0]
			fmt.Printf("  %d sub-regions; top: %s stores=%d gmv=%.2f at %.4f,%.4f\n", len(subs), s.City, s.StoreCount, s.TotalGMV, s.Latitude, s.Longitude)
		}
	}

	if failed {
		l.Error("warehouse_check_failed")
		os.Exit(1)
	}
	l.Info("warehouse_check_ok")
}
