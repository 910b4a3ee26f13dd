package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"geo-heatmap/internal/config"
	"geo-heatmap/internal/logger"
	"geo-heatmap/internal/migrate"
	"geo-heatmap/internal/utils"
)

// 文档注释：本地 Postgres 开发数仓建表与灌数
// 背景：没有 Snowflake 时，以 WAREHOUSE_DRIVER=postgres 指向该库即可端到端演示真实查询链路。
// 约束：始终使用 PG_* 连接参数；-reset 会清空三张表。
func main() {
	config.LoadDotenv()
	l := logger.Setup()
	cfg := config.Load()

	states := flag.String("states", "", "comma separated states (names or codes); empty uses the built-in list")
	cities := flag.Int("cities", 0, "sub-regions per state")
	stores := flag.Int("stores", 0, "stores per sub-region")
	sellers := flag.Int("sellers", 0, "sellers per state")
	orders := flag.Int("orders", 0, "orders per store")
	batch := flag.Int("batch", 500, "rows per transaction")
	seed := flag.Uint64("seed", 1, "random seed")
	reset := flag.Bool("reset", false, "truncate tables before inserting")
	flag.Parse()

	db, err := utils.OpenPostgres(cfg.Warehouse)
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		l.Error("db_ping_error", "err", err)
		os.Exit(1)
	}
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	if *reset {
		if err := migrate.Reset(ctx, db); err != nil {
			l.Error("seed_reset_error", "err", err)
			os.Exit(1)
		}
		l.Info("seed_reset_ok")
	}

	opt := migrate.SeedOptions{
		CitiesPerState:  *cities,
		StoresPerCity:   *stores,
		SellersPerState: *sellers,
		OrdersPerStore:  *orders,
		BatchSize:       *batch,
		Seed:            *seed,
	}
	if s := strings.TrimSpace(*states); s != "" {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				opt.States = append(opt.States, p)
			}
		}
	}
	t0 := time.Now()
	ds := migrate.Generate(opt)
	if err := migrate.Insert(ctx, db, ds, *batch); err != nil {
		l.Error("seed_insert_error", "err", err)
		os.Exit(1)
	}
	l.Info("seed_done", "sellers", len(ds.Sellers), "stores", len(ds.Stores), "orders", len(ds.Orders), "duration_ms", time.Since(t0).Milliseconds())
}
