// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"geo-heatmap/internal/api"
	"geo-heatmap/internal/auth"
	"geo-heatmap/internal/cachestore"
	"geo-heatmap/internal/config"
	"geo-heatmap/internal/logger"
	"geo-heatmap/internal/middleware"
	"geo-heatmap/internal/orchestrator"
	"geo-heatmap/internal/utils"
	"geo-heatmap/internal/version"
	"geo-heatmap/internal/warehouse"
	"geo-heatmap/pkg/origindefense"
)

func main() {
	config.LoadDotenv()
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok")
	cfg := config.Load()
	l.Debug("config_api_base", "base", cfg.APIBase)
	l.Debug("config_public_dir", "dir", cfg.PublicDir)

	cache := cachestore.New(cfg.CacheDir)
	cache.MaxAge = cfg.CacheMaxAge
	if err := cache.Ensure(); err != nil {
		l.Error("cache_dir_error", "dir", cfg.CacheDir, "err", err)
		os.Exit(1)
	}
	l.Info("cache_dir_ok", "dir", cache.Dir(), "max_age", cfg.CacheMaxAge.String())

	// 背景：未配置凭据或 MOCK_DATA_ONLY 时以未配置模式启动网关，所有聚合接口返回占位数据
	var conn warehouse.Conn
	dialect := warehouse.DialectFor(cfg.Warehouse.Driver)
	switch {
	case cfg.MockDataOnly:
		l.Info("warehouse_disabled", "reason", "mock_data_only")
	default:
		db, err := utils.OpenWarehouse(cfg.Warehouse)
		switch {
		case err != nil:
			l.Error("warehouse_open_error", "driver", cfg.Warehouse.Driver, "err", err)
		case db == nil:
			l.Warn("warehouse_not_configured", "driver", cfg.Warehouse.Driver)
		default:
			conn = warehouse.NewSQLConn(db, dialect)
			l.Info("warehouse_open_ok", "driver", cfg.Warehouse.Driver)
		}
	}
	gw := warehouse.New(conn, warehouse.Options{Dialect: dialect, QueryTimeout: cfg.Warehouse.QueryTimeout})
	defer gw.Close()
	if gw.Configured() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Warehouse.QueryTimeout)
			defer cancel()
			if err := gw.Ping(ctx); err != nil {
				l.Error("warehouse_ping_error", "err", err)
				return
			}
			l.Info("warehouse_ping_ok")
		}()
	}

	orch := orchestrator.New(gw, cache, orchestrator.Options{PrewarmLimit: cfg.RefreshPrewarmLimit})
	sched := orchestrator.NewScheduler(orch, cfg.RefreshInterval)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sched.Start(ctx)

	users, err := auth.OpenUserStore(cfg.UsersFile, cfg.AdminInitialPassword)
	if err != nil {
		l.Error("users_open_error", "path", cfg.UsersFile, "err", err)
		os.Exit(1)
	}
	var sessions auth.SessionStore = auth.NewMemoryStore(10000, cfg.SessionTTL)
	if cfg.SessionStore == "redis" {
		if rc := utils.OpenRedis(cfg.Redis); rc == nil {
			l.Warn("redis_disabled", "fallback", "memory")
		} else if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err, "fallback", "memory")
			_ = rc.Close()
		} else {
			l.Info("redis_ping_ok")
			sessions = auth.NewRedisStore(rc, cfg.SessionTTL)
			defer rc.Close()
		}
	}
	am := auth.NewManager(users, sessions, auth.Options{
		Secret:    cfg.SessionSecret,
		TTL:       cfg.SessionTTL,
		Secure:    cfg.Production(),
		PublicDir: cfg.PublicDir,
	})

	mux := http.NewServeMux()
	am.Register(mux, cfg.APIBase)
	// 文档注释：构建路由（携带编排器、刷新调度与管理接口白名单）
	apiMux := api.BuildRoutes(api.Deps{
		Orchestrator: orch,
		Scheduler:    sched,
		Health:       gw,
		Allow:        origindefense.NewFromEnv(l),
		AdminToken:   cfg.AdminToken,
		Base:         cfg.APIBase,
		Production:   cfg.Production(),
		MockDataOnly: cfg.MockDataOnly,
	})
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))

	// NOTE: 向前端暴露 API 基础路径，避免硬编码
	mux.HandleFunc("GET /config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + cfg.APIBase + "'\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + version.Commit + "'\n"))
	})
	mux.Handle("/", http.FileServer(http.Dir(cfg.PublicDir)))

	handler := logger.AccessMiddleware(l)(mux)
	if cfg.RateLimitEnabled {
		handler = middleware.RateLimit(cfg.RateLimitQPS)(handler)
		l.Info("ratelimit_enabled", "qps", cfg.RateLimitQPS)
	}
	handler = middleware.Recover(cfg.Production())(handler)
	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		if cfg.TLSEnable {
			host := strings.TrimSpace(os.Getenv("TLS_HOST"))
			if host == "" {
				host = "geo-heatmap.local"
			}
			if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, host); err != nil {
				errc <- err
				return
			}
			l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath, "env", cfg.AppEnv)
			errc <- s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
			return
		}
		l.Info("listening", "addr", cfg.Addr, "env", cfg.AppEnv, "mock_only", cfg.MockDataOnly)
		errc <- s.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("server_error", "err", err)
			sched.Stop()
			os.Exit(1)
		}
	case <-ctx.Done():
		l.Info("shutdown_begin")
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.Shutdown(sctx); err != nil {
			l.Error("shutdown_error", "err", err)
		}
	}
	sched.Stop()
	l.Info("shutdown_done")
}
