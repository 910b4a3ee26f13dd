// 包 api：集中注册 HTTP API 路由以解耦主入口；主入口按 API_BASE 前缀挂载
package api

import (
	"context"
	"net/http"

	"geo-heatmap/internal/metrics"
	"geo-heatmap/internal/orchestrator"
	"geo-heatmap/pkg/origindefense"
)

// Health：健康检查依赖的数仓能力（由 warehouse.Gateway 实现）
type Health interface {
	Configured() bool
	BreakerState() string
	Ping(ctx context.Context) error
}

// Deps：路由依赖
// 约束：Orchestrator 必填；Scheduler 为 nil 时手动刷新同步执行；Allow 为 nil 时管理接口只校验令牌
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Scheduler    *orchestrator.Scheduler
	Health       Health
	Allow        *origindefense.Middleware
	AdminToken   string
	// Base：挂载前缀，仅用于 404 提示中还原原始路径
	Base         string
	Production   bool
	MockDataOnly bool
}

type handler struct {
	Deps
	o *orchestrator.Orchestrator
}

// BuildRoutes：构建并返回 API 路由；主入口以 http.StripPrefix(API_BASE) 挂载
func BuildRoutes(d Deps) *http.ServeMux {
	h := &handler{Deps: d, o: d.Orchestrator}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /states-gmv", h.statesGMV)
	mux.HandleFunc("GET /cities-gmv/{state}", h.citiesGMV)
	mux.HandleFunc("GET /state-stores/{state}", h.stateStores)
	mux.HandleFunc("GET /state-sellers/{state}", h.stateSellers)
	mux.HandleFunc("GET /stores/{city}/{state}", h.cityStores)
	mux.HandleFunc("GET /network/{city}/{state}", h.network)
	mux.HandleFunc("GET /store/{storeId}", h.storeDetail)
	mux.HandleFunc("GET /seller/{sellerId}", h.sellerDetail)
	mux.HandleFunc("GET /health", h.health)
	mux.Handle("GET /metrics", metrics.Handler())

	admin := http.Handler(http.HandlerFunc(h.adminRefresh))
	if d.Allow != nil {
		admin = d.Allow.Wrap(admin)
	}
	mux.Handle("/admin/refresh", admin)

	mux.HandleFunc("/", h.notFound)
	return mux
}

func (h *handler) notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Route "+r.Method+" "+h.Base+r.URL.RequestURI()+" not found")
}
