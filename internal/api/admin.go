package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"geo-heatmap/internal/logger"
)

// health：数仓配置与熔断状态、最近一次刷新报告
// 约束：默认不访问数仓；?deep=1 时额外 Ping（5s 超时）
func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	wh := map[string]any{"configured": false, "breaker": "disabled"}
	if h.Health != nil {
		configured := h.Health.Configured()
		breaker := h.Health.BreakerState()
		wh["configured"] = configured
		wh["breaker"] = breaker
		if breaker == "open" {
			status = "degraded"
		}
		if configured && r.URL.Query().Get("deep") == "1" {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			err := h.Health.Ping(ctx)
			cancel()
			if err != nil {
				status = "degraded"
				wh["ping"] = "error"
				if !h.Production {
					wh["error"] = err.Error()
				}
			} else {
				wh["ping"] = "ok"
			}
		}
	}
	body := map[string]any{"status": status, "mockDataOnly": h.MockDataOnly, "warehouse": wh}
	if h.Scheduler != nil {
		if rep, ok := h.Scheduler.Last(); ok {
			body["lastRefresh"] = rep
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// adminRefresh：手动触发刷新（POST）或查看最近一次报告（GET）
// 背景：需要 x-admin-token；未配置 ADMIN_TOKEN 时接口整体关闭
// 约束：有调度器时只投递触发信号并返回 202，无调度器时同步执行并返回报告
func (h *handler) adminRefresh(w http.ResponseWriter, r *http.Request) {
	t := r.Header.Get("x-admin-token")
	if h.AdminToken == "" || subtle.ConstantTimeCompare([]byte(t), []byte(h.AdminToken)) != 1 {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}
	switch r.Method {
	case http.MethodGet:
		var report any
		if h.Scheduler != nil {
			if rep, ok := h.Scheduler.Last(); ok {
				report = rep
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"report": report})
	case http.MethodPost:
		if h.Scheduler == nil {
			rep := h.o.Refresh(r.Context())
			writeJSON(w, http.StatusOK, rep)
			return
		}
		queued := h.Scheduler.Trigger()
		logger.L().Info("admin_refresh_trigger", "queued", queued)
		writeJSON(w, http.StatusAccepted, map[string]bool{"queued": queued})
	default:
		w.Header().Set("allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
