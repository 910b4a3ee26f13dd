package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"geo-heatmap/internal/logger"
	"geo-heatmap/internal/orchestrator"
	"geo-heatmap/internal/warehouse"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeProvenance：聚合接口附带数据来源，便于前端与排查区分真实数据与占位数据
func writeProvenance(w http.ResponseWriter, src orchestrator.Origin, synthetic bool) {
	w.Header().Set("x-data-source", string(src))
	w.Header().Set("x-data-synthetic", strconv.FormatBool(synthetic))
}

// fail：查询错误映射为 HTTP 状态
// 约束：未配置 -> 503；按 ID 查无 -> 404；其余 -> 500，production 下不回显驱动错误
func (h *handler) fail(w http.ResponseWriter, op string, err error, notFound string) {
	switch {
	case errors.Is(err, warehouse.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Database connection unavailable")
	case errors.Is(err, warehouse.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	default:
		logger.L().Warn("api_query_error", "op", op, "err", err)
		msg := "Database query failed"
		if !h.Production {
			msg += ": " + err.Error()
		}
		writeError(w, http.StatusInternalServerError, msg)
	}
}
