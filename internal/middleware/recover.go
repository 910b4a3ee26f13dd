package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/goccy/go-json"

	"geo-heatmap/internal/logger"
)

// Recover：把处理器中的 panic 转为 500
// 约束：production 下响应体只有通用错误；其余环境附带 message 便于排查
func Recover(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				logger.L().Error("http_panic", "path", r.URL.Path, "panic", fmt.Sprint(p), "stack", string(debug.Stack()))
				msg := ""
				if !production {
					msg = fmt.Sprint(p)
				}
				writeError(w, http.StatusInternalServerError, "Internal server error", msg)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, code int, errText, message string) {
	body := map[string]string{"error": errText}
	if message != "" {
		body["message"] = message
	}
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
