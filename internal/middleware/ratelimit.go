// 包 middleware：入口限流与 panic 兜底
package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"geo-heatmap/internal/logger"
)

// RateLimit：令牌桶限流（全进程共享一个桶）
// 背景：数仓查询昂贵，峰值时在入口限速，避免击穿缓存后把压力传到数仓
// 约束：不排队，超限直接返回 429；qps<=0 时不限流
func RateLimit(qps int) func(http.Handler) http.Handler {
	if qps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	lim := rate.NewLimiter(rate.Limit(qps), qps)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				logger.L().Debug("rate_limited", "path", r.URL.Path, "ip", r.RemoteAddr)
				w.Header().Set("retry-after", "1")
				writeError(w, http.StatusTooManyRequests, "Too many requests", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
