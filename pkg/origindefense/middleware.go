// 包 origindefense：IP / CIDR 白名单中间件，保护管理类接口
package origindefense

import (
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
)

// Options：白名单参数
type Options struct {
	AllowIPs   []string
	AllowCIDRs []string
	// AllowLocal：放行 127.0.0.1 与 ::1（本地开发）
	AllowLocal bool
	// RealIPHeader：上游真实 IP 头（取首个有效 IP）；为空时以 RemoteAddr 为准
	RealIPHeader string
}

// Middleware：源站白名单
// 背景：管理接口（如手动刷新）只对运维网段与本机开放，其余请求统一 403
// 约束：
// 1) 不依赖项目内部代码，可独立复用；
// 2) 支持 IPv4/IPv6 CIDR；
// 3) 未配置任何规则时不拦截。
type Middleware struct {
	l            *slog.Logger
	allowIPs     map[string]struct{}
	allowCIDRs   []*net.IPNet
	realIPHeader string
}

// New：非法 IP / CIDR 记 warn 日志后忽略
func New(l *slog.Logger, opt Options) *Middleware {
	if l == nil {
		l = slog.Default()
	}
	m := &Middleware{l: l, allowIPs: map[string]struct{}{}, realIPHeader: strings.TrimSpace(opt.RealIPHeader)}
	for _, p := range opt.AllowIPs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if ip := net.ParseIP(p); ip != nil {
			m.allowIPs[ip.String()] = struct{}{}
		} else {
			l.Warn("origin_defense_bad_ip", "value", p)
		}
	}
	for _, c := range opt.AllowCIDRs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, n, err := net.ParseCIDR(c); err == nil {
			m.allowCIDRs = append(m.allowCIDRs, n)
		} else {
			l.Warn("origin_defense_bad_cidr", "value", c)
		}
	}
	if opt.AllowLocal {
		m.allowIPs["127.0.0.1"] = struct{}{}
		m.allowIPs["::1"] = struct{}{}
	}
	return m
}

// NewFromEnv：按环境变量构建
// 环境变量：
// ORIGIN_ALLOW_IPS=1.2.3.4,5.6.7.8       允许的单 IP 列表（逗号分隔）
// ORIGIN_ALLOW_CIDRS=10.0.0.0/8,...      允许的 CIDR 列表（逗号分隔，支持 v4/v6）
// ORIGIN_ALLOW_LOCAL=true                 允许 127.0.0.1/::1（本地开发）
// ORIGIN_REAL_IP_HEADER=X-Forwarded-For   指定上游真实 IP 头（首个有效 IP 生效）
func NewFromEnv(l *slog.Logger) *Middleware {
	return New(l, Options{
		AllowIPs:     splitList(os.Getenv("ORIGIN_ALLOW_IPS")),
		AllowCIDRs:   splitList(os.Getenv("ORIGIN_ALLOW_CIDRS")),
		AllowLocal:   os.Getenv("ORIGIN_ALLOW_LOCAL") == "true",
		RealIPHeader: os.Getenv("ORIGIN_REAL_IP_HEADER"),
	})
}

// Enabled：是否配置了任何规则
func (m *Middleware) Enabled() bool {
	return len(m.allowIPs) > 0 || len(m.allowCIDRs) > 0
}

// Wrap：生成 http.Handler 中间件
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if !m.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Allowed(r) {
			next.ServeHTTP(w, r)
			return
		}
		write403(w)
	})
}

// Allowed：请求来源是否在白名单内
func (m *Middleware) Allowed(r *http.Request) bool {
	ip := m.extractIP(r)
	if ip == nil {
		m.l.Debug("origin_defense_block", "reason", "no_ip")
		return false
	}
	if _, ok := m.allowIPs[ip.String()]; ok {
		return true
	}
	for _, n := range m.allowCIDRs {
		if n.Contains(ip) {
			return true
		}
	}
	m.l.Debug("origin_defense_block", "ip", ip.String())
	return false
}

// extractIP：解析请求来源 IP；优先指定头的首个有效 IP
func (m *Middleware) extractIP(r *http.Request) net.IP {
	if m.realIPHeader != "" {
		if raw := r.Header.Get(m.realIPHeader); raw != "" {
			first, _, _ := strings.Cut(raw, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip
			}
		}
	}
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return net.ParseIP(host)
}

func write403(w http.ResponseWriter) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"Forbidden"}` + "\n"))
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
