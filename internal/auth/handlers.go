package auth

import (
	"crypto/rand"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"geo-heatmap/internal/logger"
)

// Options：会话与页面参数
type Options struct {
	// Secret：Cookie 签名密钥；为空时进程内随机生成（重启后旧 Cookie 全部失效）
	Secret    string
	TTL       time.Duration
	Secure    bool
	PublicDir string
}

// Manager：登录、注册、注销与鉴权中间件
type Manager struct {
	users     *UserStore
	sessions  SessionStore
	sign      signer
	ttl       time.Duration
	secure    bool
	publicDir string
}

func NewManager(users *UserStore, sessions SessionStore, opt Options) *Manager {
	key := []byte(opt.Secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
		logger.L().Warn("auth_session_secret_random")
	}
	if opt.TTL <= 0 {
		opt.TTL = 24 * time.Hour
	}
	return &Manager{
		users:     users,
		sessions:  sessions,
		sign:      signer{key: key},
		ttl:       opt.TTL,
		secure:    opt.Secure,
		publicDir: opt.PublicDir,
	}
}

// Current：解析请求携带的会话
// 约束：签名不符、会话不存在或存储出错都按未登录处理
func (m *Manager) Current(r *http.Request) (Session, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return Session{}, false
	}
	id, ok := m.sign.verify(c.Value)
	if !ok {
		return Session{}, false
	}
	s, ok, err := m.sessions.Get(r.Context(), id)
	if err != nil {
		logger.L().Warn("auth_session_store_error", "err", err)
		return Session{}, false
	}
	return s, ok
}

// RequireAuth：页面鉴权，未登录重定向到 /login
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := m.Current(r); !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthJSON：接口鉴权，未登录返回 401 JSON
func (m *Manager) RequireAuthJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := m.Current(r); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Register：挂载登录相关路由；apiBase 形如 /api
func (m *Manager) Register(mux *http.ServeMux, apiBase string) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/home", http.StatusFound)
	})
	mux.HandleFunc("GET /login", m.page("login.html"))
	mux.HandleFunc("POST /login", m.login)
	mux.HandleFunc("GET /register", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login?tab=register", http.StatusFound)
	})
	mux.HandleFunc("POST /register", m.register)
	mux.HandleFunc("GET /logout", m.logout)
	mux.Handle("GET /home", m.RequireAuth(m.page("home.html")))
	mux.Handle("GET "+apiBase+"/user/info", m.RequireAuthJSON(http.HandlerFunc(m.userInfo)))
}

func (m *Manager) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(m.publicDir, name))
	}
}

func (m *Manager) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login?error=invalid", http.StatusFound)
		return
	}
	username := r.PostFormValue("username")
	u, err := m.users.Authenticate(username, r.PostFormValue("password"))
	if err != nil {
		logger.L().Info("auth_login_failed", "username", username)
		http.Redirect(w, r, "/login?error=invalid", http.StatusFound)
		return
	}
	id := uuid.NewString()
	if err := m.sessions.Set(r.Context(), id, Session{UserID: u.ID, Username: u.Username, Role: u.Role}); err != nil {
		logger.L().Error("auth_session_store_error", "err", err)
		http.Redirect(w, r, "/login?error=invalid", http.StatusFound)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    m.sign.sign(id),
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	logger.L().Info("auth_login_ok", "username", u.Username, "role", u.Role)
	http.Redirect(w, r, "/home", http.StatusFound)
}

func (m *Manager) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login?error=registration&tab=register", http.StatusFound)
		return
	}
	u, err := m.users.Register(r.PostFormValue("username"), r.PostFormValue("email"), r.PostFormValue("password"))
	switch {
	case errors.Is(err, ErrUserExists):
		http.Redirect(w, r, "/login?error=exists&tab=register", http.StatusFound)
	case err != nil:
		logger.L().Warn("auth_register_failed", "err", err)
		http.Redirect(w, r, "/login?error=registration&tab=register", http.StatusFound)
	default:
		logger.L().Info("auth_register_ok", "username", u.Username, "id", u.ID)
		http.Redirect(w, r, "/login?success=registered", http.StatusFound)
	}
}

func (m *Manager) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		if id, ok := m.sign.verify(c.Value); ok {
			if err := m.sessions.Delete(r.Context(), id); err != nil {
				logger.L().Warn("auth_session_store_error", "err", err)
			}
		}
	}
	http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: m.secure})
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (m *Manager) userInfo(w http.ResponseWriter, r *http.Request) {
	s, _ := m.Current(r)
	writeJSON(w, http.StatusOK, map[string]string{"username": s.Username, "role": s.Role})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
