// 包 auth：账号存储（bcrypt）、会话存储（内存 LRU / Redis）、签名 Cookie 与登录相关路由
package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"geo-heatmap/internal/logger"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	// createdAt 与既有 users.json 保持同一格式（毫秒 + Z）
	createdAtLayout = "2006-01-02T15:04:05.000Z"
)

var (
	ErrUserExists         = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidInput       = errors.New("username and password are required")
)

// User：users.json 中的一条记录；Password 为 bcrypt 哈希
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

type userFile struct {
	Users []User `json:"users"`
}

// UserStore：基于单个 JSON 文件的账号存储
// 背景：账号量很小，整文件读入内存，变更后整文件原子替换
// 约束：文件不存在时创建；为空时引导一个 admin 账号
type UserStore struct {
	mu    sync.Mutex
	path  string
	cost  int
	users []User
}

// OpenUserStore：打开（必要时创建）账号文件
// 背景：adminPassword 为空时生成随机口令并以 warn 日志输出一次，供首次登录使用
// 返回：目录或文件无法读写时返回错误，调用方应中止启动
func OpenUserStore(path, adminPassword string) (*UserStore, error) {
	s := &UserStore{path: path, cost: bcrypt.DefaultCost}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.L().Info("auth_users_file_create", "path", path)
	case err != nil:
		return nil, err
	case len(strings.TrimSpace(string(b))) > 0:
		var f userFile
		if err := json.Unmarshal(b, &f); err != nil {
			return nil, err
		}
		s.users = f.Users
	}
	if len(s.users) == 0 {
		if err := s.bootstrap(adminPassword); err != nil {
			return nil, err
		}
	}
	logger.L().Debug("auth_users_loaded", "path", path, "count", len(s.users))
	return s, nil
}

func (s *UserStore) bootstrap(password string) error {
	generated := password == ""
	if generated {
		password = uuid.NewString()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	s.users = []User{{
		ID:        1,
		Username:  "admin",
		Email:     "admin@example.com",
		Password:  string(hash),
		Role:      RoleAdmin,
		CreatedAt: time.Now().UTC().Format(createdAtLayout),
	}}
	if err := s.persist(); err != nil {
		s.users = nil
		return err
	}
	if generated {
		logger.L().Warn("auth_admin_bootstrap", "username", "admin", "password", password)
	} else {
		logger.L().Info("auth_admin_bootstrap", "username", "admin")
	}
	return nil
}

// persist：写临时文件后 rename，调用方持有锁
func (s *UserStore) persist() error {
	b, err := json.MarshalIndent(userFile{Users: s.users}, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Register：新建普通用户
// 约束：用户名区分大小写且唯一；写盘失败时内存状态回滚
func (s *UserStore) Register(username, email, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var next int64 = 1
	for _, u := range s.users {
		if u.Username == username {
			return User{}, ErrUserExists
		}
		if u.ID >= next {
			next = u.ID + 1
		}
	}
	u := User{
		ID:        next,
		Username:  username,
		Email:     strings.TrimSpace(email),
		Password:  string(hash),
		Role:      RoleUser,
		CreatedAt: time.Now().UTC().Format(createdAtLayout),
	}
	s.users = append(s.users, u)
	if err := s.persist(); err != nil {
		s.users = s.users[:len(s.users)-1]
		return User{}, err
	}
	return u, nil
}

// Authenticate：校验口令；未知用户与口令错误返回同一个错误
func (s *UserStore) Authenticate(username, password string) (User, error) {
	s.mu.Lock()
	var (
		found User
		ok    bool
	)
	for _, u := range s.users {
		if u.Username == username {
			found, ok = u, true
			break
		}
	}
	s.mu.Unlock()
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(found.Password), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return found, nil
}

// Get：按 ID 查找
func (s *UserStore) Get(id int64) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}
