// 包 config：集中读取环境变量（支持 .env），避免各模块散落 os.Getenv 与默认值
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config：进程级配置快照
// 背景：启动时一次性读取，后续以值传递注入各组件；运行期不再读取环境变量
type Config struct {
	Addr      string
	APIBase   string
	AppEnv    string
	PublicDir string

	CacheDir    string
	CacheMaxAge time.Duration

	UsersFile            string
	AdminInitialPassword string
	SessionSecret        string
	SessionTTL           time.Duration
	SessionStore         string

	MockDataOnly bool
	Warehouse    WarehouseConfig

	RefreshInterval     time.Duration
	RefreshPrewarmLimit int

	Redis RedisConfig

	RateLimitEnabled bool
	RateLimitQPS     int

	AdminToken string

	TLSEnable   bool
	TLSCertPath string
	TLSKeyPath  string
}

// WarehouseConfig：数仓连接参数
// 约束：Driver 仅支持 snowflake / postgres；Snowflake 配置了私钥路径时优先使用密钥对认证
type WarehouseConfig struct {
	Driver       string
	QueryTimeout time.Duration
	MaxOpenConns int

	SnowflakeAccount        string
	SnowflakeUser           string
	SnowflakePassword       string
	SnowflakeWarehouse      string
	SnowflakeDatabase       string
	SnowflakeSchema         string
	SnowflakeRole           string
	SnowflakePrivateKeyPath string

	PGHost     string
	PGPort     string
	PGUser     string
	PGPassword string
	PGDB       string
	PGSSLMode  string
}

type RedisConfig struct {
	Host string
	Port string
	Pass string
	DB   int
}

// LoadDotenv：加载 .env 与 data/env/.env（存在即加载，不覆盖已有环境变量）
func LoadDotenv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// Load：读取环境变量构建配置
// 背景：非法数值静默回退默认值，与既有部署脚本的宽松习惯保持一致
func Load() Config {
	c := Config{
		Addr:                 str("ADDR", ":3000"),
		APIBase:              strings.TrimRight(str("API_BASE", "/api"), "/"),
		AppEnv:               strings.ToLower(str("APP_ENV", "development")),
		PublicDir:            str("PUBLIC_DIR", "public"),
		CacheDir:             str("DATA_CACHE_DIR", "data_cache"),
		CacheMaxAge:          dur("CACHE_MAX_AGE", 0),
		UsersFile:            str("USERS_FILE", filepath.Join("db", "users.json")),
		AdminInitialPassword: os.Getenv("ADMIN_INITIAL_PASSWORD"),
		SessionSecret:        os.Getenv("SESSION_SECRET"),
		SessionTTL:           dur("SESSION_TTL", 24*time.Hour),
		SessionStore:         strings.ToLower(str("SESSION_STORE", "memory")),
		MockDataOnly:         boolean("MOCK_DATA_ONLY", false),
		RefreshInterval:      dur("REFRESH_INTERVAL", time.Hour),
		RefreshPrewarmLimit:  integer("REFRESH_PREWARM_LIMIT", 5),
		RateLimitEnabled:     boolean("RATE_LIMIT_ENABLED", false),
		RateLimitQPS:         integer("RATE_LIMIT_QPS", 200),
		AdminToken:           os.Getenv("ADMIN_TOKEN"),
		TLSEnable:            boolean("TLS_ENABLE", false),
		TLSCertPath:          str("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKeyPath:           str("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),
	}
	if c.APIBase == "" {
		c.APIBase = "/api"
	}
	c.Warehouse = WarehouseConfig{
		Driver:                  strings.ToLower(str("WAREHOUSE_DRIVER", "snowflake")),
		QueryTimeout:            dur("WAREHOUSE_QUERY_TIMEOUT", 30*time.Second),
		MaxOpenConns:            integer("WAREHOUSE_MAX_OPEN_CONNS", 8),
		SnowflakeAccount:        os.Getenv("SNOWFLAKE_ACCOUNT"),
		SnowflakeUser:           os.Getenv("SNOWFLAKE_USER"),
		SnowflakePassword:       os.Getenv("SNOWFLAKE_PASSWORD"),
		SnowflakeWarehouse:      str("SNOWFLAKE_WAREHOUSE", "COMPUTE_WH"),
		SnowflakeDatabase:       os.Getenv("SNOWFLAKE_DATABASE"),
		SnowflakeSchema:         str("SNOWFLAKE_SCHEMA", "ANALYTICS"),
		SnowflakeRole:           os.Getenv("SNOWFLAKE_ROLE"),
		SnowflakePrivateKeyPath: os.Getenv("SNOWFLAKE_PRIVATE_KEY_PATH"),
		PGHost:                  str("PG_HOST", "localhost"),
		PGPort:                  str("PG_PORT", "5432"),
		PGUser:                  str("PG_USER", "postgres"),
		PGPassword:              os.Getenv("PG_PASSWORD"),
		PGDB:                    str("PG_DB", "heatmap"),
		PGSSLMode:               str("PG_SSLMODE", "disable"),
	}
	c.Redis = RedisConfig{
		Host: str("REDIS_HOST", "127.0.0.1"),
		Port: str("REDIS_PORT", "6379"),
		Pass: os.Getenv("REDIS_PASS"),
		DB:   integer("REDIS_DB", 0),
	}
	if c.RefreshPrewarmLimit < 0 {
		c.RefreshPrewarmLimit = 0
	}
	return c
}

// Production：是否生产环境（决定错误信息脱敏与 Cookie Secure）
func (c Config) Production() bool { return c.AppEnv == "production" }

// Configured：数仓凭据是否齐备
// 约束：Snowflake 需要账号与用户；Postgres 仅需主机（其余均有默认值）
func (w WarehouseConfig) Configured() bool {
	switch w.Driver {
	case "postgres":
		return w.PGHost != ""
	case "snowflake":
		return w.SnowflakeAccount != "" && w.SnowflakeUser != ""
	}
	return false
}

func str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func integer(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func boolean(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// dur：支持 Go duration（30s / 1h）与纯数字秒
func dur(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
