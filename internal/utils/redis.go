package utils

import (
	"github.com/redis/go-redis/v9"

	"geo-heatmap/internal/config"
	"geo-heatmap/internal/logger"
)

// OpenRedis：按配置打开 Redis 客户端（会话存储使用）
// 约束：未配置主机时返回 nil；不在此处 Ping，由调用方决定失败策略
func OpenRedis(c config.RedisConfig) *redis.Client {
	if c.Host == "" {
		return nil
	}
	addr := c.Host + ":" + c.Port
	db := c.DB
	if db < 0 {
		db = 0
	}
	logger.L().Debug("redis_open", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: c.Pass, DB: db})
}
