// 包 utils：数仓连接（Snowflake / Postgres）、Redis 与 TLS 证书的打开与引导
package utils

import (
	"crypto/rsa"
	"crypto/x509"
	"database/sql"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"os"

	_ "github.com/lib/pq"
	"github.com/snowflakedb/gosnowflake"

	"geo-heatmap/internal/config"
	"geo-heatmap/internal/logger"
)

// BuildPostgresDSN：由配置拼装 Postgres 连接串
func BuildPostgresDSN(w config.WarehouseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   w.PGHost + ":" + w.PGPort,
		Path:   "/" + w.PGDB,
	}
	if w.PGPassword != "" {
		u.User = url.UserPassword(w.PGUser, w.PGPassword)
	} else {
		u.User = url.User(w.PGUser)
	}
	q := url.Values{}
	q.Set("sslmode", w.PGSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// OpenPostgres：打开 Postgres 连接池（开发数仓与种子工具共用）
func OpenPostgres(w config.WarehouseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSN(w))
	if err != nil {
		return nil, err
	}
	applyPool(db, w.MaxOpenConns)
	return db, nil
}

// SnowflakeConfig：由配置构建驱动参数
// 约束：配置了私钥路径时使用 JWT 密钥对认证，否则使用密码
func SnowflakeConfig(w config.WarehouseConfig) (*gosnowflake.Config, error) {
	c := &gosnowflake.Config{
		Account:   w.SnowflakeAccount,
		User:      w.SnowflakeUser,
		Warehouse: w.SnowflakeWarehouse,
		Database:  w.SnowflakeDatabase,
		Schema:    w.SnowflakeSchema,
		Role:      w.SnowflakeRole,
	}
	if w.SnowflakePrivateKeyPath != "" {
		key, err := LoadRSAPrivateKey(w.SnowflakePrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("snowflake private key: %w", err)
		}
		c.Authenticator = gosnowflake.AuthTypeJwt
		c.PrivateKey = key
	} else {
		c.Password = w.SnowflakePassword
	}
	return c, nil
}

// OpenSnowflake：打开 Snowflake 连接池；不主动建连，首个查询或 Ping 时才握手
func OpenSnowflake(w config.WarehouseConfig) (*sql.DB, error) {
	c, err := SnowflakeConfig(w)
	if err != nil {
		return nil, err
	}
	dsn, err := gosnowflake.DSN(c)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, err
	}
	applyPool(db, w.MaxOpenConns)
	logger.L().Debug("snowflake_open", "account", w.SnowflakeAccount, "warehouse", w.SnowflakeWarehouse, "database", w.SnowflakeDatabase, "keypair", c.PrivateKey != nil)
	return db, nil
}

// OpenWarehouse：按 Driver 打开数仓
// 返回：凭据不全时返回 (nil, nil)，调用方据此进入未配置模式
func OpenWarehouse(w config.WarehouseConfig) (*sql.DB, error) {
	if !w.Configured() {
		return nil, nil
	}
	switch w.Driver {
	case "postgres":
		return OpenPostgres(w)
	case "snowflake":
		return OpenSnowflake(w)
	}
	return nil, fmt.Errorf("unsupported warehouse driver %q", w.Driver)
}

func applyPool(db *sql.DB, maxOpen int) {
	if maxOpen <= 0 {
		maxOpen = 8
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
}

// LoadRSAPrivateKey：读取 PEM 私钥（PKCS#8 或 PKCS#1）
func LoadRSAPrivateKey(path string) (*rsa.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	blk, _ := pem.Decode(b)
	if blk == nil {
		return nil, errors.New("no PEM block found")
	}
	if k, err := x509.ParsePKCS8PrivateKey(blk.Bytes); err == nil {
		rk, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("private key is not RSA")
		}
		return rk, nil
	}
	return x509.ParsePKCS1PrivateKey(blk.Bytes)
}
