// 包 migrate：本地 Postgres 开发数仓的表结构与种子数据
package migrate

import (
	"context"
	"database/sql"

	"geo-heatmap/internal/logger"
)

// 背景：开发与演示环境没有 Snowflake 时，用同名表在 Postgres 中复现查询契约
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；标识符不加引号，与查询中的大写列名按 Postgres 规则折叠后一致
var schemaStmts = []string{
	`CREATE TABLE IF NOT EXISTS SELLERS (
            SELLER_ID BIGINT PRIMARY KEY,
            SELLER_FIRST_NAME TEXT NOT NULL,
            SELLER_LAST_NAME TEXT NOT NULL,
            SELLER_FULL_NAME TEXT NOT NULL,
            SELLER_ADDRESS TEXT,
            SELLER_CITY TEXT,
            SELLER_STATE TEXT,
            SELLER_ZIP_CODE TEXT,
            LATITUDE DOUBLE PRECISION,
            LONGITUDE DOUBLE PRECISION,
            SELLER_TOTAL_GMV NUMERIC(14,2) NOT NULL DEFAULT 0,
            GMV_LAST_MONTH NUMERIC(14,2) NOT NULL DEFAULT 0,
            GMV_MTD NUMERIC(14,2) NOT NULL DEFAULT 0,
            STORES_LAST_MONTH INT NOT NULL DEFAULT 0,
            ORDERS_MTD INT NOT NULL DEFAULT 0
        )`,
	`CREATE INDEX IF NOT EXISTS idx_sellers_state ON SELLERS(SELLER_STATE)`,
	`CREATE TABLE IF NOT EXISTS STORES (
            STORE_ID BIGINT PRIMARY KEY,
            SELLER_ID BIGINT,
            LATEST_SELLER_ID BIGINT,
            SELLER_FIRST_NAME TEXT,
            SELLER_LAST_NAME TEXT,
            STORE_LOCATION_NAME TEXT NOT NULL,
            STORE_ADDRESS TEXT,
            STORE_CITY TEXT,
            STORE_STATE TEXT,
            STORE_ZIP_CODE TEXT,
            STORE_DMA_NAME TEXT,
            LATITUDE DOUBLE PRECISION,
            LONGITUDE DOUBLE PRECISION,
            STORE_LIFETIME_GMV NUMERIC(14,2) NOT NULL DEFAULT 0,
            STORE_LIFETIME_ORDERS INT NOT NULL DEFAULT 0,
            GMV_LAST_MONTH NUMERIC(14,2) NOT NULL DEFAULT 0,
            GMV_CURRENT_MONTH NUMERIC(14,2) NOT NULL DEFAULT 0,
            ORDERS_LAST_MONTH INT NOT NULL DEFAULT 0
        )`,
	`CREATE INDEX IF NOT EXISTS idx_stores_state ON STORES(STORE_STATE)`,
	`CREATE INDEX IF NOT EXISTS idx_stores_city ON STORES(STORE_CITY, STORE_DMA_NAME)`,
	`CREATE TABLE IF NOT EXISTS ORDERS (
            ORDER_ID BIGINT PRIMARY KEY,
            STORE_ID BIGINT NOT NULL REFERENCES STORES(STORE_ID),
            SELLER_ID BIGINT NOT NULL REFERENCES SELLERS(SELLER_ID),
            ORDER_GMV NUMERIC(12,2) NOT NULL,
            ORDER_CREATED_AT TIMESTAMP NOT NULL
        )`,
	`CREATE INDEX IF NOT EXISTS idx_orders_store ON ORDERS(STORE_ID, ORDER_CREATED_AT)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_seller ON ORDERS(SELLER_ID, ORDER_CREATED_AT)`,
}

// EnsureSchema：首次运行创建三张表与索引
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range schemaStmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}

// Reset：清空三张表（种子工具 -reset 使用）
func Reset(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `TRUNCATE ORDERS, STORES, SELLERS`)
	return err
}
