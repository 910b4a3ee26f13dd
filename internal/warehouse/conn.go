// 包 warehouse：数仓查询网关
// 背景：所有查询参数绑定；列名大小写不一、数值类型不一的行在此统一归一化为 model 记录
package warehouse

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Row：一行查询结果（列名 -> 值），取值大小写不敏感
type Row map[string]any

// Conn：网关依赖的最小查询能力，便于以假实现测试
type Conn interface {
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	Ping(ctx context.Context) error
	Close() error
}

// SQLConn：基于 database/sql 的实现
// 约束：query 使用 ? 占位符，Postgres 方言下由 Rebind 改写为 $n
type SQLConn struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLConn：包装已打开的连接池；连接池在所有请求间共享
func NewSQLConn(db *sql.DB, d Dialect) *SQLConn {
	return &SQLConn{db: db, dialect: d}
}

func (c *SQLConn) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := c.db.QueryContext(ctx, c.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := []Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(Row, len(cols))
		for i, col := range cols {
			r[col] = vals[i]
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (c *SQLConn) Ping(ctx context.Context) error { return c.db.PingContext(ctx) }

func (c *SQLConn) Close() error { return c.db.Close() }

// DB：底层连接池（运维工具使用）
func (c *SQLConn) DB() *sql.DB { return c.db }

func (r Row) get(key string) (any, bool) {
	if v, ok := r[key]; ok {
		return v, true
	}
	if v, ok := r[strings.ToUpper(key)]; ok {
		return v, true
	}
	if v, ok := r[strings.ToLower(key)]; ok {
		return v, true
	}
	for k, v := range r {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// Has：列存在且非 NULL
func (r Row) Has(key string) bool {
	v, ok := r.get(key)
	return ok && v != nil
}

// Float：数值列；缺失、NULL 或无法解析时为 0
func (r Row) Float(key string) float64 {
	v, _ := r.get(key)
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int:
		return float64(x)
	case uint64:
		return float64(x)
	case []byte:
		f, _ := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f
	}
	return 0
}

// Int：整数列；浮点与字符串形式按截断处理
func (r Row) Int(key string) int64 {
	v, _ := r.get(key)
	switch x := v.(type) {
	case int64:
		return x
	case int32:
		return int64(x)
	case int:
		return int64(x)
	case uint64:
		return int64(x)
	}
	return int64(r.Float(key))
}

// String：文本列；时间按 RFC3339 输出
func (r Row) String(key string) string {
	v, _ := r.get(key)
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return ""
}

// FloatPtr / IntPtr：列存在时返回指针，用于仅部分查询才有的聚合列
func (r Row) FloatPtr(key string) *float64 {
	if _, ok := r.get(key); !ok {
		return nil
	}
	f := r.Float(key)
	return &f
}

func (r Row) IntPtr(key string) *int64 {
	if _, ok := r.get(key); !ok {
		return nil
	}
	n := r.Int(key)
	return &n
}
