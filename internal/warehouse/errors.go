package warehouse

import "errors"

var (
	// ErrNotConfigured：未配置数仓凭据（或以仅占位数据模式启动）
	ErrNotConfigured = errors.New("warehouse not configured")
	// ErrQuery：驱动错误、超时或熔断打开；与“确认零行”严格区分
	ErrQuery = errors.New("warehouse query failed")
	// ErrNotFound：仅由按 ID 的详情查询返回
	ErrNotFound = errors.New("not found")
)
