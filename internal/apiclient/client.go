// 包 apiclient：热力图 JSON API 的 HTTP 客户端，供终端工具与导航状态机取数
package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"geo-heatmap/internal/logger"
	"geo-heatmap/internal/metrics"
	"geo-heatmap/internal/model"
)

// StatusError：非 2xx 响应
// 约束：Message 取自响应体的 error 字段，缺失时为状态文本
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.Code, e.Message)
}

// Client：API 客户端
// 背景：路径参数统一做 PathEscape；每次请求记录耗时与状态并计入指标
type Client struct {
	base string
	hc   *http.Client
}

// New：base 形如 http://127.0.0.1:3000/api；hc 为空时使用 30s 超时的默认客户端
func New(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: strings.TrimRight(base, "/"), hc: hc}
}

func (c *Client) get(ctx context.Context, op string, out any, parts ...string) error {
	u := c.base
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	t0 := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		metrics.APIClientRequestsTotal.WithLabelValues(op, "transport_error").Inc()
		logger.L().Debug("apiclient_http_error", "op", op, "err", err)
		return err
	}
	defer resp.Body.Close()
	metrics.APIClientRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()
	logger.L().Debug("apiclient_resp", "op", op, "status", resp.StatusCode, "duration_ms", time.Since(t0).Milliseconds())
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}

func fetch[T any](ctx context.Context, c *Client, op string, parts ...string) (T, error) {
	var out T
	err := c.get(ctx, op, &out, parts...)
	return out, err
}

func statusError(op string, resp *http.Response) error {
	e := &StatusError{Op: op, Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		e.Message = body.Error
	}
	return e
}

// StatesGMV：GET /states-gmv
func (c *Client) StatesGMV(ctx context.Context) ([]model.Region, error) {
	return fetch[[]model.Region](ctx, c, "states_gmv", "states-gmv")
}

// CitiesGMV：GET /cities-gmv/:state
func (c *Client) CitiesGMV(ctx context.Context, region string) ([]model.SubRegion, error) {
	return fetch[[]model.SubRegion](ctx, c, "cities_gmv", "cities-gmv", region)
}

// StateStores：GET /state-stores/:state
func (c *Client) StateStores(ctx context.Context, region string) ([]model.StoreLocation, error) {
	return fetch[[]model.StoreLocation](ctx, c, "state_stores", "state-stores", region)
}

// StateSellers：GET /state-sellers/:state
func (c *Client) StateSellers(ctx context.Context, region string) ([]model.SellerEntity, error) {
	return fetch[[]model.SellerEntity](ctx, c, "state_sellers", "state-sellers", region)
}

// CityStores：GET /stores/:city/:state
func (c *Client) CityStores(ctx context.Context, city, region string) ([]model.StoreLocation, error) {
	return fetch[[]model.StoreLocation](ctx, c, "city_stores", "stores", city, region)
}

// Network：GET /network/:city/:state
func (c *Client) Network(ctx context.Context, city, region string) ([]model.NetworkEdge, error) {
	return fetch[[]model.NetworkEdge](ctx, c, "network", "network", city, region)
}

// StoreDetail：GET /store/:storeId
func (c *Client) StoreDetail(ctx context.Context, id int64) (model.StoreLocation, error) {
	return fetch[model.StoreLocation](ctx, c, "store_detail", "store", strconv.FormatInt(id, 10))
}

// SellerDetail：GET /seller/:sellerId
func (c *Client) SellerDetail(ctx context.Context, id int64) (model.SellerEntity, error) {
	return fetch[model.SellerEntity](ctx, c, "seller_detail", "seller", strconv.FormatInt(id, 10))
}

// Health：GET /health，原样返回 JSON 对象
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	return fetch[map[string]any](ctx, c, "health", "health")
}
