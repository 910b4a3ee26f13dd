package warehouse

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeConn：按绑定参数返回预置行，并记录收到的查询
type fakeConn struct {
	mu      sync.Mutex
	respond func(q string, args []any) ([]Row, error)
	calls   []call
}

type call struct {
	q    string
	args []any
}

func (f *fakeConn) Query(ctx context.Context, q string, args ...any) ([]Row, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{q: q, args: args})
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.respond(q, args)
}

func (f *fakeConn) Ping(ctx context.Context) error { return nil }
func (f *fakeConn) Close() error                   { return nil }

func hasArg(args []any, v string) bool {
	for _, a := range args {
		if s, ok := a.(string); ok && s == v {
			return true
		}
	}
	return false
}

func TestUnconfiguredGateway(t *testing.T) {
	g := New(nil, Options{})
	if g.Configured() {
		t.Fatal("nil conn should be unconfigured")
	}
	if _, err := g.FetchRegions(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
	if _, err := g.FetchStoreDetail(context.Background(), 1); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
	if g.BreakerState() != "disabled" {
		t.Fatalf("breaker = %s", g.BreakerState())
	}
}

func TestFetchRegionsNormalizesAndMerges(t *testing.T) {
	fc := &fakeConn{respond: func(q string, args []any) ([]Row, error) {
		return []Row{
			{"STATE": "TX", "STORE_COUNT": int64(3), "TOTAL_GMV": "1000.5"},
			{"state": "california", "store_count": []byte("7"), "total_gmv": float64(5000)},
			{"STATE": "Texas", "STORE_COUNT": int64(2), "TOTAL_GMV": float64(500)},
			{"STATE": "Puerto Rico", "STORE_COUNT": int64(9), "TOTAL_GMV": float64(9e9)},
			{"STATE": nil, "STORE_COUNT": int64(1)},
		}, nil
	}}
	g := New(fc, Options{})
	got, err := g.FetchRegions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 regions, got %+v", got)
	}
	if got[0].StateCode != "CA" || got[0].State != "California" || got[0].StoreCount != 7 {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].StateCode != "TX" || got[1].StoreCount != 5 || got[1].TotalGMV != 1500.5 {
		t.Fatalf("merged texas = %+v", got[1])
	}
}

func TestFetchSubRegionsBindsCandidatesAndDerivesAverage(t *testing.T) {
	fc := &fakeConn{respond: func(q string, args []any) ([]Row, error) {
		return []Row{
			{"CITY": "HOUSTON", "STORE_COUNT": int64(4), "TOTAL_GMV": float64(400), "AVG_GMV_PER_STORE": float64(1), "LATITUDE": 29.7, "LONGITUDE": -95.3},
			{"CITY": "NOWHERE", "STORE_COUNT": int64(0), "TOTAL_GMV": float64(0), "LATITUDE": nil, "LONGITUDE": -95.3},
			{"CITY": "HALFWAY", "STORE_COUNT": int64(2), "TOTAL_GMV": float64(50), "LATITUDE": 0.0, "LONGITUDE": -97.0},
			{"city": "AUSTIN", "store_count": int64(0), "total_gmv": float64(0), "latitude": "30.2", "longitude": "-97.7"},
		}, nil
	}}
	g := New(fc, Options{})
	got, err := g.FetchSubRegions(context.Background(), "tx'; DROP TABLE STORES; --")
	if err != nil {
		t.Fatal(err)
	}
	q := fc.calls[0].q
	if strings.Contains(q, "DROP") {
		t.Fatal("region identifier interpolated into SQL")
	}
	if len(got) != 2 {
		t.Fatalf("rows without coordinates must be dropped: %+v", got)
	}
	for _, s := range got {
		if !s.HasCoordinates() {
			t.Fatalf("kept row without both coordinates: %+v", s)
		}
	}
	if got[0].City != "HOUSTON" || got[0].AvgGMVPerStore != 100 {
		t.Fatalf("houston = %+v", got[0])
	}
	if got[1].AvgGMVPerStore != 0 {
		t.Fatalf("zero store count must yield 0 avg, got %v", got[1].AvgGMVPerStore)
	}
}

func TestStateStoresMatchesAnyCandidate(t *testing.T) {
	fc := &fakeConn{respond: func(q string, args []any) ([]Row, error) {
		if !hasArg(args, "Texas") {
			return []Row{}, nil
		}
		return []Row{{"STORE_ID": int64(11), "STORE_STATE": "Texas", "LATITUDE": 30.0, "LONGITUDE": -97.0, "ORDERS_MTD_GMV": "12.5"}}, nil
	}}
	g := New(fc, Options{})
	got, err := g.FetchStoreLocations(context.Background(), "TX")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].StoreID != 11 {
		t.Fatalf("got %+v", got)
	}
	if got[0].OrdersMTDGMV == nil || *got[0].OrdersMTDGMV != 12.5 {
		t.Fatalf("mtd gmv = %v", got[0].OrdersMTDGMV)
	}
	if len(fc.calls) != 1 {
		t.Fatalf("OR-chain should resolve in one round trip, got %d", len(fc.calls))
	}
	if n := strings.Count(fc.calls[0].q, "s.STORE_STATE = ?"); n != len(fc.calls[0].args) {
		t.Fatalf("placeholders %d vs args %d", n, len(fc.calls[0].args))
	}
}

func TestRegionRetryUsesUntriedAlternates(t *testing.T) {
	fc := &fakeConn{respond: func(q string, args []any) ([]Row, error) {
		if hasArg(args, "Tejas") {
			return []Row{{"SELLER_ID": int64(5), "LATITUDE": 1.0, "LONGITUDE": 2.0}}, nil
		}
		return []Row{}, nil
	}}
	g := New(fc, Options{})
	got, err := g.FetchSellerEntities(context.Background(), "TEJAS")
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.calls) != 2 {
		t.Fatalf("expected one retry, got %d calls", len(fc.calls))
	}
	for _, a := range fc.calls[1].args {
		if hasArg(fc.calls[0].args, a.(string)) {
			t.Fatalf("retry repeated an already tried form %q", a)
		}
	}
	if len(got) != 1 || got[0].SellerID != 5 {
		t.Fatalf("got %+v", got)
	}
}

func TestConfirmedZeroRowsIsNotAnError(t *testing.T) {
	fc := &fakeConn{respond: func(string, []any) ([]Row, error) { return nil, nil }}
	g := New(fc, Options{})
	got, err := g.FetchNetworkEdges(context.Background(), "Austin", "Texas")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
	// 城市名原样一次、大写重试一次
	if len(fc.calls) != 2 || fc.calls[1].args[0] != "AUSTIN" {
		t.Fatalf("calls = %+v", fc.calls)
	}
}

func TestQueryErrorIsWrapped(t *testing.T) {
	boom := errors.New("network down")
	fc := &fakeConn{respond: func(string, []any) ([]Row, error) { return nil, boom }}
	g := New(fc, Options{})
	_, err := g.FetchRegions(context.Background())
	if !errors.Is(err, ErrQuery) || !errors.Is(err, boom) || !IsTransient(err) {
		t.Fatalf("err = %v", err)
	}
}

func TestQueryTimeout(t *testing.T) {
	fc := &fakeConn{respond: func(string, []any) ([]Row, error) {
		time.Sleep(50 * time.Millisecond)
		return nil, context.DeadlineExceeded
	}}
	g := New(fc, Options{QueryTimeout: 10 * time.Millisecond})
	_, err := g.FetchRegions(context.Background())
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("err = %v", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	fc := &fakeConn{respond: func(string, []any) ([]Row, error) { return nil, errors.New("x") }}
	g := New(fc, Options{Breaker: BreakerSettings{MaxFailures: 2, Cooldown: time.Hour}})
	for i := 0; i < 2; i++ {
		_, _ = g.FetchRegions(context.Background())
	}
	if g.BreakerState() != "open" {
		t.Fatalf("breaker = %s", g.BreakerState())
	}
	before := len(fc.calls)
	_, err := g.FetchRegions(context.Background())
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("open breaker should surface ErrQuery, got %v", err)
	}
	if len(fc.calls) != before {
		t.Fatal("open breaker must not reach the warehouse")
	}
}

func TestDetailNotFound(t *testing.T) {
	fc := &fakeConn{respond: func(q string, args []any) ([]Row, error) {
		if args[0].(int64) == 42 {
			return []Row{{"store_id": int64(42), "store_location_name": "Main St", "current_month_gmv": "10", "last_order_date": time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}}, nil
		}
		return []Row{}, nil
	}}
	g := New(fc, Options{})
	s, err := g.FetchStoreDetail(context.Background(), 42)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "Main St" || s.CurrentMonthGMV == nil || *s.CurrentMonthGMV != 10 || s.LastOrderDate != "2024-05-01T00:00:00Z" {
		t.Fatalf("detail = %+v", s)
	}
	if _, err := g.FetchStoreDetail(context.Background(), 99999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := g.FetchSellerDetail(context.Background(), 99999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestRebind(t *testing.T) {
	got := Postgres.Rebind("SELECT '?' WHERE a = ? AND b = ?")
	if got != "SELECT '?' WHERE a = $1 AND b = $2" {
		t.Fatalf("rebind = %q", got)
	}
	if Snowflake.Rebind("a = ?") != "a = ?" {
		t.Fatal("snowflake keeps ? placeholders")
	}
	if DialectFor("POSTGRES") != Postgres || DialectFor("anything") != Snowflake {
		t.Fatal("DialectFor")
	}
}

func TestDialectDateExpressions(t *testing.T) {
	if s := Postgres.currentMonth("x"); !strings.Contains(s, "date_trunc") {
		t.Fatal(s)
	}
	if s := Snowflake.monthsAgo("x", 2); s != "DATEDIFF(month, x, CURRENT_DATE()) = 2" {
		t.Fatal(s)
	}
	if s := Snowflake.withinDays("x", 30); s != "DATEDIFF(day, x, CURRENT_DATE()) <= 30" {
		t.Fatal(s)
	}
}
