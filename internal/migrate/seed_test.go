package migrate

import (
	"context"
	"database/sql"
	"math"
	"os"
	"reflect"
	"testing"
	"time"

	_ "github.com/lib/pq"
)

func seedOpts() SeedOptions {
	return SeedOptions{
		States:          []string{"TX", "washington", "Atlantis"},
		CitiesPerState:  3,
		StoresPerCity:   2,
		SellersPerState: 4,
		OrdersPerStore:  20,
		Seed:            42,
		Now:             time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestGenerateIsDeterministicAndSized(t *testing.T) {
	a, b := Generate(seedOpts()), Generate(seedOpts())
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different datasets")
	}
	// Atlantis is skipped
	if len(a.Sellers) != 2*4 || len(a.Stores) != 2*3*2 || len(a.Orders) != 2*3*2*20 {
		t.Fatalf("sizes = %d sellers, %d stores, %d orders", len(a.Sellers), len(a.Stores), len(a.Orders))
	}
	for _, s := range a.Stores {
		if s.State != "Texas" && s.State != "Washington" {
			t.Fatalf("store state = %q", s.State)
		}
		if s.DMA == "" || s.Lat == 0 || s.Lng == 0 {
			t.Fatalf("store = %+v", s)
		}
	}
}

func TestGenerateAggregatesMatchOrders(t *testing.T) {
	opt := seedOpts()
	ds := Generate(opt)
	cur := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	prev := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	sellers := map[int64]SellerRow{}
	for _, s := range ds.Sellers {
		sellers[s.ID] = s
	}
	type agg struct {
		last, current float64
		lastN         int
		latest        time.Time
		latestSeller  int64
	}
	byStore := map[int64]*agg{}
	for _, o := range ds.Orders {
		if _, ok := sellers[o.SellerID]; !ok {
			t.Fatalf("order %d references unknown seller %d", o.ID, o.SellerID)
		}
		a := byStore[o.StoreID]
		if a == nil {
			a = &agg{}
			byStore[o.StoreID] = a
		}
		switch {
		case !o.CreatedAt.Before(cur):
			a.current += o.GMV
		case !o.CreatedAt.Before(prev):
			a.last += o.GMV
			a.lastN++
		}
		if o.CreatedAt.After(a.latest) {
			a.latest, a.latestSeller = o.CreatedAt, o.SellerID
		}
		if o.CreatedAt.After(opt.Now) || o.CreatedAt.Before(opt.Now.AddDate(0, 0, -91)) {
			t.Fatalf("order date %v out of window", o.CreatedAt)
		}
	}
	for _, s := range ds.Stores {
		a := byStore[s.ID]
		if a == nil {
			t.Fatalf("store %d has no orders", s.ID)
		}
		if math.Abs(a.last-s.GMVLastMonth) > 0.01*float64(opt.OrdersPerStore) {
			t.Errorf("store %d last month %v != %v", s.ID, s.GMVLastMonth, a.last)
		}
		if math.Abs(a.current-s.GMVCurrentMonth) > 0.01*float64(opt.OrdersPerStore) {
			t.Errorf("store %d current month %v != %v", s.ID, s.GMVCurrentMonth, a.current)
		}
		if a.lastN != s.OrdersLastMonth {
			t.Errorf("store %d orders last month %d != %d", s.ID, s.OrdersLastMonth, a.lastN)
		}
		if s.LatestSellerID != a.latestSeller || sellers[s.LatestSellerID].LastName != s.SellerLastName {
			t.Errorf("store %d latest seller %d != %d", s.ID, s.LatestSellerID, a.latestSeller)
		}
	}
}

// 需要本地 Postgres：HEATMAP_TEST_PG=postgres://postgres@localhost:5432/heatmap_test?sslmode=disable
func TestInsertIntoPostgres(t *testing.T) {
	dsn := os.Getenv("HEATMAP_TEST_PG")
	if dsn == "" {
		t.Skip("HEATMAP_TEST_PG not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatal(err)
	}
	if err := Reset(ctx, db); err != nil {
		t.Fatal(err)
	}
	ds := Generate(seedOpts())
	if err := Insert(ctx, db, ds, 7); err != nil {
		t.Fatal(err)
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ORDERS`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != len(ds.Orders) {
		t.Fatalf("orders = %d, want %d", n, len(ds.Orders))
	}
}
