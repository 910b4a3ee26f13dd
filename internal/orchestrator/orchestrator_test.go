package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"geo-heatmap/internal/cachestore"
	"geo-heatmap/internal/mock"
	"geo-heatmap/internal/model"
	"geo-heatmap/internal/warehouse"
)

// fakeSource：可配置的数仓替身，记录每类查询的调用次数
type fakeSource struct {
	configured bool
	regions    func() ([]model.Region, error)
	subs       func(region string) ([]model.SubRegion, error)

	mu       sync.Mutex
	subCalls []string
	regCalls atomic.Int32
}

func (f *fakeSource) Configured() bool { return f.configured }

func (f *fakeSource) FetchRegions(ctx context.Context) ([]model.Region, error) {
	f.regCalls.Add(1)
	if !f.configured {
		return nil, warehouse.ErrNotConfigured
	}
	return f.regions()
}

func (f *fakeSource) FetchSubRegions(ctx context.Context, region string) ([]model.SubRegion, error) {
	f.mu.Lock()
	f.subCalls = append(f.subCalls, region)
	f.mu.Unlock()
	if !f.configured {
		return nil, warehouse.ErrNotConfigured
	}
	return f.subs(region)
}

func (f *fakeSource) FetchStoreLocations(context.Context, string) ([]model.StoreLocation, error) {
	return nil, warehouse.ErrNotConfigured
}

func (f *fakeSource) FetchSellerEntities(context.Context, string) ([]model.SellerEntity, error) {
	return nil, warehouse.ErrNotConfigured
}

func (f *fakeSource) FetchStoreLocationsByCitySubRegion(context.Context, string, string) ([]model.StoreLocation, error) {
	return nil, warehouse.ErrNotConfigured
}

func (f *fakeSource) FetchNetworkEdges(context.Context, string, string) ([]model.NetworkEdge, error) {
	return nil, warehouse.ErrNotConfigured
}

func (f *fakeSource) FetchStoreDetail(context.Context, int64) (model.StoreLocation, error) {
	return model.StoreLocation{}, warehouse.ErrNotConfigured
}

func (f *fakeSource) FetchSellerDetail(context.Context, int64) (model.SellerEntity, error) {
	return model.SellerEntity{}, warehouse.ErrNotConfigured
}

func (f *fakeSource) subCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subCalls)
}

func fixedRegions() []model.Region {
	return []model.Region{
		{State: "California", StateCode: "CA", StoreCount: 30, TotalGMV: 9000},
		{State: "Texas", StateCode: "TX", StoreCount: 20, TotalGMV: 8000},
		{State: "Ohio", StateCode: "OH", StoreCount: 5, TotalGMV: 100},
	}
}

func fixedSubRegions(region string) ([]model.SubRegion, error) {
	return []model.SubRegion{
		{City: region + " ONE", StoreCount: 4, TotalGMV: 400, AvgGMVPerStore: 100, Latitude: 30, Longitude: -90},
		{City: region + " TWO", StoreCount: 1, TotalGMV: 50, AvgGMVPerStore: 50, Latitude: 31, Longitude: -91},
	}, nil
}

func newTestOrchestrator(t *testing.T, src *fakeSource, prewarm int) (*Orchestrator, *cachestore.Store) {
	t.Helper()
	store := cachestore.New(filepath.Join(t.TempDir(), "data_cache"))
	return New(src, store, Options{PrewarmLimit: prewarm, Mock: mock.NewSeeded(1)}), store
}

func TestUnconfiguredServesAndCachesSyntheticSubRegions(t *testing.T) {
	src := &fakeSource{}
	o, store := newTestOrchestrator(t, src, 5)

	res := o.SubRegions(context.Background(), "California")
	if res.Source != FromMock || !res.Synthetic {
		t.Fatalf("result = %s synthetic=%v", res.Source, res.Synthetic)
	}
	if len(res.Records) < 5 {
		t.Fatalf("expected >=5 sub-regions, got %d", len(res.Records))
	}
	for i, s := range res.Records {
		if !s.HasCoordinates() {
			t.Fatalf("missing coordinates: %+v", s)
		}
		if i > 0 && res.Records[i-1].TotalGMV < s.TotalGMV {
			t.Fatal("not sorted by total gmv desc")
		}
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "cities_gmv_california.json")); err != nil {
		t.Fatalf("cache file not created: %v", err)
	}

	again := o.SubRegions(context.Background(), "CA")
	if again.Source != FromCache || !again.Synthetic {
		t.Fatalf("second read = %s synthetic=%v", again.Source, again.Synthetic)
	}
	if again.Records[0] != res.Records[0] {
		t.Fatal("cached records differ from served records")
	}
	if src.subCallCount() != 1 {
		t.Fatalf("expected one warehouse call, got %d", src.subCallCount())
	}
}

func TestSyntheticCacheReplacedOnceConfigured(t *testing.T) {
	src := &fakeSource{configured: true, subs: fixedSubRegions}
	o, store := newTestOrchestrator(t, src, 5)
	if err := store.Write(model.CacheEntry{Kind: model.KindSubRegion, RegionKey: "Texas", Synthetic: true, SubRegions: mock.NewSeeded(2).GenerateSubRegions("Texas")}); err != nil {
		t.Fatal(err)
	}
	res := o.SubRegions(context.Background(), "TX")
	if res.Source != FromWarehouse || res.Synthetic {
		t.Fatalf("result = %s synthetic=%v", res.Source, res.Synthetic)
	}
	e, ok := store.Read(model.KindSubRegion, "Texas")
	if !ok || e.Synthetic || e.SubRegions[0].City != "TX ONE" {
		t.Fatalf("cache not replaced with real data: %+v", e)
	}
}

func TestRealDataIsWrittenThroughAndServedFromCache(t *testing.T) {
	src := &fakeSource{configured: true, regions: func() ([]model.Region, error) { return fixedRegions(), nil }}
	o, _ := newTestOrchestrator(t, src, 5)
	first := o.Regions(context.Background())
	if first.Source != FromWarehouse || len(first.Records) != 3 {
		t.Fatalf("first = %+v", first)
	}
	second := o.Regions(context.Background())
	if second.Source != FromCache || second.Synthetic || second.Records[1].StateCode != "TX" {
		t.Fatalf("second = %+v", second)
	}
	if src.regCalls.Load() != 1 {
		t.Fatalf("warehouse calls = %d", src.regCalls.Load())
	}
}

func TestFallbacksAreNotCached(t *testing.T) {
	cases := []struct {
		name string
		subs func(string) ([]model.SubRegion, error)
	}{
		{"query_error", func(string) ([]model.SubRegion, error) {
			return nil, fmt.Errorf("%w: subregions: %w", warehouse.ErrQuery, errors.New("timeout"))
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			src := &fakeSource{configured: true, subs: c.subs}
			o, store := newTestOrchestrator(t, src, 5)
			res := o.SubRegions(context.Background(), "Ohio")
			if res.Source != FromMock || !res.Synthetic || len(res.Records) < 5 {
				t.Fatalf("result = %s synthetic=%v n=%d", res.Source, res.Synthetic, len(res.Records))
			}
			if _, ok := store.Read(model.KindSubRegion, "Ohio"); ok {
				t.Fatal("mock data must not be cached while the warehouse is configured")
			}
			o.SubRegions(context.Background(), "Ohio")
			if src.subCallCount() != 2 {
				t.Fatalf("every request should retry the warehouse, calls=%d", src.subCallCount())
			}
		})
	}
}

func TestEmptyWarehouseResultIsServedAndCached(t *testing.T) {
	for _, name := range []string{"empty", "nil"} {
		t.Run(name, func(t *testing.T) {
			src := &fakeSource{configured: true, subs: func(string) ([]model.SubRegion, error) {
				if name == "nil" {
					return nil, nil
				}
				return []model.SubRegion{}, nil
			}}
			o, store := newTestOrchestrator(t, src, 5)
			res := o.SubRegions(context.Background(), "Wyoming")
			if res.Source != FromWarehouse || res.Synthetic || res.Records == nil || len(res.Records) != 0 {
				t.Fatalf("result = %s synthetic=%v records=%v", res.Source, res.Synthetic, res.Records)
			}
			e, ok := store.Read(model.KindSubRegion, "Wyoming")
			if !ok || e.Synthetic || len(e.SubRegions) != 0 {
				t.Fatalf("cache entry = %+v ok=%v", e, ok)
			}
			again := o.SubRegions(context.Background(), "Wyoming")
			if again.Source != FromCache || len(again.Records) != 0 {
				t.Fatalf("second = %s n=%d", again.Source, len(again.Records))
			}
			if src.subCallCount() != 1 {
				t.Fatalf("warehouse calls = %d", src.subCallCount())
			}
		})
	}
}

func TestConcurrentMissesShareOneFetch(t *testing.T) {
	release := make(chan struct{})
	src := &fakeSource{configured: true, subs: func(r string) ([]model.SubRegion, error) {
		<-release
		return fixedSubRegions(r)
	}}
	o, _ := newTestOrchestrator(t, src, 5)
	var wg sync.WaitGroup
	results := make([]Result[[]model.SubRegion], 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = o.SubRegions(context.Background(), "Texas")
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	if n := src.subCallCount(); n != 1 {
		t.Fatalf("expected a single warehouse fetch, got %d", n)
	}
	for _, r := range results {
		if r.Source != FromWarehouse || len(r.Records) != 2 {
			t.Fatalf("shared result = %+v", r)
		}
	}
}

func TestCancelledCallerDoesNotAbortFill(t *testing.T) {
	src := &fakeSource{configured: true, subs: func(r string) ([]model.SubRegion, error) { return fixedSubRegions(r) }}
	o, store := newTestOrchestrator(t, src, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if res := o.SubRegions(ctx, "Texas"); res.Source != FromWarehouse {
		t.Fatalf("source = %s", res.Source)
	}
	if _, ok := store.Read(model.KindSubRegion, "Texas"); !ok {
		t.Fatal("write-through skipped")
	}
}

func readAll(t *testing.T, dir string) map[string][]byte {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	out := map[string][]byte{}
	for _, e := range entries {
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		out[e.Name()] = b
	}
	return out
}

func TestRefreshTwiceIsIdempotent(t *testing.T) {
	src := &fakeSource{configured: true, regions: func() ([]model.Region, error) { return fixedRegions(), nil }, subs: fixedSubRegions}
	o, store := newTestOrchestrator(t, src, 2)

	rep := o.Refresh(context.Background())
	if rep.Status != "ok" || rep.Regions != 3 {
		t.Fatalf("report = %+v", rep)
	}
	if len(rep.Prewarmed) != 2 || rep.Prewarmed[0] != "California" || rep.Prewarmed[1] != "Texas" {
		t.Fatalf("prewarm must follow returned order and the limit: %v", rep.Prewarmed)
	}
	first := readAll(t, store.Dir())
	names := make([]string, 0, len(first))
	for n := range first {
		names = append(names, n)
	}
	sort.Strings(names)
	want := []string{"cities_gmv_california.json", "cities_gmv_texas.json", "states_gmv.json"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Fatalf("files = %v", names)
	}

	o.Refresh(context.Background())
	second := readAll(t, store.Dir())
	for n, b := range first {
		if !bytes.Equal(b, second[n]) {
			t.Fatalf("%s changed between identical refreshes", n)
		}
	}
}

func TestRefreshUnconfiguredWritesSyntheticNationOnly(t *testing.T) {
	src := &fakeSource{}
	o, store := newTestOrchestrator(t, src, 5)
	rep := o.Refresh(context.Background())
	if rep.Status != "synthetic" || rep.Regions != 50 {
		t.Fatalf("report = %+v", rep)
	}
	e, ok := store.Read(model.KindNation, "")
	if !ok || !e.Synthetic {
		t.Fatalf("nation entry = %+v ok=%v", e, ok)
	}
	if src.subCallCount() != 0 {
		t.Fatal("no sub-region prewarm without a warehouse")
	}
}

func TestRefreshFailureSkipsPrewarm(t *testing.T) {
	src := &fakeSource{configured: true, regions: func() ([]model.Region, error) {
		return nil, fmt.Errorf("%w: regions: boom", warehouse.ErrQuery)
	}, subs: fixedSubRegions}
	o, store := newTestOrchestrator(t, src, 5)
	if rep := o.Refresh(context.Background()); rep.Status != "failed" {
		t.Fatalf("report = %+v", rep)
	}
	if _, ok := store.Read(model.KindNation, ""); ok {
		t.Fatal("failed refresh must not cache mock data")
	}
	if src.subCallCount() != 0 {
		t.Fatal("prewarm should not run after a failed nation fetch")
	}
}

func TestNextBoundary(t *testing.T) {
	now := time.Date(2024, 3, 10, 14, 25, 7, 0, time.UTC)
	if got := nextBoundary(now, time.Hour); !got.Equal(time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("hourly = %v", got)
	}
	if got := nextBoundary(now, 15*time.Minute); !got.Equal(time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)) {
		t.Fatalf("quarter = %v", got)
	}
	top := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	if got := nextBoundary(top, time.Hour); !got.Equal(top.Add(time.Hour)) {
		t.Fatalf("on boundary = %v", got)
	}
}

func TestSchedulerRunsOnStartAndTrigger(t *testing.T) {
	src := &fakeSource{configured: true, regions: func() ([]model.Region, error) { return fixedRegions(), nil }, subs: fixedSubRegions}
	o, _ := newTestOrchestrator(t, src, 0)
	s := NewScheduler(o, time.Hour)
	s.Start(context.Background())
	defer s.Stop()

	waitFor := func(n int32) {
		deadline := time.Now().Add(2 * time.Second)
		for src.regCalls.Load() < n {
			if time.Now().After(deadline) {
				t.Fatalf("refresh count %d, want %d", src.regCalls.Load(), n)
			}
			time.Sleep(5 * time.Millisecond)
		}
	}
	waitFor(1)
	for !s.Trigger() {
		time.Sleep(time.Millisecond)
	}
	waitFor(2)
	deadline := time.Now().Add(2 * time.Second)
	for {
		if rep, ok := s.Last(); ok && rep.Status == "ok" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("last report not recorded")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s := NewScheduler(New(&fakeSource{}, cachestore.New(t.TempDir()), Options{}), 0)
	s.Stop()
	s.Stop()
}
