package mock

import (
	"math"
	"sort"
	"strings"
	"testing"

	"geo-heatmap/internal/geocode"
)

func TestGenerateRegions(t *testing.T) {
	g := New()
	regions := g.GenerateRegions()
	if len(regions) != 50 {
		t.Fatalf("expected 50 regions, got %d", len(regions))
	}
	seen := map[string]bool{}
	for _, r := range regions {
		if r.StoreCount < 10 || r.StoreCount >= 510 {
			t.Errorf("%s store count %d out of range", r.State, r.StoreCount)
		}
		if r.TotalGMV < 100000 || r.TotalGMV >= 10100000 {
			t.Errorf("%s gmv %v out of range", r.State, r.TotalGMV)
		}
		if code, _, ok := geocode.Resolve(r.State); !ok || code != r.StateCode {
			t.Errorf("unresolvable region %+v", r)
		}
		if r.StateCode == "DC" {
			t.Error("DC is not part of the generated nation set")
		}
		seen[r.StateCode] = true
	}
	if len(seen) != 50 {
		t.Fatalf("duplicate states: %d unique", len(seen))
	}
	if !sort.SliceIsSorted(regions, func(i, j int) bool { return regions[i].TotalGMV > regions[j].TotalGMV }) {
		t.Fatal("regions not sorted by gmv desc")
	}
}

func TestGenerateSubRegionsInvariants(t *testing.T) {
	g := New()
	for _, region := range []string{"California", "TX", "hawaii", "Atlantis", "", "DC"} {
		for round := 0; round < 20; round++ {
			subs := g.GenerateSubRegions(region)
			if len(subs) < 5 {
				t.Fatalf("%q: only %d sub-regions", region, len(subs))
			}
			for i, s := range subs {
				if s.StoreCount < 1 {
					t.Fatalf("%q: store count %d", region, s.StoreCount)
				}
				if math.Abs(s.AvgGMVPerStore*float64(s.StoreCount)-s.TotalGMV) > 1e-6 {
					t.Fatalf("%q: avg*count != total for %+v", region, s)
				}
				if s.Latitude == 0 || s.Longitude == 0 {
					t.Fatalf("%q: missing coordinates %+v", region, s)
				}
				if s.TotalLifetimeGMV < 5*s.TotalGMV || s.TotalLifetimeGMV > 10*s.TotalGMV {
					t.Fatalf("%q: lifetime gmv outside 5-10x: %+v", region, s)
				}
				if i > 0 && subs[i-1].TotalGMV < s.TotalGMV {
					t.Fatalf("%q: not sorted desc at %d", region, i)
				}
			}
		}
	}
}

func TestSubRegionsStayNearMacroRegion(t *testing.T) {
	g := NewSeeded(7)
	macro := geocode.MacroRegionFor("WA")
	for _, s := range g.GenerateSubRegions("Washington") {
		// 基准点抖动 ±2°，径向距离不超过 2°
		if math.Abs(s.Latitude-macro.Lat) > 4.0001 || math.Abs(s.Longitude-macro.Lng) > 4.0001 {
			t.Fatalf("%s at %.3f,%.3f too far from %s", s.City, s.Latitude, s.Longitude, macro.Name)
		}
	}
}

func TestSubRegionNames(t *testing.T) {
	ca := SubRegionNames("CA")
	if len(ca) != 12 || ca[0] != "LOS ANGELES" {
		t.Fatalf("CA names = %v", ca)
	}
	hi := SubRegionNames("Hawaii")
	want := []string{"HONOLULU", "HAWAII AREA 1", "HAWAII REGION 2", "HAWAII METRO 3", "HAWAII ZONE 4"}
	if strings.Join(hi, "|") != strings.Join(want, "|") {
		t.Fatalf("HI names = %v", hi)
	}
	unknown := SubRegionNames("atlantis")
	if len(unknown) != 5 || unknown[0] != "ATL - CENTRAL" || unknown[4] != "ATL - WEST" {
		t.Fatalf("unknown names = %v", unknown)
	}
}
