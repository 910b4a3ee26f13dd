package geocode

import (
	"reflect"
	"testing"
)

func TestCodeNameRoundTrip(t *testing.T) {
	if len(States()) != 51 {
		t.Fatalf("expected 51 entries, got %d", len(States()))
	}
	if len(States50()) != 50 {
		t.Fatalf("expected 50 states, got %d", len(States50()))
	}
	for _, code := range States() {
		name, ok := NameForCode(code)
		if !ok {
			t.Fatalf("no name for %s", code)
		}
		back, ok := CodeForName(name)
		if !ok || back != code {
			t.Fatalf("round trip %s -> %s -> %s", code, name, back)
		}
	}
}

func TestLookupsAreLenient(t *testing.T) {
	if c, ok := CodeForName("  new YORK "); !ok || c != "NY" {
		t.Fatalf("CodeForName = %q %v", c, ok)
	}
	if _, ok := NameForCode("tx"); ok {
		t.Fatal("NameForCode must require exact upper-case code")
	}
	if _, ok := CodeForName("Atlantis"); ok {
		t.Fatal("unknown name resolved")
	}
	if got := SubRegionsFor("ZZ"); len(got) != 0 {
		t.Fatalf("unknown code returned %v", got)
	}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		in, code, name string
		ok             bool
	}{
		{"TX", "TX", "Texas", true},
		{"tx", "TX", "Texas", true},
		{"texas", "TX", "Texas", true},
		{"District of Columbia", "DC", "District of Columbia", true},
		{"Tex", "", "", false},
		{"", "", "", false},
	}
	for _, c := range cases {
		code, name, ok := Resolve(c.in)
		if code != c.code || name != c.name || ok != c.ok {
			t.Errorf("Resolve(%q) = %q %q %v", c.in, code, name, ok)
		}
	}
}

func TestCandidates(t *testing.T) {
	got := Candidates("TX")
	want := []string{"TX", "Texas", "tx"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Candidates(TX) = %v", got)
	}
	got = Candidates("new york")
	want = []string{"new york", "NY", "New York", "NEW YORK"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Candidates(new york) = %v", got)
	}
	if Candidates("  ") != nil {
		t.Fatal("blank identifier should have no candidates")
	}
}

func TestAlternate(t *testing.T) {
	cases := map[string]string{
		"TX":       "Texas",
		"tx":       "Texas",
		"Texas":    "TX",
		"Atlantis": "ATLANTIS",
	}
	for in, want := range cases {
		got, ok := Alternate(in)
		if !ok || got != want {
			t.Errorf("Alternate(%q) = %q %v, want %q", in, got, ok, want)
		}
	}
	if _, ok := Alternate("123"); ok {
		t.Fatal("no alternate expected for digits")
	}
}

func TestSubRegionsForReturnsCopy(t *testing.T) {
	a := SubRegionsFor("tx")
	if len(a) != 20 || a[0] != "DALLAS - FT. WORTH" {
		t.Fatalf("unexpected TX DMAs: %v", a)
	}
	a[0] = "mutated"
	if SubRegionsFor("TX")[0] != "DALLAS - FT. WORTH" {
		t.Fatal("table mutated through returned slice")
	}
}

func TestDMAReverseLookups(t *testing.T) {
	got := StatesForSubRegion("boston (manchester)")
	want := []string{"CT", "ME", "MA", "NH", "RI", "VT"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("StatesForSubRegion = %v", got)
	}
	if p, ok := PrimaryStateForSubRegion("WASHINGTON, DC (HAGRSTWN)"); !ok || p != "MD" {
		t.Fatalf("primary = %q %v", p, ok)
	}
	if _, ok := PrimaryStateForSubRegion("NOWHERE"); ok {
		t.Fatal("unknown DMA resolved")
	}
}

func TestMacroRegionFor(t *testing.T) {
	if r := MacroRegionFor("wa"); r.Name != "Northwest" || r.Lat != 45 {
		t.Fatalf("WA -> %+v", r)
	}
	if r := MacroRegionFor("HI"); r.Name != "Midwest" {
		t.Fatalf("HI should default to Midwest, got %s", r.Name)
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"CA":            "california",
		"California":    "california",
		"new hampshire": "new_hampshire",
		"St. Louis/X":   "st_louisx",
		"../etc":        "etc",
		"":              "unknown",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
