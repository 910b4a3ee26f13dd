package mapnav

import (
	"math"
	"testing"
)

func TestHeatColorLaws(t *testing.T) {
	cases := []struct {
		name        string
		v, min, max float64
		wantIdx     int
	}{
		{"at min", 10, 10, 1000, 0},
		{"below min", 1, 10, 1000, 0},
		{"at max", 1000, 10, 1000, 7},
		{"above max", 5000, 10, 1000, 7},
		{"degenerate", 3, 7, 7, 4},
		{"degenerate at value", 7, 7, 7, 4},
		{"degenerate zero", 0, 0, 0, 4},
		// ln(100)-ln(10) / ln(1000)-ln(10) = 0.5, sqrt = 0.707, *8 = 5.65
		{"geometric midpoint", 100, 10, 1000, 5},
		// ln2/ln100 = 0.15 -> sqrt 0.39 -> 3
		{"low value", 20, 10, 1000, 3},
		// min <= 0 uses ln(1): ln(10)/ln(100) = 0.5 -> 5
		{"non-positive min", 10, 0, 100, 5},
		// ln(0.5) falls below ln(1), position clamps to 0
		{"fraction", 0.5, 0, 100, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := HeatIndex(c.v, c.min, c.max); got != c.wantIdx {
				t.Fatalf("HeatIndex(%v,%v,%v) = %d, want %d", c.v, c.min, c.max, got, c.wantIdx)
			}
			if HeatColor(c.v, c.min, c.max) != Palette[c.wantIdx] {
				t.Fatal("HeatColor disagrees with HeatIndex")
			}
		})
	}
}

func TestHeatIndexMonotonic(t *testing.T) {
	prev := 0
	for v := 1.0; v <= 1e6; v *= 1.3 {
		idx := HeatIndex(v, 1, 1e6)
		if idx < prev {
			t.Fatalf("index decreased at %v: %d < %d", v, idx, prev)
		}
		prev = idx
	}
	if prev != 7 {
		t.Fatalf("last index = %d", prev)
	}
}

func TestMarkerSizeLaws(t *testing.T) {
	if got := MarkerSize(10, 10, 110); got != 5 {
		t.Fatalf("min size = %v", got)
	}
	if got := MarkerSize(110, 10, 110); got != 20 {
		t.Fatalf("max size = %v", got)
	}
	if got := MarkerSize(60, 10, 110); got != 12.5 {
		t.Fatalf("mid size = %v", got)
	}
	if got := MarkerSize(35, 10, 110); got != 8.75 {
		t.Fatalf("quarter size = %v", got)
	}
	if got := MarkerSize(42, 3, 3); got != 12.5 {
		t.Fatalf("degenerate size = %v", got)
	}
	if MarkerSize(-5, 10, 110) != 5 || MarkerSize(500, 10, 110) != 20 {
		t.Fatal("out of range values must clamp")
	}
}

func TestNetworkColor(t *testing.T) {
	cases := map[float64]string{
		0:     "#3498db",
		999.9: "#3498db",
		1000:  "#2980b9",
		4999:  "#2980b9",
		5000:  "#e67e22",
		9999:  "#e67e22",
		10000: "#d35400",
		1e7:   "#d35400",
	}
	for gmv, want := range cases {
		if got := NetworkColor(gmv); got != want {
			t.Errorf("NetworkColor(%v) = %s, want %s", gmv, got, want)
		}
	}
}

func TestValueRange(t *testing.T) {
	if min, max := ValueRange(nil); min != 0 || max != 1 {
		t.Fatalf("empty range = %v,%v", min, max)
	}
	if min, max := ValueRange([]float64{0, -3, math.NaN()}); min != 0 || max != 1 {
		t.Fatalf("non-positive range = %v,%v", min, max)
	}
	if min, max := ValueRange([]float64{0, 40, 5, 12}); min != 5 || max != 40 {
		t.Fatalf("range = %v,%v", min, max)
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		v       float64
		compact bool
		want    string
	}{
		{0, false, "$0.00"},
		{1234.5, false, "$1,234.50"},
		{1234567.891, false, "$1,234,567.89"},
		{-42.1, false, "-$42.10"},
		{math.NaN(), false, "$0.00"},
		{999, true, "$999.00"},
		{1234, true, "$1.23K"},
		{2500000, true, "$2.50M"},
		{7.1e9, true, "$7.10B"},
	}
	for _, c := range cases {
		if got := FormatCurrency(c.v, c.compact); got != c.want {
			t.Errorf("FormatCurrency(%v,%v) = %q, want %q", c.v, c.compact, got, c.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		v       float64
		compact bool
		want    string
	}{
		{0, false, "0"},
		{1234, false, "1,234"},
		{1234.5678, false, "1,234.568"},
		{0.5, false, "0.5"},
		{0, true, "0"},
		{7, true, "7"},
		{12.34, true, "12"},
		{1.234, true, "1.2"},
		{999, true, "999"},
		{1234, true, "1.2K"},
		{12345, true, "12K"},
		{123456, true, "123K"},
		{1500000, true, "1.5M"},
	}
	for _, c := range cases {
		if got := FormatNumber(c.v, c.compact); got != c.want {
			t.Errorf("FormatNumber(%v,%v) = %q, want %q", c.v, c.compact, got, c.want)
		}
	}
}
