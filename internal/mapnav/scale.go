package mapnav

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Palette：8 级顺序色板，由浅黄到深红
var Palette = [8]string{"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c", "#fc4e2a", "#e31a1c", "#b10026"}

const (
	MinRadius = 5.0
	MaxRadius = 20.0

	NoDataColor     = "#f5f5f5"
	StoreColor      = "#1a73e8"
	SellerColor     = "#34a853"
	ConnectionColor = "#fbbc04"
)

// HeatIndex：数值在 [min,max] 上的色板下标
// 约束：
// - min==max 时取中间下标（4），与 v 无关
// - v<=min 取 0，v>=max 取 7
// - 其余按 sqrt((ln v - ln min)/(ln max - ln min)) 定位，非正数按 ln(1) 处理
func HeatIndex(v, min, max float64) int {
	last := len(Palette) - 1
	switch {
	case min == max:
		return len(Palette) / 2
	case v <= min:
		return 0
	case v >= max:
		return last
	}
	lnMin, lnMax, lnV := lnPos(min), math.Log(max), lnPos(v)
	ratio := (lnV - lnMin) / (lnMax - lnMin)
	if math.IsNaN(ratio) || ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	idx := int(math.Floor(math.Sqrt(ratio) * float64(len(Palette))))
	if idx > last {
		idx = last
	}
	return idx
}

func lnPos(v float64) float64 {
	if v > 0 {
		return math.Log(v)
	}
	return 0
}

// HeatColor：数值对应的色板颜色
func HeatColor(v, min, max float64) string { return Palette[HeatIndex(v, min, max)] }

// MarkerSize：标记半径，在 [5,20] 像素间线性插值；区间退化时取 12.5
func MarkerSize(v, min, max float64) float64 {
	switch {
	case min == max:
		return (MinRadius + MaxRadius) / 2
	case v <= min:
		return MinRadius
	case v >= max:
		return MaxRadius
	}
	return MinRadius + (v-min)/(max-min)*(MaxRadius-MinRadius)
}

// NetworkColor：连接线颜色，按连接 GMV 分 4 档
func NetworkColor(gmv float64) string {
	switch {
	case gmv < 1000:
		return "#3498db"
	case gmv < 5000:
		return "#2980b9"
	case gmv < 10000:
		return "#e67e22"
	}
	return "#d35400"
}

// ValueRange：正值的最小/最大值；没有正值时返回 [0,1]
func ValueRange(values []float64) (min, max float64) {
	found := false
	for _, v := range values {
		if !(v > 0) {
			continue
		}
		if !found {
			min, max, found = v, v, true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if !found {
		return 0, 1
	}
	return min, max
}

var compactUnits = []struct {
	div    float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// FormatCurrency：美元金额，标准形式 "$1,234.50"，紧凑形式 "$1.23K"
func FormatCurrency(v float64, compact bool) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "$0.00"
	}
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	suffix := ""
	if compact {
		for _, u := range compactUnits {
			if math.Round(v*100)/100 >= u.div {
				v, suffix = v/u.div, u.suffix
				break
			}
		}
	}
	cents := int64(math.Round(v * 100))
	return sign + "$" + humanize.Comma(cents/100) + "." + pad2(cents%100) + suffix
}

// FormatNumber：数字，标准形式保留至多 3 位小数 "1,234.5"，紧凑形式 "1.2K" / "123K"
func FormatNumber(v float64, compact bool) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	if !compact {
		return sign + withFraction(v, 3)
	}
	suffix := ""
	for _, u := range compactUnits {
		if roundCompact(v) >= u.div {
			v, suffix = v/u.div, u.suffix
			break
		}
	}
	return sign + trimZeros(strconv.FormatFloat(roundCompact(v), 'f', -1, 64)) + suffix
}

// roundCompact：小于 100 时保留 2 位有效数字，否则取整
func roundCompact(v float64) float64 {
	if v >= 100 || v == 0 {
		return math.Round(v)
	}
	exp := math.Floor(math.Log10(v))
	scale := math.Pow(10, 1-exp)
	return math.Round(v*scale) / scale
}

func withFraction(v float64, digits int) string {
	scale := math.Pow(10, float64(digits))
	r := math.Round(v * scale)
	whole := int64(r / scale)
	frac := int64(r) - whole*int64(scale)
	s := humanize.Comma(whole)
	if frac == 0 {
		return s
	}
	fs := strconv.FormatInt(frac, 10)
	fs = strings.Repeat("0", digits-len(fs)) + fs
	return s + "." + strings.TrimRight(fs, "0")
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	return strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
