package geocode

import (
	"regexp"
	"strings"
)

// Resolve：接受代码或全称（任意大小写），返回规范代码与全称
// 返回：ok=false 表示无法解析；调用方应丢弃该记录而不是猜测默认值
func Resolve(identifier string) (code, name string, ok bool) {
	s := strings.TrimSpace(identifier)
	if s == "" {
		return "", "", false
	}
	if len(s) == 2 {
		up := strings.ToUpper(s)
		if n, hit := byCode[up]; hit {
			return up, n, true
		}
	}
	if c, hit := CodeForName(s); hit {
		return c, byCode[c], true
	}
	return "", "", false
}

// Candidates：同一州可能出现在数仓中的写法
// 约束：顺序为 原值、代码、全称、全大写、全小写；去重保序，空值剔除
func Candidates(identifier string) []string {
	raw := strings.TrimSpace(identifier)
	if raw == "" {
		return nil
	}
	out := make([]string, 0, 5)
	seen := make(map[string]struct{}, 5)
	add := func(v string) {
		if v == "" {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	add(raw)
	if code, name, ok := Resolve(raw); ok {
		add(code)
		add(name)
	}
	add(strings.ToUpper(raw))
	add(strings.ToLower(raw))
	return out
}

// Alternate：首次查询零行后的备选写法
// 背景：代码与全称互换；无法解析时退化为大小写互换
func Alternate(identifier string) (string, bool) {
	raw := strings.TrimSpace(identifier)
	if raw == "" {
		return "", false
	}
	if code, name, ok := Resolve(raw); ok {
		if strings.EqualFold(raw, code) {
			return name, true
		}
		return code, true
	}
	if up := strings.ToUpper(raw); up != raw {
		return up, true
	}
	if low := strings.ToLower(raw); low != raw {
		return low, true
	}
	return "", false
}

// MacroRegion：美国六大区划分（用于占位数据的基准坐标），未知州归入 Midwest
type MacroRegion struct {
	Name string
	Lat  float64
	Lng  float64
}

var (
	northeast = MacroRegion{"Northeast", 41.5, -73}
	southeast = MacroRegion{"Southeast", 33, -84}
	midwest   = MacroRegion{"Midwest", 40, -89}
	southwest = MacroRegion{"Southwest", 33, -106}
	west      = MacroRegion{"West", 38, -120}
	northwest = MacroRegion{"Northwest", 45, -122}
)

var macroByCode = func() map[string]MacroRegion {
	m := map[string]MacroRegion{}
	for r, codes := range map[MacroRegion][]string{
		northeast: {"ME", "NH", "VT", "MA", "RI", "CT", "NY", "NJ", "PA"},
		southeast: {"DE", "MD", "VA", "WV", "KY", "NC", "SC", "TN", "GA", "FL", "AL", "MS", "LA", "AR"},
		midwest:   {"OH", "MI", "IN", "IL", "WI", "MN", "IA", "MO", "ND", "SD", "NE", "KS"},
		southwest: {"TX", "OK", "NM", "AZ"},
		west:      {"CO", "WY", "MT", "ID", "UT", "NV", "CA"},
		northwest: {"WA", "OR"},
	} {
		for _, c := range codes {
			m[c] = r
		}
	}
	return m
}()

// MacroRegionFor：按州代码取所属大区
func MacroRegionFor(code string) MacroRegion {
	if r, ok := macroByCode[strings.ToUpper(code)]; ok {
		return r
	}
	return midwest
}

var slugStrip = regexp.MustCompile(`[^a-z0-9_-]`)
var slugSpace = regexp.MustCompile(`\s+`)

// Slug：缓存文件名用的区域键
// 约束：可解析时使用规范全称（CA 与 California 落到同一文件）；小写、空白转下划线、仅保留 [a-z0-9_-]
func Slug(identifier string) string {
	s := strings.TrimSpace(identifier)
	if _, name, ok := Resolve(s); ok {
		s = name
	}
	s = slugSpace.ReplaceAllString(strings.ToLower(s), "_")
	s = slugStrip.ReplaceAllString(s, "")
	if s == "" {
		return "unknown"
	}
	return s
}
