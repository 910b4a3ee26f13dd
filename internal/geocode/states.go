// 包 geocode：州名与两位州代码的双向映射、州到 DMA（子市场）的查找
// 背景：数仓中的州字段可能是代码、全称或大小写不一的写法；所有查找均不报错，未命中返回空值
package geocode

import "strings"

type state struct {
	Code string
	Name string
}

// 顺序即 States() 的返回顺序（按州名字母序，DC 置后）
var states = []state{
	{"AL", "Alabama"}, {"AK", "Alaska"}, {"AZ", "Arizona"}, {"AR", "Arkansas"},
	{"CA", "California"}, {"CO", "Colorado"}, {"CT", "Connecticut"}, {"DE", "Delaware"},
	{"FL", "Florida"}, {"GA", "Georgia"}, {"HI", "Hawaii"}, {"ID", "Idaho"},
	{"IL", "Illinois"}, {"IN", "Indiana"}, {"IA", "Iowa"}, {"KS", "Kansas"},
	{"KY", "Kentucky"}, {"LA", "Louisiana"}, {"ME", "Maine"}, {"MD", "Maryland"},
	{"MA", "Massachusetts"}, {"MI", "Michigan"}, {"MN", "Minnesota"}, {"MS", "Mississippi"},
	{"MO", "Missouri"}, {"MT", "Montana"}, {"NE", "Nebraska"}, {"NV", "Nevada"},
	{"NH", "New Hampshire"}, {"NJ", "New Jersey"}, {"NM", "New Mexico"}, {"NY", "New York"},
	{"NC", "North Carolina"}, {"ND", "North Dakota"}, {"OH", "Ohio"}, {"OK", "Oklahoma"},
	{"OR", "Oregon"}, {"PA", "Pennsylvania"}, {"RI", "Rhode Island"}, {"SC", "South Carolina"},
	{"SD", "South Dakota"}, {"TN", "Tennessee"}, {"TX", "Texas"}, {"UT", "Utah"},
	{"VT", "Vermont"}, {"VA", "Virginia"}, {"WA", "Washington"}, {"WV", "West Virginia"},
	{"WI", "Wisconsin"}, {"WY", "Wyoming"}, {"DC", "District of Columbia"},
}

var (
	byCode = map[string]string{}
	byName = map[string]string{}
)

func init() {
	for _, s := range states {
		byCode[s.Code] = s.Name
		byName[strings.ToLower(s.Name)] = s.Code
	}
}

// CodeForName：州全称 -> 两位代码（大小写不敏感，忽略首尾空白）
func CodeForName(name string) (string, bool) {
	c, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// NameForCode：两位代码 -> 州全称
// 约束：代码需为精确的两位大写；小写或其他写法请走 Resolve
func NameForCode(code string) (string, bool) {
	n, ok := byCode[code]
	return n, ok
}

// States：全部 51 个条目（50 州 + DC）的代码列表
func States() []string {
	out := make([]string, 0, len(states))
	for _, s := range states {
		out = append(out, s.Code)
	}
	return out
}

// States50：50 个州的全称（不含 DC），用于生成全国级占位数据
func States50() []string {
	out := make([]string, 0, 50)
	for _, s := range states {
		if s.Code == "DC" {
			continue
		}
		out = append(out, s.Name)
	}
	return out
}
