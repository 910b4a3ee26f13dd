// 包 mock：与数仓结果同形的占位数据
// 背景：数仓未配置或查询失败时保证地图仍可渲染；不要求确定性，但记录内部关系必须自洽
package mock

import (
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"

	"geo-heatmap/internal/geocode"
	"geo-heatmap/internal/model"
)

const minSubRegions = 5

var (
	fallbackDirections = []string{"CENTRAL", "NORTH", "SOUTH", "EAST", "WEST"}
	padSuffixes        = []string{"AREA", "REGION", "METRO", "ZONE", "DISTRICT"}
)

// Generator：占位数据生成器，可并发使用
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New：随机种子的生成器
func New() *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeeded：固定种子（工具命令与测试复现用）
func NewSeeded(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *Generator) float() float64 {
	return g.rng.Float64()
}

// GenerateRegions：50 个州，门店数 [10,510)，GMV [100000,10100000)，按 GMV 降序
func (g *Generator) GenerateRegions() []model.Region {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := geocode.States50()
	out := make([]model.Region, 0, len(names))
	for _, n := range names {
		code, _ := geocode.CodeForName(n)
		out = append(out, model.Region{
			State:      n,
			StateCode:  code,
			StoreCount: int64(math.Floor(g.float()*500)) + 10,
			TotalGMV:   math.Floor(g.float()*10000000) + 100000,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalGMV > out[j].TotalGMV })
	return out
}

// SubRegionNames：州对应的子区域名称；不足 5 个时补齐
// 约束：未知州使用 "<前三字母> - 方位" 的通用名；补齐名为 "<州名大写> <后缀> <序号>"
func SubRegionNames(region string) []string {
	region = strings.TrimSpace(region)
	if region == "" {
		region = "Unknown"
	}
	var names []string
	if code, _, ok := geocode.Resolve(region); ok {
		names = geocode.SubRegionsFor(code)
	}
	if len(names) == 0 {
		pfx := strings.ToUpper(region)
		if len(pfx) > 3 {
			pfx = pfx[:3]
		}
		for _, d := range fallbackDirections {
			names = append(names, pfx+" - "+d)
		}
	}
	upper := strings.ToUpper(region)
	for i := 0; len(names) < minSubRegions; i++ {
		names = append(names, upper+" "+padSuffixes[i%len(padSuffixes)]+" "+strconv.Itoa(i+1))
	}
	return names
}

// GenerateSubRegions：按州生成子区域，坐标围绕所属大区基准点径向分布，按总 GMV 降序
func (g *Generator) GenerateSubRegions(region string) []model.SubRegion {
	names := SubRegionNames(region)
	code, _, _ := geocode.Resolve(region)
	macro := geocode.MacroRegionFor(code)

	g.mu.Lock()
	defer g.mu.Unlock()
	baseLat := macro.Lat + (g.float()*4 - 2)
	baseLng := macro.Lng + (g.float()*4 - 2)
	n := float64(len(names))
	out := make([]model.SubRegion, 0, len(names))
	for i, name := range names {
		angle := float64(i) / n * 2 * math.Pi
		dist := g.float()*1.5 + 0.5
		importance := 1 - float64(i)/n
		count := int64(math.Floor((g.float()*40 + 10) * (importance*0.8 + 0.2)))
		if count < 1 {
			count = 1
		}
		avgStore := math.Floor(g.float()*40000) + 10000
		total := float64(count) * avgStore * (0.8 + g.float()*0.4)
		lifetime := total * (g.float()*5 + 5)
		orders := int64(math.Floor(lifetime / (g.float()*500 + 500)))
		out = append(out, model.SubRegion{
			City:                name,
			StoreCount:          count,
			TotalGMV:            total,
			AvgGMVPerStore:      model.AvgPerStore(total, count),
			TotalLifetimeGMV:    lifetime,
			TotalLifetimeOrders: orders,
			Latitude:            baseLat + dist*math.Cos(angle),
			Longitude:           baseLng + dist*math.Sin(angle),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalGMV > out[j].TotalGMV })
	return out
}
