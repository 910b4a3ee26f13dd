package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"geo-heatmap/internal/apiclient"
	"geo-heatmap/internal/config"
	"geo-heatmap/internal/logger"
	"geo-heatmap/internal/mapnav"
)

const help = `commands:
  states                  reload nation view
  state <name|code>       drill into a state
  city <name>             drill into a city or DMA
  back                    go up one level
  network                 toggle store / network view
  metric <total_gmv|store_count|avg_gmv_per_store>
  hover <state>           nation: show a state's totals
  store <id>              city: hover a store
  seller <id>             network: hover a seller
  edge <index>            network: hover a connection
  scene                   print the render scene as JSON
  quit`

// 文档注释：终端版地图导航
// 背景：不依赖浏览器即可按全国 -> 州 -> 城市的层级浏览接口数据，验证钻取、网络视图与配色。
// 约束：-api 为空时使用 HEATMAP_API_URL，再退回 http://127.0.0.1:3000 + API_BASE。
func main() {
	config.LoadDotenv()
	l := logger.Setup()
	cfg := config.Load()

	base := flag.String("api", os.Getenv("HEATMAP_API_URL"), "API base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "per command timeout")
	flag.Parse()
	if *base == "" {
		*base = "http://127.0.0.1" + cfg.Addr + cfg.APIBase
		if !strings.HasPrefix(cfg.Addr, ":") {
			*base = "http://" + cfg.Addr + cfg.APIBase
		}
	}

	nav := mapnav.New(apiclient.New(*base, nil))
	defer nav.Close()
	updates, unsubscribe := nav.Subscribe()
	defer unsubscribe()
	go func() {
		for s := range updates {
			if s.Level == mapnav.LevelCity && s.Network != mapnav.NetworkLoading && s.Network != mapnav.NetworkIdle {
				l.Debug("explore_network_status", "city", s.SubRegion, "status", s.Network)
			}
		}
	}()

	run := func(f func(ctx context.Context) error) {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()
		if err := f(ctx); err != nil {
			fmt.Println("error:", err)
			return
		}
		printView(nav.Snapshot())
	}

	fmt.Println("API:", *base)
	run(nav.Start)
	fmt.Println(help)

	in := bufio.NewScanner(os.Stdin)
	for fmt.Print("> "); in.Scan(); fmt.Print("> ") {
		cmd, arg, _ := strings.Cut(strings.TrimSpace(in.Text()), " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "":
		case "quit", "exit":
			return
		case "help":
			fmt.Println(help)
		case "states":
			run(nav.Start)
		case "state":
			run(func(ctx context.Context) error { return nav.SelectRegion(ctx, arg) })
		case "city":
			run(func(ctx context.Context) error { return nav.SelectSubRegion(ctx, arg) })
		case "back":
			run(nav.Back)
		case "network":
			if err := nav.ToggleNetwork(); err != nil {
				fmt.Println("error:", err)
				continue
			}
			printView(nav.Snapshot())
		case "metric":
			m, ok := mapnav.ParseMetric(arg)
			if !ok {
				fmt.Println("error: unknown metric", arg)
				continue
			}
			_ = nav.SetMetric(m)
			printView(nav.Snapshot())
		case "hover":
			r, ok := nav.HoverRegion(arg)
			if !ok {
				fmt.Println("no data for", arg)
				continue
			}
			fmt.Printf("%s: %s stores, %s\n", r.State, mapnav.FormatNumber(float64(r.StoreCount), false), mapnav.FormatCurrency(r.TotalGMV, false))
		case "store", "seller", "edge":
			hover(nav, cmd, arg)
		case "scene":
			b, _ := json.MarshalIndent(nav.Scene(), "", "  ")
			fmt.Println(string(b))
		default:
			fmt.Println("unknown command; type help")
		}
	}
}

func hover(nav *mapnav.Navigator, kind, arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		fmt.Println("error: numeric argument required")
		return
	}
	switch kind {
	case "store":
		h, err := nav.HoverStore(id)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		if h.Link == nil {
			fmt.Println("store has no known latest seller in this city")
			return
		}
		fmt.Printf("store %d -> seller %d (%.4f,%.4f -> %.4f,%.4f)\n", h.Link.StoreID, h.Link.SellerID, h.Link.From.Lat, h.Link.From.Lng, h.Link.To.Lat, h.Link.To.Lng)
	case "seller":
		h, err := nav.HoverSeller(id)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Printf("seller %d: %d connections, stores %v\n", id, len(h.Edges), h.StoreIDs)
	case "edge":
		p, err := nav.HoverEdge(int(id))
		if errors.Is(err, mapnav.ErrInvalidTransition) {
			fmt.Println("error: switch to network view first")
			return
		} else if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Printf("%s\n  orders: %s\n  gmv: %s\n", p.Title, p.Orders, p.GMV)
	}
}

func printView(s mapnav.Snapshot) {
	sc := mapnav.BuildScene(s)
	fmt.Printf("[%s] %s\n", s.Level, sc.Title)
	switch s.Level {
	case mapnav.LevelNation:
		for i, r := range s.Regions {
			if i == 10 {
				fmt.Printf("  ... %d more\n", len(s.Regions)-10)
				break
			}
			fmt.Printf("  %-16s %s  %s stores\n", r.State, mapnav.FormatCurrency(r.TotalGMV, true), mapnav.FormatNumber(float64(r.StoreCount), true))
		}
	case mapnav.LevelState:
		fmt.Println("  metric:", s.Metric.Label())
		for _, m := range sc.Markers {
			fmt.Printf("  %-24s %-10s r=%.1f %s\n", m.Label, formatMetric(s.Metric, m.Value), m.Radius, m.Color)
		}
	case mapnav.LevelCity:
		fmt.Printf("  stores: %d  sellers: %d  network: %s (view=%v)\n", len(s.Stores), len(s.Sellers), networkLabel(s.Network), s.NetworkView)
		if s.NetworkView {
			for _, e := range sc.Edges {
				ne := s.Edges[e.Index]
				fmt.Printf("  #%d %s -> %s  %s  %s\n", e.Index, ne.StoreName, ne.SellerFullName, mapnav.FormatCurrency(ne.ConnectionGMV, true), e.Color)
			}
		} else {
			for _, st := range s.Stores {
				fmt.Printf("  %d %s  %s\n", st.StoreID, st.Name, mapnav.FormatCurrency(st.GMVLastMonth, true))
			}
		}
	}
	if sc.Legend.HasValues {
		fmt.Printf("  legend: %s %s .. %s\n", sc.Legend.Title, sc.Legend.MinLabel, sc.Legend.MaxLabel)
	}
}

func formatMetric(m mapnav.Metric, v float64) string {
	if m == mapnav.MetricStoreCount {
		return mapnav.FormatNumber(v, true)
	}
	return mapnav.FormatCurrency(v, true)
}

func networkLabel(s mapnav.NetworkStatus) string {
	if s == mapnav.NetworkIdle {
		return "idle"
	}
	return string(s)
}
