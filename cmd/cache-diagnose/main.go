package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"geo-heatmap/internal/apiclient"
	"geo-heatmap/internal/cachestore"
	"geo-heatmap/internal/config"
	"geo-heatmap/internal/geocode"
	"geo-heatmap/internal/logger"
	"geo-heatmap/internal/model"
)

// 文档注释：单个州的缓存与接口诊断
// 背景：地图上某州没有标记时，依次检查缓存目录、该州缓存文件的内容与坐标、以及线上接口的返回。
// 用法：cache-diagnose [-api http://127.0.0.1:3000/api] <state>
func main() {
	config.LoadDotenv()
	l := logger.Setup()
	cfg := config.Load()

	api := flag.String("api", "", "API base to query live, e.g. http://127.0.0.1:3000/api")
	sample := flag.Int("sample", 3, "records to print")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cache-diagnose [-api base] <state>")
		os.Exit(2)
	}
	state := flag.Arg(0)
	if code, name, ok := geocode.Resolve(state); ok {
		fmt.Printf("State: %s (%s)\n", name, code)
	} else {
		fmt.Printf("State: %s (not a known state name or code)\n", state)
	}

	cs := cachestore.New(cfg.CacheDir)
	fmt.Println("\n1. Cache directory:", cs.Dir())
	if _, err := os.Stat(cs.Dir()); err != nil {
		fmt.Println("  missing, creating")
		if err := cs.Ensure(); err != nil {
			l.Error("cache_dir_error", "dir", cs.Dir(), "err", err)
			os.Exit(1)
		}
	}
	files, err := cs.List()
	if err != nil {
		l.Error("cache_list_error", "err", err)
		os.Exit(1)
	}
	fmt.Printf("  %d cache files\n", len(files))
	for _, f := range files {
		fmt.Printf("  %-40s %8d bytes  %s\n", f.Name, f.Size, f.ModTime.Format(time.RFC3339))
	}

	failed := false
	fmt.Println("\n2. Cached sub-regions:", cs.Path(model.KindSubRegion, state))
	if e, ok := cs.Read(model.KindSubRegion, state); !ok {
		fmt.Println("  no usable cache entry (missing, unreadable or wrong kind)")
	} else {
		report(e.SubRegions, *sample)
		fmt.Printf("  synthetic: %v\n  age: %s\n", e.Synthetic, time.Since(e.FetchedAt).Round(time.Second))
		if e.Synthetic {
			fmt.Println("  WARN entry holds generated placeholder data")
		}
	}

	if *api != "" {
		fmt.Println("\n3. Live API:", *api)
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		subs, err := apiclient.New(*api, nil).CitiesGMV(ctx, state)
		if err != nil {
			fmt.Println("  FAIL", err)
			failed = true
		} else {
			report(subs, *sample)
			for i, s := range subs {
				if s.City == "" || s.StoreCount <= 0 {
					fmt.Printf("  WARN record %d missing required fields: %+v\n", i, s)
				}
			}
		}
	}

	if failed {
		l.Error("cache_diagnose_failed", "state", state)
		os.Exit(1)
	}
	l.Info("cache_diagnose_done", "state", state)
}

func report(subs []model.SubRegion, sample int) {
	withCoords := 0
	for _, s := range subs {
		if s.HasCoordinates() {
			withCoords++
		}
	}
	fmt.Printf("  records: %d, with coordinates: %d\n", len(subs), withCoords)
	if len(subs) > 0 && withCoords == 0 {
		fmt.Println("  WARN no record can be placed on the map")
	}
	for i := 0; i < len(subs) && i < sample; i++ {
		s := subs[i]
		fmt.Printf("  - %s: stores=%d gmv=%.2f at %.4f,%.4f\n", s.City, s.StoreCount, s.TotalGMV, s.Latitude, s.Longitude)
	}
}
