package mapnav

import (
	"strings"

	"geo-heatmap/internal/geocode"
	"geo-heatmap/internal/model"
)

// Fill：全国层州填色
type Fill struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
	Hover bool    `json:"hover,omitempty"`
}

// Marker：点标记（子区域 / 门店 / 销售方 / 网络节点）
type Marker struct {
	Kind        string  `json:"kind"`
	ID          int64   `json:"id,omitempty"`
	Label       string  `json:"label"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Value       float64 `json:"value"`
	Radius      float64 `json:"radius"`
	Color       string  `json:"color"`
	Tooltip     string  `json:"tooltip,omitempty"`
	Highlighted bool    `json:"highlighted,omitempty"`
}

// Edge：网络视图连线
type Edge struct {
	Index       int     `json:"index"`
	StoreID     int64   `json:"store_id"`
	SellerID    int64   `json:"seller_id"`
	From        LatLng  `json:"from"`
	To          LatLng  `json:"to"`
	Color       string  `json:"color"`
	Width       float64 `json:"width"`
	Highlighted bool    `json:"highlighted,omitempty"`
}

// Legend：图例（最小 / 中间 / 最大三档）
type Legend struct {
	Title     string `json:"title"`
	MinLabel  string `json:"min_label"`
	MaxLabel  string `json:"max_label"`
	MinColor  string `json:"min_color"`
	MidColor  string `json:"mid_color"`
	MaxColor  string `json:"max_color"`
	SizeHint  string `json:"size_hint,omitempty"`
	HasValues bool   `json:"has_values"`
}

// Scene：某一时刻需要渲染的全部图层
type Scene struct {
	Level   Level    `json:"level"`
	Title   string   `json:"title"`
	Fills   []Fill   `json:"fills,omitempty"`
	Markers []Marker `json:"markers,omitempty"`
	Edges   []Edge   `json:"edges,omitempty"`
	Link    *Link    `json:"link,omitempty"`
	Legend  Legend   `json:"legend"`
}

// Scene：按当前快照构建场景
func (n *Navigator) Scene() Scene { return BuildScene(n.Snapshot()) }

// BuildScene：纯函数，便于前端与测试直接使用
func BuildScene(s Snapshot) Scene {
	switch {
	case s.Level == LevelCity && s.NetworkView:
		return networkScene(s)
	case s.Level == LevelCity:
		return cityScene(s)
	case s.Level == LevelState:
		return stateScene(s)
	}
	return nationScene(s)
}

func legend(title string, min, max float64, count bool, hasValues bool) Legend {
	format := func(v float64) string { return FormatCurrency(v, true) }
	if count {
		format = func(v float64) string { return FormatNumber(v, false) }
	}
	return Legend{
		Title:     title,
		MinLabel:  format(min),
		MaxLabel:  format(max),
		MinColor:  HeatColor(min, min, max),
		MidColor:  HeatColor((min+max)/2, min, max),
		MaxColor:  HeatColor(max, min, max),
		HasValues: hasValues,
	}
}

// nationScene：全部 51 个州均输出填色，无数据的州为灰色
func nationScene(s Snapshot) Scene {
	byCode := make(map[string]model.Region, len(s.Regions))
	values := make([]float64, 0, len(s.Regions))
	for _, r := range s.Regions {
		byCode[r.StateCode] = r
		values = append(values, r.TotalGMV)
	}
	min, max := ValueRange(values)
	sc := Scene{Level: LevelNation, Title: "National Overview", Legend: legend("GMV by State", min, max, false, len(s.Regions) > 0)}
	for _, code := range geocode.States() {
		name, _ := geocode.NameForCode(code)
		f := Fill{Code: code, Name: name, Color: NoDataColor, Hover: s.Hover.Kind == "region" && s.Hover.Region == code}
		if r, ok := byCode[code]; ok {
			f.Value = r.TotalGMV
			f.Color = HeatColor(r.TotalGMV, min, max)
		}
		sc.Fills = append(sc.Fills, f)
	}
	return sc
}

// stateScene：子区域标记，大小与颜色按所选度量
func stateScene(s Snapshot) Scene {
	metric := s.Metric
	if metric == "" {
		metric = MetricTotalGMV
	}
	var valid []model.SubRegion
	values := make([]float64, 0, len(s.SubRegions))
	for _, sr := range s.SubRegions {
		if !sr.HasCoordinates() {
			continue
		}
		valid = append(valid, sr)
		values = append(values, metric.Value(sr))
	}
	min, max := ValueRange(values)
	count := metric == MetricStoreCount
	lg := legend(metric.Label()+" by City", min, max, count, len(valid) > 0)
	lg.SizeHint = "Circle size indicates " + strings.ToLower(metric.Label())
	sc := Scene{Level: LevelState, Title: s.Region, Legend: lg}
	for i, sr := range valid {
		v := values[i]
		tip := FormatCurrency(v, false)
		if count {
			tip = FormatNumber(v, false)
		}
		sc.Markers = append(sc.Markers, Marker{
			Kind:    "subregion",
			Label:   sr.City,
			Lat:     sr.Latitude,
			Lng:     sr.Longitude,
			Value:   v,
			Radius:  MarkerSize(v, min, max),
			Color:   HeatColor(v, min, max),
			Tooltip: sr.City + " " + metric.Label() + ": " + tip,
		})
	}
	return sc
}

// cityScene：门店圆点按上月 GMV 缩放着色，销售方为独立标记
func cityScene(s Snapshot) Scene {
	values := make([]float64, 0, len(s.Stores))
	for _, st := range s.Stores {
		values = append(values, st.GMVLastMonth)
	}
	min, max := ValueRange(values)
	sc := Scene{
		Level:  LevelCity,
		Title:  s.SubRegion + ", " + s.Region,
		Legend: legend("Store GMV Legend", min, max, false, len(s.Stores) > 0),
		Link:   s.Hover.Link,
	}
	hlStore := idSet(s.Hover.StoreIDs)
	hlSeller := idSet(s.Hover.SellerIDs)
	for _, st := range s.Stores {
		if st.Latitude == 0 || st.Longitude == 0 {
			continue
		}
		sc.Markers = append(sc.Markers, Marker{
			Kind:        "store",
			ID:          st.StoreID,
			Label:       st.Name,
			Lat:         st.Latitude,
			Lng:         st.Longitude,
			Value:       st.GMVLastMonth,
			Radius:      MarkerSize(st.GMVLastMonth, min, max),
			Color:       HeatColor(st.GMVLastMonth, min, max),
			Tooltip:     "GMV Last Month: " + FormatCurrency(st.GMVLastMonth, false),
			Highlighted: hlStore[st.StoreID],
		})
	}
	for _, se := range s.Sellers {
		if se.Latitude == 0 || se.Longitude == 0 {
			continue
		}
		sc.Markers = append(sc.Markers, Marker{
			Kind:        "seller",
			ID:          se.SellerID,
			Label:       se.FullName,
			Lat:         se.Latitude,
			Lng:         se.Longitude,
			Value:       se.GMVLastMonth,
			Radius:      6,
			Color:       SellerColor,
			Tooltip:     "GMV Last Month: " + FormatCurrency(se.GMVLastMonth, false),
			Highlighted: hlSeller[se.SellerID],
		})
	}
	return sc
}

// networkScene：门店与销售方节点去重，连线按 GMV 着色，悬停时加粗
func networkScene(s Snapshot) Scene {
	sc := Scene{
		Level: LevelCity,
		Title: s.SubRegion + ", " + s.Region + " Network",
		Legend: Legend{
			Title:     "Network Legend",
			MinLabel:  FormatCurrency(0, true),
			MaxLabel:  FormatCurrency(10000, true),
			MinColor:  NetworkColor(0),
			MidColor:  NetworkColor(5000),
			MaxColor:  NetworkColor(10000),
			HasValues: len(s.Edges) > 0,
		},
	}
	hlEdge := map[int]bool{}
	for _, i := range s.Hover.Edges {
		hlEdge[i] = true
	}
	hlStore := idSet(s.Hover.StoreIDs)
	hlSeller := idSet(s.Hover.SellerIDs)
	stores := map[int64]bool{}
	sellers := map[int64]bool{}
	for i, e := range s.Edges {
		if !stores[e.StoreID] {
			stores[e.StoreID] = true
			sc.Markers = append(sc.Markers, Marker{Kind: "store", ID: e.StoreID, Label: e.StoreName, Lat: e.StoreLat, Lng: e.StoreLng, Radius: 8, Color: StoreColor, Highlighted: hlStore[e.StoreID]})
		}
		if !sellers[e.SellerID] {
			sellers[e.SellerID] = true
			sc.Markers = append(sc.Markers, Marker{Kind: "seller", ID: e.SellerID, Label: e.SellerFullName, Lat: e.SellerLat, Lng: e.SellerLng, Radius: 8, Color: SellerColor, Highlighted: hlSeller[e.SellerID]})
		}
		width := 2.0
		if hlEdge[i] {
			width = 4
		}
		sc.Edges = append(sc.Edges, Edge{
			Index:       i,
			StoreID:     e.StoreID,
			SellerID:    e.SellerID,
			From:        LatLng{e.StoreLat, e.StoreLng},
			To:          LatLng{e.SellerLat, e.SellerLng},
			Color:       NetworkColor(e.ConnectionGMV),
			Width:       width,
			Highlighted: hlEdge[i],
		})
	}
	return sc
}

func idSet(ids []int64) map[int64]bool {
	m := make(map[int64]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
