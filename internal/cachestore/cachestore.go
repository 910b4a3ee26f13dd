// 包 cachestore：按（数据集类型, 区域键）落盘的指标缓存
// 背景：一个数据集一个 JSON 文件；读失败一律视为未命中，写入为整文件替换
package cachestore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"geo-heatmap/internal/geocode"
	"geo-heatmap/internal/logger"
	"geo-heatmap/internal/metrics"
	"geo-heatmap/internal/model"
)

const (
	nationFile      = "states_gmv.json"
	subRegionPrefix = "cities_gmv_"
)

// envelope：落盘格式；不含抓取时间，保证相同内容刷新后字节一致
type envelope struct {
	Kind      model.DatasetKind `json:"kind"`
	Region    string            `json:"region,omitempty"`
	Synthetic bool              `json:"synthetic"`
	Records   json.RawMessage   `json:"records"`
}

// Store：文件缓存
// 约束：MaxAge>0 时超过该时长的文件按未命中处理；0 表示永不过期，由刷新周期兜底
type Store struct {
	dir    string
	MaxAge time.Duration
	now    func() time.Time
}

// New：创建缓存；目录在首次写入时按需创建
func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir：缓存目录
func (s *Store) Dir() string { return s.dir }

// Ensure：启动时立即创建缓存目录
// 返回：目录不可创建时的错误；调用方应视为致命
func (s *Store) Ensure() error {
	return os.MkdirAll(s.dir, 0o755)
}

// FileName：数据集对应的文件名（区域键经 Slug 规范化）
func FileName(kind model.DatasetKind, regionKey string) string {
	if kind == model.KindNation {
		return nationFile
	}
	return subRegionPrefix + geocode.Slug(regionKey) + ".json"
}

// Path：数据集对应的完整路径
func (s *Store) Path(kind model.DatasetKind, regionKey string) string {
	return filepath.Join(s.dir, FileName(kind, regionKey))
}

// Read：读取缓存条目
// 返回：ok=false 表示未命中（文件不存在、解析失败、类型不符或已过期）；解析失败仅记 warn 日志
func (s *Store) Read(kind model.DatasetKind, regionKey string) (model.CacheEntry, bool) {
	var zero model.CacheEntry
	fp := s.Path(kind, regionKey)
	fi, err := os.Stat(fp)
	if err != nil {
		metrics.CacheMissesTotal.WithLabelValues(string(kind)).Inc()
		logger.L().Debug("cache_read_miss", "kind", kind, "key", regionKey)
		return zero, false
	}
	if s.MaxAge > 0 && s.now().Sub(fi.ModTime()) > s.MaxAge {
		metrics.CacheMissesTotal.WithLabelValues(string(kind)).Inc()
		logger.L().Debug("cache_read_stale", "kind", kind, "key", regionKey, "age", s.now().Sub(fi.ModTime()).String())
		return zero, false
	}
	b, err := os.ReadFile(fp)
	if err != nil {
		metrics.CacheMissesTotal.WithLabelValues(string(kind)).Inc()
		logger.L().Warn("cache_read_error", "path", fp, "err", err)
		return zero, false
	}
	e, err := decode(b, kind)
	if err != nil {
		metrics.CacheMissesTotal.WithLabelValues(string(kind)).Inc()
		logger.L().Warn("cache_parse_error", "path", fp, "err", err)
		return zero, false
	}
	e.FetchedAt = fi.ModTime()
	metrics.CacheHitsTotal.WithLabelValues(string(kind)).Inc()
	logger.L().Debug("cache_read_hit", "kind", kind, "key", regionKey, "count", e.Len(), "synthetic", e.Synthetic)
	return e, true
}

func decode(b []byte, kind model.DatasetKind) (model.CacheEntry, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return model.CacheEntry{}, err
	}
	if env.Kind != kind {
		return model.CacheEntry{}, &KindMismatchError{Want: kind, Got: env.Kind}
	}
	e := model.CacheEntry{Kind: env.Kind, RegionKey: env.Region, Synthetic: env.Synthetic}
	if len(env.Records) == 0 || string(env.Records) == "null" {
		return model.CacheEntry{}, errNoRecords
	}
	var err error
	if kind == model.KindNation {
		e.Regions = []model.Region{}
		err = json.Unmarshal(env.Records, &e.Regions)
	} else {
		e.SubRegions = []model.SubRegion{}
		err = json.Unmarshal(env.Records, &e.SubRegions)
	}
	return e, err
}

// Write：整文件替换写入
// 约束：先写临时文件再 rename，读者不会看到半写入的文件；同键并发写入以最后一次为准
func (s *Store) Write(e model.CacheEntry) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	var recs any = e.SubRegions
	if e.Kind == model.KindNation {
		recs = e.Regions
		if e.Regions == nil {
			recs = []model.Region{}
		}
	} else if e.SubRegions == nil {
		recs = []model.SubRegion{}
	}
	rb, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	region := ""
	if e.Kind != model.KindNation {
		region = geocode.Slug(e.RegionKey)
	}
	b, err := json.Marshal(envelope{Kind: e.Kind, Region: region, Synthetic: e.Synthetic, Records: rb})
	if err != nil {
		return err
	}
	fp := s.Path(e.Kind, e.RegionKey)
	tmp, err := os.CreateTemp(s.dir, ".tmp-"+filepath.Base(fp)+"-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), fp); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	metrics.CacheWritesTotal.WithLabelValues(string(e.Kind), boolLabel(e.Synthetic)).Inc()
	logger.L().Debug("cache_written", "path", fp, "count", e.Len(), "synthetic", e.Synthetic)
	return nil
}

// FileInfo：诊断用的文件摘要
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// List：列出缓存目录中的数据集文件（按文件名排序）；目录不存在时返回空
func (s *Store) List() ([]FileInfo, error) {
	ents, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []FileInfo
	for _, de := range ents {
		n := de.Name()
		if de.IsDir() || !strings.HasSuffix(n, ".json") {
			continue
		}
		if n != nationFile && !strings.HasPrefix(n, subRegionPrefix) {
			continue
		}
		fi, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, FileInfo{Name: n, Size: fi.Size(), ModTime: fi.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
