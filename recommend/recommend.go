// Package recommend 串联地点发现、排序引擎与结果缓存，对外提供“按 mood 推荐附近餐厅”。
package recommend

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/discovery"
	"github.com/rushteam/moodkit/logging"
	"github.com/rushteam/moodkit/metrics"
)

const (
	// DefaultMaxResults 是默认返回数量
	DefaultMaxResults = 10
	// DefaultCacheTTL 是默认缓存时间（秒）
	DefaultCacheTTL = 600
	// coordPrecision 缓存 key 中坐标保留的小数位（约 110 米）
	coordPrecision = 3
)

// Ranker 是排序引擎，由 engine.Engine 实现。
type Ranker interface {
	Rank(ctx context.Context, candidates []core.RestaurantCandidate, mood core.Mood, maxResults int) (*core.RankResult, error)
	Moods() *core.MoodSet
}

// Request 是一次推荐请求。
type Request struct {
	Lat        float64
	Lng        float64
	Mood       core.Mood
	Radius     int
	MaxResults int
	Filters    discovery.Filters
}

// Response 是推荐结果，附带是否命中缓存。
type Response struct {
	*core.RankResult
	Cached bool `json:"cached"`
}

// Option 配置 Recommender。
type Option func(*Recommender)

// WithStore 设置结果缓存（nil 表示不缓存）。
func WithStore(s core.Store) Option {
	return func(r *Recommender) { r.store = s }
}

// WithCacheTTL 设置缓存有效期（秒）。
func WithCacheTTL(ttl int) Option {
	return func(r *Recommender) { r.ttl = ttl }
}

// WithLogger 设置 logger。
func WithLogger(l zerolog.Logger) Option {
	return func(r *Recommender) { r.logger = l }
}

// Recommender 是无状态的编排层；缓存是唯一的共享状态，且读写失败都不影响结果。
type Recommender struct {
	discovery discovery.Service
	ranker    Ranker
	store     core.Store
	ttl       int
	logger    zerolog.Logger
}

// New 创建 Recommender。
func New(d discovery.Service, r Ranker, opts ...Option) *Recommender {
	rec := &Recommender{
		discovery: d,
		ranker:    r,
		ttl:       DefaultCacheTTL,
		logger:    logging.Component("recommend"),
	}
	for _, opt := range opts {
		opt(rec)
	}
	return rec
}

// Recommend 返回 mood 下附近餐厅的排序结果。
// 参数在访问缓存和网络之前校验；缓存读写错误只记录日志。
func (r *Recommender) Recommend(ctx context.Context, req Request) (*Response, error) {
	if req.Radius == 0 {
		req.Radius = discovery.DefaultRadius
	}
	if req.MaxResults == 0 {
		req.MaxResults = DefaultMaxResults
	}
	if req.Mood == "" || !r.ranker.Moods().Contains(req.Mood) {
		return nil, core.NewInvalidInputError(core.ModuleRank, "invalid mood %q, must be one of %v", req.Mood, r.ranker.Moods().Strings())
	}
	if req.MaxResults < 0 {
		return nil, core.NewInvalidInputError(core.ModuleRank, "max_results must be positive, got %d", req.MaxResults)
	}
	sreq := discovery.SearchRequest{Lat: req.Lat, Lng: req.Lng, Radius: req.Radius, Filters: req.Filters}
	if err := sreq.Validate(); err != nil {
		return nil, err
	}

	key, err := CacheKey(req)
	if err != nil {
		return nil, err
	}
	if res := r.cacheGet(ctx, key); res != nil {
		return &Response{RankResult: res, Cached: true}, nil
	}

	candidates, err := r.discovery.Search(ctx, sreq)
	if err != nil {
		return nil, fmt.Errorf("discover restaurants: %w", err)
	}
	res, err := r.ranker.Rank(ctx, candidates, req.Mood, req.MaxResults)
	if err != nil {
		return nil, err
	}

	r.cacheSet(ctx, key, res)
	return &Response{RankResult: res}, nil
}

// CacheKey 由（取整后的坐标, mood, 半径, 返回数, 过滤条件）组成。
func CacheKey(req Request) (string, error) {
	key := "rank:" + roundCoord(req.Lat) + "," + roundCoord(req.Lng) +
		":" + string(req.Mood) + ":" + strconv.Itoa(req.Radius) + ":" + strconv.Itoa(req.MaxResults)
	if req.Filters != (discovery.Filters{}) {
		f, err := gojson.Marshal(req.Filters)
		if err != nil {
			return "", fmt.Errorf("encode filters: %w", err)
		}
		key += ":" + string(f)
	}
	return key, nil
}

func roundCoord(v float64) string {
	p := math.Pow10(coordPrecision)
	r := math.Round(v*p) / p
	if r == 0 {
		r = 0 // -0 与 0 使用同一个 key
	}
	return strconv.FormatFloat(r, 'f', coordPrecision, 64)
}

func (r *Recommender) cacheGet(ctx context.Context, key string) *core.RankResult {
	if r.store == nil {
		return nil
	}
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if !core.IsStoreNotFound(err) {
			r.logger.Warn().Str("key", key).Err(err).Msg("cache get failed")
		}
		metrics.CacheMisses.Inc()
		return nil
	}
	var res core.RankResult
	if err := gojson.Unmarshal(data, &res); err != nil {
		r.logger.Warn().Str("key", key).Err(err).Msg("cache entry corrupt")
		metrics.CacheMisses.Inc()
		return nil
	}
	metrics.CacheHits.Inc()
	return &res
}

func (r *Recommender) cacheSet(ctx context.Context, key string, res *core.RankResult) {
	if r.store == nil {
		return
	}
	data, err := gojson.Marshal(res)
	if err != nil {
		r.logger.Warn().Str("key", key).Err(err).Msg("cache encode failed")
		return
	}
	start := time.Now()
	if err := r.store.Set(ctx, key, data, r.ttl); err != nil {
		r.logger.Warn().Str("key", key).Err(err).Dur("elapsed", time.Since(start)).Msg("cache set failed")
	}
}
