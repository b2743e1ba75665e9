// Package engine 是 mood 打分与排序引擎的入口。
//
// 引擎只做纯计算：不访问网络、不缓存、不重试。候选餐厅与评论由调用方提供，
// 分类模型以显式句柄注入。
//
//	eng, err := engine.New(classifier, core.MustMoodSet(core.DefaultMoods...), engine.DefaultConfig())
//	res, err := eng.Rank(ctx, candidates, "date", 10)
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/moodkit/aggregate"
	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/filter"
	"github.com/rushteam/moodkit/inference"
	"github.com/rushteam/moodkit/logging"
	"github.com/rushteam/moodkit/metrics"
	"github.com/rushteam/moodkit/pipeline"
	"github.com/rushteam/moodkit/rank"
	"github.com/rushteam/moodkit/rerank"
	"github.com/rushteam/moodkit/scorer"
)

// ScoringConfig 是打分与排序策略配置。
type ScoringConfig struct {
	// MinReviews 置信所需的最少评论数
	MinReviews int `koanf:"min_reviews" validate:"gte=0"`

	// ConfidenceThreshold 单条评论视为正向信号的概率阈值
	ConfidenceThreshold float64 `koanf:"confidence_threshold" validate:"gte=0,lte=1"`

	// MinReviewsForRanking 参与排序所需的最少评论数
	MinReviewsForRanking int `koanf:"min_reviews_for_ranking" validate:"gte=0"`

	// RequireConfident 为 true 时没有正向信号的餐厅不参与排序（评论数门槛只看 MinReviewsForRanking）
	RequireConfident bool `koanf:"require_confident"`

	// MaxConcurrentScoring 同时打分的餐厅数
	MaxConcurrentScoring int `koanf:"max_concurrent_scoring" validate:"gte=0"`

	// FilterExpr 可选的 CEL 表达式，打分后为 false 的餐厅不参与排序
	FilterExpr string `koanf:"filter_expr"`
}

// Config 是引擎配置。
type Config struct {
	Scoring   ScoringConfig    `koanf:"scoring"`
	Inference inference.Config `koanf:"inference"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		Scoring: ScoringConfig{
			MinReviews:           aggregate.DefaultMinReviews,
			ConfidenceThreshold:  aggregate.DefaultConfidenceThreshold,
			MinReviewsForRanking: filter.DefaultMinReviewsForRanking,
			RequireConfident:     true,
			MaxConcurrentScoring: rank.DefaultMaxConcurrent,
		},
		Inference: inference.DefaultConfig(),
	}
}

// Option 配置 Engine。
type Option func(*Engine)

// WithLogger 指定 logger（默认 logging.Component("engine")）。
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine 组合推理适配层、聚合器、打分器和排序 Pipeline。
// 创建后只读，可并发使用。
type Engine struct {
	cfg        Config
	classifier core.Classifier
	adapter    *inference.Adapter
	scorer     *scorer.Scorer
	pipeline   *pipeline.Pipeline
	logger     zerolog.Logger
}

// New 创建引擎。classifier 为已加载的模型句柄。
func New(classifier core.Classifier, moods *core.MoodSet, cfg Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:        cfg,
		classifier: classifier,
		logger:     logging.Component("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	adapter, err := inference.NewAdapter(classifier, moods, cfg.Inference)
	if err != nil {
		return nil, err
	}
	e.adapter = adapter
	e.scorer = scorer.New(adapter, aggregate.New(aggregate.Config{
		MinReviews:          cfg.Scoring.MinReviews,
		ConfidenceThreshold: cfg.Scoring.ConfidenceThreshold,
	}))

	filters := []filter.Filter{&filter.EvidenceFilter{MinReviews: cfg.Scoring.MinReviewsForRanking}}
	if cfg.Scoring.RequireConfident {
		filters = append(filters, &filter.ConfidenceFilter{})
	}
	if cfg.Scoring.FilterExpr != "" {
		f, err := filter.NewExprFilter(cfg.Scoring.FilterExpr)
		if err != nil {
			return nil, core.NewInvalidInputError(core.ModuleRank, "scoring.filter_expr: %v", err)
		}
		filters = append(filters, f)
	}

	e.pipeline = &pipeline.Pipeline{
		Logger: e.logger,
		Nodes: []pipeline.Node{
			&rank.MoodScoreNode{Scorer: e.scorer, MaxConcurrent: cfg.Scoring.MaxConcurrentScoring, Logger: e.logger},
			&filter.FilterNode{Filters: filters, Logger: e.logger},
			&rerank.SortNode{},
		},
	}
	return e, nil
}

// Moods 返回启用的 mood 集合。
func (e *Engine) Moods() *core.MoodSet { return e.adapter.Moods() }

// ModelName 返回分类模型名称。
func (e *Engine) ModelName() string { return e.adapter.ModelName() }

// Config 返回引擎配置。
func (e *Engine) Config() Config { return e.cfg }

// Ready 报告模型是否可用。
func (e *Engine) Ready(ctx context.Context) error {
	if rc, ok := e.classifier.(core.ReadinessChecker); ok {
		if err := rc.Ready(ctx); err != nil {
			return core.NewModelUnavailableError(err, "classifier %s not ready", e.ModelName())
		}
	}
	return nil
}

// Score 对单个餐厅打分，用于详情展示（不做证据过滤）。
func (e *Engine) Score(ctx context.Context, candidate core.RestaurantCandidate, mood core.Mood) (*core.ScoredRestaurant, error) {
	return e.scorer.Score(ctx, candidate, mood)
}

// Rank 为候选餐厅在 mood 上打分并排序，返回前 maxResults 个。
//
// 参数先于任何计算校验：mood 为空/未启用或 maxResults <= 0 返回 INVALID_INPUT。
// TotalFound 是截断前通过资格过滤（评论数与置信）的餐厅数。候选为空或无人合格时返回空结果而非错误。
func (e *Engine) Rank(ctx context.Context, candidates []core.RestaurantCandidate, mood core.Mood, maxResults int) (res *core.RankResult, err error) {
	if mood == "" {
		return nil, core.NewInvalidInputError(core.ModuleRank, "mood is required")
	}
	if !e.Moods().Contains(mood) {
		return nil, core.NewInvalidInputError(core.ModuleRank, "unknown mood %q, must be one of %v", mood, e.Moods().Strings())
	}
	if maxResults <= 0 {
		return nil, core.NewInvalidInputError(core.ModuleRank, "max_results must be positive, got %d", maxResults)
	}

	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.ObserveRank(string(mood), outcome, start)
	}()

	// 只做浅包装：MoodScoreNode 通过 Scorer 生成深拷贝后的结果，candidates 不会被修改
	rctx := &core.RankContext{Mood: mood, MaxResults: maxResults}
	items := make([]*core.ScoredRestaurant, len(candidates))
	for i := range candidates {
		items[i] = &core.ScoredRestaurant{RestaurantCandidate: candidates[i]}
	}

	ranked, err := e.pipeline.Run(ctx, rctx, items)
	if err != nil {
		e.logger.Error().Err(err).Str("mood", string(mood)).Int("candidates", len(candidates)).Msg("rank failed")
		return nil, err
	}
	total := len(ranked)
	top, err := (&rerank.TopNNode{}).Process(ctx, rctx, ranked)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []*core.ScoredRestaurant{}
	}

	e.logger.Debug().
		Str("mood", string(mood)).
		Int("candidates", len(candidates)).
		Int("total_found", total).
		Int("returned", len(top)).
		Msg("ranked")
	return &core.RankResult{Mood: mood, Restaurants: top, TotalFound: total}, nil
}
