// Package aggregate 把一家餐厅的逐条评论概率向量聚合为每个 mood 的 0-10 分。
package aggregate

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/rushteam/moodkit/core"
)

const (
	// DefaultMinReviews 低于该评论数的分数不可信
	DefaultMinReviews = 3
	// DefaultConfidenceThreshold 单条评论概率达到该值视为正向信号
	DefaultConfidenceThreshold = 0.5
	// MaxScore 分数上限
	MaxScore = 10.0
)

// Config 是聚合器配置。
type Config struct {
	MinReviews          int     `koanf:"min_reviews" validate:"gte=0"`
	ConfidenceThreshold float64 `koanf:"confidence_threshold" validate:"gte=0,lte=1"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		MinReviews:          DefaultMinReviews,
		ConfidenceThreshold: DefaultConfidenceThreshold,
	}
}

// Aggregator 是无状态的评论聚合器，可并发使用。
//
// 每个 mood 的算法：
//  1. 取所有评论在该 mood 上的概率 p_1..p_n
//  2. score = mean(p) * 10，保留两位小数并限制在 [0,10]
//  3. k = count(p_i >= ConfidenceThreshold)
//  4. confident = n >= MinReviews && k >= 1
//
// n = 0 时返回 {score: 0, evidence_count: 0, confident: false}。
// 两个门槛相互独立：下游可以区分“评论不够”和“评论不支持该 mood”。
type Aggregator struct {
	cfg Config
}

// New 创建聚合器。
func New(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Config 返回聚合器配置。
func (a *Aggregator) Config() Config { return a.cfg }

// Result 是单个 mood 的聚合结果。
type Result struct {
	core.MoodScore
}

// AggregateMood 计算单个 mood 的分数。
func (a *Aggregator) AggregateMood(vectors []core.MoodProbabilityVector, mood core.Mood) (Result, error) {
	n := len(vectors)
	if n == 0 {
		return Result{MoodScore: core.MoodScore{Mood: mood}}, nil
	}

	probs := make([]float64, n)
	positives := 0
	for i, v := range vectors {
		p, ok := v.Get(mood)
		if !ok {
			return Result{}, core.NewContractViolationError(core.ModuleAggregate, "vector %d has no probability for mood %q", i, mood)
		}
		if math.IsNaN(p) || p < 0 || p > 1 {
			return Result{}, core.NewContractViolationError(core.ModuleAggregate, "vector %d probability %v for mood %q out of [0,1]", i, p, mood)
		}
		if p >= a.cfg.ConfidenceThreshold {
			positives++
		}
		probs[i] = p
	}

	raw := stat.Mean(probs, nil)
	return Result{
		MoodScore: core.MoodScore{
			Mood:          mood,
			Score:         toScore(raw),
			EvidenceCount: n,
			Confident:     n >= a.cfg.MinReviews && positives >= 1,

			PositiveSignals: positives,
		},
	}, nil
}

// Aggregate 为每个请求的 mood 计算分数，顺序与 moods 一致。
func (a *Aggregator) Aggregate(vectors []core.MoodProbabilityVector, moods ...core.Mood) ([]core.MoodScore, error) {
	out := make([]core.MoodScore, 0, len(moods))
	for _, m := range moods {
		r, err := a.AggregateMood(vectors, m)
		if err != nil {
			return nil, err
		}
		out = append(out, r.MoodScore)
	}
	return out, nil
}

// toScore 把平均概率映射到 0-10 并保留两位小数。
// 四舍五入是单调的，不会破坏“概率升高分数不降”的性质。
func toScore(raw float64) float64 {
	s := math.Round(raw*MaxScore*100) / 100
	if s < 0 {
		return 0
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}
