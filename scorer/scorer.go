// Package scorer 为单个候选餐厅在指定 mood 上打分。
package scorer

import (
	"context"

	"github.com/rushteam/moodkit/aggregate"
	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/inference"
	"github.com/rushteam/moodkit/pkg/utils"
)

// Scorer 组合推理适配层与聚合器，本身无状态。
type Scorer struct {
	adapter    *inference.Adapter
	aggregator *aggregate.Aggregator
}

// New 创建 Scorer。
func New(adapter *inference.Adapter, aggregator *aggregate.Aggregator) *Scorer {
	return &Scorer{adapter: adapter, aggregator: aggregator}
}

// Moods 返回可打分的 mood 集合。
func (s *Scorer) Moods() *core.MoodSet { return s.adapter.Moods() }

// Score 对候选餐厅打分，返回新的 ScoredRestaurant，candidate 本身不被修改。
//
// 没有评论时直接返回 {0, 0, false}，不调用模型。
// 评论文本为空说明上游违反约定，返回 CONTRACT_VIOLATION。
func (s *Scorer) Score(ctx context.Context, candidate core.RestaurantCandidate, mood core.Mood) (*core.ScoredRestaurant, error) {
	if mood == "" {
		return nil, core.NewInvalidInputError(core.ModuleScorer, "mood is required")
	}
	if !s.adapter.Moods().Contains(mood) {
		return nil, core.NewInvalidInputError(core.ModuleScorer, "unknown mood %q", mood)
	}

	out := core.NewScoredRestaurant(candidate)
	out.MoodScore = core.MoodScore{Mood: mood}
	if len(candidate.Reviews) == 0 {
		return out, nil
	}

	texts := candidate.ReviewTexts()
	for i, t := range texts {
		if s.adapter.Truncate(t) == "" {
			return nil, core.NewContractViolationError(core.ModuleScorer, "restaurant %s review %d has empty text", candidate.ID, i)
		}
	}

	vectors, err := s.adapter.ClassifyBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	res, err := s.aggregator.AggregateMood(vectors, mood)
	if err != nil {
		return nil, err
	}

	out.MoodScore = res.MoodScore
	out.PutLabel(utils.LabelScoreSource, utils.Label{Value: "model:" + s.adapter.ModelName(), Source: "scorer"})
	out.PutLabel(utils.LabelPositiveSignals, utils.IntLabel(res.PositiveSignals, "scorer"))
	return out, nil
}
