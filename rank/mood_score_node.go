// Package rank 提供打分阶段的 Node。
package rank

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/metrics"
	"github.com/rushteam/moodkit/pipeline"
)

// DefaultMaxConcurrent 是同时打分的餐厅数上限。
const DefaultMaxConcurrent = 4

// Scorer 为单个候选餐厅打分，由 scorer.Scorer 实现。
type Scorer interface {
	Score(ctx context.Context, candidate core.RestaurantCandidate, mood core.Mood) (*core.ScoredRestaurant, error)
}

// MoodScoreNode 并发地为每个候选餐厅在 rctx.Mood 上打分。
//
//   - 并发度受 MaxConcurrent 限制，所有打分都会执行完毕（一个失败不会取消其他）
//   - CONTRACT_VIOLATION：该餐厅被剔除，记录日志与指标，请求继续
//   - 其他错误（模型不可用等）：整个请求失败，返回输入顺序中第一个此类错误
//
// 输出顺序与输入一致；排序由后续的 rerank.SortNode 负责。
type MoodScoreNode struct {
	Scorer        Scorer
	MaxConcurrent int
	Logger        zerolog.Logger
}

func (n *MoodScoreNode) Name() string        { return "rank.mood_score" }
func (n *MoodScoreNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *MoodScoreNode) Process(
	ctx context.Context,
	rctx *core.RankContext,
	items []*core.ScoredRestaurant,
) ([]*core.ScoredRestaurant, error) {
	if len(items) == 0 {
		return items, nil
	}
	if n.Scorer == nil {
		return nil, core.NewModelUnavailableError(nil, "scorer is not configured")
	}

	limit := n.MaxConcurrent
	if limit <= 0 {
		limit = DefaultMaxConcurrent
	}

	var (
		scored = make([]*core.ScoredRestaurant, len(items))
		errs   = make([]error, len(items))
		eg     errgroup.Group
	)
	eg.SetLimit(limit)

	for i, it := range items {
		if it == nil {
			continue
		}
		eg.Go(func() error {
			scored[i], errs[i] = n.Scorer.Score(ctx, it.RestaurantCandidate, rctx.Mood)
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]*core.ScoredRestaurant, 0, len(items))
	for i, err := range errs {
		if err == nil {
			if scored[i] != nil {
				out = append(out, scored[i])
			}
			continue
		}
		if !core.IsContractViolation(err) {
			return nil, err
		}
		metrics.CandidatesExcluded.WithLabelValues("contract_violation").Inc()
		n.Logger.Warn().
			Str("place_id", items[i].ID).
			Str("mood", string(rctx.Mood)).
			Err(err).
			Msg("candidate excluded")
	}
	metrics.CandidatesScored.WithLabelValues(string(rctx.Mood)).Add(float64(len(out)))
	return out, nil
}
