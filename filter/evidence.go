package filter

import (
	"context"

	"github.com/rushteam/moodkit/core"
)

// DefaultMinReviewsForRanking 是参与排序所需的最少评论数。
const DefaultMinReviewsForRanking = 3

// EvidenceFilter 过滤掉评论数不足 MinReviews 的餐厅（"评论不够"）。
type EvidenceFilter struct {
	MinReviews int
}

func (f *EvidenceFilter) Name() string {
	return "insufficient_evidence"
}

func (f *EvidenceFilter) ShouldFilter(_ context.Context, _ *core.RankContext, item *core.ScoredRestaurant) (bool, error) {
	return item.MoodScore.EvidenceCount < f.MinReviews, nil
}

// ConfidenceFilter 过滤掉没有任何正向信号的餐厅（"评论不支持该 mood"）。
// 只看正向信号数，评论数门槛由 EvidenceFilter 独立负责，
// 因此 MinReviewsForRanking 可以低于聚合器的 MinReviews。
type ConfidenceFilter struct{}

func (f *ConfidenceFilter) Name() string {
	return "no_positive_signal"
}

func (f *ConfidenceFilter) ShouldFilter(_ context.Context, _ *core.RankContext, item *core.ScoredRestaurant) (bool, error) {
	return item.MoodScore.PositiveSignals < 1, nil
}
