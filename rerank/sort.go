// Package rerank 提供重排阶段的 Node：排序与截断。
package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/pipeline"
	"github.com/rushteam/moodkit/pkg/utils"
)

// SortNode 按确定的全序对餐厅排序：
//
//	mood 分数降序 -> 评分降序 -> 评分人数降序 -> place id 升序
//
// 最后一级以 ID 兜底，同一输入无论打分完成顺序如何，输出都相同。
// 排序后写入 rank_position label（从 1 开始）。
type SortNode struct{}

func (n *SortNode) Name() string        { return "rerank.sort" }
func (n *SortNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *SortNode) Process(
	_ context.Context,
	_ *core.RankContext,
	items []*core.ScoredRestaurant,
) ([]*core.ScoredRestaurant, error) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(items[i], items[j])
	})
	for i, it := range items {
		it.SetLabel(utils.LabelRankPosition, utils.IntLabel(i+1, "rerank"))
	}
	return items, nil
}

// Less 报告 a 是否应排在 b 之前。
func Less(a, b *core.ScoredRestaurant) bool {
	if a.MoodScore.Score != b.MoodScore.Score {
		return a.MoodScore.Score > b.MoodScore.Score
	}
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	if a.RatingCount != b.RatingCount {
		return a.RatingCount > b.RatingCount
	}
	return a.ID < b.ID
}
