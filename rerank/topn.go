package rerank

import (
	"context"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/pipeline"
)

// TopNNode 截取前 N 个餐厅，通常放在 SortNode 之后。
// N <= 0 时使用 rctx.MaxResults；两者都 <= 0 时不截断。
type TopNNode struct {
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RankContext,
	items []*core.ScoredRestaurant,
) ([]*core.ScoredRestaurant, error) {
	limit := n.N
	if limit <= 0 && rctx != nil {
		limit = rctx.MaxResults
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
