package pipeline

import (
	"context"

	"github.com/rushteam/moodkit/core"
)

// Kind 用于标记 Node 类型，方便观测与编排（例如按阶段打点）。
type Kind string

const (
	KindRank   Kind = "rank"   // 打分阶段：为候选餐厅计算 mood 分数
	KindFilter Kind = "filter" // 过滤阶段：剔除证据不足或不符合约束的餐厅
	KindReRank Kind = "rerank" // 重排阶段：排序与截断
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 items -> 输出 items”的形态。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RankContext,
		items []*core.ScoredRestaurant,
	) ([]*core.ScoredRestaurant, error)
}

// NodeFunc 把函数适配为 Node，便于在 Pipeline 中插入一次性的处理步骤。
type NodeFunc struct {
	NodeName string
	NodeKind Kind
	Fn       func(ctx context.Context, rctx *core.RankContext, items []*core.ScoredRestaurant) ([]*core.ScoredRestaurant, error)
}

func (n NodeFunc) Name() string { return n.NodeName }
func (n NodeFunc) Kind() Kind   { return n.NodeKind }

func (n NodeFunc) Process(ctx context.Context, rctx *core.RankContext, items []*core.ScoredRestaurant) ([]*core.ScoredRestaurant, error) {
	return n.Fn(ctx, rctx, items)
}
