// Package pipeline 把排序逻辑拆成可组合的 Node 链：打分 -> 过滤 -> 排序 -> 截断。
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rushteam/moodkit/core"
)

// Pipeline 顺序执行 Nodes，上一个 Node 的输出是下一个 Node 的输入。
type Pipeline struct {
	Nodes  []Node
	Logger zerolog.Logger
}

// Run 执行 Pipeline。任一 Node 出错即中止，错误以 Node 名称包装（保留错误链）。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RankContext,
	items []*core.ScoredRestaurant,
) ([]*core.ScoredRestaurant, error) {
	cur := items
	for _, node := range p.Nodes {
		in := len(cur)
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", node.Kind(), node.Name(), err)
		}
		p.Logger.Debug().
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("in", in).
			Int("out", len(next)).
			Msg("node done")
		cur = next
	}
	return cur, nil
}
