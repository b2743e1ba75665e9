// Package filter 提供过滤阶段的 Node 与过滤器。
package filter

import (
	"context"

	"github.com/rushteam/moodkit/core"
)

// Filter 判断一个餐厅是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称，同时作为过滤原因写入 label 与指标
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RankContext, item *core.ScoredRestaurant) (bool, error)
}
