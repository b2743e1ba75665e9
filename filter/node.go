package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/metrics"
	"github.com/rushteam/moodkit/pipeline"
	"github.com/rushteam/moodkit/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器。
// 任何一个过滤器返回 true，该餐厅就会被过滤掉。
// 过滤器出错时记录日志并视为不过滤，不中断请求。
type FilterNode struct {
	Filters []Filter
	Logger  zerolog.Logger
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RankContext,
	items []*core.ScoredRestaurant,
) ([]*core.ScoredRestaurant, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.ScoredRestaurant, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		reason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				n.Logger.Warn().Str("filter", f.Name()).Str("place_id", item.ID).Err(err).Msg("filter failed")
				continue
			}
			if ok {
				reason = f.Name()
				break
			}
		}

		if reason != "" {
			item.PutLabel(utils.LabelFiltered, utils.Label{Value: "true", Source: reason})
			metrics.CandidatesExcluded.WithLabelValues(reason).Inc()
			continue
		}
		out = append(out, item)
	}
	return out, nil
}
