package core

import "github.com/rushteam/moodkit/pkg/utils"

// RankContext 承载一次排序请求的上下文，贯穿整个 Pipeline 透传。
type RankContext struct {
	// Mood 是本次请求的目标 mood
	Mood Mood

	// MaxResults 是返回结果数上限（> 0）
	MaxResults int

	// Labels 是请求级标签，可用于观测或驱动 Node 行为
	Labels map[string]utils.Label

	// Params 请求级参数，例如 latitude, longitude, radius
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RankContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RankContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
