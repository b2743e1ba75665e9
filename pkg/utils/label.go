package utils

import "strconv"

// Label 是排序链路中的一等公民：可解释、可追踪、可透传。
// Value 与 Source 的语义由各 Node 定义；这里只提供标准化的合并规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // scorer / rank / filter / rerank ...
}

// 引擎内置的 label key。
const (
	LabelScoreSource     = "score_source"     // 打分来源，如 model:distilbert
	LabelPositiveSignals = "positive_signals" // 概率 >= 阈值的评论数
	LabelFiltered        = "filtered"         // 被过滤的原因
	LabelRankPosition    = "rank_position"    // 最终排序位置（从 1 开始）
)

// IntLabel 以十进制字符串形式创建数值 Label。
func IntLabel(v int, source string) Label {
	return Label{Value: strconv.Itoa(v), Source: source}
}

// MergeLabel 用于合并同名 Label，遵循“保留历史、可追踪”的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
