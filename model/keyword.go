package model

import (
	"context"
	"strings"
)

// DefaultMoodKeywords 是关键词模型的默认词表。
var DefaultMoodKeywords = map[string][]string{
	"celebration": {"special", "birthday", "celebration", "fancy", "upscale", "anniversary", "occasion"},
	"date":        {"romantic", "intimate", "ambiance", "cozy", "date", "candles", "dim"},
	"quick_bite":  {"fast", "quick", "casual", "grab", "counter", "takeout", "to-go"},
	"budget":      {"cheap", "affordable", "value", "inexpensive", "budget", "reasonable", "deal"},
}

// KeywordClassifier 是基于关键词命中的确定性分类模型。
//
// 对每条评论、每个 mood：概率 = 命中的关键词数 / 该 mood 的关键词总数（不区分大小写，子串匹配）。
// 多条评论取平均后 ×10，与早期基于关键词的打分方式一致。
// 不依赖模型文件，适合开发环境和没有推理资源的部署；只能通过配置显式选择。
type KeywordClassifier struct {
	Keywords map[string][]string
}

// NewKeywordClassifier 创建关键词模型，keywords 为空时使用 DefaultMoodKeywords。
func NewKeywordClassifier(keywords map[string][]string) *KeywordClassifier {
	if len(keywords) == 0 {
		keywords = DefaultMoodKeywords
	}
	normalized := make(map[string][]string, len(keywords))
	for mood, words := range keywords {
		ws := make([]string, 0, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				ws = append(ws, w)
			}
		}
		normalized[mood] = ws
	}
	return &KeywordClassifier{Keywords: normalized}
}

func (c *KeywordClassifier) Name() string { return "keyword" }

// Predict 单条预测。
func (c *KeywordClassifier) Predict(_ context.Context, text string) (map[string]float64, error) {
	lower := strings.ToLower(text)
	out := make(map[string]float64, len(c.Keywords))
	for mood, words := range c.Keywords {
		if len(words) == 0 {
			out[mood] = 0
			continue
		}
		hits := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				hits++
			}
		}
		out[mood] = float64(hits) / float64(len(words))
	}
	return out, nil
}

// PredictBatch 批量预测。
func (c *KeywordClassifier) PredictBatch(ctx context.Context, texts []string) ([]map[string]float64, error) {
	out := make([]map[string]float64, 0, len(texts))
	for _, t := range texts {
		p, err := c.Predict(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Ready 实现 core.ReadinessChecker，关键词模型总是就绪。
func (c *KeywordClassifier) Ready(context.Context) error { return nil }
