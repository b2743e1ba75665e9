package core

import (
	"time"

	"github.com/rushteam/moodkit/pkg/utils"
)

// Review 是一条评论。由地点发现服务提供，入库后不再修改。
type Review struct {
	Text   string     `json:"text" yaml:"text"`
	Time   *time.Time `json:"time,omitempty" yaml:"time,omitempty"`
	Rating *float64   `json:"rating,omitempty" yaml:"rating,omitempty"`
	Author string     `json:"author,omitempty" yaml:"author,omitempty"`
}

// Location 是经纬度坐标。
type Location struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// RestaurantCandidate 是待排序的候选餐厅：外部元数据 + 评论列表。
// 身份由 ID（place id）决定；在一次排序请求内视为只读值对象。
// Reviews 的数量由协作方控制（通常 <= 5），引擎不会主动拉取评论。
type RestaurantCandidate struct {
	ID          string   `json:"place_id" yaml:"place_id"`
	Name        string   `json:"name" yaml:"name"`
	Address     string   `json:"address" yaml:"address"`
	Location    Location `json:"location" yaml:"location"`
	Rating      float64  `json:"rating" yaml:"rating"`
	RatingCount int      `json:"user_ratings_total" yaml:"user_ratings_total"`
	PriceLevel  *int     `json:"price_level,omitempty" yaml:"price_level,omitempty"`
	OpenNow     *bool    `json:"is_open,omitempty" yaml:"is_open,omitempty"`
	Types       []string `json:"types,omitempty" yaml:"types,omitempty"`
	Reviews     []Review `json:"reviews,omitempty" yaml:"reviews,omitempty"`
}

// ReviewTexts 按原顺序返回评论文本。
func (c *RestaurantCandidate) ReviewTexts() []string {
	texts := make([]string, 0, len(c.Reviews))
	for _, r := range c.Reviews {
		texts = append(texts, r.Text)
	}
	return texts
}

// MoodScore 是餐厅在某个 mood 上的聚合分数。
// Confident=false 表示证据不足或信号不足，不应用于排序但可以展示。
type MoodScore struct {
	Mood          Mood    `json:"mood"`
	Score         float64 `json:"score"`
	EvidenceCount int     `json:"evidence_count"`
	Confident     bool    `json:"confident"`

	// PositiveSignals 概率 >= 阈值的评论数，对外通过 positive_signals label 暴露
	PositiveSignals int `json:"-"`
}

// ScoredRestaurant 是打过分的候选餐厅，也是排序 Pipeline 中流转的元素。
// Labels 用于解释与观测（打分来源、正向信号数、过滤原因等）。
type ScoredRestaurant struct {
	RestaurantCandidate
	MoodScore MoodScore              `json:"mood_score"`
	Labels    map[string]utils.Label `json:"labels,omitempty"`
}

// NewScoredRestaurant 以候选餐厅的副本创建 ScoredRestaurant，不修改入参。
// Reviews 与 Types 被深拷贝，结果与入参不共享底层数组。
func NewScoredRestaurant(c RestaurantCandidate) *ScoredRestaurant {
	c.Reviews = append([]Review(nil), c.Reviews...)
	c.Types = append([]string(nil), c.Types...)
	return &ScoredRestaurant{
		RestaurantCandidate: c,
		Labels:              make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (sr *ScoredRestaurant) PutLabel(key string, lbl utils.Label) {
	if sr.Labels == nil {
		sr.Labels = make(map[string]utils.Label)
	}
	if old, ok := sr.Labels[key]; ok {
		sr.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	sr.Labels[key] = lbl
}

// SetLabel 写入 Label，覆盖同名 key。
func (sr *ScoredRestaurant) SetLabel(key string, lbl utils.Label) {
	if sr.Labels == nil {
		sr.Labels = make(map[string]utils.Label)
	}
	sr.Labels[key] = lbl
}

// RankResult 是一次排序请求的结果。
// TotalFound 是截断前通过资格过滤的餐厅数量。
type RankResult struct {
	Mood        Mood                `json:"mood"`
	Restaurants []*ScoredRestaurant `json:"restaurants"`
	TotalFound  int                 `json:"total_found"`
}
