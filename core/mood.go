package core

import (
	"fmt"
	"math"
	"strings"
)

// Mood 是一种就餐意图类别（如 "date"、"budget"）。
// 启用的 mood 集合由部署配置决定，引擎本身不写死。
type Mood string

// DefaultMoods 是默认启用的 mood 集合，与线上分类模型的标签顺序一致。
var DefaultMoods = []Mood{"celebration", "date", "quick_bite", "budget"}

// MoodSet 是有序、去重的启用 mood 集合。创建后只读，可并发使用。
type MoodSet struct {
	moods []Mood
	index map[Mood]int
}

// NewMoodSet 根据配置创建 MoodSet。空名称或重复名称视为配置错误。
func NewMoodSet(moods ...Mood) (*MoodSet, error) {
	if len(moods) == 0 {
		return nil, fmt.Errorf("mood set must not be empty")
	}
	s := &MoodSet{
		moods: make([]Mood, 0, len(moods)),
		index: make(map[Mood]int, len(moods)),
	}
	for _, m := range moods {
		m = Mood(strings.TrimSpace(string(m)))
		if m == "" {
			return nil, fmt.Errorf("mood name must not be empty")
		}
		if _, ok := s.index[m]; ok {
			return nil, fmt.Errorf("duplicate mood %q", m)
		}
		s.index[m] = len(s.moods)
		s.moods = append(s.moods, m)
	}
	return s, nil
}

// MustMoodSet 同 NewMoodSet，出错时 panic，用于测试和静态配置。
func MustMoodSet(moods ...Mood) *MoodSet {
	s, err := NewMoodSet(moods...)
	if err != nil {
		panic(err)
	}
	return s
}

// Moods 返回 mood 列表的副本（保持配置顺序）。
func (s *MoodSet) Moods() []Mood {
	out := make([]Mood, len(s.moods))
	copy(out, s.moods)
	return out
}

// Len 返回启用的 mood 数量。
func (s *MoodSet) Len() int { return len(s.moods) }

// Index 返回 mood 在集合中的位置。
func (s *MoodSet) Index(m Mood) (int, bool) {
	i, ok := s.index[m]
	return i, ok
}

// Contains 判断 mood 是否启用。
func (s *MoodSet) Contains(m Mood) bool {
	_, ok := s.index[m]
	return ok
}

// Strings 返回 mood 名称列表，便于日志和接口输出。
func (s *MoodSet) Strings() []string {
	out := make([]string, len(s.moods))
	for i, m := range s.moods {
		out[i] = string(m)
	}
	return out
}

// MoodProbabilityVector 是单条评论的 mood 概率向量。
// 形状固定：与所属 MoodSet 一一对应，每个值都在 [0,1]。
// 只能通过 NewMoodProbabilityVector 构造（在推理适配层边界完成校验）。
type MoodProbabilityVector struct {
	set   *MoodSet
	probs []float64
}

// NewMoodProbabilityVector 校验分类器的原始输出并构造定长向量。
// 缺少启用的 mood、NaN 或越界概率均视为 CONTRACT_VIOLATION；
// 分类器额外输出的未启用标签被忽略。
func NewMoodProbabilityVector(set *MoodSet, raw map[string]float64) (MoodProbabilityVector, error) {
	if set == nil {
		return MoodProbabilityVector{}, NewContractViolationError(ModuleInference, "mood set is nil")
	}
	probs := make([]float64, set.Len())
	for i, m := range set.moods {
		p, ok := raw[string(m)]
		if !ok {
			return MoodProbabilityVector{}, NewContractViolationError(ModuleInference, "missing probability for mood %q", m)
		}
		if math.IsNaN(p) || p < 0 || p > 1 {
			return MoodProbabilityVector{}, NewContractViolationError(ModuleInference, "probability %v for mood %q out of [0,1]", p, m)
		}
		probs[i] = p
	}
	return MoodProbabilityVector{set: set, probs: probs}, nil
}

// Get 返回指定 mood 的概率；mood 不在向量所属集合中时返回 false。
func (v MoodProbabilityVector) Get(m Mood) (float64, bool) {
	if v.set == nil {
		return 0, false
	}
	i, ok := v.set.Index(m)
	if !ok || i >= len(v.probs) {
		return 0, false
	}
	return v.probs[i], true
}

// Set 返回向量所属的 MoodSet。
func (v MoodProbabilityVector) Set() *MoodSet { return v.set }

// Map 将向量转为 map，便于调试输出。
func (v MoodProbabilityVector) Map() map[Mood]float64 {
	out := make(map[Mood]float64, len(v.probs))
	if v.set == nil {
		return out
	}
	for i, m := range v.set.moods {
		out[m] = v.probs[i]
	}
	return out
}
