// Package inference 是分类模型的推理适配层：把原始评论文本转换为定长的 mood 概率向量。
package inference

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/semaphore"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/metrics"
)

const (
	// DefaultMaxInputChars 约等于分类模型 128 token 的输入预算。
	DefaultMaxInputChars = 512
	// DefaultMaxBatchSize 单次模型调用的最大文本数。
	DefaultMaxBatchSize = 32
	// DefaultMaxConcurrent 单加速卡部署时模型调用必须串行。
	DefaultMaxConcurrent = 1
)

// Config 是推理适配层配置。
type Config struct {
	// MaxInputChars 单条文本的最大字符（rune）数，超出部分从尾部截断
	MaxInputChars int `koanf:"max_input_chars" validate:"gte=0"`

	// MaxBatchSize 单次模型调用的最大文本数，更大的输入会被分块
	MaxBatchSize int `koanf:"max_batch_size" validate:"gte=0"`

	// MaxConcurrent 同时进行的模型调用数：单加速卡为 1，CPU 并行/批处理部署可设为 N
	MaxConcurrent int `koanf:"max_concurrent" validate:"gte=0"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		MaxInputChars: DefaultMaxInputChars,
		MaxBatchSize:  DefaultMaxBatchSize,
		MaxConcurrent: DefaultMaxConcurrent,
	}
}

// Adapter 包装 core.Classifier。
//
// 除了注入的模型句柄（进程生命周期内只读）外不持有任何状态，可并发使用。
// 对模型原始输出做一次性校验：缺失 mood、越界概率都在此处以 CONTRACT_VIOLATION 暴露，
// 不会以默认值的形式流入下游。
type Adapter struct {
	classifier core.Classifier
	moods      *core.MoodSet
	cfg        Config
	sem        *semaphore.Weighted
}

// NewAdapter 创建推理适配器。classifier 与 moods 为必填项。
func NewAdapter(classifier core.Classifier, moods *core.MoodSet, cfg Config) (*Adapter, error) {
	if classifier == nil {
		return nil, core.NewModelUnavailableError(nil, "classifier is not loaded")
	}
	if moods == nil || moods.Len() == 0 {
		return nil, core.NewInvalidInputError(core.ModuleInference, "mood set is required")
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Adapter{
		classifier: classifier,
		moods:      moods,
		cfg:        cfg,
		sem:        semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}, nil
}

// Moods 返回启用的 mood 集合。
func (a *Adapter) Moods() *core.MoodSet { return a.moods }

// ModelName 返回底层模型名称。
func (a *Adapter) ModelName() string { return a.classifier.Name() }

// Config 返回生效的配置。
func (a *Adapter) Config() Config { return a.cfg }

// Truncate 是确定性的截断策略：去掉首尾空白后，保留前 MaxInputChars 个字符。
func (a *Adapter) Truncate(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= a.cfg.MaxInputChars {
		return text
	}
	n := 0
	for i := range text {
		if n == a.cfg.MaxInputChars {
			return text[:i]
		}
		n++
	}
	return text
}

// Classify 对单条文本分类。
func (a *Adapter) Classify(ctx context.Context, text string) (core.MoodProbabilityVector, error) {
	vectors, err := a.ClassifyBatch(ctx, []string{text})
	if err != nil {
		return core.MoodProbabilityVector{}, err
	}
	return vectors[0], nil
}

// ClassifyBatch 批量分类，输出与输入一一对应且顺序一致。
// 超过 MaxBatchSize 的输入会被分块调用模型，结果按原顺序拼接。
func (a *Adapter) ClassifyBatch(ctx context.Context, texts []string) ([]core.MoodProbabilityVector, error) {
	if len(texts) == 0 {
		return []core.MoodProbabilityVector{}, nil
	}

	prepared := make([]string, len(texts))
	for i, t := range texts {
		p := a.Truncate(t)
		if p == "" {
			return nil, core.NewInvalidInputError(core.ModuleInference, "text at index %d is empty", i)
		}
		prepared[i] = p
	}

	out := make([]core.MoodProbabilityVector, 0, len(prepared))
	for start := 0; start < len(prepared); start += a.cfg.MaxBatchSize {
		end := start + a.cfg.MaxBatchSize
		if end > len(prepared) {
			end = len(prepared)
		}
		vectors, err := a.classifyChunk(ctx, prepared[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (a *Adapter) classifyChunk(ctx context.Context, texts []string) ([]core.MoodProbabilityVector, error) {
	name := a.classifier.Name()

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return nil, core.NewModelUnavailableError(err, "acquire inference slot")
	}
	start := time.Now()
	raw, err := a.classifier.PredictBatch(ctx, texts)
	metrics.ObserveInference(name, start)
	a.sem.Release(1)

	if err != nil {
		if core.IsContractViolation(err) {
			metrics.InferenceErrors.WithLabelValues(name, "contract_violation").Inc()
			return nil, err
		}
		metrics.InferenceErrors.WithLabelValues(name, "unavailable").Inc()
		if core.IsModelUnavailable(err) {
			return nil, err
		}
		return nil, core.NewModelUnavailableError(err, "classifier %s failed", name)
	}
	if len(raw) != len(texts) {
		metrics.InferenceErrors.WithLabelValues(name, "contract_violation").Inc()
		return nil, core.NewContractViolationError(core.ModuleInference,
			"classifier %s returned %d predictions for %d texts", name, len(raw), len(texts))
	}

	vectors := make([]core.MoodProbabilityVector, len(raw))
	for i, r := range raw {
		v, err := core.NewMoodProbabilityVector(a.moods, r)
		if err != nil {
			metrics.InferenceErrors.WithLabelValues(name, "contract_violation").Inc()
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}
