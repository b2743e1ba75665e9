package model

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/rushteam/moodkit/core"
)

// HugotClassifier 是进程内的 ONNX 多标签文本分类模型（DistilBERT 等），基于 hugot。
//
// 核心思想：
//   - 进程启动时调用 Load 加载一次，之后只读，可被多个请求共享
//   - 多标签 + sigmoid：每个 mood 独立输出 [0,1] 概率
//   - tokenizer 按模型的最大长度截断，推理适配层另有字符级截断
//
// 工程特征：
//   - 纯 Go 后端（GoMLX），无需 cgo；并发度由推理适配层的 MaxConcurrent 控制
type HugotClassifier struct {
	cfg HugotConfig

	mu       sync.RWMutex
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
}

// HugotConfig 是 HugotClassifier 的配置。
type HugotConfig struct {
	// ModelPath 本地模型目录（包含 tokenizer.json 与 onnx 文件）
	ModelPath string `koanf:"model_path"`

	// HFRepo HuggingFace 仓库名；ModelPath 不存在时从此下载
	HFRepo string `koanf:"hf_repo"`

	// CacheDir 下载目录
	CacheDir string `koanf:"cache_dir"`

	// OnnxFilename 模型目录中存在多个 onnx 文件时指定
	OnnxFilename string `koanf:"onnx_filename"`

	// Labels 模型输出为 LABEL_0..LABEL_n 时，按下标映射为 mood 名称
	Labels []string `koanf:"labels"`
}

// NewHugotClassifier 创建未加载的分类器。
func NewHugotClassifier(cfg HugotConfig) *HugotClassifier {
	return &HugotClassifier{cfg: cfg}
}

func (c *HugotClassifier) Name() string {
	if c.cfg.HFRepo != "" {
		return c.cfg.HFRepo
	}
	return "hugot"
}

// Load 加载模型（必要时先下载）。重复调用是安全的。
func (c *HugotClassifier) Load(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pipeline != nil {
		return nil
	}

	modelPath := c.cfg.ModelPath
	if _, err := os.Stat(modelPath); modelPath == "" || os.IsNotExist(err) {
		if c.cfg.HFRepo == "" {
			return fmt.Errorf("model path %q not found and no HuggingFace repo configured", modelPath)
		}
		dir := c.cfg.CacheDir
		if dir == "" {
			dir = os.TempDir()
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
		downloaded, err := hugot.DownloadModel(c.cfg.HFRepo, dir, hugot.NewDownloadOptions())
		if err != nil {
			return fmt.Errorf("download from HuggingFace: %w", err)
		}
		modelPath = downloaded
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	pipe, err := hugot.NewPipeline(session, hugot.TextClassificationConfig{
		ModelPath:    modelPath,
		Name:         "moodkit-mood-classifier",
		OnnxFilename: c.cfg.OnnxFilename,
		Options: []hugot.TextClassificationOption{
			pipelines.WithMultiLabel(),
			pipelines.WithSigmoid(),
		},
	})
	if err != nil {
		session.Destroy()
		return fmt.Errorf("create pipeline: %w", err)
	}

	c.session = session
	c.pipeline = pipe
	return nil
}

// Ready 实现 core.ReadinessChecker。
func (c *HugotClassifier) Ready(context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pipeline == nil {
		return fmt.Errorf("model not loaded")
	}
	return nil
}

// Predict 单条预测。
func (c *HugotClassifier) Predict(ctx context.Context, text string) (map[string]float64, error) {
	out, err := c.PredictBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// PredictBatch 批量预测。
func (c *HugotClassifier) PredictBatch(_ context.Context, texts []string) ([]map[string]float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.pipeline == nil {
		return nil, core.NewModelUnavailableError(nil, "hugot model not loaded")
	}
	if len(texts) == 0 {
		return []map[string]float64{}, nil
	}

	output, err := c.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	if len(output.ClassificationOutputs) != len(texts) {
		return nil, fmt.Errorf("output count mismatch: expected %d, got %d", len(texts), len(output.ClassificationOutputs))
	}

	results := make([]map[string]float64, len(output.ClassificationOutputs))
	for i, labels := range output.ClassificationOutputs {
		probs := make(map[string]float64, len(labels))
		for _, l := range labels {
			probs[c.labelName(l.Label)] = float64(l.Score)
		}
		results[i] = probs
	}
	return results, nil
}

// labelName 将 LABEL_<i> 映射为配置的 mood 名称。
func (c *HugotClassifier) labelName(label string) string {
	if len(c.cfg.Labels) == 0 {
		return label
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(label, "LABEL_"))
	if err != nil || idx < 0 || idx >= len(c.cfg.Labels) {
		return label
	}
	return c.cfg.Labels[idx]
}

// Close 释放模型资源。
func (c *HugotClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	c.pipeline = nil
	return nil
}
