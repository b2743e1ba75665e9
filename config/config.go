// Package config 加载 moodkit 的分层配置。
//
// 优先级从低到高：结构体默认值 → YAML 文件（CONFIG_PATH 或 moodkit.yaml）→ MOODKIT_ 前缀的环境变量。
//
//	cfg, err := config.Load()
//	eng, err := engine.New(classifier, cfg.MoodSet(), cfg.Engine())
package config

import (
	"fmt"
	"time"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/discovery"
	"github.com/rushteam/moodkit/engine"
	"github.com/rushteam/moodkit/inference"
	"github.com/rushteam/moodkit/logging"
	"github.com/rushteam/moodkit/model"
	"github.com/rushteam/moodkit/pkg/validate"
	"github.com/rushteam/moodkit/service"
	"github.com/rushteam/moodkit/store"
)

// DefaultHFRepo 是默认的 mood 分类模型（DistilBERT 多标签）。
const DefaultHFRepo = "rohanjain2312/distilbert-mood-classifier"

// DefaultHFLabels 返回默认模型 LABEL_0..LABEL_3 对应的 mood，顺序与模型训练时一致。
func DefaultHFLabels() []string {
	return []string{"date", "quick_bite", "budget", "celebration"}
}

// Config 是 moodkit 的全部配置。
type Config struct {
	// Moods 启用的 mood（决定概率向量的形状）；模型输出标签的映射见 model.hugot.labels
	Moods []string `koanf:"moods" validate:"min=1,dive,required"`

	Scoring   engine.ScoringConfig   `koanf:"scoring"`
	Inference inference.Config       `koanf:"inference"`
	Model     ModelConfig            `koanf:"model"`
	Places    discovery.PlacesConfig `koanf:"places"`
	Discovery DiscoveryConfig        `koanf:"discovery"`
	Store     store.Config           `koanf:"store"`
	Server    ServerConfig           `koanf:"server"`
	Logging   logging.Config         `koanf:"logging"`
}

// ModelConfig 选择分类模型后端。
type ModelConfig struct {
	// Backend 模型后端：hugot、keyword、torch_serve、http
	Backend string `koanf:"backend" validate:"required"`

	Hugot   model.HugotConfig     `koanf:"hugot"`
	Service service.ServiceConfig `koanf:"service"`
}

// DiscoveryConfig 配置地点发现来源。
// 配置了 places.api_key 时 Places API 是第一个来源，Fixtures 中的文件依次作为后续来源。
type DiscoveryConfig struct {
	// Fixtures 离线候选餐厅文件（collect 的输出，YAML 或 JSON）
	Fixtures []string `koanf:"fixtures"`

	// SourceTimeout 每个来源的超时（0 表示不限制）
	SourceTimeout time.Duration `koanf:"source_timeout"`
}

// ServerConfig 是 HTTP 服务配置。
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RequestTimeout 单个推荐请求的处理超时（0 表示不限制）
	RequestTimeout time.Duration `koanf:"request_timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests 每个 IP 在 RateLimitWindow 内允许的推荐请求数（0 表示不限流）
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// Default 返回默认配置。
func Default() *Config {
	moods := make([]string, len(core.DefaultMoods))
	for i, m := range core.DefaultMoods {
		moods[i] = string(m)
	}
	ec := engine.DefaultConfig()
	return &Config{
		Moods:     moods,
		Scoring:   ec.Scoring,
		Inference: ec.Inference,
		Model: ModelConfig{
			Backend: BackendHugot,
			Hugot: model.HugotConfig{
				ModelPath: "models/mood-classifier",
				HFRepo:    DefaultHFRepo,
				CacheDir:  "models",
				Labels:    DefaultHFLabels(),
			},
			Service: service.ServiceConfig{Timeout: 30},
		},
		Places:    discovery.DefaultPlacesConfig(),
		Discovery: DiscoveryConfig{SourceTimeout: 30 * time.Second},
		Store:     store.DefaultConfig(),
		Server: ServerConfig{
			Addr:              ":8000",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			RequestTimeout:    45 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 60,
			RateLimitWindow:   time.Minute,
		},
		Logging: logging.Config{Level: "info", Format: "json"},
	}
}

// Engine 返回排序引擎的配置。
func (c *Config) Engine() engine.Config {
	return engine.Config{Scoring: c.Scoring, Inference: c.Inference}
}

// MoodSet 返回启用的 mood 集合。
func (c *Config) MoodSet() (*core.MoodSet, error) {
	moods := make([]core.Mood, len(c.Moods))
	for i, m := range c.Moods {
		moods[i] = core.Mood(m)
	}
	return core.NewMoodSet(moods...)
}

// Validate 校验配置。
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if !IsSupportedBackend(c.Model.Backend) {
		return fmt.Errorf("unsupported model backend %q (supported: %v)", c.Model.Backend, SupportedBackends())
	}
	if _, err := c.MoodSet(); err != nil {
		return fmt.Errorf("moods: %w", err)
	}
	if c.Store.Backend == "redis" && c.Store.Redis.Addr == "" {
		return fmt.Errorf("store.redis.addr is required when store.backend=redis")
	}
	return nil
}
