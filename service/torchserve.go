package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/pkg/breaker"
)

// TorchServeClassifier 通过 TorchServe REST API 调用文本分类模型。
//
// REST API 格式：
//   - 推理端点：POST /predictions/{model_name}[/{version}]
//   - 请求体：{"data": ["review 1", "review 2", ...]}
//   - 响应：每条文本一个 label -> 概率 的对象（见 parsePredictions）
//   - 健康检查：GET /ping
//
// 所有调用经过熔断器；熔断打开时直接返回错误，由推理适配层转换为 UNAVAILABLE。
type TorchServeClassifier struct {
	// Endpoint 服务端点，例如 "http://localhost:8080"
	Endpoint string

	// ModelName 模型名称
	ModelName string

	// ModelVersion 模型版本（可选）
	ModelVersion string

	// Timeout 超时时间
	Timeout time.Duration

	// Auth 认证信息
	Auth *AuthConfig

	httpClient *http.Client
	breaker    *breaker.Breaker[[]byte]
}

// TorchServeOption TorchServe 客户端配置选项
type TorchServeOption func(*TorchServeClassifier)

// WithTorchServeVersion 设置模型版本
func WithTorchServeVersion(version string) TorchServeOption {
	return func(c *TorchServeClassifier) {
		c.ModelVersion = version
	}
}

// WithTorchServeTimeout 设置超时时间
func WithTorchServeTimeout(timeout time.Duration) TorchServeOption {
	return func(c *TorchServeClassifier) {
		c.Timeout = timeout
	}
}

// WithTorchServeAuth 设置认证信息
func WithTorchServeAuth(auth *AuthConfig) TorchServeOption {
	return func(c *TorchServeClassifier) {
		c.Auth = auth
	}
}

// WithTorchServeHTTPClient 设置自定义 HTTP 客户端
func WithTorchServeHTTPClient(httpClient *http.Client) TorchServeOption {
	return func(c *TorchServeClassifier) {
		c.httpClient = httpClient
	}
}

// WithTorchServeBreaker 设置熔断配置
func WithTorchServeBreaker(cfg breaker.Config) TorchServeOption {
	return func(c *TorchServeClassifier) {
		c.breaker = breaker.New[[]byte]("torchserve:"+c.ModelName, cfg)
	}
}

// NewTorchServeClassifier 创建 TorchServe 分类器。
func NewTorchServeClassifier(endpoint, modelName string, opts ...TorchServeOption) *TorchServeClassifier {
	c := &TorchServeClassifier{
		Endpoint:  endpoint,
		ModelName: modelName,
		Timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.Timeout}
	}
	if c.breaker == nil {
		c.breaker = breaker.New[[]byte]("torchserve:"+modelName, breaker.DefaultConfig())
	}
	return c
}

func (c *TorchServeClassifier) Name() string {
	return "torchserve:" + c.ModelName
}

// Predict 单条预测。
func (c *TorchServeClassifier) Predict(ctx context.Context, text string) (map[string]float64, error) {
	return predictOne(ctx, c, text)
}

// PredictBatch 批量预测，一次 HTTP 请求。
func (c *TorchServeClassifier) PredictBatch(ctx context.Context, texts []string) ([]map[string]float64, error) {
	if len(texts) == 0 {
		return []map[string]float64{}, nil
	}

	u := fmt.Sprintf("%s/predictions/%s", c.Endpoint, url.PathEscape(c.ModelName))
	if c.ModelVersion != "" {
		u += "/" + url.PathEscape(c.ModelVersion)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return doJSON(ctx, c.httpClient, http.MethodPost, u, c.Auth, map[string]any{"data": texts})
	})
	if err != nil {
		return nil, core.NewModelUnavailableError(err, "torchserve %s", c.ModelName)
	}

	preds, err := parsePredictions(body)
	if err != nil {
		return nil, core.NewContractViolationError(core.ModuleModel, "torchserve %s: %v", c.ModelName, err)
	}
	return preds, nil
}

// Ready 调用 /ping 做健康检查。
func (c *TorchServeClassifier) Ready(ctx context.Context) error {
	if _, err := doJSON(ctx, c.httpClient, http.MethodGet, c.Endpoint+"/ping", c.Auth, nil); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

var (
	_ core.Classifier       = (*TorchServeClassifier)(nil)
	_ core.ReadinessChecker = (*TorchServeClassifier)(nil)
)
