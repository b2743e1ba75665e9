package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/pkg/breaker"
)

// HTTPClassifier 调用自定义的 JSON 分类端点。
//
//	POST {Endpoint}
//	{"texts": ["...", "..."]}
//	-> {"predictions": [{"date": 0.9, ...}, ...]}
//
// 健康检查为 GET {Endpoint 的 origin}/health。
type HTTPClassifier struct {
	Endpoint string
	Auth     *AuthConfig

	name       string
	httpClient *http.Client
	breaker    *breaker.Breaker[[]byte]
}

// NewHTTPClassifier 创建 HTTPClassifier。name 为空时使用 "http"。
func NewHTTPClassifier(endpoint, name string, timeout time.Duration, auth *AuthConfig, cfg breaker.Config) *HTTPClassifier {
	if name == "" {
		name = "http"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClassifier{
		Endpoint:   endpoint,
		Auth:       auth,
		name:       name,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker.New[[]byte]("http:"+name, cfg),
	}
}

func (c *HTTPClassifier) Name() string { return c.name }

// Predict 单条预测。
func (c *HTTPClassifier) Predict(ctx context.Context, text string) (map[string]float64, error) {
	return predictOne(ctx, c, text)
}

// PredictBatch 批量预测。
func (c *HTTPClassifier) PredictBatch(ctx context.Context, texts []string) ([]map[string]float64, error) {
	if len(texts) == 0 {
		return []map[string]float64{}, nil
	}
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return doJSON(ctx, c.httpClient, http.MethodPost, c.Endpoint, c.Auth, map[string]any{"texts": texts})
	})
	if err != nil {
		return nil, core.NewModelUnavailableError(err, "http classifier %s", c.name)
	}
	preds, err := parsePredictions(body)
	if err != nil {
		return nil, core.NewContractViolationError(core.ModuleModel, "http classifier %s: %v", c.name, err)
	}
	return preds, nil
}

// Ready 健康检查。
func (c *HTTPClassifier) Ready(ctx context.Context) error {
	if _, err := doJSON(ctx, c.httpClient, http.MethodGet, healthURL(c.Endpoint), c.Auth, nil); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// healthURL 取端点的 scheme://host 部分拼接 /health。
func healthURL(endpoint string) string {
	rest := endpoint
	scheme := ""
	if i := strings.Index(rest, "://"); i >= 0 {
		scheme, rest = rest[:i+3], rest[i+3:]
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		rest = rest[:i]
	}
	return scheme + rest + "/health"
}

var (
	_ core.Classifier       = (*HTTPClassifier)(nil)
	_ core.ReadinessChecker = (*HTTPClassifier)(nil)
)
