// Package service 提供远程模型服务上的 core.Classifier 实现（TorchServe、通用 HTTP 端点）。
//
// 进程内模型（hugot、关键词）在 model 包。
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	gojson "github.com/goccy/go-json"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/pkg/breaker"
	"github.com/rushteam/moodkit/pkg/conv"
)

// ServiceType 服务类型
type ServiceType string

const (
	ServiceTypeTorchServe ServiceType = "torch_serve" // TorchServe
	ServiceTypeHTTP       ServiceType = "http"        // 通用 JSON 端点
)

// ServiceConfig 服务配置
type ServiceConfig struct {
	// Type 服务类型
	Type ServiceType `koanf:"type" validate:"omitempty,oneof=torch_serve http"`

	// Endpoint 服务端点
	// TorchServe: "http://localhost:8080"
	// HTTP: "http://localhost:9000/classify"
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`

	// ModelName 模型名称（TorchServe 必填）
	ModelName string `koanf:"model_name"`

	// ModelVersion 模型版本（可选）
	ModelVersion string `koanf:"model_version"`

	// Timeout 超时时间（秒）
	Timeout int `koanf:"timeout" validate:"gte=0"`

	// Auth 认证信息（可选）
	Auth *AuthConfig `koanf:"auth"`

	// Breaker 熔断配置
	Breaker breaker.Config `koanf:"breaker"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	Type     string `koanf:"type" validate:"omitempty,oneof=basic bearer api_key"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Token    string `koanf:"token"`
	APIKey   string `koanf:"api_key"`
}

// addAuth 添加认证信息到 HTTP 请求
func addAuth(req *http.Request, auth *AuthConfig) {
	if auth == nil {
		return
	}
	switch auth.Type {
	case "basic":
		req.SetBasicAuth(auth.Username, auth.Password)
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case "api_key":
		req.Header.Set("X-API-Key", auth.APIKey)
	}
}

// doJSON 发送请求并返回 2xx 响应体；非 2xx 视为错误。
func doJSON(ctx context.Context, client *http.Client, method, url string, auth *AuthConfig, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := gojson.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req, auth)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status=%d, body=%s", resp.StatusCode, string(data))
	}
	return data, nil
}

// parsePredictions 解析模型服务的批量输出，兼容常见格式：
//
//	[{"date": 0.9, "budget": 0.1}, ...]
//	{"predictions": [{"date": 0.9, ...}, ...]}
//	[[{"label": "date", "score": 0.9}, ...], ...]   (HuggingFace pipeline 格式)
//
// 数值是否在 [0,1] 由推理适配层校验，这里只负责结构。
func parsePredictions(body []byte) ([]map[string]float64, error) {
	var raw any
	if err := gojson.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unable to parse response: %w", err)
	}

	if obj, ok := raw.(map[string]any); ok {
		preds, ok := obj["predictions"]
		if !ok {
			return nil, fmt.Errorf("response object has no predictions field")
		}
		raw = preds
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("predictions must be an array, got %T", raw)
	}

	out := make([]map[string]float64, len(list))
	for i, p := range list {
		m, err := parsePrediction(p)
		if err != nil {
			return nil, fmt.Errorf("prediction %d: %w", i, err)
		}
		out[i] = m
	}
	return out, nil
}

func parsePrediction(p any) (map[string]float64, error) {
	switch v := p.(type) {
	case map[string]any:
		m, ok := conv.MapToFloat64(v)
		if !ok {
			return nil, fmt.Errorf("non-numeric probability in %v", v)
		}
		return m, nil
	case []any:
		m := make(map[string]float64, len(v))
		for _, e := range v {
			entry, ok := e.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("label entry must be an object, got %T", e)
			}
			label, ok := conv.ToString(entry["label"])
			if !ok {
				return nil, fmt.Errorf("label entry has no label")
			}
			score, ok := conv.ToFloat64(entry["score"])
			if !ok {
				return nil, fmt.Errorf("label %q has no numeric score", label)
			}
			m[label] = score
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported prediction type %T", p)
	}
}

// predictOne 复用批量接口做单条预测。
func predictOne(ctx context.Context, c core.Classifier, text string) (map[string]float64, error) {
	preds, err := c.PredictBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(preds) != 1 {
		return nil, fmt.Errorf("expected 1 prediction, got %d", len(preds))
	}
	return preds[0], nil
}
