package config

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/model"
	"github.com/rushteam/moodkit/service"
)

// 内置模型后端。
const (
	BackendHugot      = "hugot"
	BackendKeyword    = "keyword"
	BackendTorchServe = string(service.ServiceTypeTorchServe)
	BackendHTTP       = string(service.ServiceTypeHTTP)
)

// ClassifierBuilder 根据模型配置构建分类器。
type ClassifierBuilder func(ctx context.Context, cfg ModelConfig) (core.Classifier, error)

var (
	builders   = make(map[string]ClassifierBuilder)
	buildersMu sync.RWMutex
)

func init() {
	Register(BackendHugot, buildHugot)
	Register(BackendKeyword, buildKeyword)
	Register(BackendTorchServe, buildService)
	Register(BackendHTTP, buildService)
}

// Register 注册一种模型后端，供 NewClassifier 按 model.backend 选择。
func Register(backend string, builder ClassifierBuilder) {
	if backend == "" || builder == nil {
		return
	}
	buildersMu.Lock()
	defer buildersMu.Unlock()
	builders[backend] = builder
}

// SupportedBackends 返回已注册的后端列表（排序），用于错误提示与校验。
func SupportedBackends() []string {
	buildersMu.RLock()
	defer buildersMu.RUnlock()
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSupportedBackend 判断后端是否已注册。
func IsSupportedBackend(backend string) bool {
	buildersMu.RLock()
	defer buildersMu.RUnlock()
	_, ok := builders[backend]
	return ok
}

// NewClassifier 按 cfg.Backend 构建分类器。未知后端返回错误，不会退化为其他后端。
func NewClassifier(ctx context.Context, cfg ModelConfig) (core.Classifier, error) {
	buildersMu.RLock()
	b, ok := builders[cfg.Backend]
	buildersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported model backend %q (supported: %v)", cfg.Backend, SupportedBackends())
	}
	return b(ctx, cfg)
}

func buildHugot(ctx context.Context, cfg ModelConfig) (core.Classifier, error) {
	c := model.NewHugotClassifier(cfg.Hugot)
	if err := c.Load(ctx); err != nil {
		return nil, core.NewModelUnavailableError(err, "load hugot model")
	}
	return c, nil
}

func buildKeyword(context.Context, ModelConfig) (core.Classifier, error) {
	return model.NewKeywordClassifier(nil), nil
}

func buildService(_ context.Context, cfg ModelConfig) (core.Classifier, error) {
	sc := cfg.Service
	sc.Type = service.ServiceType(cfg.Backend)
	return service.NewClassifier(&sc)
}
