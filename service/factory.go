package service

import (
	"fmt"
	"time"

	"github.com/rushteam/moodkit/core"
)

// NewClassifier 根据配置创建远程分类器（工厂方法）。
func NewClassifier(config *ServiceConfig) (core.Classifier, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	switch config.Type {
	case ServiceTypeTorchServe:
		opts := []TorchServeOption{
			WithTorchServeTimeout(timeout),
			WithTorchServeBreaker(config.Breaker),
		}
		if config.ModelVersion != "" {
			opts = append(opts, WithTorchServeVersion(config.ModelVersion))
		}
		if config.Auth != nil {
			opts = append(opts, WithTorchServeAuth(config.Auth))
		}
		return NewTorchServeClassifier(config.Endpoint, config.ModelName, opts...), nil

	case ServiceTypeHTTP:
		return NewHTTPClassifier(config.Endpoint, config.ModelName, timeout, config.Auth, config.Breaker), nil

	default:
		return nil, fmt.Errorf("unsupported service type: %s", config.Type)
	}
}

// ValidateConfig 验证服务配置
func ValidateConfig(config *ServiceConfig) error {
	if config == nil {
		return fmt.Errorf("service config is required")
	}
	if config.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if config.ModelName == "" && config.Type == ServiceTypeTorchServe {
		return fmt.Errorf("model name is required")
	}
	return nil
}
