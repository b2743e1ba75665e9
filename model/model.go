// Package model 提供进程内的 mood 分类模型实现（core.Classifier）。
//
// 远程模型服务（TorchServe 等）的实现在 service 包。
package model

import (
	"context"
	"fmt"
)

// FuncClassifier 用函数实现 core.Classifier，适合测试桩和简单规则模型。
// Fn 必须是确定性的纯函数。
type FuncClassifier struct {
	ModelName string
	Fn        func(text string) (map[string]float64, error)
}

// NewFuncClassifier 创建 FuncClassifier。
func NewFuncClassifier(name string, fn func(text string) (map[string]float64, error)) *FuncClassifier {
	return &FuncClassifier{ModelName: name, Fn: fn}
}

func (c *FuncClassifier) Name() string {
	if c.ModelName == "" {
		return "func"
	}
	return c.ModelName
}

// Predict 单条预测。
func (c *FuncClassifier) Predict(ctx context.Context, text string) (map[string]float64, error) {
	if c.Fn == nil {
		return nil, fmt.Errorf("classifier %s has no function", c.Name())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Fn(text)
}

// PredictBatch 逐条调用 Fn。
func (c *FuncClassifier) PredictBatch(ctx context.Context, texts []string) ([]map[string]float64, error) {
	out := make([]map[string]float64, 0, len(texts))
	for _, t := range texts {
		p, err := c.Predict(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Ready 实现 core.ReadinessChecker。
func (c *FuncClassifier) Ready(context.Context) error {
	if c.Fn == nil {
		return fmt.Errorf("classifier %s has no function", c.Name())
	}
	return nil
}
