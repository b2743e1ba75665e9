package core

import "context"

// Classifier 是多标签文本分类模型的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由 model（进程内）和 service（远程服务）实现
//   - 模型权重在进程启动时加载一次，之后只读；实例以显式句柄注入推理适配层，
//     不使用隐藏的全局单例，测试可替换为确定性的桩实现
//
// 约定：
//   - 每条文本返回一个 label -> 概率 的 map，概率在 [0,1]
//   - PredictBatch 的输出与输入一一对应、顺序一致
//   - 模型不可用时返回错误（推理适配层统一转换为 UNAVAILABLE）
type Classifier interface {
	// Name 返回模型名称（用于日志/监控/解释）
	Name() string

	// Predict 单条预测
	Predict(ctx context.Context, text string) (map[string]float64, error)

	// PredictBatch 批量预测
	PredictBatch(ctx context.Context, texts []string) ([]map[string]float64, error)
}

// ReadinessChecker 由支持健康检查的 Classifier 实现。
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}
