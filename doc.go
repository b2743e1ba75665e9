// Package moodkit 根据评论文本为附近餐厅计算 mood 得分并排序（Mood Kit）。
//
// 设计要点：
// - Pipeline-first: 排序逻辑通过 Node 串联（Rank → Filter → ReRank）
// - Labels-first: 打分来源、正向信号数、过滤原因、排序位置以 label 透传，便于 explain 与观测
// - 模型可替换: 进程内 ONNX（hugot）、关键词模型或远程服务均实现 core.Classifier
// - 引擎无网络 I/O: 地点发现与缓存在 discovery / recommend 中完成
package moodkit

import (
	"github.com/rushteam/moodkit/engine"
	"github.com/rushteam/moodkit/pipeline"
)

// 轻量 facade：便于用户直接 import "moodkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind
type Engine = engine.Engine

const (
	KindRank   = pipeline.KindRank
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)

// NewEngine 等同于 engine.New。
var NewEngine = engine.New

// DefaultConfig 等同于 engine.DefaultConfig。
var DefaultConfig = engine.DefaultConfig
