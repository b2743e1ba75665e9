package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
//
// 错误分类：
//   - INVALID_INPUT：请求参数非法（空 mood、max_results <= 0、空文本），直接拒绝请求
//   - CONTRACT_VIOLATION：协作方返回的数据违反约定（概率越界、缺少 mood），
//     仅影响单个餐厅的打分，由排序流程剔除并记录
//   - UNAVAILABLE：模型不可用（未加载、资源耗尽），整个排序请求失败
type DomainError struct {
	Code    string // 错误代码（如 "INVALID_INPUT", "CONTRACT_VIOLATION"）
	Message string // 错误消息
	Module  string // 模块名称（如 "inference", "aggregate", "scorer"）
	Err     error  // 底层原因（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Module + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Module + ": " + e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的第一个 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound          = "NOT_FOUND"          // 资源不存在
	ErrorCodeUnavailable       = "UNAVAILABLE"        // 服务/模型不可用
	ErrorCodeInvalidInput      = "INVALID_INPUT"      // 输入无效
	ErrorCodeContractViolation = "CONTRACT_VIOLATION" // 协作方违反数据约定
)

// 模块名称常量
const (
	ModuleInference = "inference" // 推理适配层
	ModuleAggregate = "aggregate" // 评论聚合
	ModuleScorer    = "scorer"    // 餐厅打分
	ModuleRank      = "rank"      // 排序流程
	ModuleModel     = "model"     // 分类模型
	ModuleStore     = "store"     // 存储模块
	ModuleDiscovery = "discovery" // 地点发现
)

// NewInvalidInputError 创建 INVALID_INPUT 错误。
func NewInvalidInputError(module, format string, args ...any) *DomainError {
	return NewDomainError(module, ErrorCodeInvalidInput, fmt.Sprintf(format, args...))
}

// NewContractViolationError 创建 CONTRACT_VIOLATION 错误。
func NewContractViolationError(module, format string, args ...any) *DomainError {
	return NewDomainError(module, ErrorCodeContractViolation, fmt.Sprintf(format, args...))
}

// NewModelUnavailableError 创建模型不可用错误，cause 为底层原因。
func NewModelUnavailableError(cause error, format string, args ...any) *DomainError {
	e := NewDomainError(ModuleModel, ErrorCodeUnavailable, fmt.Sprintf(format, args...))
	e.Err = cause
	return e
}

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

// IsContractViolation 检查错误是否为 CONTRACT_VIOLATION
func IsContractViolation(err error) bool {
	return hasCode(err, ErrorCodeContractViolation)
}

// IsModelUnavailable 检查错误是否为模型不可用
func IsModelUnavailable(err error) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Module == ModuleModel && domainErr.Code == ErrorCodeUnavailable
}
