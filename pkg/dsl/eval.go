// Package dsl 是候选餐厅的过滤表达式解释器，基于 CEL (Common Expression Language)。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/pkg/utils"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("candidate", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("params", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的布尔表达式，可并发执行。
//
// 可用变量：
//   - candidate.id / name / address / rating / rating_count / review_count / types
//   - candidate.price_level、candidate.open_now（缺失时不存在，用 has() 判断）
//   - candidate.score / evidence_count / confident（打分后可用）
//   - label.<key>：Label 的 value
//   - params.<key>：请求级参数
//
// 示例：
//   - `candidate.rating > 3.9 && candidate.rating_count > 10`
//   - `!has(candidate.price_level) || candidate.price_level <= 2`
//   - `"bar" in candidate.types`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。表达式必须返回 bool。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	if ot := ast.OutputType(); !ot.IsExactType(cel.BoolType) && !ot.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("compile %q: expression must return bool, got %s", expr, ot)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// MustCompile 同 Compile，出错时 panic，用于静态表达式。
func MustCompile(expr string) *Program {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// EvalCandidate 对未打分的候选餐厅求值。
func (p *Program) EvalCandidate(c *core.RestaurantCandidate, params map[string]any) (bool, error) {
	return p.eval(candidateInput(c), nil, params)
}

// EvalScored 对打过分的餐厅求值，额外提供分数与 label。
func (p *Program) EvalScored(sr *core.ScoredRestaurant, params map[string]any) (bool, error) {
	input := candidateInput(&sr.RestaurantCandidate)
	input["score"] = sr.MoodScore.Score
	input["evidence_count"] = sr.MoodScore.EvidenceCount
	input["confident"] = sr.MoodScore.Confident
	return p.eval(input, sr.Labels, params)
}

func (p *Program) eval(candidate map[string]any, labels map[string]utils.Label, params map[string]any) (bool, error) {
	label := make(map[string]any, len(labels))
	for k, v := range labels {
		label[k] = v.Value
	}
	if params == nil {
		params = map[string]any{}
	}

	out, _, err := p.prg.Eval(map[string]any{
		"candidate": candidate,
		"label":     label,
		"params":    params,
	})
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: expression must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

func candidateInput(c *core.RestaurantCandidate) map[string]any {
	types := c.Types
	if types == nil {
		types = []string{}
	}
	m := map[string]any{
		"id":           c.ID,
		"name":         c.Name,
		"address":      c.Address,
		"rating":       c.Rating,
		"rating_count": c.RatingCount,
		"review_count": len(c.Reviews),
		"types":        types,
	}
	if c.PriceLevel != nil {
		m["price_level"] = *c.PriceLevel
	}
	if c.OpenNow != nil {
		m["open_now"] = *c.OpenNow
	}
	return m
}
