package filter

import (
	"context"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/pkg/dsl"
)

// ExprFilter 用 CEL 表达式描述“保留”条件，表达式为 false 时过滤。
//
//	&filter.ExprFilter{Program: dsl.MustCompile(`candidate.rating > 3.9`)}
type ExprFilter struct {
	Program *dsl.Program
}

// NewExprFilter 编译表达式并创建 ExprFilter。
func NewExprFilter(expr string) (*ExprFilter, error) {
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{Program: p}, nil
}

func (f *ExprFilter) Name() string {
	return "expr"
}

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RankContext, item *core.ScoredRestaurant) (bool, error) {
	var params map[string]any
	if rctx != nil {
		params = rctx.Params
	}
	keep, err := f.Program.EvalScored(item, params)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
