package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/pkg/dsl"
)

// ExprFilter 用 CEL 表达式描述“保留条件”：表达式为 false 的候选被过滤。
//
// 示例：
//
//	f, _ := filter.NewExprFilter(`request.quantity > 0 && request.species in seller.specialties`)
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译保留条件表达式。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("filter expr %q: %w", expr, err)
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RankContext, c *core.Candidate) (bool, error) {
	keep, err := f.prg.Evaluate(c.Request, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
