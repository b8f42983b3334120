package filter

import (
	"context"

	"github.com/flickmate/tastekit/core"
	"github.com/flickmate/tastekit/pkg/dsl"
)

// RulesFilter 按 CEL 规则过滤候选：任一规则返回 false 即过滤。
// 规则在装配期编译（dsl.CompileAll），请求期只做求值。
// 典型规则：目录质量线 `item.vote_average >= 6.0`。
type RulesFilter struct {
	Rules []*dsl.Rule
}

// NewRulesFilter 编译表达式并构建过滤器；任一表达式非法即报错（装配期失败优于请求期）。
func NewRulesFilter(exprs []string) (*RulesFilter, error) {
	rules, err := dsl.CompileAll(exprs)
	if err != nil {
		return nil, err
	}
	return &RulesFilter{Rules: rules}, nil
}

func (f *RulesFilter) Name() string { return "filter.rules" }

func (f *RulesFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || len(f.Rules) == 0 {
		return false, nil
	}
	for _, r := range f.Rules {
		ok, err := r.Eval(item, rctx)
		if err != nil {
			// 规则求值错误不拦截候选（规则是调优手段，不是正确性保证）
			continue
		}
		if !ok {
			return true, nil
		}
	}
	return false, nil
}
