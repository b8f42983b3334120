package filter

import (
	"context"

	"github.com/flickmate/tastekit/core"
	"github.com/flickmate/tastekit/pkg/utils"
)

// Chain 组合多个过滤器顺序执行。
// 任何一个过滤器返回 true，该候选就会被移除；过滤器自身出错时跳过该过滤器。
type Chain struct {
	Filters []Filter
}

// Apply 返回保留的候选。被过滤的候选打上 filtered 标签（调试/观测用）。
func (c *Chain) Apply(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) []*core.Item {
	if len(c.Filters) == 0 || len(items) == 0 {
		return items
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		shouldFilter := false
		filterReason := ""
		for _, f := range c.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				continue
			}
			if ok {
				shouldFilter = true
				filterReason = f.Name()
				break
			}
		}

		if shouldFilter {
			item.PutLabel("filtered", utils.Label{Value: "true", Source: filterReason})
			continue
		}
		out = append(out, item)
	}
	return out
}
