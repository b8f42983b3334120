package filter

import (
	"context"

	"github.com/flickmate/tastekit/core"
)

// SeenFilter 排除用户已滑过（recentLiked/recentDisliked）与会话内已见的内容。
// 召回策略自身也做同样的排除；这里是混排前的统一兜底，保证策略实现的疏漏
// 不会把已见内容漏进结果页。
type SeenFilter struct{}

func (f *SeenFilter) Name() string { return "filter.seen" }

func (f *SeenFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil {
		return false, nil
	}
	if rctx.Excluded(item.ID) {
		return true, nil
	}
	if rctx.Profile != nil && rctx.Profile.HasRecent(item.ID) {
		return true, nil
	}
	return false, nil
}
