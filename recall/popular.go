package recall

import (
	"context"

	"github.com/flickmate/tastekit/core"
)

// PopularRecall 是大众热门召回：不带个性化条件的目录热度查询。
// 低置信度用户的保底供给（画像太薄时个性化策略产出很少）。
type PopularRecall struct {
	Catalog core.ContentCatalog

	// TopK 返回候选上限（默认 15）
	TopK int
}

func (r *PopularRecall) Name() string  { return "recall.popular" }
func (r *PopularRecall) Group() string { return GroupContent }

func (r *PopularRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, nil
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 15
	}

	metas, err := r.Catalog.Discover(ctx, core.DiscoverQuery{Limit: topK})
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(metas))
	for i, meta := range metas {
		if shouldSkip(rctx, meta.ID) {
			continue
		}
		// 按目录热度名次衰减打分
		score := 1 - float64(i)/float64(2*len(metas))
		out = append(out, newCandidate(meta, score, r.Name(), r.Group()))
	}
	return out, nil
}
