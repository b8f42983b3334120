package recall

import (
	"context"

	"github.com/flickmate/tastekit/core"
)

// TrendingRecall 是趋势召回：目录侧的近期全量人群热度信号。
// 协同组策略，低置信度时被置信度门整组关闭。
type TrendingRecall struct {
	Catalog core.ContentCatalog

	// TopK 返回候选上限（默认 15）
	TopK int
}

func (r *TrendingRecall) Name() string  { return "recall.trending" }
func (r *TrendingRecall) Group() string { return GroupCollaborative }

func (r *TrendingRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, nil
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 15
	}

	metas, err := r.Catalog.Trending(ctx, topK)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(metas))
	for i, meta := range metas {
		if shouldSkip(rctx, meta.ID) {
			continue
		}
		score := 1 - float64(i)/float64(2*len(metas))
		out = append(out, newCandidate(meta, score, r.Name(), r.Group()))
	}
	return out, nil
}
