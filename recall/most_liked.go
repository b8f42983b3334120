package recall

import (
	"context"

	"github.com/flickmate/tastekit/core"
)

// MostLikedKey 是全局最多喜欢榜单在 KeyValueStore 中的有序集合 key。
// 由离线聚合任务维护：member 为内容 ID，score 为累计喜欢数。
const MostLikedKey = "agg:most_liked"

// MostLikedRecall 是"全站最多喜欢"召回：从有序集合读 TopN，再用目录补全元数据。
type MostLikedRecall struct {
	Store   core.KeyValueStore
	Catalog core.ContentCatalog

	// Key 覆盖默认榜单 key
	Key string

	// TopK 返回候选上限（默认 15）
	TopK int
}

func (r *MostLikedRecall) Name() string  { return "recall.most_liked" }
func (r *MostLikedRecall) Group() string { return GroupCollaborative }

func (r *MostLikedRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Store == nil || r.Catalog == nil {
		return nil, nil
	}
	key := r.Key
	if key == "" {
		key = MostLikedKey
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 15
	}

	members, err := r.Store.ZRange(ctx, key, 0, int64(topK*2-1))
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	out := make([]*core.Item, 0, topK)
	for i, id := range members {
		if shouldSkip(rctx, id) {
			continue
		}
		meta, err := r.Catalog.GetContent(ctx, id)
		if err != nil {
			// 榜单里可能有已下架内容，跳过即可
			continue
		}
		score := 1 - float64(i)/float64(2*len(members))
		out = append(out, newCandidate(meta, score, r.Name(), r.Group()))
		if len(out) >= topK {
			break
		}
	}
	return out, nil
}
