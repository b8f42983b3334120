package recall

import (
	"context"

	"github.com/flickmate/tastekit/core"
)

// SimilarToLikedRecall 是"看了又看"召回：以 recentLiked 的前几条为种子，
// 用种子的类型/主演并集向目录查询，候选分 = 与种子特征的重叠度。
type SimilarToLikedRecall struct {
	Catalog core.ContentCatalog

	// SeedCount 取最近喜欢的前 N 条作为种子（默认 5）
	SeedCount int

	// TopK 返回候选上限（默认 20）
	TopK int
}

func (r *SimilarToLikedRecall) Name() string  { return "recall.similar_to_liked" }
func (r *SimilarToLikedRecall) Group() string { return GroupContent }

func (r *SimilarToLikedRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil || rctx.Profile == nil || len(rctx.Profile.RecentLikedIDs) == 0 {
		return nil, nil
	}

	seedCount := r.SeedCount
	if seedCount <= 0 {
		seedCount = 5
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}

	// 1. 取种子元数据，汇总类型/主演特征集
	seedGenres := make(map[string]struct{})
	seedCast := make(map[string]struct{})
	seeds := rctx.Profile.RecentLikedIDs
	if len(seeds) > seedCount {
		seeds = seeds[:seedCount]
	}
	for _, id := range seeds {
		meta, err := r.Catalog.GetContent(ctx, id)
		if err != nil {
			// 单个种子取不到就跳过
			continue
		}
		for _, g := range meta.GenreIDs {
			seedGenres[g] = struct{}{}
		}
		for _, c := range meta.CastIDs {
			seedCast[c] = struct{}{}
		}
	}
	if len(seedGenres) == 0 && len(seedCast) == 0 {
		return nil, nil
	}

	// 2. 用种子特征并集做发现查询
	q := core.DiscoverQuery{Limit: topK * 2}
	for g := range seedGenres {
		q.GenreIDs = append(q.GenreIDs, g)
	}
	metas, err := r.Catalog.Discover(ctx, q)
	if err != nil {
		return nil, err
	}

	// 3. 按特征重叠度打分
	denom := float64(len(seedGenres) + len(seedCast))
	out := make([]*core.Item, 0, len(metas))
	for _, meta := range metas {
		if shouldSkip(rctx, meta.ID) {
			continue
		}
		overlap := 0
		for _, g := range meta.GenreIDs {
			if _, ok := seedGenres[g]; ok {
				overlap++
			}
		}
		for _, c := range meta.CastIDs {
			if _, ok := seedCast[c]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		out = append(out, newCandidate(meta, float64(overlap)/denom, r.Name(), r.Group()))
		if len(out) >= topK {
			break
		}
	}
	return out, nil
}
