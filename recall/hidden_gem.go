package recall

import (
	"context"

	"github.com/flickmate/tastekit/core"
)

// HiddenGemRecall 是冷门佳作召回：高评分、低热度、命中用户头部类型。
// 奖励质量而非热度，候选分 = voteAverage/10。
type HiddenGemRecall struct {
	Catalog core.ContentCatalog

	// MinVoteAverage 评分下限（默认 7.5）
	MinVoteAverage float64

	// MaxPopularity 热度上限，>0 生效（默认 20）
	MaxPopularity float64

	// TopGenres 参与查询的头部类型数（默认 3；画像为空时不按类型过滤）
	TopGenres int

	// TopK 返回候选上限（默认 10）
	TopK int

	Kappa float64
}

func (r *HiddenGemRecall) Name() string  { return "recall.hidden_gem" }
func (r *HiddenGemRecall) Group() string { return GroupContent }

func (r *HiddenGemRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil {
		return nil, nil
	}
	minVote := r.MinVoteAverage
	if minVote <= 0 {
		minVote = 7.5
	}
	maxPop := r.MaxPopularity
	if maxPop <= 0 {
		maxPop = 20
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 10
	}

	q := core.DiscoverQuery{
		MinVoteAverage: minVote,
		MaxPopularity:  maxPop,
		Limit:          topK,
	}
	if rctx.Profile != nil {
		topGenres := r.TopGenres
		if topGenres <= 0 {
			topGenres = 3
		}
		prior := rctx.Profile.Behavior.LikeRate()
		for _, g := range core.TopAffinities(rctx.Profile.Preferences.GenreAffinities, topGenres, r.Kappa, prior) {
			q.GenreIDs = append(q.GenreIDs, g.ID)
		}
	}

	metas, err := r.Catalog.Discover(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(metas))
	for _, meta := range metas {
		if shouldSkip(rctx, meta.ID) {
			continue
		}
		out = append(out, newCandidate(meta, meta.VoteAverage/10, r.Name(), r.Group()))
	}
	return out, nil
}
