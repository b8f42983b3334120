package recall

import (
	"context"

	"github.com/flickmate/tastekit/core"
)

// GenreRecall 是类型亲和度召回：取画像中平滑分最高的 TopGenres 个类型，
// 每个类型向目录做一次发现查询，候选分 = 该类型的亲和度分。
type GenreRecall struct {
	Catalog core.ContentCatalog

	// TopGenres 参与召回的类型数（默认 3）
	TopGenres int

	// PerGenre 每个类型召回的候选数（默认 10）
	PerGenre int

	// Kappa 贝叶斯平滑强度（与画像读取方一致，保证分数口径统一）
	Kappa float64
}

func (r *GenreRecall) Name() string  { return "recall.genre" }
func (r *GenreRecall) Group() string { return GroupContent }

func (r *GenreRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil || rctx.Profile == nil {
		return nil, nil
	}

	topGenres := r.TopGenres
	if topGenres <= 0 {
		topGenres = 3
	}
	perGenre := r.PerGenre
	if perGenre <= 0 {
		perGenre = 10
	}

	prior := rctx.Profile.Behavior.LikeRate()
	genres := core.TopAffinities(rctx.Profile.Preferences.GenreAffinities, topGenres, r.Kappa, prior)
	if len(genres) == 0 {
		return nil, nil
	}

	out := make([]*core.Item, 0, len(genres)*perGenre)
	for _, g := range genres {
		metas, err := r.Catalog.Discover(ctx, core.DiscoverQuery{
			GenreIDs: []string{g.ID},
			Limit:    perGenre,
		})
		if err != nil {
			// 单类型查询失败只影响该类型
			continue
		}
		score := g.Score(r.Kappa, prior)
		for _, meta := range metas {
			if shouldSkip(rctx, meta.ID) {
				continue
			}
			out = append(out, newCandidate(meta, score, r.Name(), r.Group()))
		}
	}
	return out, nil
}
