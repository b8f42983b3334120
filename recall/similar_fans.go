package recall

import (
	"context"

	"github.com/flickmate/tastekit/core"
)

// AggregateItem 是人群聚合里的一条内容：喜欢率来自共享头部类型的用户群。
type AggregateItem struct {
	ContentID string
	LikeRatio float64 // 该人群中的喜欢率 [0,1]
}

// AggregateSource 是预计算人群聚合的端口（由 feast 特征存储适配器实现）。
// 引擎只读聚合结果，从不在线计算跨用户统计。
type AggregateSource interface {
	// TopLikedByGenre 返回某类型粉丝群中喜欢率最高的内容（降序）
	TopLikedByGenre(ctx context.Context, genreID string, limit int) ([]AggregateItem, error)
}

// SimilarFansRecall 是"同好热捧"召回：用画像头部类型选相似人群桶，
// 读预计算聚合取该人群喜欢率最高的内容。
// 除头部类型外不接触个体画像，协同信号完全来自人群统计。
type SimilarFansRecall struct {
	Aggregates AggregateSource
	Catalog    core.ContentCatalog

	// TopGenres 参与选桶的头部类型数（默认 2）
	TopGenres int

	// PerGenre 每个人群桶取的内容数（默认 10）
	PerGenre int

	Kappa float64
}

func (r *SimilarFansRecall) Name() string  { return "recall.similar_fans" }
func (r *SimilarFansRecall) Group() string { return GroupCollaborative }

func (r *SimilarFansRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Aggregates == nil || r.Catalog == nil || rctx == nil || rctx.Profile == nil {
		return nil, nil
	}
	topGenres := r.TopGenres
	if topGenres <= 0 {
		topGenres = 2
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
		aggs, err := r.Aggregates.TopLikedByGenre(ctx, g.ID, perGenre)
		if err != nil {
			// 单个人群桶读失败只影响该桶
			continue
		}
		for _, agg := range aggs {
			if shouldSkip(rctx, agg.ContentID) {
				continue
			}
			meta, err := r.Catalog.GetContent(ctx, agg.ContentID)
			if err != nil {
				continue
			}
			out = append(out, newCandidate(meta, agg.LikeRatio, r.Name(), r.Group()))
		}
	}
	return out, nil
}
