package rerank

import (
	"github.com/flickmate/tastekit/core"
)

// DefaultGenreNames 是 TMDB 口径的类型展示名，目录元数据缺名时兜底。
var DefaultGenreNames = map[string]string{
	"28": "Action", "12": "Adventure", "16": "Animation", "35": "Comedy",
	"80": "Crime", "99": "Documentary", "18": "Drama", "10751": "Family",
	"14": "Fantasy", "36": "History", "27": "Horror", "10402": "Music",
	"9648": "Mystery", "10749": "Romance", "878": "Science Fiction",
	"53": "Thriller", "10752": "War", "37": "Western",
}

// explanationTypeOf 把获胜策略名映射为解释类型。
func explanationTypeOf(source string) core.ExplanationType {
	switch source {
	case "recall.genre":
		return core.ExplainGenreFans
	case "recall.actor":
		return core.ExplainActorFans
	case "recall.director":
		return core.ExplainDirector
	case "recall.similar_to_liked":
		return core.ExplainSimilar
	case "recall.mood":
		return core.ExplainMood
	case "recall.hidden_gem":
		return core.ExplainHiddenGem
	case "recall.exploration":
		return core.ExplainExploration
	case "recall.trending":
		return core.ExplainTrending
	case "recall.similar_fans":
		return core.ExplainSimilarFans
	case "recall.most_liked":
		return core.ExplainMostLiked
	default:
		return core.ExplainPopular
	}
}

// toRecommendation 把候选转为最终视图项并生成解释文案。
func toRecommendation(rctx *core.RecommendContext, it *core.Item) core.Recommendation {
	rec := core.Recommendation{
		ContentID: it.ID,
		Score:     clampScore(it.Score),
	}
	if it.Meta != nil {
		rec.ContentType = it.Meta.Type
		rec.Title = it.Meta.Title
		rec.PosterPath = it.Meta.PosterPath
		rec.VoteAverage = it.Meta.VoteAverage
		rec.ReleaseYear = it.Meta.ReleaseYear
		rec.GenreIDs = it.Meta.GenreIDs
	}
	rec.Explanation = explain(rctx, it)
	return rec
}

// explain 生成人类可读理由，键在获胜策略上。
func explain(rctx *core.RecommendContext, it *core.Item) core.Explanation {
	t := explanationTypeOf(firstSource(it))
	switch t {
	case core.ExplainGenreFans:
		if g := bestGenreName(rctx, it); g != "" {
			return core.Explanation{Type: t, Text: "Because you like " + g}
		}
		return core.Explanation{Type: t, Text: "More of a genre you love"}
	case core.ExplainActorFans:
		if a := bestActorName(rctx, it); a != "" {
			return core.Explanation{Type: t, Text: "Because you like " + a}
		}
		return core.Explanation{Type: t, Text: "Featuring an actor you like"}
	case core.ExplainDirector:
		return core.Explanation{Type: t, Text: "From a director you like"}
	case core.ExplainSimilar:
		return core.Explanation{Type: t, Text: "Similar to titles you liked"}
	case core.ExplainMood:
		return core.Explanation{Type: t, Text: "Matches your recent picks"}
	case core.ExplainHiddenGem:
		return core.Explanation{Type: t, Text: "A hidden gem worth your time"}
	case core.ExplainExploration:
		return core.Explanation{Type: t, Text: "Something different to explore"}
	case core.ExplainTrending:
		return core.Explanation{Type: t, Text: "Trending now"}
	case core.ExplainSimilarFans:
		if g := bestGenreName(rctx, it); g != "" {
			return core.Explanation{Type: t, Text: "Popular among " + g + " fans"}
		}
		return core.Explanation{Type: t, Text: "Popular among fans like you"}
	case core.ExplainMostLiked:
		return core.Explanation{Type: t, Text: "A crowd favorite"}
	default:
		return core.Explanation{Type: core.ExplainPopular, Text: "Popular right now"}
	}
}

// bestGenreName 取候选与用户亲和度交集中最强的类型名。
// 无画像时取候选主类型名。
func bestGenreName(rctx *core.RecommendContext, it *core.Item) string {
	if it.Meta == nil || len(it.Meta.GenreIDs) == 0 {
		return ""
	}
	pick := it.Meta.GenreIDs[0]
	if rctx != nil && rctx.Profile != nil {
		var bestLikes int64 = -1
		for _, g := range it.Meta.GenreIDs {
			if a, ok := rctx.Profile.Preferences.GenreAffinities[g]; ok && a.LikeCount > bestLikes {
				bestLikes = a.LikeCount
				pick = g
			}
		}
	}
	return genreName(it.Meta, pick)
}

// bestActorName 取候选卡司与用户亲和度交集中最强的演员名。
func bestActorName(rctx *core.RecommendContext, it *core.Item) string {
	if it.Meta == nil || len(it.Meta.CastIDs) == 0 {
		return ""
	}
	pick := ""
	if rctx != nil && rctx.Profile != nil {
		var bestLikes int64 = -1
		for _, c := range it.Meta.CastIDs {
			if a, ok := rctx.Profile.Preferences.ActorAffinities[c]; ok && a.LikeCount > bestLikes {
				bestLikes = a.LikeCount
				pick = c
			}
		}
	}
	if pick == "" {
		pick = it.Meta.CastIDs[0]
	}
	if it.Meta.CastNames != nil {
		if name, ok := it.Meta.CastNames[pick]; ok && name != "" {
			return name
		}
	}
	return ""
}

func genreName(meta *core.ContentMeta, genreID string) string {
	if meta.GenreNames != nil {
		if name, ok := meta.GenreNames[genreID]; ok && name != "" {
			return name
		}
	}
	return DefaultGenreNames[genreID]
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
