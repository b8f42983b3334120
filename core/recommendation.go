package core

import "time"

// ExplanationType 标识推荐解释来自哪个获胜策略。
type ExplanationType string

const (
	ExplainGenreFans   ExplanationType = "genre_fans"
	ExplainActorFans   ExplanationType = "actor_fans"
	ExplainDirector    ExplanationType = "director_fans"
	ExplainSimilar     ExplanationType = "similar_to_liked"
	ExplainMood        ExplanationType = "mood"
	ExplainHiddenGem   ExplanationType = "hidden_gem"
	ExplainExploration ExplanationType = "exploration"
	ExplainTrending    ExplanationType = "trending"
	ExplainSimilarFans ExplanationType = "popular_among_similar_fans"
	ExplainMostLiked   ExplanationType = "most_liked"
	ExplainPopular     ExplanationType = "popular"
)

// Explanation 是附加在推荐项上的人类可读理由。
type Explanation struct {
	Type ExplanationType `json:"type"`
	Text string          `json:"text"`
}

// Recommendation 是混排器产出的最终视图项。只读、不落盘，按请求重建（受缓存约束）。
type Recommendation struct {
	ContentID   string      `json:"content_id"`
	ContentType ContentType `json:"content_type"`
	Title       string      `json:"title"`
	PosterPath  string      `json:"poster_path"`
	VoteAverage float64     `json:"vote_average"`
	ReleaseYear int         `json:"release_year"`
	GenreIDs    []string    `json:"genre_ids"`
	Score       float64     `json:"score"`
	Explanation Explanation `json:"explanation"`
}

// RecommendationResult 是推荐缓存的存储单元。
type RecommendationResult struct {
	Recommendations []Recommendation `json:"recommendations"`
	Confidence      Confidence       `json:"confidence"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// TasteSummary 是画像/分析页的口味摘要，现算不缓存。
type TasteSummary struct {
	TopGenres    []AffinityScore `json:"top_genres"`
	TopActors    []AffinityScore `json:"top_actors"`
	TopDirectors []AffinityScore `json:"top_directors"`
	Confidence   Confidence      `json:"confidence"`
}
