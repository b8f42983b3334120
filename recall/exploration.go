package recall

import (
	"context"
	"sort"

	"github.com/flickmate/tastekit/core"
)

// ExplorationRecall 是探索召回：故意挑画像中欠采样的类型，对抗信息茧房收敛。
// 候选分固定在较低水平，只有在头部策略供给不足时才会进入结果页前排。
type ExplorationRecall struct {
	Catalog core.ContentCatalog

	// KnownGenreIDs 是全量候选类型表（默认 TMDB 常用类型）
	KnownGenreIDs []string

	// PickGenres 每次探索的类型数（默认 2）
	PickGenres int

	// TopK 返回候选上限（默认 8）
	TopK int

	// Score 探索候选的固定分（默认 0.3）
	Score float64
}

// DefaultKnownGenreIDs 是 TMDB 口径的常用类型全集。
var DefaultKnownGenreIDs = []string{
	"28", "12", "16", "35", "80", "99", "18", "10751",
	"14", "36", "27", "10402", "9648", "10749", "878", "53", "10752", "37",
}

func (r *ExplorationRecall) Name() string  { return "recall.exploration" }
func (r *ExplorationRecall) Group() string { return GroupContent }

func (r *ExplorationRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil || rctx.Profile == nil {
		return nil, nil
	}
	known := r.KnownGenreIDs
	if len(known) == 0 {
		known = DefaultKnownGenreIDs
	}
	pick := r.PickGenres
	if pick <= 0 {
		pick = 2
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 8
	}
	score := r.Score
	if score <= 0 {
		score = 0.3
	}

	// 按观察次数升序挑欠采样类型（次数相同按 ID，保证确定性）
	affinities := rctx.Profile.Preferences.GenreAffinities
	sorted := append([]string(nil), known...)
	sort.Slice(sorted, func(i, j int) bool {
		ci, cj := genreObservations(affinities, sorted[i]), genreObservations(affinities, sorted[j])
		if ci != cj {
			return ci < cj
		}
		return sorted[i] < sorted[j]
	})
	if len(sorted) > pick {
		sorted = sorted[:pick]
	}

	metas, err := r.Catalog.Discover(ctx, core.DiscoverQuery{
		GenreIDs: sorted,
		Limit:    topK,
	})
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(metas))
	for _, meta := range metas {
		if shouldSkip(rctx, meta.ID) {
			continue
		}
		out = append(out, newCandidate(meta, score, r.Name(), r.Group()))
	}
	return out, nil
}

func genreObservations(m map[string]*core.AffinityScore, genreID string) int64 {
	if a, ok := m[genreID]; ok {
		return a.TotalCount
	}
	return 0
}
