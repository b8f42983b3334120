package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/flickmate/tastekit/catalog"
	"github.com/flickmate/tastekit/core"
	"github.com/flickmate/tastekit/ingest"
	"github.com/flickmate/tastekit/store"
)

func testCatalog() *catalog.MemoryCatalog {
	cat := catalog.NewMemoryCatalog()
	cat.PutAll([]*core.ContentMeta{
		{ID: "a1", Type: core.ContentTypeMovie, Title: "Action One", GenreIDs: []string{"28"}, VoteAverage: 7.1, Popularity: 95, ReleaseYear: 2020},
		{ID: "a2", Type: core.ContentTypeMovie, Title: "Action Two", GenreIDs: []string{"28"}, VoteAverage: 7.4, Popularity: 90, ReleaseYear: 2019},
		{ID: "a3", Type: core.ContentTypeMovie, Title: "Action Three", GenreIDs: []string{"28"}, VoteAverage: 6.9, Popularity: 85, ReleaseYear: 2021},
		{ID: "a4", Type: core.ContentTypeMovie, Title: "Action Four", GenreIDs: []string{"28"}, VoteAverage: 7.0, Popularity: 80, ReleaseYear: 2018},
		{ID: "b1", Type: core.ContentTypeMovie, Title: "Comedy One", GenreIDs: []string{"35"}, VoteAverage: 6.5, Popularity: 70, ReleaseYear: 2022},
		{ID: "b2", Type: core.ContentTypeMovie, Title: "Comedy Two", GenreIDs: []string{"35"}, VoteAverage: 6.8, Popularity: 65, ReleaseYear: 2023},
		{ID: "d1", Type: core.ContentTypeMovie, Title: "Drama One", GenreIDs: []string{"18"}, VoteAverage: 7.2, Popularity: 50, ReleaseYear: 2015},
		{ID: "d2", Type: core.ContentTypeMovie, Title: "Drama Two", GenreIDs: []string{"18"}, VoteAverage: 7.6, Popularity: 45, ReleaseYear: 2016},
		{ID: "h1", Type: core.ContentTypeMovie, Title: "Gem One", GenreIDs: []string{"28"}, VoteAverage: 8.4, Popularity: 12, ReleaseYear: 2014},
		{ID: "h2", Type: core.ContentTypeMovie, Title: "Gem Two", GenreIDs: []string{"18"}, VoteAverage: 8.8, Popularity: 9, ReleaseYear: 2011},
	})
	return cat
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	ms := store.NewMemoryStore()
	t.Cleanup(func() { ms.Close() })

	e, err := New(nil, Deps{KV: ms, Catalog: testCatalog()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func actionLike(userID, contentID string) ingest.RawSwipe {
	return ingest.RawSwipe{
		UserID:         userID,
		ContentID:      contentID,
		Direction:      "like",
		GenreIDs:       []string{"28"},
		ActorIDs:       []string{"500"},
		DirectorID:     "138",
		VoteAverage:    7.2,
		ReleaseYear:    2020,
		ViewDurationMs: 4000,
		CardExpanded:   true,
	}
}

func TestNewUserLowConfidenceRecommendations(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	for _, id := range []string{"a1", "a2", "a3"} {
		if _, err := e.IngestSwipe(ctx, actionLike("u1", id)); err != nil {
			t.Fatalf("IngestSwipe(%s) error = %v", id, err)
		}
	}

	result, err := e.Recommend(ctx, RecommendRequest{UserID: "u1", Limit: 10, Page: 1})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if result.Confidence != core.ConfidenceLow {
		t.Errorf("confidence = %v, want low after 3 swipes", result.Confidence)
	}
	if len(result.Recommendations) == 0 {
		t.Fatal("no recommendations for low-confidence user")
	}

	allowed := map[core.ExplanationType]bool{
		core.ExplainGenreFans: true,
		core.ExplainHiddenGem: true,
		core.ExplainPopular:   true,
	}
	swiped := map[string]bool{"a1": true, "a2": true, "a3": true}
	for _, rec := range result.Recommendations {
		if !allowed[rec.Explanation.Type] {
			t.Errorf("%s: explanation %v leaked a gated strategy at low confidence", rec.ContentID, rec.Explanation.Type)
		}
		if swiped[rec.ContentID] {
			t.Errorf("already swiped %s recommended again", rec.ContentID)
		}
	}
}

func TestTasteSummaryCounts(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	contentIDs := []string{"a1", "a2", "a3", "a4", "b1"}
	for _, id := range contentIDs {
		if _, err := e.IngestSwipe(ctx, actionLike("u1", id)); err != nil {
			t.Fatal(err)
		}
	}

	summary, err := e.GetTasteSummary(ctx, "u1")
	if err != nil {
		t.Fatalf("GetTasteSummary() error = %v", err)
	}
	if len(summary.TopActors) == 0 {
		t.Fatal("no top actors after 5 likes")
	}
	top := summary.TopActors[0]
	if top.ID != "500" || top.LikeCount != 5 || top.TotalCount != 5 {
		t.Errorf("top actor = %+v, want 500 with like=5 total=5", top)
	}
	// smoothing keeps a 5/5 record strong but below certainty
	score := top.Score(2, 0.5)
	if score >= 1.0 || score < 0.8 {
		t.Errorf("smoothed score = %v, want high but < 1.0", score)
	}
	if len(summary.TopGenres) == 0 || summary.TopGenres[0].ID != "28" {
		t.Errorf("top genres = %+v, want 28 first", summary.TopGenres)
	}
}

func TestRecommendCachedUntilNextSwipe(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	e.IngestSwipe(ctx, actionLike("u1", "a1"))

	first, err := e.Recommend(ctx, RecommendRequest{UserID: "u1", Limit: 5, Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Recommend(ctx, RecommendRequest{UserID: "u1", Limit: 5, Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	if !second.GeneratedAt.Equal(first.GeneratedAt) {
		t.Error("repeated request rebuilt instead of hitting cache")
	}

	// a new swipe must invalidate the cached page
	if _, err := e.IngestSwipe(ctx, actionLike("u1", "a2")); err != nil {
		t.Fatal(err)
	}
	third, err := e.Recommend(ctx, RecommendRequest{UserID: "u1", Limit: 5, Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	if third.GeneratedAt.Equal(first.GeneratedAt) {
		t.Error("cache not invalidated after profile change")
	}
	for _, rec := range third.Recommendations {
		if rec.ContentID == "a2" {
			t.Error("freshly swiped content recommended again")
		}
	}
}

func TestRecommendSessionExclude(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	e.IngestSwipe(ctx, actionLike("u1", "a1"))

	base, err := e.Recommend(ctx, RecommendRequest{UserID: "u1", Limit: 10, Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(base.Recommendations) == 0 {
		t.Fatal("empty baseline")
	}
	seen := base.Recommendations[0].ContentID

	got, err := e.Recommend(ctx, RecommendRequest{
		UserID:  "u1",
		Limit:   10,
		Page:    1,
		Exclude: []string{seen},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range got.Recommendations {
		if rec.ContentID == seen {
			t.Errorf("session-excluded %s still present", seen)
		}
	}
}

func TestSeedFromOnboardingIdempotent(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	seedIDs := []string{"a1", "b1", "d1", "missing"}
	first, err := e.SeedFromOnboarding(ctx, "u1", seedIDs)
	if err != nil {
		t.Fatalf("SeedFromOnboarding() error = %v", err)
	}
	// unknown ids tolerated, three real seeds applied
	if first.Behavior.TotalSwipes != 3 {
		t.Errorf("total swipes = %d after seed, want 3", first.Behavior.TotalSwipes)
	}

	second, err := e.SeedFromOnboarding(ctx, "u1", seedIDs)
	if err != nil {
		t.Fatalf("repeated seed error = %v", err)
	}
	if second.Behavior.TotalSwipes != 3 {
		t.Errorf("total swipes = %d after repeated seed, want unchanged 3", second.Behavior.TotalSwipes)
	}

	p, err := e.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if g := p.Preferences.GenreAffinities["28"]; g == nil || g.TotalCount != 1 {
		t.Errorf("genre 28 = %+v, want single seed count", g)
	}
}

func TestMostLikedLeaderboardAccumulates(t *testing.T) {
	ms := store.NewMemoryStore()
	defer ms.Close()
	e, err := New(nil, Deps{KV: ms, Catalog: testCatalog()})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	ctx := context.Background()

	e.IngestSwipe(ctx, actionLike("u1", "a1"))
	e.IngestSwipe(ctx, actionLike("u2", "a1"))
	e.IngestSwipe(ctx, actionLike("u3", "b1"))

	score, err := ms.ZScore(ctx, MostLikedKey, "a1")
	if err != nil || score != 2 {
		t.Errorf("leaderboard a1 = %v, %v, want 2", score, err)
	}
	top, err := ms.ZRange(ctx, MostLikedKey, 0, 0)
	if err != nil || len(top) != 1 || top[0] != "a1" {
		t.Errorf("leaderboard top = %v, %v, want [a1]", top, err)
	}
}

// 多设备同时喜欢同一内容：榜单计数不能丢更新。
func TestMostLikedLeaderboardConcurrentLikes(t *testing.T) {
	ms := store.NewMemoryStore()
	defer ms.Close()
	e, err := New(nil, Deps{KV: ms, Catalog: testCatalog()})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	ctx := context.Background()

	const likes = 100
	var wg sync.WaitGroup
	for i := 0; i < likes; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("u%d", i)
			if _, err := e.IngestSwipe(ctx, actionLike(user, "a1")); err != nil {
				t.Errorf("IngestSwipe(%s) error = %v", user, err)
			}
		}(i)
	}
	wg.Wait()

	score, err := ms.ZScore(ctx, MostLikedKey, "a1")
	if err != nil || score != likes {
		t.Errorf("leaderboard a1 = %v, %v after %d concurrent likes, want %d", score, err, likes, likes)
	}
}

type downCatalog struct{}

func (downCatalog) GetContent(ctx context.Context, contentID string) (*core.ContentMeta, error) {
	return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog: down")
}

func (downCatalog) Discover(ctx context.Context, q core.DiscoverQuery) ([]*core.ContentMeta, error) {
	return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog: down")
}

func (downCatalog) Trending(ctx context.Context, limit int) ([]*core.ContentMeta, error) {
	return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog: down")
}

func TestRecommendDegradesToEmptyPageOnTotalOutage(t *testing.T) {
	ms := store.NewMemoryStore()
	defer ms.Close()
	e, err := New(nil, Deps{KV: ms, Catalog: downCatalog{}})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	result, err := e.Recommend(context.Background(), RecommendRequest{UserID: "u1", Limit: 10, Page: 1})
	if err != nil {
		t.Fatalf("Recommend() error = %v, want graceful empty page", err)
	}
	if len(result.Recommendations) != 0 {
		t.Errorf("recommendations = %v, want none", result.Recommendations)
	}
	if result.Confidence != core.ConfidenceLow {
		t.Errorf("confidence = %v, want low on degraded page", result.Confidence)
	}
}

func TestParseConfigOverridesDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
kappa: 4
confidence:
  medium: 20
  high: 100
cache:
  ttl_seconds: 60
recall:
  timeout_ms: 250
  max_concurrent: 2
rules:
  - "item.vote_average >= 6.0"
`))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.Kappa != 4 || cfg.Confidence.Medium != 20 || cfg.Confidence.High != 100 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Cache.TTLSeconds != 60 || cfg.Recall.TimeoutMs != 250 || cfg.Recall.MaxConcurrent != 2 {
		t.Errorf("nested overrides not applied: %+v", cfg)
	}
	// untouched fields keep defaults
	if cfg.DeliberateViewMs != 2500 || cfg.Blend.DiversityDenominator != 4 {
		t.Errorf("defaults lost on partial config: %+v", cfg)
	}
	if len(cfg.Rules) != 1 {
		t.Errorf("rules = %v", cfg.Rules)
	}
}

func TestEngineRejectsBadRule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules = []string{"item.vote_average >=> 6"}

	ms := store.NewMemoryStore()
	defer ms.Close()
	if _, err := New(cfg, Deps{KV: ms, Catalog: testCatalog()}); err == nil {
		t.Error("New() accepted an invalid rule expression")
	}
}
