package store

import (
	"context"
	"testing"
	"time"

	"github.com/flickmate/tastekit/core"
)

func TestProfileRepoLoadNotFound(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	repo := NewProfileRepo(ms)

	_, err := repo.Load(context.Background(), "nobody")
	if err != core.ErrProfileNotFound {
		t.Errorf("Load(nobody) error = %v, want ErrProfileNotFound", err)
	}
}

func TestProfileRepoRoundTrip(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	repo := NewProfileRepo(ms)
	ctx := context.Background()

	deltas := core.CounterDeltas{
		"behavior:total_swipes":   3,
		"behavior:total_likes":    2,
		"behavior:total_dislikes": 1,
		"genre:28:like":           2,
		"genre:28:total":          3,
		"actor:500:like":          1,
		"actor:500:total":         1,
		"director:138:total":      1,
		"decade:1990":             2,
	}
	if err := repo.IncrCounters(ctx, "u1", deltas); err != nil {
		t.Fatal(err)
	}

	src := core.NewTasteProfile("u1")
	src.Behavior.CurrentStreak = 2
	src.Behavior.LongestStreak = 4
	src.Behavior.LastSwipeAt = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	src.Preferences.AvgRatingLiked = 7.25
	src.Preferences.GenreAffinities["28"] = &core.AffinityScore{ID: "28", Name: "Action"}
	src.RecentLikedIDs = []string{"c2", "c1"}
	src.RecentDislikedIDs = []string{"c3"}
	src.UpdatedAt = src.Behavior.LastSwipeAt
	if err := repo.SaveMeta(ctx, "u1", src); err != nil {
		t.Fatal(err)
	}

	p, err := repo.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if p.Behavior.TotalSwipes != 3 || p.Behavior.TotalLikes != 2 || p.Behavior.TotalDislikes != 1 {
		t.Errorf("behavior = %d/%d/%d, want 3/2/1",
			p.Behavior.TotalSwipes, p.Behavior.TotalLikes, p.Behavior.TotalDislikes)
	}
	g := p.Preferences.GenreAffinities["28"]
	if g == nil || g.LikeCount != 2 || g.TotalCount != 3 {
		t.Fatalf("genre 28 = %+v, want like=2 total=3", g)
	}
	if g.Name != "Action" {
		t.Errorf("genre name = %q, not restored from meta", g.Name)
	}
	if a := p.Preferences.ActorAffinities["500"]; a == nil || a.LikeCount != 1 || a.TotalCount != 1 {
		t.Errorf("actor 500 = %+v", a)
	}
	if d := p.Preferences.DirectorAffinities["138"]; d == nil || d.TotalCount != 1 || d.LikeCount != 0 {
		t.Errorf("director 138 = %+v", d)
	}
	if p.Preferences.DecadeCounts["1990"] != 2 {
		t.Errorf("decade 1990 = %d, want 2", p.Preferences.DecadeCounts["1990"])
	}
	if p.Behavior.CurrentStreak != 2 || p.Behavior.LongestStreak != 4 {
		t.Errorf("streak = %d/%d, want 2/4", p.Behavior.CurrentStreak, p.Behavior.LongestStreak)
	}
	if p.Preferences.AvgRatingLiked != 7.25 {
		t.Errorf("avg rating = %v, want 7.25", p.Preferences.AvgRatingLiked)
	}
	if len(p.RecentLikedIDs) != 2 || p.RecentLikedIDs[0] != "c2" {
		t.Errorf("recent liked = %v", p.RecentLikedIDs)
	}
}

func TestProfileRepoIncrIsCommutative(t *testing.T) {
	ms := NewMemoryStore()
	defer ms.Close()
	repo := NewProfileRepo(ms)
	ctx := context.Background()

	// two devices land their deltas in opposite order; totals must match either way
	a := core.CounterDeltas{"behavior:total_swipes": 1, "genre:28:total": 1, "genre:28:like": 1}
	b := core.CounterDeltas{"behavior:total_swipes": 1, "genre:28:total": 1}

	repo.IncrCounters(ctx, "u1", a)
	repo.IncrCounters(ctx, "u1", b)
	repo.IncrCounters(ctx, "u2", b)
	repo.IncrCounters(ctx, "u2", a)

	for _, user := range []string{"u1", "u2"} {
		p, err := repo.Load(ctx, user)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", user, err)
		}
		if p.Behavior.TotalSwipes != 2 {
			t.Errorf("%s total swipes = %d, want 2", user, p.Behavior.TotalSwipes)
		}
		g := p.Preferences.GenreAffinities["28"]
		if g == nil || g.TotalCount != 2 || g.LikeCount != 1 {
			t.Errorf("%s genre 28 = %+v, want like=1 total=2", user, g)
		}
	}
}
