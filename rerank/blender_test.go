package rerank

import (
	"fmt"
	"testing"

	"github.com/flickmate/tastekit/core"
	"github.com/flickmate/tastekit/pkg/utils"
)

func candidate(id string, score float64, source, group, genre string, vote float64) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	it.Meta = &core.ContentMeta{ID: id, GenreIDs: []string{genre}, VoteAverage: vote}
	it.PutLabel("recall_source", utils.Label{Value: source, Source: "recall"})
	it.PutLabel("recall_group", utils.Label{Value: group, Source: "recall"})
	return it
}

func rctxWith(conf core.Confidence) *core.RecommendContext {
	return &core.RecommendContext{
		UserID:     "u1",
		Profile:    core.NewTasteProfile("u1"),
		Confidence: conf,
		Limit:      10,
		Page:       1,
	}
}

func TestBlendDeterministic(t *testing.T) {
	b := &Blender{}
	rctx := rctxWith(core.ConfidenceHigh)

	items := []*core.Item{
		candidate("c1", 0.9, "recall.genre", "content", "28", 7.0),
		candidate("c2", 0.9, "recall.genre", "content", "35", 7.0), // same score+vote, id breaks tie
		candidate("c3", 0.5, "recall.trending", "collaborative", "18", 8.0),
		candidate("c4", 0.7, "recall.popular", "content", "12", 6.0),
	}

	first := b.Blend(rctx, items, 10)
	for i := 0; i < 10; i++ {
		got := b.Blend(rctx, items, 10)
		if len(got) != len(first) {
			t.Fatalf("run %d: length %d != %d", i, len(got), len(first))
		}
		for j := range got {
			if got[j].ContentID != first[j].ContentID || got[j].Score != first[j].Score {
				t.Fatalf("run %d: result differs at %d", i, j)
			}
		}
	}

	if first[0].ContentID != "c1" || first[1].ContentID != "c2" {
		t.Errorf("tie not broken by content id: %s, %s", first[0].ContentID, first[1].ContentID)
	}
}

func TestBlendDedupKeepsHighestWeighted(t *testing.T) {
	b := &Blender{}
	rctx := rctxWith(core.ConfidenceMedium)

	// same content from two strategies: content 0.6 beats collaborative 0.9*0.5
	items := []*core.Item{
		candidate("c1", 0.9, "recall.trending", "collaborative", "28", 7.0),
		candidate("c1", 0.6, "recall.genre", "content", "28", 7.0),
	}

	got := b.Blend(rctx, items, 10)
	if len(got) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(got))
	}
	if got[0].Score != 0.6 {
		t.Errorf("winner score = %v, want content-side 0.6", got[0].Score)
	}
	if got[0].Explanation.Type != core.ExplainGenreFans {
		t.Errorf("explanation = %v, want genre_fans from winning strategy", got[0].Explanation.Type)
	}
}

func TestBlendCollaborativeZeroWeightAtLow(t *testing.T) {
	b := &Blender{}
	rctx := rctxWith(core.ConfidenceLow)

	items := []*core.Item{
		candidate("c1", 0.9, "recall.trending", "collaborative", "28", 7.0),
		candidate("c2", 0.1, "recall.genre", "content", "35", 7.0),
	}
	got := b.Blend(rctx, items, 10)
	if len(got) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(got))
	}
	// collaborative crushed to zero weight, content item must rank first
	if got[0].ContentID != "c2" {
		t.Errorf("first = %s, want content-side c2", got[0].ContentID)
	}
	if got[1].Score != 0 {
		t.Errorf("collaborative score at low = %v, want 0", got[1].Score)
	}
}

func TestBlendDiversityQuotaWithBackfill(t *testing.T) {
	b := &Blender{}
	rctx := rctxWith(core.ConfidenceHigh)

	items := []*core.Item{
		candidate("a1", 0.9, "recall.genre", "content", "28", 7.0),
		candidate("a2", 0.8, "recall.genre", "content", "28", 7.0),
		candidate("a3", 0.7, "recall.genre", "content", "28", 7.0),
		candidate("a4", 0.6, "recall.genre", "content", "28", 7.0),
		candidate("a5", 0.5, "recall.genre", "content", "28", 7.0),
		candidate("b1", 0.4, "recall.genre", "content", "35", 7.0),
	}

	// limit 4 -> quota ceil(4/4) = 1 per primary genre
	got := b.Blend(rctx, items, 4)
	if len(got) != 4 {
		t.Fatalf("got %d recommendations, want full page of 4", len(got))
	}
	wantOrder := []string{"a1", "b1", "a2", "a3"}
	for i, want := range wantOrder {
		if got[i].ContentID != want {
			t.Errorf("position %d = %s, want %s (quota skip then backfill)", i, got[i].ContentID, want)
		}
	}
}

func TestBlendExcludesSeenContent(t *testing.T) {
	b := &Blender{}
	rctx := rctxWith(core.ConfidenceHigh)
	rctx.Exclude = map[string]struct{}{"c1": {}}
	rctx.Profile.PushRecentLiked("c2", 0)

	items := []*core.Item{
		candidate("c1", 0.9, "recall.genre", "content", "28", 7.0),
		candidate("c2", 0.8, "recall.genre", "content", "35", 7.0),
		candidate("c3", 0.7, "recall.genre", "content", "18", 7.0),
	}
	got := b.Blend(rctx, items, 10)
	if len(got) != 1 || got[0].ContentID != "c3" {
		t.Fatalf("got %v, want only c3", ids(got))
	}
}

func TestBlendTruncatesToLimit(t *testing.T) {
	b := &Blender{}
	rctx := rctxWith(core.ConfidenceHigh)

	items := make([]*core.Item, 0, 30)
	for i := 0; i < 30; i++ {
		genre := fmt.Sprintf("g%d", i%10)
		items = append(items, candidate(fmt.Sprintf("c%02d", i), float64(30-i)/30, "recall.genre", "content", genre, 7.0))
	}
	got := b.Blend(rctx, items, 12)
	if len(got) != 12 {
		t.Fatalf("got %d recommendations, want 12", len(got))
	}
}

func ids(recs []core.Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ContentID)
	}
	return out
}
