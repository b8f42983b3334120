package core

import (
	"fmt"
	"testing"
)

func TestAffinityScoreSmoothing(t *testing.T) {
	tests := []struct {
		name  string
		like  int64
		total int64
		prior float64
	}{
		{"single like", 1, 1, 0.5},
		{"single dislike", 0, 1, 0.5},
		{"mixed", 3, 5, 0.6},
		{"zero observations", 0, 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AffinityScore{LikeCount: tt.like, TotalCount: tt.total}
			got := a.Score(2, tt.prior)
			if got < 0 || got > 1 {
				t.Fatalf("Score() = %v, out of [0,1]", got)
			}
			// with kappa > 0 a single observation must not saturate to 0 or 1
			if tt.total == 1 && (got == 0 || got == 1) {
				t.Errorf("Score() = %v after one observation, smoothing had no effect", got)
			}
		})
	}
}

func TestPushRecentLikedEvictsOldest(t *testing.T) {
	p := NewTasteProfile("u1")
	for i := 0; i < 5; i++ {
		p.PushRecentLiked(fmt.Sprintf("c%d", i), 3)
	}
	if len(p.RecentLikedIDs) != 3 {
		t.Fatalf("ring length = %d, want 3", len(p.RecentLikedIDs))
	}
	// newest first, oldest evicted
	want := []string{"c4", "c3", "c2"}
	for i, id := range want {
		if p.RecentLikedIDs[i] != id {
			t.Errorf("ring[%d] = %q, want %q", i, p.RecentLikedIDs[i], id)
		}
	}
	if p.HasRecentLiked("c0") {
		t.Error("evicted id still reported as recent")
	}
	if !p.HasRecent("c4") {
		t.Error("newest id not reported as recent")
	}
}

func TestTopAffinitiesDeterministic(t *testing.T) {
	m := map[string]*AffinityScore{
		"28": {ID: "28", LikeCount: 3, TotalCount: 4},
		"35": {ID: "35", LikeCount: 3, TotalCount: 4}, // identical counts as 28
		"18": {ID: "18", LikeCount: 5, TotalCount: 5},
		"99": {ID: "99", LikeCount: 0, TotalCount: 0}, // unobserved, dropped
	}

	first := TopAffinities(m, 3, 2, 0.5)
	for i := 0; i < 10; i++ {
		got := TopAffinities(m, 3, 2, 0.5)
		if len(got) != len(first) {
			t.Fatalf("run %d: length %d != %d", i, len(got), len(first))
		}
		for j := range got {
			if got[j].ID != first[j].ID {
				t.Fatalf("run %d: order differs at %d: %s != %s", i, j, got[j].ID, first[j].ID)
			}
		}
	}

	if first[0].ID != "18" {
		t.Errorf("top affinity = %s, want 18", first[0].ID)
	}
	// ties broken by lexical id
	if first[1].ID != "28" || first[2].ID != "35" {
		t.Errorf("tie order = %s,%s, want 28,35", first[1].ID, first[2].ID)
	}
}

func TestPreferredDecadesOrder(t *testing.T) {
	p := TastePreferences{DecadeCounts: map[string]int64{
		"1990": 5,
		"2010": 5,
		"1980": 2,
	}}
	got := p.PreferredDecades()
	want := []string{"1990", "2010", "1980"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PreferredDecades() = %v, want %v", got, want)
		}
	}
}
