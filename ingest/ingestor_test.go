package ingest

import (
	"testing"
	"time"

	"github.com/flickmate/tastekit/core"
)

func TestNormalizeRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		raw     RawSwipe
		wantErr error
	}{
		{"missing user", RawSwipe{ContentID: "c1", Direction: "like"}, ErrMissingUserID},
		{"missing content", RawSwipe{UserID: "u1", Direction: "like"}, ErrMissingContentID},
		{"missing direction", RawSwipe{UserID: "u1", ContentID: "c1"}, ErrBadDirection},
		{"bad direction", RawSwipe{UserID: "u1", ContentID: "c1", Direction: "meh"}, ErrBadDirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			if err != tt.wantErr {
				t.Errorf("Normalize() error = %v, want %v", err, tt.wantErr)
			}
			if !core.IsInvalidInput(err) {
				t.Errorf("error %v is not INVALID_INPUT", err)
			}
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	sig, err := Normalize(RawSwipe{
		UserID:         "u1",
		ContentID:      "c1",
		Direction:      "like",
		GenreIDs:       []string{"28", "53"},
		ViewDurationMs: -100,
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if sig.ContentType != core.ContentTypeMovie {
		t.Errorf("content type = %v, want movie default", sig.ContentType)
	}
	if sig.Features.PrimaryGenre != "28" {
		t.Errorf("primary genre = %q, want first genre id", sig.Features.PrimaryGenre)
	}
	if sig.Engagement.ViewDurationMs != 0 {
		t.Errorf("negative duration not clamped: %d", sig.Engagement.ViewDurationMs)
	}
	if sig.OccurredAt.IsZero() {
		t.Error("zero occurredAt not defaulted to now")
	}
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sig, err := Normalize(RawSwipe{
		UserID:       "u1",
		ContentID:    "c1",
		ContentType:  "show",
		Direction:    "dislike",
		PrimaryGenre: "35",
		GenreIDs:     []string{"28"},
		OccurredAt:   at,
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if sig.ContentType != core.ContentTypeShow {
		t.Errorf("content type = %v, want show", sig.ContentType)
	}
	if sig.IsLike() {
		t.Error("dislike parsed as like")
	}
	if sig.Features.PrimaryGenre != "35" {
		t.Errorf("primary genre = %q, explicit value overridden", sig.Features.PrimaryGenre)
	}
	if !sig.OccurredAt.Equal(at) {
		t.Errorf("occurredAt = %v, want %v", sig.OccurredAt, at)
	}
}
