// Package ingest 负责把客户端上报的原始交互规范化为 core.SwipeSignal。
// 纯函数、无副作用：可选字段缺失一律给默认值，只有 userId/contentId/direction
// 缺失才拒绝（调用方错误，同步返回）。
package ingest

import (
	"time"

	"github.com/flickmate/tastekit/core"
)

// RawSwipe 是客户端上报的原始滑动，字段宽松、部分可缺失。
type RawSwipe struct {
	UserID      string
	ContentID   string
	ContentType string // "movie" / "show"，缺失默认 movie
	Direction   string // "like" / "dislike"

	GenreIDs     []string
	PrimaryGenre string
	ActorIDs     []string
	DirectorID   string

	VoteAverage     float64
	ReleaseYear     int
	PopularityScore float64

	ViewDurationMs int64
	SwipeVelocity  float64
	SwipeDistance  float64
	CardExpanded   bool
	TrailerWatched bool

	SessionPosition int
	OccurredAt      time.Time
}

// 接入层错误定义。
var (
	ErrMissingUserID    = core.NewDomainError(core.ModuleIngest, core.ErrorCodeInvalidInput, "ingest: missing user id")
	ErrMissingContentID = core.NewDomainError(core.ModuleIngest, core.ErrorCodeInvalidInput, "ingest: missing content id")
	ErrBadDirection     = core.NewDomainError(core.ModuleIngest, core.ErrorCodeInvalidInput, "ingest: direction must be like or dislike")
)

// Normalize 规范化一次原始滑动。
func Normalize(raw RawSwipe) (*core.SwipeSignal, error) {
	if raw.UserID == "" {
		return nil, ErrMissingUserID
	}
	if raw.ContentID == "" {
		return nil, ErrMissingContentID
	}

	var dir core.SwipeDirection
	switch raw.Direction {
	case string(core.SwipeLike):
		dir = core.SwipeLike
	case string(core.SwipeDislike):
		dir = core.SwipeDislike
	default:
		return nil, ErrBadDirection
	}

	ct := core.ContentTypeMovie
	if raw.ContentType == string(core.ContentTypeShow) {
		ct = core.ContentTypeShow
	}

	primary := raw.PrimaryGenre
	if primary == "" && len(raw.GenreIDs) > 0 {
		primary = raw.GenreIDs[0]
	}

	occurredAt := raw.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	duration := raw.ViewDurationMs
	if duration < 0 {
		duration = 0
	}

	return &core.SwipeSignal{
		UserID:      raw.UserID,
		ContentID:   raw.ContentID,
		ContentType: ct,
		Direction:   dir,
		Features: core.SignalFeatures{
			GenreIDs:     raw.GenreIDs,
			PrimaryGenre: primary,
			ActorIDs:     raw.ActorIDs,
			DirectorID:   raw.DirectorID,
		},
		Snapshot: core.ContentSnapshot{
			VoteAverage:     raw.VoteAverage,
			ReleaseYear:     raw.ReleaseYear,
			PopularityScore: raw.PopularityScore,
		},
		Engagement: core.Engagement{
			ViewDurationMs: duration,
			SwipeVelocity:  raw.SwipeVelocity,
			SwipeDistance:  raw.SwipeDistance,
			CardExpanded:   raw.CardExpanded,
			TrailerWatched: raw.TrailerWatched,
		},
		SessionPosition: raw.SessionPosition,
		OccurredAt:      occurredAt,
	}, nil
}
