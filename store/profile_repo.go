package store

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/flickmate/tastekit/core"
)

// ProfileRepo 基于 KeyValueStore 实现画像持久化。
//
// 存储布局：
//   - "profile:cnt:{userID}"  Hash，计数器字段（见 core.CounterDeltas 命名约定），
//     只走 HIncrBy 原子自增；
//   - "profile:meta:{userID}" JSON 文档，非计数部分（环形缓冲/均值/连击/名字表），
//     整体覆盖写，last-writer-wins。
type ProfileRepo struct {
	KV core.KeyValueStore
}

func NewProfileRepo(kv core.KeyValueStore) *ProfileRepo {
	return &ProfileRepo{KV: kv}
}

var _ core.ProfileRepository = (*ProfileRepo)(nil)

func counterKey(userID string) string { return "profile:cnt:" + userID }
func metaKey(userID string) string    { return "profile:meta:" + userID }

// profileMeta 是 JSON 落盘的非计数部分。
// 计数器不在这里：它们只能通过 Hash 自增演化。
type profileMeta struct {
	CurrentStreak  int64     `json:"current_streak"`
	LongestStreak  int64     `json:"longest_streak"`
	LastSwipeAt    time.Time `json:"last_swipe_at"`
	AvgRatingLiked float64   `json:"avg_rating_liked"`

	PreferredRuntimeMinutes int `json:"preferred_runtime_minutes,omitempty"`

	// Names 记录维度 ID 到展示名的映射，key 形如 "genre:28"。
	Names map[string]string `json:"names,omitempty"`

	RecentLikedIDs    []string  `json:"recent_liked_ids,omitempty"`
	RecentDislikedIDs []string  `json:"recent_disliked_ids,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Load 从计数 Hash 与 meta 文档拼装画像；两者都不存在时返回 ErrProfileNotFound。
func (r *ProfileRepo) Load(ctx context.Context, userID string) (*core.UserTasteProfile, error) {
	counters, err := r.KV.HGetAll(ctx, counterKey(userID))
	if err != nil && !core.IsStoreNotFound(err) {
		return nil, err
	}

	metaRaw, metaErr := r.KV.Get(ctx, metaKey(userID))
	if metaErr != nil && !core.IsStoreNotFound(metaErr) {
		return nil, metaErr
	}

	if len(counters) == 0 && metaRaw == nil {
		return nil, core.ErrProfileNotFound
	}

	p := core.NewTasteProfile(userID)

	var meta profileMeta
	if metaRaw != nil {
		if err := json.Unmarshal(metaRaw, &meta); err != nil {
			return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodeInternalError, "profile: corrupt meta document")
		}
		p.Behavior.CurrentStreak = meta.CurrentStreak
		p.Behavior.LongestStreak = meta.LongestStreak
		p.Behavior.LastSwipeAt = meta.LastSwipeAt
		p.Preferences.AvgRatingLiked = meta.AvgRatingLiked
		p.Preferences.PreferredRuntimeMinutes = meta.PreferredRuntimeMinutes
		p.RecentLikedIDs = meta.RecentLikedIDs
		p.RecentDislikedIDs = meta.RecentDislikedIDs
		p.UpdatedAt = meta.UpdatedAt
	}

	for field, raw := range counters {
		n, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			continue
		}
		applyCounter(p, field, n, meta.Names)
	}
	return p, nil
}

// IncrCounters 把增量逐字段 HIncrBy 落盘。
// 自增是可交换操作：多实例/多设备乱序到达不改变终值。
func (r *ProfileRepo) IncrCounters(ctx context.Context, userID string, deltas core.CounterDeltas) error {
	if len(deltas) == 0 {
		return nil
	}
	key := counterKey(userID)
	for field, delta := range deltas {
		if delta == 0 {
			continue
		}
		if _, err := r.KV.HIncrBy(ctx, key, field, delta); err != nil {
			return err
		}
	}
	return nil
}

// SaveMeta 整体覆盖写非计数部分。
func (r *ProfileRepo) SaveMeta(ctx context.Context, userID string, p *core.UserTasteProfile) error {
	meta := profileMeta{
		CurrentStreak:           p.Behavior.CurrentStreak,
		LongestStreak:           p.Behavior.LongestStreak,
		LastSwipeAt:             p.Behavior.LastSwipeAt,
		AvgRatingLiked:          p.Preferences.AvgRatingLiked,
		PreferredRuntimeMinutes: p.Preferences.PreferredRuntimeMinutes,
		Names:                   collectNames(p),
		RecentLikedIDs:          p.RecentLikedIDs,
		RecentDislikedIDs:       p.RecentDislikedIDs,
		UpdatedAt:               p.UpdatedAt,
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return r.KV.Set(ctx, metaKey(userID), raw)
}

// applyCounter 按字段命名约定把一个计数写回画像。
func applyCounter(p *core.UserTasteProfile, field string, n int64, names map[string]string) {
	switch field {
	case "behavior:total_swipes":
		p.Behavior.TotalSwipes = n
		return
	case "behavior:total_likes":
		p.Behavior.TotalLikes = n
		return
	case "behavior:total_dislikes":
		p.Behavior.TotalDislikes = n
		return
	case "behavior:quick_decisions":
		p.Behavior.QuickDecisions = n
		return
	case "behavior:rated_likes":
		p.Preferences.RatedLikes = n
		return
	}

	if rest, ok := strings.CutPrefix(field, "decade:"); ok {
		p.Preferences.DecadeCounts[rest] = n
		return
	}

	// 维度计数："genre:{id}:like" / "genre:{id}:total" 等
	dim, rest, ok := strings.Cut(field, ":")
	if !ok {
		return
	}
	idx := strings.LastIndex(rest, ":")
	if idx <= 0 {
		return
	}
	id, kind := rest[:idx], rest[idx+1:]

	var m map[string]*core.AffinityScore
	switch dim {
	case "genre":
		m = p.Preferences.GenreAffinities
	case "actor":
		m = p.Preferences.ActorAffinities
	case "director":
		m = p.Preferences.DirectorAffinities
	default:
		return
	}

	a, ok := m[id]
	if !ok {
		a = &core.AffinityScore{ID: id, Name: names[dim+":"+id]}
		m[id] = a
	}
	switch kind {
	case "like":
		a.LikeCount = n
	case "total":
		a.TotalCount = n
	}
}

func collectNames(p *core.UserTasteProfile) map[string]string {
	names := make(map[string]string)
	put := func(prefix string, m map[string]*core.AffinityScore) {
		for id, a := range m {
			if a != nil && a.Name != "" {
				names[prefix+":"+id] = a.Name
			}
		}
	}
	put("genre", p.Preferences.GenreAffinities)
	put("actor", p.Preferences.ActorAffinities)
	put("director", p.Preferences.DirectorAffinities)
	if len(names) == 0 {
		return nil
	}
	return names
}
