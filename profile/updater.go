// Package profile 实现口味画像：把滑动信号折叠进亲和度计数（Updater），
// 并负责画像的原子持久化、onboarding 种子与口味摘要（Service）。
package profile

import (
	"strconv"

	"github.com/flickmate/tastekit/core"
)

// DefaultDeliberateViewMs 是"深思熟虑滑动"的停留时长阈值（毫秒）。
const DefaultDeliberateViewMs = 2500

// Updater 把一条 SwipeSignal 折叠进画像。
//
// 计数规则（保持可审计，单调，不做小数增量）：
//   - 信号涉及的每个维度 total +1，like 时再 like +1
//   - 参与度从不折扣信号：快速未展开的滑动照常全额计数，
//     只额外记一次 quick_decision（分析用）
//   - 分数在读取时按贝叶斯平滑现算，不落盘
type Updater struct {
	// DeliberateViewMs 超过该停留时长视为深思熟虑（与展开卡片等价）。
	DeliberateViewMs int64

	// RingCapacity 是 recentLiked/recentDisliked 的容量。
	RingCapacity int
}

// Apply 把信号折叠进画像（就地修改），并返回需要原子落盘的计数器增量。
// 返回 applied=false 表示信号被幂等跳过（重复的 onboarding 种子）。
func (u *Updater) Apply(p *core.UserTasteProfile, sig *core.SwipeSignal) (deltas core.CounterDeltas, applied bool) {
	if p == nil || sig == nil {
		return nil, false
	}
	// 种子幂等：同一内容的种子只应用一次，重复种子不翻倍计数
	if sig.Seeded && p.HasRecentLiked(sig.ContentID) {
		return nil, false
	}

	deltas = make(core.CounterDeltas)
	like := sig.IsLike()

	// 行为统计
	p.Behavior.TotalSwipes++
	deltas.Add("behavior:total_swipes", 1)
	if like {
		p.Behavior.TotalLikes++
		deltas.Add("behavior:total_likes", 1)
	} else {
		p.Behavior.TotalDislikes++
		deltas.Add("behavior:total_dislikes", 1)
	}
	if u.isQuickDecision(sig) {
		p.Behavior.QuickDecisions++
		deltas.Add("behavior:quick_decisions", 1)
	}
	u.applyStreak(p, like)
	if sig.OccurredAt.After(p.Behavior.LastSwipeAt) {
		p.Behavior.LastSwipeAt = sig.OccurredAt
	}

	// 维度亲和度
	for _, g := range sig.Features.GenreIDs {
		u.bumpAffinity(p.Preferences.GenreAffinities, "genre", g, like, deltas)
	}
	for _, a := range sig.Features.ActorIDs {
		u.bumpAffinity(p.Preferences.ActorAffinities, "actor", a, like, deltas)
	}
	if d := sig.Features.DirectorID; d != "" {
		u.bumpAffinity(p.Preferences.DirectorAffinities, "director", d, like, deltas)
	}

	// 仅 like 更新的聚合：评分均值、年代偏好、最近喜欢缓冲
	if like {
		if sig.Snapshot.VoteAverage > 0 {
			// 均值分母只数带评分的 like，无评分快照的 like 不稀释均值
			p.Preferences.RatedLikes++
			deltas.Add("behavior:rated_likes", 1)
			n := float64(p.Preferences.RatedLikes)
			p.Preferences.AvgRatingLiked += (sig.Snapshot.VoteAverage - p.Preferences.AvgRatingLiked) / n
		}
		if sig.Snapshot.ReleaseYear > 0 {
			decade := strconv.Itoa(sig.Snapshot.ReleaseYear / 10 * 10)
			if p.Preferences.DecadeCounts == nil {
				p.Preferences.DecadeCounts = make(map[string]int64)
			}
			p.Preferences.DecadeCounts[decade]++
			deltas.Add("decade:"+decade, 1)
		}
		p.PushRecentLiked(sig.ContentID, u.RingCapacity)
	} else {
		p.PushRecentDisliked(sig.ContentID, u.RingCapacity)
	}

	p.UpdatedAt = sig.OccurredAt
	return deltas, true
}

// isQuickDecision 判定快速且未展开卡片的滑动。阈值同时定义"深思熟虑"的下界。
func (u *Updater) isQuickDecision(sig *core.SwipeSignal) bool {
	threshold := u.DeliberateViewMs
	if threshold <= 0 {
		threshold = DefaultDeliberateViewMs
	}
	return !sig.Engagement.CardExpanded && sig.Engagement.ViewDurationMs < threshold
}

// applyStreak 维护连续喜欢的 streak：like 延续，dislike 归零。
func (u *Updater) applyStreak(p *core.UserTasteProfile, like bool) {
	if like {
		p.Behavior.CurrentStreak++
		if p.Behavior.CurrentStreak > p.Behavior.LongestStreak {
			p.Behavior.LongestStreak = p.Behavior.CurrentStreak
		}
		return
	}
	p.Behavior.CurrentStreak = 0
}

func (u *Updater) bumpAffinity(m map[string]*core.AffinityScore, kind, id string, like bool, deltas core.CounterDeltas) {
	if id == "" {
		return
	}
	a, ok := m[id]
	if !ok {
		a = &core.AffinityScore{ID: id}
		m[id] = a
	}
	a.TotalCount++
	deltas.Add(kind+":"+id+":total", 1)
	if like {
		a.LikeCount++
		deltas.Add(kind+":"+id+":like", 1)
	}
}
