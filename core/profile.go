package core

import (
	"sort"
	"time"
)

// RecentRingCapacity 是 recentLiked/recentDisliked 环形缓冲的默认容量。
const RecentRingCapacity = 200

// AffinityScore 是单个维度（类型/演员/导演）的平滑喜欢率。
// 不变式：TotalCount >= LikeCount >= 0。
// Score 永远从计数派生，不单独存储，避免计数与分数漂移。
type AffinityScore struct {
	ID         string
	Name       string
	LikeCount  int64
	TotalCount int64
}

// Score 计算贝叶斯平滑后的喜欢率：(like + κ·prior) / (total + κ)。
// prior 取用户整体喜欢率，使观察数只有 1-2 次的维度不会摆到 0 或 1。
func (a AffinityScore) Score(kappa float64, prior float64) float64 {
	if a.TotalCount <= 0 && kappa <= 0 {
		return 0
	}
	s := (float64(a.LikeCount) + kappa*prior) / (float64(a.TotalCount) + kappa)
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// BehaviorStats 是滑动行为统计，驱动置信度分层与分析。
type BehaviorStats struct {
	TotalSwipes    int64
	TotalLikes     int64
	TotalDislikes  int64
	QuickDecisions int64 // 快速且未展开卡片的滑动次数（仅分析用）
	CurrentStreak  int64 // 当前连续同方向滑动次数
	LongestStreak  int64
	LastSwipeAt    time.Time
}

// LikeRate 返回整体喜欢率，作为各维度平滑的全局先验。
// 无滑动时返回 0.5（无信息先验）。
func (b BehaviorStats) LikeRate() float64 {
	if b.TotalSwipes <= 0 {
		return 0.5
	}
	return float64(b.TotalLikes) / float64(b.TotalSwipes)
}

// TastePreferences 是按维度聚合的偏好画像。
type TastePreferences struct {
	GenreAffinities    map[string]*AffinityScore
	ActorAffinities    map[string]*AffinityScore
	DirectorAffinities map[string]*AffinityScore

	// AvgRatingLiked 是喜欢内容的评分均值（流式均值，仅带评分的 like 更新）。
	AvgRatingLiked float64

	// RatedLikes 是带评分快照的 like 次数，是 AvgRatingLiked 的分母。
	// 无评分的 like 不参与均值，也不计入这里。
	RatedLikes int64

	// DecadeCounts 是喜欢内容的年代计数，如 "1990" -> 12。
	DecadeCounts map[string]int64

	PreferredRuntimeMinutes int
}

// PreferredDecades 返回按喜欢次数降序的年代列表（次数相同按年代字典序，保证确定性）。
func (p TastePreferences) PreferredDecades() []string {
	out := make([]string, 0, len(p.DecadeCounts))
	for d := range p.DecadeCounts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := p.DecadeCounts[out[i]], p.DecadeCounts[out[j]]
		if ci != cj {
			return ci > cj
		}
		return out[i] < out[j]
	})
	return out
}

// UserTasteProfile 是每用户唯一的持久口味画像。
// 归 profile 包的 Service 独占所有权；首个信号或 onboarding 种子时惰性创建。
type UserTasteProfile struct {
	UserID      string
	Behavior    BehaviorStats
	Preferences TastePreferences

	// RecentLikedIDs / RecentDislikedIDs 是环形缓冲：新的在前，超容量淘汰最旧。
	// 只用于候选排除，不参与打分。
	RecentLikedIDs    []string
	RecentDislikedIDs []string

	UpdatedAt time.Time
}

// NewTasteProfile 创建空画像（缺失画像不是错误，等价于低置信度空画像）。
func NewTasteProfile(userID string) *UserTasteProfile {
	return &UserTasteProfile{
		UserID: userID,
		Preferences: TastePreferences{
			GenreAffinities:    make(map[string]*AffinityScore),
			ActorAffinities:    make(map[string]*AffinityScore),
			DirectorAffinities: make(map[string]*AffinityScore),
			DecadeCounts:       make(map[string]int64),
		},
	}
}

// PushRecentLiked 头插并按容量淘汰最旧。
func (p *UserTasteProfile) PushRecentLiked(contentID string, capacity int) {
	p.RecentLikedIDs = pushRing(p.RecentLikedIDs, contentID, capacity)
}

// PushRecentDisliked 头插并按容量淘汰最旧。
func (p *UserTasteProfile) PushRecentDisliked(contentID string, capacity int) {
	p.RecentDislikedIDs = pushRing(p.RecentDislikedIDs, contentID, capacity)
}

// HasRecentLiked 判断内容是否在最近喜欢缓冲中（种子幂等检查用）。
func (p *UserTasteProfile) HasRecentLiked(contentID string) bool {
	for _, id := range p.RecentLikedIDs {
		if id == contentID {
			return true
		}
	}
	return false
}

// HasRecent 判断内容是否出现在任一最近缓冲中（候选排除用）。
func (p *UserTasteProfile) HasRecent(contentID string) bool {
	if p.HasRecentLiked(contentID) {
		return true
	}
	for _, id := range p.RecentDislikedIDs {
		if id == contentID {
			return true
		}
	}
	return false
}

func pushRing(ring []string, id string, capacity int) []string {
	if capacity <= 0 {
		capacity = RecentRingCapacity
	}
	out := make([]string, 0, len(ring)+1)
	out = append(out, id)
	out = append(out, ring...)
	if len(out) > capacity {
		out = out[:capacity]
	}
	return out
}

// TopAffinities 按 Score 降序取前 n 个维度，Score 相同按 TotalCount 降序，再按 ID 字典序。
// 排序确定性是缓存与测试正确性的前提。
func TopAffinities(m map[string]*AffinityScore, n int, kappa, prior float64) []*AffinityScore {
	out := make([]*AffinityScore, 0, len(m))
	for _, a := range m {
		if a == nil || a.TotalCount == 0 {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := out[i].Score(kappa, prior), out[j].Score(kappa, prior)
		if si != sj {
			return si > sj
		}
		if out[i].TotalCount != out[j].TotalCount {
			return out[i].TotalCount > out[j].TotalCount
		}
		return out[i].ID < out[j].ID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
