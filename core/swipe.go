package core

import "time"

// ContentType 是内容类型：电影 / 剧集。
type ContentType string

const (
	ContentTypeMovie ContentType = "movie"
	ContentTypeShow  ContentType = "show"
)

// SwipeDirection 是滑动方向：右滑喜欢 / 左滑不喜欢。
type SwipeDirection string

const (
	SwipeLike    SwipeDirection = "like"
	SwipeDislike SwipeDirection = "dislike"
)

// SignalFeatures 是信号携带的内容维度特征（类型、主演、导演）。
// 各维度均可缺失；缺失的维度不参与画像更新。
type SignalFeatures struct {
	GenreIDs     []string
	PrimaryGenre string
	ActorIDs     []string
	DirectorID   string
}

// ContentSnapshot 是滑动发生时的内容快照，用于维护 avgRatingLiked 与年代偏好。
// 存快照而非回查目录，保证画像更新不依赖外部服务可用性。
type ContentSnapshot struct {
	VoteAverage     float64
	ReleaseYear     int
	PopularityScore float64
}

// Engagement 是滑动的参与度元数据。
// 参与度只用于"强信号"标注与行为统计，从不折扣计数（保持计数可审计）。
type Engagement struct {
	ViewDurationMs int64
	SwipeVelocity  float64
	SwipeDistance  float64
	CardExpanded   bool
	TrailerWatched bool
}

// SwipeSignal 是画像的唯一事实来源：一次规范化后的用户滑动。
// 创建后不可变。
type SwipeSignal struct {
	UserID          string
	ContentID       string
	ContentType     ContentType
	Direction       SwipeDirection
	Features        SignalFeatures
	Snapshot        ContentSnapshot
	Engagement      Engagement
	SessionPosition int
	OccurredAt      time.Time

	// Seeded 标记该信号来自 onboarding 种子而非真实滑动。
	// 种子信号需要幂等保护（见 profile.Updater）。
	Seeded bool
}

// IsLike 返回是否为喜欢信号。
func (s *SwipeSignal) IsLike() bool {
	return s.Direction == SwipeLike
}
