package core

// RecommendContext 承载一次推荐请求的用户/画像/排除信息，贯穿召回、过滤、混排透传。
type RecommendContext struct {
	UserID string

	// Profile 是请求时加载的画像快照；召回策略只读。
	Profile *UserTasteProfile

	// Confidence 是本次请求的置信度分层（每次请求现算，不缓存）。
	Confidence Confidence

	// Limit / Page 是请求形状，同时作为缓存 key 的一部分。
	Limit int
	Page  int

	// Exclude 是调用方传入的"本会话已见"排除集合。
	Exclude map[string]struct{}
}

// Excluded 判断内容是否在会话排除集合中。
func (rctx *RecommendContext) Excluded(contentID string) bool {
	if rctx.Exclude == nil {
		return false
	}
	_, ok := rctx.Exclude[contentID]
	return ok
}
