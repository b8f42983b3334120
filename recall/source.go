// Package recall 实现候选召回：内容侧策略（基于用户自身亲和度）与
// 协同侧策略（人群聚合信号），以及把它们并发编排起来的 Fanout。
//
// 约定：
//   - 每个策略自行排除 recentLiked / recentDisliked / 会话排除集（失败兜底再由 filter 把关）
//   - 策略失败返回空结果，不向上传播（目录超时是局部事件，不是请求失败）
//   - 策略本地分归一到 [0,1]，混排时按策略组权重缩放
package recall

import (
	"context"

	"github.com/flickmate/tastekit/core"
	"github.com/flickmate/tastekit/pkg/utils"
)

// 策略组：内容侧 / 协同侧。置信度门按组启停与调权。
const (
	GroupContent       = "content"
	GroupCollaborative = "collaborative"
)

// Source 是单个召回策略。
type Source interface {
	// Name 返回策略名（同时作为去重仲裁后的解释依据）
	Name() string

	// Group 返回策略组（content / collaborative）
	Group() string

	// Recall 产出候选；失败时实现应返回 (nil, err)，由 Fanout 降级为空结果
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// shouldSkip 判断候选是否命中排除集：最近喜欢/不喜欢、会话内已见。
func shouldSkip(rctx *core.RecommendContext, contentID string) bool {
	if rctx == nil {
		return false
	}
	if rctx.Excluded(contentID) {
		return true
	}
	if rctx.Profile != nil && rctx.Profile.HasRecent(contentID) {
		return true
	}
	return false
}

// newCandidate 构造带来源标签的候选。
func newCandidate(meta *core.ContentMeta, score float64, source, group string) *core.Item {
	it := core.NewItem(meta.ID)
	it.Meta = meta
	it.Score = clamp01(score)
	it.PutLabel("recall_source", utils.Label{Value: source, Source: "recall"})
	it.PutLabel("recall_group", utils.Label{Value: group, Source: "recall"})
	return it
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
