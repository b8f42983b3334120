// Package rerank 实现混排器：合并各策略候选，去重、排除、多样性配额、
// 确定性排序、截断并附加解释。
//
// Blend 必须是输入的确定性纯函数：相同候选集/画像/置信度/limit 必须产出
// 逐字节相同的结果，这是缓存正确性与可测试性的前提。
package rerank

import (
	"math"
	"sort"

	"github.com/flickmate/tastekit/core"
	"github.com/flickmate/tastekit/pkg/utils"
)

// Blender 是混排器配置。
type Blender struct {
	// DiversityDenominator 控制单一主类型的配额：ceil(limit / denominator)。
	// 默认 4。
	DiversityDenominator int

	// CollabWeightMedium / CollabWeightHigh 是协同组候选在不同置信度下的权重；
	// 内容组恒为 1.0，协同信号始终低权重参与（默认 0.5 / 0.8）。
	CollabWeightMedium float64
	CollabWeightHigh   float64
}

// Blend 把各策略候选混排成最终推荐列表。
//
// 步骤：合并 → 按 ID 去重（保留加权分最高者并锁定获胜策略）→ 排除已见 →
// 确定性排序（分数降序，voteAverage 降序，contentID 升序）→ 多样性配额
// （超配额跳过而非硬截断，有替补时不缩短列表）→ 截断 → 附解释。
func (b *Blender) Blend(
	rctx *core.RecommendContext,
	items []*core.Item,
	limit int,
) []core.Recommendation {
	if limit <= 0 || len(items) == 0 {
		return nil
	}

	// 1. 去重：保留加权分最高的出现，记录获胜策略
	best := make(map[string]*core.Item, len(items))
	for _, it := range items {
		if it == nil || it.ID == "" {
			continue
		}
		weighted := it.Score * b.groupWeight(rctx.Confidence, it.Label("recall_group"))
		old, ok := best[it.ID]
		if !ok || weighted > old.Score || (weighted == old.Score && tieBreakSource(it, old)) {
			winner := &core.Item{ID: it.ID, Score: weighted, Meta: it.Meta}
			winner.SetLabel("recall_source", utils.Label{Value: firstSource(it), Source: "blend"})
			winner.SetLabel("recall_group", utils.Label{Value: firstGroup(it), Source: "blend"})
			best[it.ID] = winner
		}
	}

	// 2. 排除 + 收集
	merged := make([]*core.Item, 0, len(best))
	for _, it := range best {
		if rctx.Excluded(it.ID) {
			continue
		}
		if rctx.Profile != nil && rctx.Profile.HasRecent(it.ID) {
			continue
		}
		merged = append(merged, it)
	}

	// 3. 确定性排序
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		vi, vj := voteAverage(merged[i]), voteAverage(merged[j])
		if vi != vj {
			return vi > vj
		}
		return merged[i].ID < merged[j].ID
	})

	// 4. 多样性配额：单一主类型最多 ceil(limit/denominator) 个。
	// 超配额的候选先放替补区，主列表不满时按原序回填（保列表长度优先于配额）。
	denom := b.DiversityDenominator
	if denom <= 0 {
		denom = 4
	}
	quota := int(math.Ceil(float64(limit) / float64(denom)))
	genreCount := make(map[string]int)
	out := make([]*core.Item, 0, limit)
	overflow := make([]*core.Item, 0)

	for _, it := range merged {
		if len(out) >= limit {
			break
		}
		g := primaryGenre(it)
		if g != "" && genreCount[g] >= quota {
			overflow = append(overflow, it)
			continue
		}
		if g != "" {
			genreCount[g]++
		}
		out = append(out, it)
	}
	for _, it := range overflow {
		if len(out) >= limit {
			break
		}
		out = append(out, it)
	}

	// 5. 附解释并产出视图
	recs := make([]core.Recommendation, 0, len(out))
	for _, it := range out {
		recs = append(recs, toRecommendation(rctx, it))
	}
	return recs
}

// groupWeight 返回策略组在当前置信度下的权重。
func (b *Blender) groupWeight(conf core.Confidence, group string) float64 {
	if group != GroupCollaborative {
		return 1.0
	}
	switch conf {
	case core.ConfidenceHigh:
		if b.CollabWeightHigh > 0 {
			return b.CollabWeightHigh
		}
		return 0.8
	case core.ConfidenceMedium:
		if b.CollabWeightMedium > 0 {
			return b.CollabWeightMedium
		}
		return 0.5
	default:
		// low 置信度本不应出现协同候选（置信度门已关），出现时压到零权
		return 0
	}
}

// GroupCollaborative 与 recall 包的组名保持一致（避免反向依赖）。
const GroupCollaborative = "collaborative"

// tieBreakSource 加权分相同时的确定性仲裁：按来源名字典序。
func tieBreakSource(a, b *core.Item) bool {
	return firstSource(a) < firstSource(b)
}

// firstSource 取第一个召回来源（Label 合并用 '|' 累积，取最早的）。
func firstSource(it *core.Item) string {
	return firstToken(it.Label("recall_source"))
}

func firstGroup(it *core.Item) string {
	return firstToken(it.Label("recall_group"))
}

func firstToken(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '|' {
			return s[:i]
		}
	}
	return s
}

func voteAverage(it *core.Item) float64 {
	if it.Meta == nil {
		return 0
	}
	return it.Meta.VoteAverage
}

func primaryGenre(it *core.Item) string {
	if it.Meta == nil {
		return ""
	}
	return it.Meta.PrimaryGenre()
}
