package recall

import (
	"context"
	"sort"

	"github.com/flickmate/tastekit/core"
)

// MoodCluster 是一组情绪相近的类型。
type MoodCluster struct {
	Name     string
	GenreIDs []string
}

// DefaultMoodClusters 是默认的情绪聚类（TMDB 类型 ID 口径）。
var DefaultMoodClusters = []MoodCluster{
	{Name: "adrenaline", GenreIDs: []string{"28", "53", "80"}}, // 动作/惊悚/犯罪
	{Name: "cozy", GenreIDs: []string{"35", "10751", "16"}},    // 喜剧/家庭/动画
	{Name: "wonder", GenreIDs: []string{"878", "14", "12"}},    // 科幻/奇幻/冒险
	{Name: "heavy", GenreIDs: []string{"18", "36", "10752"}},   // 剧情/历史/战争
}

// MoodRecall 是情绪召回：对每个聚类取成员类型亲和度均值，乘以近期喜欢势头
// （连续喜欢 streak 的饱和函数），选出当前最强的聚类向目录查询。
type MoodRecall struct {
	Catalog  core.ContentCatalog
	Clusters []MoodCluster

	// TopK 返回候选上限（默认 12）
	TopK int

	Kappa float64
}

func (r *MoodRecall) Name() string  { return "recall.mood" }
func (r *MoodRecall) Group() string { return GroupContent }

func (r *MoodRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil || rctx.Profile == nil {
		return nil, nil
	}
	clusters := r.Clusters
	if len(clusters) == 0 {
		clusters = DefaultMoodClusters
	}
	topK := r.TopK
	if topK <= 0 {
		topK = 12
	}

	p := rctx.Profile
	prior := p.Behavior.LikeRate()

	// 近期喜欢势头：streak 越长权重越高，10 连喜欢后饱和
	velocity := 0.5 + float64(p.Behavior.CurrentStreak)/20.0
	if velocity > 1 {
		velocity = 1
	}

	type scored struct {
		cluster MoodCluster
		weight  float64
	}
	scoredClusters := make([]scored, 0, len(clusters))
	for _, c := range clusters {
		var sum float64
		var n int
		for _, g := range c.GenreIDs {
			if a, ok := p.Preferences.GenreAffinities[g]; ok && a.TotalCount > 0 {
				sum += a.Score(r.Kappa, prior)
				n++
			}
		}
		if n == 0 {
			continue
		}
		scoredClusters = append(scoredClusters, scored{cluster: c, weight: (sum / float64(n)) * velocity})
	}
	if len(scoredClusters) == 0 {
		return nil, nil
	}
	sort.Slice(scoredClusters, func(i, j int) bool {
		if scoredClusters[i].weight != scoredClusters[j].weight {
			return scoredClusters[i].weight > scoredClusters[j].weight
		}
		return scoredClusters[i].cluster.Name < scoredClusters[j].cluster.Name
	})
	best := scoredClusters[0]

	metas, err := r.Catalog.Discover(ctx, core.DiscoverQuery{
		GenreIDs: best.cluster.GenreIDs,
		Limit:    topK,
	})
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(metas))
	for _, meta := range metas {
		if shouldSkip(rctx, meta.ID) {
			continue
		}
		out = append(out, newCandidate(meta, best.weight, r.Name(), r.Group()))
	}
	return out, nil
}
