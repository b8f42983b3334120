package recall

import (
	"context"

	"github.com/flickmate/tastekit/core"
)

// ActorRecall 是演员亲和度召回：取平滑分最高的几位演员，按出演内容查询目录。
type ActorRecall struct {
	Catalog core.ContentCatalog

	// TopActors 参与召回的演员数（默认 3）
	TopActors int

	// PerActor 每位演员召回的候选数（默认 8）
	PerActor int

	Kappa float64
}

func (r *ActorRecall) Name() string  { return "recall.actor" }
func (r *ActorRecall) Group() string { return GroupContent }

func (r *ActorRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil || rctx.Profile == nil {
		return nil, nil
	}
	topActors := r.TopActors
	if topActors <= 0 {
		topActors = 3
	}
	perActor := r.PerActor
	if perActor <= 0 {
		perActor = 8
	}

	prior := rctx.Profile.Behavior.LikeRate()
	actors := core.TopAffinities(rctx.Profile.Preferences.ActorAffinities, topActors, r.Kappa, prior)
	if len(actors) == 0 {
		return nil, nil
	}

	out := make([]*core.Item, 0, len(actors)*perActor)
	for _, a := range actors {
		metas, err := r.Catalog.Discover(ctx, core.DiscoverQuery{
			CastIDs: []string{a.ID},
			Limit:   perActor,
		})
		if err != nil {
			continue
		}
		score := a.Score(r.Kappa, prior)
		for _, meta := range metas {
			if shouldSkip(rctx, meta.ID) {
				continue
			}
			out = append(out, newCandidate(meta, score, r.Name(), r.Group()))
		}
	}
	return out, nil
}

// DirectorRecall 是导演亲和度召回，与 ActorRecall 同构。
type DirectorRecall struct {
	Catalog core.ContentCatalog

	// TopDirectors 参与召回的导演数（默认 2）
	TopDirectors int

	// PerDirector 每位导演召回的候选数（默认 8）
	PerDirector int

	Kappa float64
}

func (r *DirectorRecall) Name() string  { return "recall.director" }
func (r *DirectorRecall) Group() string { return GroupContent }

func (r *DirectorRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil || rctx.Profile == nil {
		return nil, nil
	}
	topDirectors := r.TopDirectors
	if topDirectors <= 0 {
		topDirectors = 2
	}
	perDirector := r.PerDirector
	if perDirector <= 0 {
		perDirector = 8
	}

	prior := rctx.Profile.Behavior.LikeRate()
	directors := core.TopAffinities(rctx.Profile.Preferences.DirectorAffinities, topDirectors, r.Kappa, prior)
	if len(directors) == 0 {
		return nil, nil
	}

	out := make([]*core.Item, 0, len(directors)*perDirector)
	for _, d := range directors {
		metas, err := r.Catalog.Discover(ctx, core.DiscoverQuery{
			DirectorIDs: []string{d.ID},
			Limit:       perDirector,
		})
		if err != nil {
			continue
		}
		score := d.Score(r.Kappa, prior)
		for _, meta := range metas {
			if shouldSkip(rctx, meta.ID) {
				continue
			}
			out = append(out, newCandidate(meta, score, r.Name(), r.Group()))
		}
	}
	return out, nil
}
