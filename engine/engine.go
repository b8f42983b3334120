// Package engine 是引擎门面：装配画像服务、召回编排、过滤链、混排器与缓存，
// 对外暴露信号接入、onboarding 种子、推荐查询、口味摘要与缓存失效。
package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/flickmate/tastekit/cache"
	"github.com/flickmate/tastekit/core"
	"github.com/flickmate/tastekit/filter"
	"github.com/flickmate/tastekit/ingest"
	"github.com/flickmate/tastekit/profile"
	"github.com/flickmate/tastekit/recall"
	"github.com/flickmate/tastekit/rerank"
	"github.com/flickmate/tastekit/store"
)

// MostLikedKey 是全局最多喜欢排行榜的 zset key（与召回侧一致）。
const MostLikedKey = recall.MostLikedKey

// ErrAllSourcesFailed 表示本次请求的所有召回策略都失败了（目录/存储整体不可用）。
// 缓存层会先尝试 last-good 降级，降级也失败才把该错误抛给调用方。
var ErrAllSourcesFailed = core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable, "engine: all recall sources failed")

// Deps 是引擎的外部依赖。
type Deps struct {
	// KV 承载画像计数器与排行榜（必填）。
	KV core.KeyValueStore

	// CacheStore 承载推荐结果缓存；为 nil 时复用 KV。
	CacheStore core.Store

	// Catalog 是只读内容目录（必填）。
	Catalog core.ContentCatalog

	// Aggregates 是预计算人群聚合（可选；为 nil 时不启用同好热捧策略）。
	Aggregates recall.AggregateSource

	// Logger 用于后台持久化失败等非致命事件（可选）。
	Logger *log.Logger
}

// Engine 对外提供推荐引擎的全部操作。
type Engine struct {
	cfg      *Config
	profiles *profile.Service
	catalog  core.ContentCatalog
	kv       core.KeyValueStore
	cache    *cache.RecommendationCache
	filters  *filter.Chain
	blender  *rerank.Blender

	contentSources []recall.Source
	collabSources  []recall.Source
	lowSources     []recall.Source

	worker *profile.Worker
}

// New 装配引擎。cfg 为 nil 时使用默认配置。
// 质量规则（CEL）在这里编译，非法表达式装配期即报错。
func New(cfg *Config, deps Deps) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cacheStore := deps.CacheStore
	if cacheStore == nil {
		cacheStore = deps.KV
	}

	e := &Engine{
		cfg:     cfg,
		catalog: deps.Catalog,
		kv:      deps.KV,
		cache:   cache.New(cacheStore, cfg.Cache.TTLSeconds),
		blender: &rerank.Blender{
			DiversityDenominator: cfg.Blend.DiversityDenominator,
			CollabWeightMedium:   cfg.Blend.CollabWeightMedium,
			CollabWeightHigh:     cfg.Blend.CollabWeightHigh,
		},
	}

	filters := []filter.Filter{&filter.SeenFilter{}}
	if len(cfg.Rules) > 0 {
		rf, err := filter.NewRulesFilter(cfg.Rules)
		if err != nil {
			return nil, err
		}
		filters = append(filters, rf)
	}
	e.filters = &filter.Chain{Filters: filters}

	if cfg.Persist.Async {
		e.worker = profile.NewWorker(cfg.Persist.AsyncQueueSize, cfg.Persist.Retries, 0, deps.Logger)
	}
	e.profiles = &profile.Service{
		Repo: store.NewProfileRepo(deps.KV),
		Updater: profile.Updater{
			DeliberateViewMs: cfg.DeliberateViewMs,
			RingCapacity:     cfg.RingCapacity,
		},
		Kappa:      cfg.Kappa,
		Thresholds: cfg.thresholds(),
		Retries:    cfg.Persist.Retries,
		Invalidate: func(ctx context.Context, userID string) {
			_ = e.cache.InvalidateUser(ctx, userID)
		},
		Async: e.worker,
	}

	e.buildSources(deps)
	return e, nil
}

// buildSources 构建三组召回策略集：低置信度子集、内容侧全集、协同侧。
func (e *Engine) buildSources(deps Deps) {
	kappa := e.cfg.Kappa

	genre := &recall.GenreRecall{Catalog: e.catalog, Kappa: kappa}
	hiddenGem := &recall.HiddenGemRecall{Catalog: e.catalog, Kappa: kappa}
	popular := &recall.PopularRecall{Catalog: e.catalog}

	// 低置信度：画像还撑不起个性化，只跑类型偏好 + 冷门高分 + 大盘热门
	e.lowSources = []recall.Source{genre, hiddenGem, popular}

	e.contentSources = []recall.Source{
		genre,
		&recall.SimilarToLikedRecall{Catalog: e.catalog},
		&recall.ActorRecall{Catalog: e.catalog, Kappa: kappa},
		&recall.DirectorRecall{Catalog: e.catalog, Kappa: kappa},
		&recall.MoodRecall{Catalog: e.catalog, Kappa: kappa},
		hiddenGem,
		&recall.ExplorationRecall{Catalog: e.catalog},
		popular,
	}

	e.collabSources = []recall.Source{
		&recall.TrendingRecall{Catalog: e.catalog},
	}
	if deps.Aggregates != nil {
		e.collabSources = append(e.collabSources, &recall.SimilarFansRecall{
			Aggregates: deps.Aggregates,
			Catalog:    e.catalog,
			Kappa:      kappa,
		})
	}
	if e.kv != nil {
		e.collabSources = append(e.collabSources, &recall.MostLikedRecall{
			Store:   e.kv,
			Catalog: e.catalog,
			Key:     MostLikedKey,
		})
	}
}

// IngestSwipe 接收一次原始滑动：规范化、折叠进画像并持久化、失效该用户缓存。
// 返回更新后的画像；持久化最终失败时包装 profile.ErrPersistFailed（画像仍已更新）。
func (e *Engine) IngestSwipe(ctx context.Context, raw ingest.RawSwipe) (*core.UserTasteProfile, error) {
	sig, err := ingest.Normalize(raw)
	if err != nil {
		return nil, err
	}

	p, applyErr := e.profiles.Apply(ctx, sig)

	// 喜欢信号顺带累积全局排行榜（尽力而为的热度统计，不参与画像正确性）。
	// 原子自增：多设备并发喜欢同一内容不丢计数。
	if applyErr == nil && sig.IsLike() && e.kv != nil {
		_, _ = e.kv.ZIncrBy(ctx, MostLikedKey, 1, sig.ContentID)
	}
	return p, applyErr
}

// SeedFromOnboarding 用 onboarding 选中的内容做一次性画像种子。
// 目录查不到的条目跳过不报错；重复调用幂等（不翻倍计数）。
func (e *Engine) SeedFromOnboarding(ctx context.Context, userID string, contentIDs []string) (*core.UserTasteProfile, error) {
	metas := make([]*core.ContentMeta, 0, len(contentIDs))
	for _, id := range contentIDs {
		meta, err := e.catalog.GetContent(ctx, id)
		if err != nil {
			continue
		}
		metas = append(metas, meta)
	}
	return e.profiles.Seed(ctx, userID, metas)
}

// RecommendRequest 是一次推荐查询。
type RecommendRequest struct {
	UserID string
	Limit  int
	Page   int // 从 1 开始

	// Exclude 是调用方的"本会话已见"集合。
	// 不参与缓存 key：缓存结果在返回前按它做后置过滤。
	Exclude []string
}

// Recommend 返回一页推荐。
// 缓存命中直接返回；未命中时跑完整管线（召回→过滤→混排）并落盘。
// 全部策略失败时先尝试 last-good 缓存降级，降级不可用才返回错误。
func (e *Engine) Recommend(ctx context.Context, req RecommendRequest) (*core.RecommendationResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}

	result, _, err := e.cache.GetOrBuild(ctx, req.UserID, limit, page, func(buildCtx context.Context) (*core.RecommendationResult, error) {
		return e.buildPage(buildCtx, req.UserID, limit, page)
	})
	if err != nil {
		// 连 last-good 降级都没有：给空的低置信度页，客户端照常渲染
		if errors.Is(err, ErrAllSourcesFailed) {
			return &core.RecommendationResult{
				Confidence:  core.ConfidenceLow,
				GeneratedAt: time.Now(),
			}, nil
		}
		return nil, err
	}
	return applySessionExclude(result, req.Exclude), nil
}

// GetRecommendations 是 Recommend 的便捷封装。
func (e *Engine) GetRecommendations(ctx context.Context, userID string, limit, page int) (*core.RecommendationResult, error) {
	return e.Recommend(ctx, RecommendRequest{UserID: userID, Limit: limit, Page: page})
}

// buildPage 跑一次完整推荐管线并产出第 page 页。
func (e *Engine) buildPage(ctx context.Context, userID string, limit, page int) (*core.RecommendationResult, error) {
	p, err := e.profiles.Get(ctx, userID)
	if err != nil {
		// 画像读失败按空画像走低置信度路径，推荐查询不因画像存储抖动而失败
		p = core.NewTasteProfile(userID)
	}
	conf := core.Classify(p, e.cfg.thresholds())

	rctx := &core.RecommendContext{
		UserID:     userID,
		Profile:    p,
		Confidence: conf,
		Limit:      limit,
		Page:       page,
	}

	fanout := &recall.Fanout{
		Sources:       e.sourcesFor(conf),
		Timeout:       e.cfg.recallTimeout(),
		MaxConcurrent: e.cfg.Recall.MaxConcurrent,
	}
	items, succeeded := fanout.Run(ctx, rctx)
	if succeeded == 0 {
		return nil, ErrAllSourcesFailed
	}

	kept := e.filters.Apply(ctx, rctx, items)

	// 分页：混排前 limit*page 个，切出当前页
	effective := limit * page
	recs := e.blender.Blend(rctx, kept, effective)
	offset := limit * (page - 1)
	if offset >= len(recs) {
		recs = nil
	} else {
		recs = recs[offset:]
	}

	return &core.RecommendationResult{
		Recommendations: recs,
		Confidence:      conf,
		GeneratedAt:     time.Now(),
	}, nil
}

// sourcesFor 是置信度门：low 只跑内容侧子集，medium/high 跑全集加协同侧。
func (e *Engine) sourcesFor(conf core.Confidence) []recall.Source {
	if conf == core.ConfidenceLow {
		return e.lowSources
	}
	out := make([]recall.Source, 0, len(e.contentSources)+len(e.collabSources))
	out = append(out, e.contentSources...)
	out = append(out, e.collabSources...)
	return out
}

// GetProfile 返回用户画像（不存在时为空画像）。
func (e *Engine) GetProfile(ctx context.Context, userID string) (*core.UserTasteProfile, error) {
	return e.profiles.Get(ctx, userID)
}

// GetTasteSummary 返回口味摘要，现算不缓存。
func (e *Engine) GetTasteSummary(ctx context.Context, userID string) (*core.TasteSummary, error) {
	return e.profiles.Summary(ctx, userID, e.cfg.SummaryTopN)
}

// InvalidateCache 失效该用户所有缓存页。
func (e *Engine) InvalidateCache(ctx context.Context, userID string) error {
	return e.cache.InvalidateUser(ctx, userID)
}

// Close 等待在途的后台持久化完成。
func (e *Engine) Close() {
	if e.worker != nil {
		e.worker.Close()
	}
}

// applySessionExclude 对（可能来自缓存的）结果做会话排除的后置过滤。
// 排除集不进缓存 key：同一用户不同会话共享缓存页。
func applySessionExclude(result *core.RecommendationResult, exclude []string) *core.RecommendationResult {
	if result == nil || len(exclude) == 0 || len(result.Recommendations) == 0 {
		return result
	}
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}
	kept := make([]core.Recommendation, 0, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		if _, ok := excluded[rec.ContentID]; ok {
			continue
		}
		kept = append(kept, rec)
	}
	out := *result
	out.Recommendations = kept
	return &out
}
