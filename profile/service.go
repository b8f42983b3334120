package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/flickmate/tastekit/core"
)

// ErrPersistFailed 表示画像写入在重试后仍未落盘。
// 非致命：本次请求使用的本地画像已更新，但调用方需要知道持久化没有成功。
var ErrPersistFailed = core.NewDomainError(core.ModuleProfile, core.ErrorCodeUnavailable, "profile: persist failed after retries")

// InvalidateFunc 是画像更新后的缓存失效钩子（engine 注入推荐缓存的按用户失效）。
type InvalidateFunc func(ctx context.Context, userID string)

// Service 是画像存储服务：对外暴露读取与"应用信号"两类操作。
//
// 所有变更表达为"把纯函数 Updater 应用到当前画像并持久化"，
// 计数器走 ProfileRepository.IncrCounters 的原子自增路径，
// 并发多设备信号不会互相丢更新。成功更新后必须触发该用户的缓存失效。
type Service struct {
	Repo    core.ProfileRepository
	Updater Updater

	// Kappa 是贝叶斯平滑强度 κ。
	Kappa float64

	// Thresholds 是置信度分层阈值。
	Thresholds core.ConfidenceThresholds

	// Retries 是持久化的有界重试次数（不含首次尝试）。
	Retries int

	// Invalidate 在每次成功应用信号后调用（可为 nil）。
	Invalidate InvalidateFunc

	// Async 非空时持久化转后台提交，同步路径不阻塞在远端写上。
	Async *Worker
}

// Get 读取画像；不存在时返回空画像（缺失画像不是错误）。
func (s *Service) Get(ctx context.Context, userID string) (*core.UserTasteProfile, error) {
	p, err := s.Repo.Load(ctx, userID)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewTasteProfile(userID), nil
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// Apply 把一条规范化信号折叠进画像并持久化。
// 返回更新后的画像；持久化最终失败时画像仍已更新，错误包装 ErrPersistFailed。
func (s *Service) Apply(ctx context.Context, sig *core.SwipeSignal) (*core.UserTasteProfile, error) {
	if sig == nil || sig.UserID == "" {
		return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodeInvalidInput, "profile: nil or anonymous signal")
	}

	p, err := s.Get(ctx, sig.UserID)
	if err != nil {
		// 读失败不阻断信号：以空画像为基线应用，增量照常落盘
		p = core.NewTasteProfile(sig.UserID)
	}

	deltas, applied := s.Updater.Apply(p, sig)
	if !applied {
		return p, nil
	}

	persistErr := s.persist(ctx, sig.UserID, deltas, p)

	// 画像已变，旧的个性化列表比缓存未命中更糟：失效先于返回
	if s.Invalidate != nil {
		s.Invalidate(ctx, sig.UserID)
	}
	if persistErr != nil {
		return p, fmt.Errorf("%w: %w", ErrPersistFailed, persistErr)
	}
	return p, nil
}

// Seed 用 onboarding 选中的内容做一次性画像种子。
// 每个条目按 direction=like 的高参与度合成信号应用同一个 Updater；
// 幂等由 Updater 的 recentLiked 成员检查保证，重复种子不会翻倍计数。
func (s *Service) Seed(ctx context.Context, userID string, metas []*core.ContentMeta) (*core.UserTasteProfile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		p = core.NewTasteProfile(userID)
	}

	now := time.Now()
	merged := make(core.CounterDeltas)
	changed := false

	for _, meta := range metas {
		if meta == nil || meta.ID == "" {
			continue
		}
		sig := seedSignal(userID, meta, now)
		deltas, applied := s.Updater.Apply(p, sig)
		if !applied {
			continue
		}
		changed = true
		for f, d := range deltas {
			merged.Add(f, d)
		}
	}

	if !changed {
		return p, nil
	}

	persistErr := s.persist(ctx, userID, merged, p)
	if s.Invalidate != nil {
		s.Invalidate(ctx, userID)
	}
	if persistErr != nil {
		return p, fmt.Errorf("%w: %w", ErrPersistFailed, persistErr)
	}
	return p, nil
}

// Summary 计算口味摘要：各维度按平滑分数降序取 TopN，分数相同按样本量。
// 现算不缓存（画像/分析页要求反映最新画像）。
func (s *Service) Summary(ctx context.Context, userID string, topN int) (*core.TasteSummary, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if topN <= 0 {
		topN = 5
	}
	prior := p.Behavior.LikeRate()
	return &core.TasteSummary{
		TopGenres:    copyAffinities(core.TopAffinities(p.Preferences.GenreAffinities, topN, s.Kappa, prior)),
		TopActors:    copyAffinities(core.TopAffinities(p.Preferences.ActorAffinities, topN, s.Kappa, prior)),
		TopDirectors: copyAffinities(core.TopAffinities(p.Preferences.DirectorAffinities, topN, s.Kappa, prior)),
		Confidence:   core.Classify(p, s.Thresholds),
	}, nil
}

// persist 落盘增量与非计数聚合；Async 配置时转后台，否则同步有界重试。
func (s *Service) persist(ctx context.Context, userID string, deltas core.CounterDeltas, p *core.UserTasteProfile) error {
	if s.Async != nil {
		ok := s.Async.Submit("profile:"+userID, func(jobCtx context.Context) error {
			if err := s.persistOnce(jobCtx, userID, deltas, p); err != nil {
				return err
			}
			// 落盘成功后再失效一次：异步窗口内按旧画像重建的缓存页不能存活整个 TTL
			if s.Invalidate != nil {
				s.Invalidate(jobCtx, userID)
			}
			return nil
		})
		if !ok {
			// 队列关闭/打满时退回同步路径，信号不丢
			return s.persistWithRetry(ctx, userID, deltas, p)
		}
		return nil
	}
	return s.persistWithRetry(ctx, userID, deltas, p)
}

func (s *Service) persistWithRetry(ctx context.Context, userID string, deltas core.CounterDeltas, p *core.UserTasteProfile) error {
	var err error
	for attempt := 0; attempt <= s.Retries; attempt++ {
		if err = s.persistOnce(ctx, userID, deltas, p); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (s *Service) persistOnce(ctx context.Context, userID string, deltas core.CounterDeltas, p *core.UserTasteProfile) error {
	if len(deltas) > 0 {
		if err := s.Repo.IncrCounters(ctx, userID, deltas); err != nil {
			return fmt.Errorf("incr counters: %w", err)
		}
	}
	if err := s.Repo.SaveMeta(ctx, userID, p); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}

// seedSignal 合成一条高参与度的种子信号。
func seedSignal(userID string, meta *core.ContentMeta, at time.Time) *core.SwipeSignal {
	return &core.SwipeSignal{
		UserID:      userID,
		ContentID:   meta.ID,
		ContentType: meta.Type,
		Direction:   core.SwipeLike,
		Features: core.SignalFeatures{
			GenreIDs:     meta.GenreIDs,
			PrimaryGenre: meta.PrimaryGenre(),
			ActorIDs:     meta.CastIDs,
			DirectorID:   meta.DirectorID,
		},
		Snapshot: core.ContentSnapshot{
			VoteAverage:     meta.VoteAverage,
			ReleaseYear:     meta.ReleaseYear,
			PopularityScore: meta.Popularity,
		},
		Engagement: core.Engagement{
			ViewDurationMs: 5000,
			CardExpanded:   true,
		},
		OccurredAt: at,
		Seeded:     true,
	}
}

func copyAffinities(in []*core.AffinityScore) []core.AffinityScore {
	out := make([]core.AffinityScore, 0, len(in))
	for _, a := range in {
		out = append(out, *a)
	}
	return out
}
