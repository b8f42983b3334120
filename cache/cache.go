// Package cache 实现推荐结果缓存：TTL、singleflight 合并并发构建、按用户前缀失效。
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/flickmate/tastekit/core"
)

// DefaultTTLSeconds 是推荐结果的默认缓存时长（1 小时）。
const DefaultTTLSeconds = 3600

// BuildFunc 是缓存未命中时的构建函数。
type BuildFunc func(ctx context.Context) (*core.RecommendationResult, error)

// RecommendationCache 缓存整页推荐结果。
//
// key 形如 "rec:{userID}:{limit}:{page}"；同一 key 的并发未命中通过
// singleflight 合并成一次构建。穿过合并闸门的构建使用脱离调用方的
// context：首个调用方取消不应拖垮共享这次构建的其他等待者。
type RecommendationCache struct {
	Store      core.Store
	TTLSeconds int

	// BuildTimeout 限制脱离 context 后的构建时长，默认 10s。
	BuildTimeout time.Duration

	group singleflight.Group
}

func New(store core.Store, ttlSeconds int) *RecommendationCache {
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultTTLSeconds
	}
	return &RecommendationCache{Store: store, TTLSeconds: ttlSeconds}
}

func userPrefix(userID string) string { return "rec:" + userID + ":" }

func cacheKey(userID string, limit, page int) string {
	return userPrefix(userID) + strconv.Itoa(limit) + ":" + strconv.Itoa(page)
}

// GetOrBuild 命中即返回缓存结果；未命中时构建、落盘并返回。
// 构建失败时尝试读最近一次成功结果（可能已过 TTL 之前写入的 last-good 副本）。
func (c *RecommendationCache) GetOrBuild(
	ctx context.Context,
	userID string,
	limit, page int,
	build BuildFunc,
) (*core.RecommendationResult, bool, error) {
	key := cacheKey(userID, limit, page)

	if cached, err := c.load(ctx, key); err == nil {
		return cached, true, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// 闸门内二次检查：等待期间别的调用方可能已经落盘
		if cached, err := c.load(ctx, key); err == nil {
			return cached, nil
		}

		timeout := c.BuildTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		result, err := build(buildCtx)
		if err != nil {
			return nil, err
		}
		c.save(buildCtx, key, result)
		return result, nil
	})
	if err != nil {
		// 构建失败时降级读 last-good 副本
		if stale, staleErr := c.loadLastGood(ctx, key); staleErr == nil {
			return stale, true, nil
		}
		return nil, false, err
	}
	return v.(*core.RecommendationResult), false, nil
}

// InvalidateUser 删除该用户所有 limit/page 组合的缓存页。
// last-good 副本一并删除：画像已变，旧结果不再是合理降级。
func (c *RecommendationCache) InvalidateUser(ctx context.Context, userID string) error {
	if err := c.Store.DeleteByPrefix(ctx, userPrefix(userID)); err != nil {
		return core.NewDomainError(core.ModuleCache, core.ErrorCodeUnavailable, "cache: invalidate failed: "+err.Error())
	}
	return nil
}

func (c *RecommendationCache) load(ctx context.Context, key string) (*core.RecommendationResult, error) {
	raw, err := c.Store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var result core.RecommendationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, core.NewDomainError(core.ModuleCache, core.ErrorCodeInternalError, "cache: corrupt entry")
	}
	return &result, nil
}

// loadLastGood 读无 TTL 的 last-good 副本。
func (c *RecommendationCache) loadLastGood(ctx context.Context, key string) (*core.RecommendationResult, error) {
	return c.load(ctx, key+":last")
}

// save 写 TTL 条目和 last-good 副本；写失败只影响命中率，不影响本次结果。
func (c *RecommendationCache) save(ctx context.Context, key string, result *core.RecommendationResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = c.Store.Set(ctx, key, raw, c.TTLSeconds)
	_ = c.Store.Set(ctx, key+":last", raw)
}
