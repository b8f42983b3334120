// Package catalog 提供 core.ContentCatalog 的实现。
package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/flickmate/tastekit/core"
)

// MemoryCatalog 是内存实现的内容目录，用于测试/开发/预加载的小目录。
// 生产环境通常换成远端目录服务的适配器。
type MemoryCatalog struct {
	mu    sync.RWMutex
	metas map[string]*core.ContentMeta
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{metas: make(map[string]*core.ContentMeta)}
}

var _ core.ContentCatalog = (*MemoryCatalog)(nil)

// Put 写入或覆盖一条内容元数据。
func (c *MemoryCatalog) Put(meta *core.ContentMeta) {
	if meta == nil || meta.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metas[meta.ID] = meta
}

// PutAll 批量写入。
func (c *MemoryCatalog) PutAll(metas []*core.ContentMeta) {
	for _, m := range metas {
		c.Put(m)
	}
}

func (c *MemoryCatalog) GetContent(ctx context.Context, contentID string) (*core.ContentMeta, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	meta, ok := c.metas[contentID]
	if !ok {
		return nil, core.ErrCatalogNotFound
	}
	return meta, nil
}

// Discover 线性扫描 + 过滤，结果按 Popularity 降序（同热度按 ID 字典序，保证确定性）。
func (c *MemoryCatalog) Discover(ctx context.Context, q core.DiscoverQuery) ([]*core.ContentMeta, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*core.ContentMeta, 0)
	for _, meta := range c.metas {
		if !matches(meta, q) {
			continue
		}
		out = append(out, meta)
	}
	sortByPopularity(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (c *MemoryCatalog) Trending(ctx context.Context, limit int) ([]*core.ContentMeta, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*core.ContentMeta, 0, len(c.metas))
	for _, meta := range c.metas {
		out = append(out, meta)
	}
	sortByPopularity(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matches(meta *core.ContentMeta, q core.DiscoverQuery) bool {
	if len(q.GenreIDs) > 0 && !anyGenre(meta, q.GenreIDs) {
		return false
	}
	if len(q.CastIDs) > 0 && !anyCast(meta, q.CastIDs) {
		return false
	}
	if len(q.DirectorIDs) > 0 && !anyDirector(meta, q.DirectorIDs) {
		return false
	}
	if q.MinVoteAverage > 0 && meta.VoteAverage < q.MinVoteAverage {
		return false
	}
	if q.MaxPopularity > 0 && meta.Popularity > q.MaxPopularity {
		return false
	}
	if q.YearFrom > 0 && meta.ReleaseYear < q.YearFrom {
		return false
	}
	if q.YearTo > 0 && meta.ReleaseYear > q.YearTo {
		return false
	}
	return true
}

func anyGenre(meta *core.ContentMeta, genreIDs []string) bool {
	for _, g := range genreIDs {
		if meta.HasGenre(g) {
			return true
		}
	}
	return false
}

func anyCast(meta *core.ContentMeta, castIDs []string) bool {
	for _, want := range castIDs {
		for _, c := range meta.CastIDs {
			if c == want {
				return true
			}
		}
	}
	return false
}

func anyDirector(meta *core.ContentMeta, directorIDs []string) bool {
	for _, d := range directorIDs {
		if meta.DirectorID == d {
			return true
		}
	}
	return false
}

func sortByPopularity(metas []*core.ContentMeta) {
	sort.Slice(metas, func(i, j int) bool {
		if metas[i].Popularity != metas[j].Popularity {
			return metas[i].Popularity > metas[j].Popularity
		}
		return metas[i].ID < metas[j].ID
	})
}
