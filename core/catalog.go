package core

import (
	"context"
	"strconv"
)

// ContentMeta 是外部内容目录返回的单条元数据。
type ContentMeta struct {
	ID          string
	Type        ContentType
	Title       string
	PosterPath  string
	VoteAverage float64
	Popularity  float64
	ReleaseYear int
	GenreIDs    []string
	CastIDs     []string
	DirectorID  string
	CastNames   map[string]string // personID -> 展示名（解释文案用，可为空）
	GenreNames  map[string]string // genreID -> 展示名
}

// Decade 返回内容所属年代，如 1994 -> "1990"。
func (m *ContentMeta) Decade() string {
	if m.ReleaseYear <= 0 {
		return ""
	}
	return strconv.Itoa(m.ReleaseYear / 10 * 10)
}

// HasGenre 判断内容是否包含指定类型。
func (m *ContentMeta) HasGenre(genreID string) bool {
	for _, g := range m.GenreIDs {
		if g == genreID {
			return true
		}
	}
	return false
}

// PrimaryGenre 返回首个类型 ID（多样性配额按主类型计）。
func (m *ContentMeta) PrimaryGenre() string {
	if len(m.GenreIDs) == 0 {
		return ""
	}
	return m.GenreIDs[0]
}

// DiscoverQuery 是目录发现式查询：按类型/评分/热度/年代过滤。
// 零值字段不参与过滤。
type DiscoverQuery struct {
	GenreIDs       []string // 任一命中即可
	CastIDs        []string
	DirectorIDs    []string
	MinVoteAverage float64
	MaxPopularity  float64 // >0 时生效（冷门高分挖掘用）
	YearFrom       int
	YearTo         int
	Limit          int
}

// ContentCatalog 是只读内容目录的端口。
// 引擎把它当作带限流与自有缓存的远端服务：失败按策略局部处理，从不致命。
type ContentCatalog interface {
	// GetContent 按 id 获取元数据；不存在返回 ErrCatalogNotFound。
	GetContent(ctx context.Context, contentID string) (*ContentMeta, error)

	// Discover 按条件查询，结果按 Popularity 降序。
	Discover(ctx context.Context, q DiscoverQuery) ([]*ContentMeta, error)

	// Trending 返回目录侧的近期热门（全量人群信号）。
	Trending(ctx context.Context, limit int) ([]*ContentMeta, error)
}

// ErrCatalogNotFound 表示目录中不存在该内容。
var ErrCatalogNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: content not found")
