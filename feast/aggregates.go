package feast

import (
	"context"
	"strconv"

	"github.com/flickmate/tastekit/pkg/conv"
	"github.com/flickmate/tastekit/recall"
)

// 人群聚合特征视图的默认口径：
// 实体是类型 ID，特征是该类型粉丝群喜欢率最高的内容列表（与喜欢率并列对齐）。
const (
	DefaultEntityName       = "genre_id"
	DefaultContentIDFeature = "genre_fans_stats:top_content_ids"
	DefaultLikeRatioFeature = "genre_fans_stats:like_ratios"
)

// GenreAggregates 把 Feast 在线特征读取适配成 recall.AggregateSource。
//
// 离线作业按类型聚合"该类型粉丝喜欢率最高的内容"并物化到在线存储，
// 这里每次按单个类型实体读一行特征。
type GenreAggregates struct {
	Client Client

	// EntityName / ContentIDFeature / LikeRatioFeature 允许覆盖特征视图口径，
	// 为空时使用默认值。
	EntityName       string
	ContentIDFeature string
	LikeRatioFeature string
}

func NewGenreAggregates(client Client) *GenreAggregates {
	return &GenreAggregates{Client: client}
}

var _ recall.AggregateSource = (*GenreAggregates)(nil)

// TopLikedByGenre 读取某类型粉丝群的聚合，按喜欢率降序（由离线作业保证）。
func (g *GenreAggregates) TopLikedByGenre(ctx context.Context, genreID string, limit int) ([]recall.AggregateItem, error) {
	entity := g.EntityName
	if entity == "" {
		entity = DefaultEntityName
	}
	idFeature := g.ContentIDFeature
	if idFeature == "" {
		idFeature = DefaultContentIDFeature
	}
	ratioFeature := g.LikeRatioFeature
	if ratioFeature == "" {
		ratioFeature = DefaultLikeRatioFeature
	}

	resp, err := g.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   []string{idFeature, ratioFeature},
		EntityRows: []map[string]interface{}{{entity: genreID}},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.FeatureVectors) == 0 {
		return nil, nil
	}

	values := resp.FeatureVectors[0].Values
	ids := stringList(values[idFeature])
	ratios := floatList(values[ratioFeature])
	if len(ids) == 0 {
		return nil, nil
	}

	out := make([]recall.AggregateItem, 0, len(ids))
	for i, id := range ids {
		if limit > 0 && len(out) >= limit {
			break
		}
		ratio := 0.0
		if i < len(ratios) {
			ratio = ratios[i]
		}
		out = append(out, recall.AggregateItem{ContentID: id, LikeRatio: ratio})
	}
	return out, nil
}

// stringList / floatList 兼容不同客户端实现的列表取值口径：
// gRPC 客户端给原生切片（ID 可能物化为 int64 列表），HTTP-JSON 一类实现常给 []any。
func stringList(v interface{}) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []int64:
		return conv.ConvertSlice(val, func(n int64) (string, bool) {
			return strconv.FormatInt(n, 10), true
		})
	}
	return conv.SliceAnyToString(v)
}

func floatList(v interface{}) []float64 {
	switch val := v.(type) {
	case []float64:
		return val
	case []int64:
		return conv.ConvertSlice(val, func(n int64) (float64, bool) {
			return float64(n), true
		})
	case []any:
		return conv.ConvertSlice(val, conv.ToFloat64)
	}
	return nil
}
