// Package feast 封装 Feast Feature Store 客户端，承载预计算的人群聚合特征。
//
// 人群聚合（"某类型粉丝最喜欢的内容"）由离线作业计算并物化到在线存储，
// 引擎请求期只做读取，从不在线计算跨用户统计。
//
// 参考：https://github.com/feast-dev/feast
package feast

import (
	"context"
	"time"
)

// Client 是 Feast 在线特征读取的客户端接口。
type Client interface {
	// GetOnlineFeatures 获取在线特征（用于实时推荐）
	//
	// 参数：
	//   - features: 特征名称列表，例如 ["genre_fans_stats:top_content_ids"]
	//   - entityRows: 实体行，例如 [{"genre_id": "28"}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表，例如 ["genre_fans_stats:top_content_ids", "genre_fans_stats:like_ratios"]
	Features []string

	// EntityRows 实体行，例如 [{"genre_id": "28"}, {"genre_id": "35"}]
	EntityRows []map[string]interface{}

	// Project 项目名称（可选）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 特征向量列表，每个元素对应一个实体行
	FeatureVectors []FeatureVector
}

// FeatureVector 特征向量
type FeatureVector struct {
	// Values 特征值，key 为特征名称
	Values map[string]interface{}

	// EntityRow 对应的实体行
	EntityRow map[string]interface{}
}

// ClientOption 客户端配置选项
type ClientOption func(*ClientConfig)

// ClientConfig 客户端配置
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration

	// Auth 认证信息（static Token 认证用）
	Auth *AuthConfig
}

// AuthConfig 认证配置
type AuthConfig struct {
	// Type 认证类型，目前支持 "static"（gRPC 静态 Token）
	Type  string
	Token string
}

// WithTimeout 配置选项：设置超时时间
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithAuth 配置选项：设置认证信息
func WithAuth(auth *AuthConfig) ClientOption {
	return func(c *ClientConfig) {
		c.Auth = auth
	}
}
