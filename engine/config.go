package engine

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flickmate/tastekit/core"
)

// Config 是引擎的全量可调参数，YAML 装配。
// 所有字段都有合理默认值，零值配置可直接运行。
type Config struct {
	// Kappa 是贝叶斯平滑强度 κ。
	Kappa float64 `yaml:"kappa"`

	// DeliberateViewMs 是"深思熟虑滑动"的停留时长阈值（毫秒）。
	DeliberateViewMs int64 `yaml:"deliberate_view_ms"`

	// RingCapacity 是 recentLiked/recentDisliked 环形缓冲容量。
	RingCapacity int `yaml:"ring_capacity"`

	Confidence ConfidenceConfig `yaml:"confidence"`
	Persist    PersistConfig    `yaml:"persist"`
	Cache      CacheConfig      `yaml:"cache"`
	Recall     RecallConfig     `yaml:"recall"`
	Blend      BlendConfig      `yaml:"blend"`

	// Rules 是候选质量规则（CEL 表达式），任一为 false 即过滤。
	// 例："item.vote_average >= 5.0"
	Rules []string `yaml:"rules"`

	// DefaultLimit 是未指定 limit 时的页大小。
	DefaultLimit int `yaml:"default_limit"`

	// SummaryTopN 是口味摘要每个维度的条目数。
	SummaryTopN int `yaml:"summary_top_n"`
}

// ConfidenceConfig 是置信度分层阈值。
type ConfidenceConfig struct {
	Medium int64 `yaml:"medium"`
	High   int64 `yaml:"high"`
}

// PersistConfig 是画像持久化配置。
type PersistConfig struct {
	// Retries 是同步持久化的有界重试次数（不含首次尝试）。
	Retries int `yaml:"retries"`

	// Async 为 true 时持久化走后台队列，信号路径不阻塞在远端写上。
	Async bool `yaml:"async"`

	// AsyncQueueSize 是后台队列容量（Async 为 true 时生效）。
	AsyncQueueSize int `yaml:"async_queue_size"`
}

// CacheConfig 是推荐缓存配置。
type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

// RecallConfig 是召回编排配置。
type RecallConfig struct {
	TimeoutMs     int `yaml:"timeout_ms"`
	MaxConcurrent int `yaml:"max_concurrent"`
}

// BlendConfig 是混排配置。
type BlendConfig struct {
	DiversityDenominator int     `yaml:"diversity_denominator"`
	CollabWeightMedium   float64 `yaml:"collab_weight_medium"`
	CollabWeightHigh     float64 `yaml:"collab_weight_high"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		Kappa:            2,
		DeliberateViewMs: 2500,
		RingCapacity:     core.RecentRingCapacity,
		Confidence: ConfidenceConfig{
			Medium: core.DefaultConfidenceThresholds.Medium,
			High:   core.DefaultConfidenceThresholds.High,
		},
		Persist: PersistConfig{
			Retries: 2,
		},
		Cache: CacheConfig{
			TTLSeconds: 3600,
		},
		Recall: RecallConfig{
			TimeoutMs:     5000,
			MaxConcurrent: 6,
		},
		Blend: BlendConfig{
			DiversityDenominator: 4,
			CollabWeightMedium:   0.5,
			CollabWeightHigh:     0.8,
		},
		DefaultLimit: 20,
		SummaryTopN:  5,
	}
}

// LoadConfig 从 YAML 文件加载配置，未出现的字段保持默认值。
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig 解析 YAML 配置。
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) recallTimeout() time.Duration {
	if c.Recall.TimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Recall.TimeoutMs) * time.Millisecond
}

func (c *Config) thresholds() core.ConfidenceThresholds {
	t := core.ConfidenceThresholds{Medium: c.Confidence.Medium, High: c.Confidence.High}
	if t.Medium <= 0 {
		t = core.DefaultConfidenceThresholds
	}
	return t
}
