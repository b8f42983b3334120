// Package tastekit 是一个滑动信号驱动的影视口味画像与推荐引擎。
//
// 设计要点：
// - Signal-first: 每次左滑/右滑折叠进画像计数器，分数读取时按贝叶斯平滑现算
// - 置信度门控: 画像成熟度（low/medium/high）决定策略集合与协同信号权重
// - 可解释: 候选全链路携带召回来源标签，最终推荐附带人类可读理由
package tastekit

import "github.com/flickmate/tastekit/engine"

// 轻量 facade：便于用户直接 import "tastekit" 使用引擎入口。
type Engine = engine.Engine
type Config = engine.Config
type Deps = engine.Deps

var (
	New           = engine.New
	DefaultConfig = engine.DefaultConfig
	LoadConfig    = engine.LoadConfig
)
