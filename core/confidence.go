package core

// Confidence 是画像成熟度分层，控制下游策略集合与协同权重。
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ConfidenceThresholds 是分层阈值：TotalSwipes < Medium 为 low，< High 为 medium，否则 high。
type ConfidenceThresholds struct {
	Medium int64
	High   int64
}

// DefaultConfidenceThresholds 是默认阈值（可在 engine.Config 中覆盖）。
var DefaultConfidenceThresholds = ConfidenceThresholds{Medium: 10, High: 50}

// Classify 是置信度门：纯函数，每次请求现算（足够便宜且必须反映最新画像）。
// nil 画像等价于空画像，返回 low。
func Classify(p *UserTasteProfile, t ConfidenceThresholds) Confidence {
	if t.Medium <= 0 {
		t = DefaultConfidenceThresholds
	}
	if p == nil || p.Behavior.TotalSwipes < t.Medium {
		return ConfidenceLow
	}
	if p.Behavior.TotalSwipes < t.High {
		return ConfidenceMedium
	}
	return ConfidenceHigh
}
