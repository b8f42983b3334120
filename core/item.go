package core

import "github.com/flickmate/tastekit/pkg/utils"

// Item 是推荐链路中的统一候选结构：目录元信息、策略原始分、标签。
// Labels 记录候选来自哪个策略，用于解释与去重仲裁；Score 是策略本地分。
type Item struct {
	ID     string
	Score  float64
	Meta   *ContentMeta
	Labels map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Score:  0,
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Label 读取 Label 的 Value；不存在时返回空串。
func (it *Item) Label(key string) string {
	if it.Labels == nil {
		return ""
	}
	return it.Labels[key].Value
}

// SetLabel 覆盖写入 Label（不做 Merge），用于去重仲裁后锁定获胜策略。
func (it *Item) SetLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	it.Labels[key] = lbl
}
