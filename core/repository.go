package core

import "context"

// CounterDeltas 是一次画像更新要应用的计数器增量。
// field 命名约定（与存储字段一一对应）：
//   - "behavior:total_swipes" / "behavior:total_likes" / "behavior:total_dislikes" /
//     "behavior:quick_decisions" / "behavior:rated_likes"
//   - "genre:{id}:like" / "genre:{id}:total"
//   - "actor:{id}:like" / "actor:{id}:total"
//   - "director:{id}:like" / "director:{id}:total"
//   - "decade:{decade}"
type CounterDeltas map[string]int64

// Add 累加一个字段的增量。
func (d CounterDeltas) Add(field string, delta int64) {
	d[field] += delta
}

// ProfileRepository 是画像持久化的端口。
//
// 契约：
//   - 计数器一律通过 IncrCounters 以原子自增落盘（可交换，乱序到达不影响终值），
//     多设备并发滑动不会互相覆盖；
//   - 非计数聚合（环形缓冲、均值、更新时间）通过 SaveMeta 整体写入，
//     last-writer-wins，可接受（它们本身就是"最近状态"语义）。
type ProfileRepository interface {
	// Load 读取画像；不存在返回 ErrProfileNotFound。
	Load(ctx context.Context, userID string) (*UserTasteProfile, error)

	// IncrCounters 原子应用一批计数器增量。
	IncrCounters(ctx context.Context, userID string, deltas CounterDeltas) error

	// SaveMeta 持久化画像的非计数部分。
	SaveMeta(ctx context.Context, userID string, p *UserTasteProfile) error
}

// ErrProfileNotFound 表示该用户还没有画像（不是错误场景，调用侧按空画像处理）。
var ErrProfileNotFound = NewDomainError(ModuleProfile, ErrorCodeNotFound, "profile: not found")
