package recall

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flickmate/tastekit/core"
)

// Fanout 并发执行多个召回策略并合并结果。
// 支持每策略超时与最大并发数；单个策略失败/超时降级为空结果，不中断其他策略。
type Fanout struct {
	Sources       []Source
	Timeout       time.Duration // 每个策略的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
}

// Run 返回所有策略的候选并集（不去重，去重仲裁交给混排器），
// 以及成功产出过候选的策略数（全部失败时调用方走缓存兜底）。
func (n *Fanout) Run(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, int) {
	if len(n.Sources) == 0 {
		return nil, 0
	}

	var (
		mu        sync.Mutex
		all       []*core.Item
		succeeded int
		eg, _     = errgroup.WithContext(ctx)
	)

	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for _, src := range n.Sources {
		s := src
		eg.Go(func() error {
			recallCtx := ctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
				defer cancel()
			}

			items, err := s.Recall(recallCtx, rctx)
			if err != nil {
				// 超时或错误时返回空结果，不中断其他策略
				return nil
			}

			mu.Lock()
			succeeded++
			all = append(all, items...)
			mu.Unlock()
			return nil
		})
	}

	_ = eg.Wait()
	return all, succeeded
}
