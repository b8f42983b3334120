package recall

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flickmate/tastekit/core"
)

type fakeSource struct {
	name  string
	group string
	items []*core.Item
	err   error
	delay time.Duration
}

func (f *fakeSource) Name() string  { return f.name }
func (f *fakeSource) Group() string { return f.group }

func (f *fakeSource) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func itemWith(id string) *core.Item {
	it := core.NewItem(id)
	it.Meta = &core.ContentMeta{ID: id}
	return it
}

func TestFanoutMergesAllSources(t *testing.T) {
	f := &Fanout{
		Sources: []Source{
			&fakeSource{name: "a", group: GroupContent, items: []*core.Item{itemWith("c1"), itemWith("c2")}},
			&fakeSource{name: "b", group: GroupContent, items: []*core.Item{itemWith("c3")}},
		},
		Timeout: time.Second,
	}
	items, succeeded := f.Run(context.Background(), &core.RecommendContext{UserID: "u1"})
	if succeeded != 2 {
		t.Errorf("succeeded = %d, want 2", succeeded)
	}
	if len(items) != 3 {
		t.Errorf("items = %d, want union of 3", len(items))
	}
}

func TestFanoutDegradesFailedSource(t *testing.T) {
	f := &Fanout{
		Sources: []Source{
			&fakeSource{name: "ok", group: GroupContent, items: []*core.Item{itemWith("c1")}},
			&fakeSource{name: "broken", group: GroupContent, err: errors.New("catalog down")},
		},
		Timeout: time.Second,
	}
	items, succeeded := f.Run(context.Background(), &core.RecommendContext{UserID: "u1"})
	if succeeded != 1 {
		t.Errorf("succeeded = %d, want failed source excluded", succeeded)
	}
	if len(items) != 1 || items[0].ID != "c1" {
		t.Errorf("items = %v, want only healthy source output", items)
	}
}

func TestFanoutTimesOutSlowSource(t *testing.T) {
	f := &Fanout{
		Sources: []Source{
			&fakeSource{name: "fast", group: GroupContent, items: []*core.Item{itemWith("c1")}},
			&fakeSource{name: "slow", group: GroupContent, delay: 2 * time.Second, items: []*core.Item{itemWith("c2")}},
		},
		Timeout: 50 * time.Millisecond,
	}

	start := time.Now()
	items, succeeded := f.Run(context.Background(), &core.RecommendContext{UserID: "u1"})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Run took %v, slow source not cut off", elapsed)
	}
	if succeeded != 1 || len(items) != 1 {
		t.Errorf("succeeded=%d items=%d, want slow source degraded to empty", succeeded, len(items))
	}
}

func TestFanoutAllFailed(t *testing.T) {
	f := &Fanout{
		Sources: []Source{
			&fakeSource{name: "a", group: GroupContent, err: errors.New("down")},
			&fakeSource{name: "b", group: GroupCollaborative, err: errors.New("down")},
		},
	}
	items, succeeded := f.Run(context.Background(), &core.RecommendContext{UserID: "u1"})
	if succeeded != 0 || len(items) != 0 {
		t.Errorf("succeeded=%d items=%d, want total failure reported", succeeded, len(items))
	}
}

func TestFanoutBoundedConcurrency(t *testing.T) {
	var current, peak int32
	sources := make([]Source, 0, 8)
	for i := 0; i < 8; i++ {
		sources = append(sources, &trackingSource{current: &current, peak: &peak})
	}
	f := &Fanout{Sources: sources, MaxConcurrent: 3}
	f.Run(context.Background(), &core.RecommendContext{UserID: "u1"})

	if got := atomic.LoadInt32(&peak); got > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", got)
	}
}

type trackingSource struct {
	current *int32
	peak    *int32
}

func (s *trackingSource) Name() string  { return "tracking" }
func (s *trackingSource) Group() string { return GroupContent }

func (s *trackingSource) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	n := atomic.AddInt32(s.current, 1)
	for {
		old := atomic.LoadInt32(s.peak)
		if n <= old || atomic.CompareAndSwapInt32(s.peak, old, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	atomic.AddInt32(s.current, -1)
	return nil, nil
}
