package profile

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func TestWorkerRunsSubmittedJobs(t *testing.T) {
	w := NewWorker(16, 0, 0, nil)

	var ran int64
	for i := 0; i < 8; i++ {
		ok := w.Submit("job", func(ctx context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		})
		if !ok {
			t.Fatalf("Submit() = false on open worker (job %d)", i)
		}
	}

	// Close waits for in-flight jobs
	w.Close()
	if got := atomic.LoadInt64(&ran); got != 8 {
		t.Errorf("ran = %d jobs before Close returned, want 8", got)
	}
}

func TestWorkerSubmitAfterCloseReturnsFalse(t *testing.T) {
	w := NewWorker(4, 0, 0, nil)
	w.Close()

	if w.Submit("late", func(ctx context.Context) error { return nil }) {
		t.Error("Submit() = true after Close")
	}
}

// 并发 Submit/Close：关闭落在"检查已关闭"与"入队"之间不能 panic，
// 被拒绝的提交返回 false 让调用方退回同步路径。
func TestWorkerConcurrentSubmitAndClose(t *testing.T) {
	for round := 0; round < 200; round++ {
		w := NewWorker(2, 0, 0, nil)

		var wg sync.WaitGroup
		start := make(chan struct{})
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for i := 0; i < 20; i++ {
					w.Submit("job", func(ctx context.Context) error { return nil })
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			w.Close()
		}()

		close(start)
		wg.Wait()

		if w.Submit("post", func(ctx context.Context) error { return nil }) {
			t.Fatal("Submit() accepted a job after Close finished")
		}
	}
}
