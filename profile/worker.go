package profile

import (
	"context"
	"log"
	"sync"
	"time"
)

// Worker 是画像持久化的后台提交队列。
// 同步路径只负责入队，远端写在后台执行：失败有界重试并记录，从不阻塞调用方。
type Worker struct {
	jobs    chan job
	retries int
	timeout time.Duration
	logger  *log.Logger

	wg       sync.WaitGroup
	closeOne sync.Once

	// mu 串行化 Submit 与 Close：closed 置位与 close(jobs) 在同一临界区内，
	// 不会出现检查通过后向已关闭 channel 发送的窗口。
	mu     sync.Mutex
	closed bool
}

type job struct {
	name string
	fn   func(ctx context.Context) error
}

// NewWorker 启动一个后台持久化 worker。
// queueSize <= 0 取 256；logger 可为 nil（失败静默丢弃不可取，建议传入）。
func NewWorker(queueSize, retries int, timeout time.Duration, logger *log.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = 256
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	w := &Worker{
		jobs:    make(chan job, queueSize),
		retries: retries,
		timeout: timeout,
		logger:  logger,
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// Submit 提交一个持久化任务；队列已关闭或打满时返回 false，调用方退回同步路径。
func (w *Worker) Submit(name string, fn func(ctx context.Context) error) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false
	}
	// 非阻塞入队：队列满视同不可用，持锁时间有上界
	select {
	case w.jobs <- job{name: name, fn: fn}:
		return true
	default:
		return false
	}
}

// Close 停止接收新任务并等待在途任务完成。
func (w *Worker) Close() {
	w.closeOne.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.jobs)
		w.mu.Unlock()
	})
	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()
	for j := range w.jobs {
		w.execute(j)
	}
}

func (w *Worker) execute(j job) {
	var err error
	for attempt := 0; attempt <= w.retries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err = j.fn(ctx)
		cancel()
		if err == nil {
			return
		}
	}
	if w.logger != nil {
		w.logger.Printf("tastekit: background persist %s failed after %d retries: %v", j.name, w.retries, err)
	}
}
