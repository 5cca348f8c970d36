package async

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Executor 异步任务调度器
type Executor interface {
	// Go 提交一个任务，不阻塞调用方
	Go(task func())
}

// ExecutorOptions 调度器选项
type ExecutorOptions struct {
	// 最大并发数，0 表示不限制
	Workers int `cfg:"workers" validate:"gte=0"`
}

// NewExecutorWithOptions 根据选项创建调度器
func NewExecutorWithOptions(options *ExecutorOptions) Executor {
	if options == nil || options.Workers <= 0 {
		return Unbounded()
	}
	return NewBoundedExecutor(options.Workers)
}

type unboundedExecutor struct{}

func (unboundedExecutor) Go(task func()) {
	go task()
}

var shared Executor = unboundedExecutor{}

// Unbounded 返回进程共享的无界调度器，每个任务一个 goroutine
func Unbounded() Executor {
	return shared
}

// BoundedExecutor 通过信号量限制同时运行的任务数
// 提交永不阻塞，超出上限的任务在后台等待
type BoundedExecutor struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

func NewBoundedExecutor(workers int) *BoundedExecutor {
	return &BoundedExecutor{sem: semaphore.NewWeighted(int64(workers))}
}

func (e *BoundedExecutor) Go(task func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		// context.Background 永远不会取消，Acquire 只会在拿到许可后返回
		_ = e.sem.Acquire(context.Background(), 1)
		defer e.sem.Release(1)
		task()
	}()
}

// Wait 等待所有已提交的任务结束
func (e *BoundedExecutor) Wait() {
	e.wg.Wait()
}
