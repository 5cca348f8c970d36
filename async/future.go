package async

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Future 异步计算的结果句柄
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Submit 在 executor 上调度 fn，返回对应的 Future
// fn 中的 panic 会被转换为错误
func Submit[T any](executor Executor, fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	if executor == nil {
		executor = Unbounded()
	}
	executor.Go(func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = errors.Errorf("async task panic: %v", r)
			}
		}()
		f.value, f.err = fn()
	})
	return f
}

// Completed 返回已完成的 Future
func Completed[T any](value T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), value: value, err: err}
	close(f.done)
	return f
}

// Done 返回在结果就绪时关闭的 channel
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await 等待结果，ctx 结束时返回 ctx.Err()，任务本身不会被取消
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Join 阻塞直到结果就绪
func (f *Future[T]) Join() (T, error) {
	<-f.done
	return f.value, f.err
}

// Then 在 f 成功后用其结果继续调度 fn
// 等待 f 不占用 executor 的许可，只有 fn 本身在 executor 上运行
func Then[T, R any](executor Executor, f *Future[T], fn func(T) (R, error)) *Future[R] {
	next := &Future[R]{done: make(chan struct{})}
	go func() {
		defer close(next.done)
		value, err := f.Join()
		if err != nil {
			next.err = err
			return
		}
		next.value, next.err = Submit(executor, func() (R, error) {
			return fn(value)
		}).Join()
	}()
	return next
}

// All 等待全部 Future，返回按顺序排列的结果和第一个错误
func All[T any](ctx context.Context, futures ...*Future[T]) ([]T, error) {
	results := make([]T, len(futures))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range futures {
		i, f := i, f
		g.Go(func() error {
			value, err := f.Await(ctx)
			if err != nil {
				return errors.WithMessage(err, fmt.Sprintf("future %d", i))
			}
			results[i] = value
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
