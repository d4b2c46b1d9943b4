package workerpool

import (
	"context"
	"runtime"
	"sync"
)

// Task represents a unit of work to execute
type Task func(ctx context.Context) (interface{}, error)

// Result represents the result of a task execution
type Result struct {
	Value interface{}
	Error error
}

// Pool executes tasks concurrently with semaphore-based limiting. Results
// always come back in submission order regardless of completion order.
type Pool struct {
	maxWorkers int
	semaphore  chan struct{}
}

// New creates a pool bounded at maxWorkers concurrent tasks
func New(maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	return &Pool{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
	}
}

// Run executes all tasks and returns their results in submission order.
// Tasks not yet started when ctx is cancelled report ctx.Err() as their
// result; tasks already running are left to observe ctx themselves.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return []Result{}
	}

	results := make([]Result, len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(index int, t Task) {
			defer wg.Done()

			// Cancellation wins over a freed slot: check before blocking
			// and again after acquiring, so a task queued behind a
			// cancelled context never starts.
			select {
			case <-ctx.Done():
				results[index] = Result{Error: ctx.Err()}
				return
			default:
			}

			select {
			case p.semaphore <- struct{}{}:
				defer func() { <-p.semaphore }()
			case <-ctx.Done():
				results[index] = Result{Error: ctx.Err()}
				return
			}

			select {
			case <-ctx.Done():
				results[index] = Result{Error: ctx.Err()}
				return
			default:
			}

			value, err := t(ctx)
			results[index] = Result{Value: value, Error: err}
		}(i, task)
	}

	wg.Wait()
	return results
}

// MaxWorkers returns the concurrency bound
func (p *Pool) MaxWorkers() int {
	return p.maxWorkers
}
