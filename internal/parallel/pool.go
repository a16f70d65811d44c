// Package parallel provides a small fixed-size worker pool used to fan
// out disjoint, independent row computations across goroutines. It is
// adapted from a dynamically-scaling goal-evaluation pool
// (gitrdm/gokanlogic's internal/parallel.WorkerPool): the domain here
// (reachability-matrix construction, where each worker owns a fixed,
// disjoint set of predicate rows) never needs runtime scale-up/scale-down
// or deadlock detection, so those mechanisms were dropped rather than
// carried along unused (see DESIGN.md).
package parallel

import (
	"context"
	"sync"
)

// Pool runs a fixed number of workers, each pulling tasks from one shared
// channel until the channel is closed or the context is cancelled.
type Pool struct {
	workers int
}

// New returns a Pool with the given worker count. A count <= 0 is
// coerced to 1.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Task is one unit of row work: compute and return, or an error.
type Task func(ctx context.Context) error

// Run executes every task in tasks across the pool's fixed worker count,
// stopping early and returning the first error encountered (other
// in-flight workers finish their current task but no new task starts).
// Run blocks until every worker has exited.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	taskCh := make(chan Task)
	errCh := make(chan error, 1)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-runCtx.Done():
					return
				case t, ok := <-taskCh:
					if !ok {
						return
					}
					if err := t(runCtx); err != nil {
						select {
						case errCh <- err:
							cancel()
						default:
						}
					}
				}
			}
		}()
	}

feed:
	for _, t := range tasks {
		select {
		case <-runCtx.Done():
			break feed
		case taskCh <- t:
		}
	}
	close(taskCh)
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return ctx.Err()
	}
}
