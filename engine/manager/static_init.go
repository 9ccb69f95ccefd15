package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// DefaultInitWorkers is the worker count used to run static initializers when none is configured.
const DefaultInitWorkers = 4

// InitAll runs every constructor's static Init concurrently on a worker pool and waits for all of them.
// The first failure cancels the context passed to the remaining initializers and is returned.
//
// Parameters:
//   - ctx: parent context for the initializers
//   - ctors: the resolved constructors; those without Init are skipped
//   - workers: worker pool size, DefaultInitWorkers if <= 0
//
// Returns:
//   - error: the first initializer failure, wrapped with the manager type
func InitAll(ctx context.Context, ctors []Constructor, workers int) error {
	if workers <= 0 {
		workers = DefaultInitWorkers
	}

	var pending []Constructor
	for _, c := range ctors {
		if c.Init != nil {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       = &sync.Mutex{}
		firstErr error
	)

	pool := worker.NewDynamicWorkerPool(workers, len(pending), 1*time.Second)
	wg.Add(len(pending))
	for i, c := range pending {
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				err := c.Init(ctx)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("manager: init %s: %w", c.Type, err)
						cancel()
					}
					mu.Unlock()
				}
				return nil, err
			},
		})
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
