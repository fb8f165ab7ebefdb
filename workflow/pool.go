package workflow

import (
	"context"
	"sync"

	"github.com/marinxz/n-playwright-3.9/location"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 2

type task struct {
	index int
	cfg   *location.Config
}

// RunAll runs every location on a pool of workers goroutines, each with its
// own browser session. Results are returned in the order of cfgs. Once ctx
// is cancelled, pending locations still produce a failed Result.
func (w *Workflow) RunAll(ctx context.Context, cfgs []*location.Config, workers int) []Result {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(cfgs) {
		workers = len(cfgs)
	}

	results := make([]Result, len(cfgs))
	tasks := make(chan task)

	w.logger.Info(ctx, "starting worker pool", map[string]interface{}{
		"max_workers": workers,
		"locations":   len(cfgs),
	})

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.worker(ctx, id, tasks, results)
		}(i)
	}

	for i, cfg := range cfgs {
		tasks <- task{index: i, cfg: cfg}
	}
	close(tasks)
	wg.Wait()

	return results
}

func (w *Workflow) worker(ctx context.Context, id int, tasks <-chan task, results []Result) {
	for t := range tasks {
		w.logger.Debug(ctx, "worker processing location", map[string]interface{}{
			"worker_id": id,
			"location":  t.cfg.Name,
		})
		results[t.index] = w.Run(ctx, t.cfg)
	}
}
