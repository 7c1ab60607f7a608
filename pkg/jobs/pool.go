package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Task is one unit of work in a batch. Its index is its position in the input.
type Task func(ctx context.Context, index int) error

// PoolConfig configures worker pool behaviour.
type PoolConfig struct {
	Workers int
	Logger  *zap.Logger
}

// Pool runs batches of independent tasks on a bounded number of goroutines.
type Pool struct {
	name    string
	workers int
	logger  *zap.Logger
}

// NewPool builds a pool. Workers defaults to 1.
func NewPool(name string, cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Pool{name: name, workers: cfg.Workers, logger: cfg.Logger}
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes n tasks and returns one error slot per task. A failing task does not
// cancel its siblings; only ctx cancellation stops tasks that have not started yet.
func (p *Pool) Run(ctx context.Context, n int, task Task) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}

	start := time.Now()
	g := errgroup.Group{}
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = safeRun(ctx, i, task)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	p.logger.Sugar().Debugw("batch finished", "pool", p.name, "tasks", n, "failed", failed, "workers", p.workers, "duration", time.Since(start))
	return errs
}

func safeRun(ctx context.Context, index int, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %d panicked: %v", index, r)
		}
	}()
	return task(ctx, index)
}
