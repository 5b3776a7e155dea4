package enrich

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// PoolSize returns min(requested, runtime.NumCPU()). A requested size of 0
// or less means runtime.NumCPU().
func PoolSize(requested int) int {
	n := runtime.NumCPU()
	if requested <= 0 || requested > n {
		return n
	}
	return requested
}

// Dispatch runs jobs on a pool of PoolSize(workers) goroutines and returns
// the non-nil results in job order once every job has finished. A panic in
// any job fails the whole batch.
func Dispatch(ctx context.Context, jobs []Job, workers int) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(PoolSize(workers))

	for i := range jobs {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() (err error) {
			defer func() {
				if v := recover(); v != nil {
					err = fmt.Errorf("gene set %q: %v", jobs[i].GeneSet.Name, v)
				}
			}()
			results[i] = Run(jobs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrichment batch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("enrichment batch: %w", err)
	}

	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}
