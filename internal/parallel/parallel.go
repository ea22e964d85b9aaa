// Package parallel provides parallel execution utilities for the training
// loop: chunked loops and disjoint, lane-aligned range sharding.
//
// Updaters hold no locks, so every helper here hands each goroutine a
// coordinate range no other goroutine touches.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool `mapstructure:"enabled"`        // Whether parallel execution is enabled.
	NumWorkers   int  `mapstructure:"num_workers"`    // Number of worker goroutines to use.
	MinChunkSize int  `mapstructure:"min_chunk_size"` // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 1024,
	}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// Range is the half-open coordinate interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of coordinates in r.
func (r Range) Len() int {
	return r.End - r.Start
}

// Shards splits [0, n) into at most cfg.NumWorkers disjoint, contiguous
// ranges whose boundaries are multiples of align. Every range but the last
// holds at least cfg.MinChunkSize coordinates; the last takes whatever is
// left and may be smaller. With parallelism disabled a single range is
// returned.
func Shards(n, align int, cfg Config) []Range {
	if n <= 0 {
		return nil
	}
	if align < 1 {
		align = 1
	}
	workers := cfg.NumWorkers
	if !cfg.Enabled || workers < 1 {
		workers = 1
	}

	chunk := max((n+workers-1)/workers, cfg.MinChunkSize, 1)
	chunk = (chunk + align - 1) / align * align

	shards := make([]Range, 0, (n+chunk-1)/chunk)
	for start := 0; start < n; start += chunk {
		shards = append(shards, Range{Start: start, End: min(start+chunk, n)})
	}
	return shards
}

// ForRanges runs fn once per range, concurrently, and returns the first
// error. The context passed to fn is canceled as soon as any call fails.
func ForRanges(ctx context.Context, ranges []Range, fn func(ctx context.Context, r Range) error) error {
	if len(ranges) == 1 {
		return fn(ctx, ranges[0])
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range ranges {
		r := r
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, r)
		})
	}
	return g.Wait()
}
