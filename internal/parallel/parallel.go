// Package parallel provides the fan-out helpers used by the training loop and
// batched inference.
//
// Work is always split into contiguous ranges. Goroutines are started per
// call and joined before the call returns; there is no persistent pool.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 16,
	}
}

// Range is a half-open interval [Start, End) of item indices.
type Range struct {
	Start int
	End   int
}

// Len returns the number of items in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Partition splits [0, n) into at most parts contiguous, non-empty ranges
// of near-equal length (lengths differ by at most one, longer ranges
// first). parts below 1 is treated as 1.
func Partition(n, parts int) []Range {
	if n <= 0 {
		return nil
	}
	parts = min(max(parts, 1), n)

	ranges := make([]Range, 0, parts)
	base, extra := n/parts, n%parts
	start := 0
	for i := 0; i < parts; i++ {
		size := base
		if i < extra {
			size++
		}
		ranges = append(ranges, Range{Start: start, End: start + size})
		start += size
	}
	return ranges
}

// Run executes f once per range, each on its own goroutine, and waits for
// all of them. worker is the index of the range in ranges.
func Run(ranges []Range, f func(worker int, r Range)) {
	if len(ranges) == 1 {
		f(0, ranges[0])
		return
	}

	var wg sync.WaitGroup
	for i, r := range ranges {
		wg.Add(1)
		go func(w int, r Range) {
			defer wg.Done()
			f(w, r)
		}(i, r)
	}
	wg.Wait()
}

// ForChunks splits [0, n) into contiguous chunks and calls f(start, end)
// for each, in parallel when cfg allows it. Falls back to a single
// sequential call if parallelism is disabled or n is too small.
func ForChunks(n int, cfg Config, f func(start, end int)) {
	if n <= 0 {
		return
	}
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize {
		f(0, n)
		return
	}

	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)
	ranges := make([]Range, 0, (n+chunkSize-1)/chunkSize)
	for start := 0; start < n; start += chunkSize {
		ranges = append(ranges, Range{Start: start, End: min(start+chunkSize, n)})
	}

	Run(ranges, func(_ int, r Range) {
		f(r.Start, r.End)
	})
}
