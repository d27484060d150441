package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		parts int
		want  []Range
	}{
		{"single part", 4, 1, []Range{{0, 4}}},
		{"zero parts", 3, 0, []Range{{0, 3}}},
		{"even split", 6, 3, []Range{{0, 2}, {2, 4}, {4, 6}}},
		{"uneven split", 7, 3, []Range{{0, 3}, {3, 5}, {5, 7}}},
		{"more parts than items", 2, 8, []Range{{0, 1}, {1, 2}}},
		{"empty", 0, 4, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Partition(tt.n, tt.parts))
		})
	}
}

func TestPartition_CoversEveryIndexOnce(t *testing.T) {
	n := 1000
	seen := make([]int, n)
	for _, r := range Partition(n, 64) {
		require.Positive(t, r.Len())
		for i := r.Start; i < r.End; i++ {
			seen[i]++
		}
	}
	for i, c := range seen {
		assert.Equal(t, 1, c, "index %d", i)
	}
}

func TestRun(t *testing.T) {
	ranges := Partition(100, 4)
	results := make([]int, len(ranges))

	Run(ranges, func(w int, r Range) {
		for i := r.Start; i < r.End; i++ {
			results[w] += i
		}
	})

	total := 0
	for _, v := range results {
		total += v
	}
	assert.Equal(t, 99*100/2, total)
}

func TestForChunks(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	var counter int64
	var calls int64
	ForChunks(1000, cfg, func(start, end int) {
		atomic.AddInt64(&calls, 1)
		atomic.AddInt64(&counter, int64(end-start))
	})

	assert.Equal(t, int64(1000), counter)
	assert.Equal(t, int64(4), calls)
}

func TestForChunks_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var calls int
	ForChunks(100, cfg, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 100, end)
	})
	assert.Equal(t, 1, calls)
}

func TestForChunks_SmallChunk(t *testing.T) {
	// Small work units fall back to sequential.
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 64}

	var calls int
	ForChunks(cfg.MinChunkSize-1, cfg, func(_, _ int) {
		calls++
	})
	assert.Equal(t, 1, calls)
}

func BenchmarkForChunks(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			ForChunks(n, cfg, func(start, end int) {
				for j := start; j < end; j++ {
					atomic.AddInt64(&sum, int64(j))
				}
			})
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			ForChunks(n, cfgSeq, func(start, end int) {
				for j := start; j < end; j++ {
					atomic.AddInt64(&sum, int64(j))
				}
			})
		}
	})
}
