package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRange_CoversEveryIndexOnce(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 3}
	for _, n := range []int{0, 1, 5, 6, 7, 100, 1001} {
		hits := make([]int32, n)
		Range(n, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		}, cfg)
		for i, h := range hits {
			assert.Equal(t, int32(1), h, "n=%d index %d", n, i)
		}
	}
}

func TestFor_Sequential(t *testing.T) {
	var order []int
	For(5, func(i int) { order = append(order, i) }, Sequential())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.GreaterOrEqual(t, cfg.NumWorkers, 1)
	assert.Positive(t, cfg.MinChunkSize)
}
