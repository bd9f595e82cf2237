package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForEachVisitsEveryIndex(t *testing.T) {
	const n = 100
	visited := make([]int32, n)

	ForEach(n, 4, func(i int) {
		atomic.AddInt32(&visited[i], 1)
	})

	for i, count := range visited {
		if count != 1 {
			t.Errorf("index %d visited %d times, expected exactly once", i, count)
		}
	}
}

func TestForEachZeroLength(t *testing.T) {
	called := false
	ForEach(0, 4, func(i int) {
		called = true
	})
	if called {
		t.Error("body called for zero-length loop")
	}
}

func TestForEachNonPositiveLimit(t *testing.T) {
	var sum int64
	ForEach(10, 0, func(i int) {
		atomic.AddInt64(&sum, int64(i))
	})
	if sum != 45 {
		t.Errorf("sum = %d, expected 45", sum)
	}
}
