package tensor

import (
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid/v2"

	"github.com/crossmodal_attention/internal/parallel"
)

// Batch is an ordered collection of equally-shaped matrices, one per
// batch element (or per batch-and-head element in attention code).
type Batch []*Matrix

// batchWorkers sizes the worker pool for batched operations from the
// CPU topology reported by cpuid, falling back to the Go runtime when
// the probe reports nothing useful.
func batchWorkers() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

var workers = batchWorkers()

// BatchMatMul multiplies a[i] by b[i] for every index of the batch.
// The per-index multiplications are independent and run concurrently.
func BatchMatMul(a, b Batch) (Batch, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("batch length mismatch: %d vs %d", len(a), len(b))
	}

	result := make(Batch, len(a))
	errs := make([]error, len(a))

	parallel.ForEach(len(a), workers, func(i int) {
		result[i], errs[i] = MatMul(a[i], b[i])
	})

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("batched multiplication failed at index %d: %v", i, err)
		}
	}
	return result, nil
}

// BatchSoftmax applies the row-wise softmax to every matrix of the batch
func BatchSoftmax(a Batch) Batch {
	result := make(Batch, len(a))
	parallel.ForEach(len(a), workers, func(i int) {
		result[i] = Softmax(a[i])
	})
	return result
}

// BatchTranspose transposes every matrix of the batch
func BatchTranspose(a Batch) Batch {
	result := make(Batch, len(a))
	parallel.ForEach(len(a), workers, func(i int) {
		result[i] = Transpose(a[i])
	})
	return result
}

// BatchRowSlice slices rows [start, end) of every matrix of the batch
func BatchRowSlice(a Batch, start, end int) (Batch, error) {
	result := make(Batch, len(a))
	for i, m := range a {
		sliced, err := m.RowSlice(start, end)
		if err != nil {
			return nil, fmt.Errorf("batched row slice failed at index %d: %v", i, err)
		}
		result[i] = sliced
	}
	return result, nil
}
