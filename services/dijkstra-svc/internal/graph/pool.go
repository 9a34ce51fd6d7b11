package graph

import (
	"sync"
)

// =============================================================================
// Buffer Pool
// =============================================================================

// BufferPool provides memory pooling for the per-query buffers of a search:
// the tentative distance vector and the settled flags.
//
// Repeated searches over the same store (benchmarks, multi-source batches
// driven by callers) reuse the buffers instead of allocating two length-n
// slices per query.
//
// The pool is safe for concurrent use from multiple goroutines.
//
// # Usage
//
//	buf := graph.GetPool().Acquire(store.Len())
//	defer graph.GetPool().Release(buf)
//	// ... use buf.Dist and buf.Settled ...
type BufferPool struct {
	buffers sync.Pool
}

// SearchBuffers holds the mutable state of a single query.
type SearchBuffers struct {
	Dist    []int64
	Settled []bool
}

// globalPool is the singleton pool instance.
var globalPool = NewBufferPool()

// NewBufferPool creates an empty pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		buffers: sync.Pool{
			New: func() any {
				return &SearchBuffers{}
			},
		},
	}
}

// GetPool returns the global buffer pool.
func GetPool() *BufferPool {
	return globalPool
}

// Acquire obtains buffers sized for n vertices, with every distance set to
// Infinity and every settled flag cleared.
func (p *BufferPool) Acquire(n int) *SearchBuffers {
	buf := p.buffers.Get().(*SearchBuffers)

	if cap(buf.Dist) < n {
		buf.Dist = make([]int64, n)
	}
	buf.Dist = buf.Dist[:n]
	if cap(buf.Settled) < n {
		buf.Settled = make([]bool, n)
	}
	buf.Settled = buf.Settled[:n]

	for i := range buf.Dist {
		buf.Dist[i] = Infinity
	}
	clear(buf.Settled)

	return buf
}

// Release returns buffers to the pool. After calling this method the buffers
// must not be used.
//
// It is safe to pass nil.
func (p *BufferPool) Release(buf *SearchBuffers) {
	if buf == nil {
		return
	}
	p.buffers.Put(buf)
}
