// Package engine computes single-source shortest path distances over a dense
// graph.Store.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"pathfinder/pkg/apperror"
	"pathfinder/pkg/logger"
	"pathfinder/services/dijkstra-svc/internal/graph"
)

// =============================================================================
// Dense Dijkstra
// =============================================================================
//
// Each round has three phases:
//
//  1. Selection: scan the unsettled vertices for the smallest finite
//     tentative distance, ties going to the lowest index. If every unsettled
//     vertex is at Infinity the search stops.
//  2. Settle: mark the selected vertex u as final.
//  3. Relaxation: for every unsettled target j with an edge u -> j, lower
//     dist[j] to dist[u] + w(u, j) when that is shorter.
//
// Selection and settle run on the calling goroutine. Relaxation is split into
// contiguous, disjoint ranges of target indices, one goroutine per range.
// Each goroutine only writes dist[j] for its own range and only reads
// dist[u], which is settled and therefore not written this round. The
// errgroup Wait is the barrier between rounds.
//
// Time Complexity: O(V^2) work, O(V^2 / workers) span for relaxation
// Space Complexity: O(V) per query, taken from the buffer pool
//
// The search terminates after at most V settle rounds.
// =============================================================================

const (
	// DefaultMinChunk is the smallest number of targets handed to one
	// relaxation goroutine. Smaller rows are relaxed inline.
	DefaultMinChunk = 256
)

// RoundObserver is called after each round's barrier with the round number
// (starting at 1), the vertex settled in that round and the current distance
// vector. The slice is only valid during the call and must not be modified.
type RoundObserver func(round, settled int, dist []int64)

// Engine runs shortest path searches. It is safe for concurrent use; every
// Run takes its own buffers from the pool.
type Engine struct {
	workers  int
	minChunk int
	pool     *graph.BufferPool
	observer RoundObserver
	log      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the number of relaxation goroutines. Zero selects
// runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithMinChunk sets the minimum number of targets per relaxation goroutine.
// Zero selects DefaultMinChunk.
func WithMinChunk(n int) Option {
	return func(e *Engine) {
		e.minChunk = n
	}
}

// WithPool sets the buffer pool. Defaults to graph.GetPool().
func WithPool(p *graph.BufferPool) Option {
	return func(e *Engine) {
		e.pool = p
	}
}

// WithObserver registers a per-round callback.
func WithObserver(obs RoundObserver) Option {
	return func(e *Engine) {
		e.observer = obs
	}
}

// WithLogger overrides the logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New creates an engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		log: logger.WithComponent("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.workers == 0 {
		e.workers = runtime.NumCPU()
	}
	if e.minChunk == 0 {
		e.minChunk = DefaultMinChunk
	}
	if e.pool == nil {
		e.pool = graph.GetPool()
	}
	return e
}

// Sequential creates an engine that relaxes on the calling goroutine only.
// It is the reference the parallel engine is checked against.
func Sequential(opts ...Option) *Engine {
	return New(append(opts, WithWorkers(1))...)
}

// Workers returns the configured number of relaxation goroutines.
func (e *Engine) Workers() int {
	return e.workers
}

// =============================================================================
// Result
// =============================================================================

// Result holds the distances from Source to every vertex.
type Result struct {
	Source int

	// Distances[v] is the shortest distance to v, graph.Infinity if unreachable.
	Distances []int64

	// Settled is the number of vertices that were finalized.
	Settled int

	// Rounds is the number of selection rounds executed.
	Rounds int

	// Unreachable is the number of vertices left at Infinity.
	Unreachable int

	// Workers is the number of relaxation goroutines used.
	Workers int

	Duration time.Duration
}

// Reachable reports whether v has a finite distance.
func (r *Result) Reachable(v int) bool {
	return r.Distances[v] != graph.Infinity
}

// Distance returns the distance to v and whether it is finite.
func (r *Result) Distance(v int) (int64, bool) {
	d := r.Distances[v]
	return d, d != graph.Infinity
}

// =============================================================================
// Run
// =============================================================================

// Run computes shortest distances from source. The store is only read.
//
// Errors:
//   - CodeNilInput: store is nil
//   - CodeInvalidSource: source is outside [0, store.Len())
//   - CodeInvalidArgument: negative worker count or chunk size
//   - CodeCanceled / CodeTimeout: ctx ended, checked once per round; the
//     partial result is discarded
func (e *Engine) Run(ctx context.Context, store *graph.Store, source int) (*Result, error) {
	start := time.Now()

	if store == nil {
		return nil, apperror.New(apperror.CodeNilInput, "graph is nil")
	}
	n := store.Len()
	if source < 0 || source >= n {
		return nil, apperror.NewWithField(apperror.CodeInvalidSource,
			fmt.Sprintf("source %d out of range [0, %d)", source, n), "source")
	}
	if e.workers < 0 || e.minChunk < 0 {
		return nil, apperror.New(apperror.CodeInvalidArgument, "worker count and chunk size must be non-negative").
			WithDetails("workers", e.workers).
			WithDetails("min_chunk", e.minChunk)
	}

	buf := e.pool.Acquire(n)
	defer e.pool.Release(buf)

	dist := buf.Dist
	settled := buf.Settled
	dist[source] = 0

	plan := newPartition(n, e.workers, e.minChunk)
	limits := store.Limits()

	result := &Result{
		Source:  source,
		Workers: plan.workers(),
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, apperror.FromContext(err, "shortest path search interrupted").
				WithDetails("round", result.Rounds).
				WithDetails("settled", result.Settled)
		}

		u := selectMin(dist, settled)
		if u < 0 {
			break
		}

		settled[u] = true
		result.Settled++
		result.Rounds++

		plan.relax(store.Row(u), dist[u], dist, settled, limits)

		if e.observer != nil {
			e.observer(result.Rounds, u, dist)
		}
	}

	result.Distances = append([]int64(nil), dist...)
	for _, d := range result.Distances {
		if d == graph.Infinity {
			result.Unreachable++
		}
	}
	result.Duration = time.Since(start)

	e.log.Debug("search finished",
		"vertices", n,
		"source", source,
		"rounds", result.Rounds,
		"unreachable", result.Unreachable,
		"workers", result.Workers,
		"duration", result.Duration,
	)

	return result, nil
}

// selectMin returns the unsettled vertex with the smallest finite distance,
// the lowest index on ties, or -1 when none is finite.
func selectMin(dist []int64, settled []bool) int {
	best := -1
	bestDist := graph.Infinity
	for v, d := range dist {
		if !settled[v] && d < bestDist {
			best = v
			bestDist = d
		}
	}
	return best
}
