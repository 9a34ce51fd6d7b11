package engine

import (
	"golang.org/x/sync/errgroup"

	"pathfinder/services/dijkstra-svc/internal/graph"
)

// chunk is a half-open range of target indices.
type chunk struct {
	lo, hi int
}

// partition is the static split of target indices used for every round.
type partition struct {
	chunks []chunk
}

// newPartition splits [0, n) into at most workers contiguous chunks of at
// least minChunk targets each (the last one may be shorter).
func newPartition(n, workers, minChunk int) partition {
	if workers < 1 {
		workers = 1
	}
	if minChunk < 1 {
		minChunk = 1
	}

	tasks := (n + minChunk - 1) / minChunk
	if tasks > workers {
		tasks = workers
	}
	if tasks < 1 {
		tasks = 1
	}

	size := (n + tasks - 1) / tasks
	chunks := make([]chunk, 0, tasks)
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		chunks = append(chunks, chunk{lo: lo, hi: hi})
	}
	return partition{chunks: chunks}
}

func (p partition) workers() int {
	return len(p.chunks)
}

// relax lowers dist[j] through the settled vertex whose outgoing weights are
// row and whose distance is du. It returns after every chunk is done.
func (p partition) relax(row []uint8, du int64, dist []int64, settled []bool, limits graph.Limits) {
	if du == graph.Infinity {
		return
	}

	if len(p.chunks) == 1 {
		relaxRange(row, du, dist, settled, limits, p.chunks[0])
		return
	}

	var g errgroup.Group
	for _, c := range p.chunks {
		g.Go(func() error {
			relaxRange(row, du, dist, settled, limits, c)
			return nil
		})
	}
	// Relaxation has no failure path; Wait is the round barrier
	_ = g.Wait()
}

func relaxRange(row []uint8, du int64, dist []int64, settled []bool, limits graph.Limits, c chunk) {
	for j := c.lo; j < c.hi; j++ {
		if settled[j] {
			continue
		}
		w := int64(row[j])
		if w == 0 || w >= int64(limits.MaxEdgeWeight) {
			continue
		}
		if du > graph.Infinity-w {
			continue
		}
		if nd := du + w; nd < dist[j] {
			dist[j] = nd
		}
	}
}
