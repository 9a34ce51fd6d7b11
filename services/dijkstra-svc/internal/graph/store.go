// Package graph provides the dense weighted digraph used by the shortest path
// engine and the random graph generator.
//
// This package contains:
//   - Store: an n×n adjacency matrix with per-vertex bookkeeping
//   - BufferPool: memory pooling for per-query distance and settled buffers
//
// # Encoding
//
// Weights are stored as one byte per cell, row-major. The diagonal holds 0
// and is never an edge. Absent edges hold the NoConnection sentinel, which is
// strictly greater than every legal weight. Legal weights are in
// [1, MaxEdgeWeight).
//
// # Thread Safety
//
// Store is NOT safe for concurrent mutation. Once populated it may be read
// from any number of goroutines, which is how the engine's relaxation
// workers use it.
package graph

import (
	"fmt"
	"io"
	"math"
	"strings"

	"pathfinder/pkg/apperror"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// DefaultMaxEdgeWeight is the exclusive upper bound for edge weights.
	DefaultMaxEdgeWeight = 25

	// DefaultNoConnection marks an absent edge.
	DefaultNoConnection = 111

	// Infinity is the distance of a vertex that has not been reached.
	Infinity int64 = math.MaxInt64
)

// =============================================================================
// Limits & Options
// =============================================================================

// Limits describes the weight encoding of a Store.
type Limits struct {
	MaxEdgeWeight int
	NoConnection  int
}

// DefaultLimits returns the default weight encoding.
func DefaultLimits() Limits {
	return Limits{
		MaxEdgeWeight: DefaultMaxEdgeWeight,
		NoConnection:  DefaultNoConnection,
	}
}

// Validate checks that the limits fit the byte encoding and that NoConnection
// can never be mistaken for a legal weight.
func (l Limits) Validate() error {
	ve := apperror.NewValidationErrors()
	if l.MaxEdgeWeight < 2 {
		ve.AddErrorWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("max edge weight must be at least 2, got %d", l.MaxEdgeWeight), "max_edge_weight")
	}
	if l.NoConnection < l.MaxEdgeWeight || l.NoConnection > math.MaxUint8 {
		ve.AddErrorWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("no connection marker must be in [%d, %d], got %d", l.MaxEdgeWeight, math.MaxUint8, l.NoConnection),
			"no_connection")
	}
	return ve.Err()
}

// IsLegalWeight reports whether w is a traversable edge weight.
func (l Limits) IsLegalWeight(w int) bool {
	return w >= 1 && w < l.MaxEdgeWeight
}

type options struct {
	limits   Limits
	maxCells int64
}

// Option configures Allocate.
type Option func(*options)

// WithLimits sets the weight encoding.
func WithLimits(maxEdgeWeight, noConnection int) Option {
	return func(o *options) {
		o.limits = Limits{MaxEdgeWeight: maxEdgeWeight, NoConnection: noConnection}
	}
}

// WithMaxCells caps the matrix size. Zero means no cap.
func WithMaxCells(cells int64) Option {
	return func(o *options) {
		o.maxCells = cells
	}
}

// =============================================================================
// Store
// =============================================================================

// Store is a dense adjacency matrix plus the per-vertex distance scratch array
// and discovery flags.
type Store struct {
	n          int
	limits     Limits
	weights    []uint8
	dist       []int64
	discovered []bool
}

// Allocate reserves an n×n matrix with every off-diagonal cell set to
// NoConnection and the auxiliary arrays reset.
//
// Errors:
//   - CodeInvalidArgument: n <= 0 or the limits are invalid
//   - CodeOutOfMemory (critical): the matrix size overflows, exceeds the
//     configured cell budget, or the runtime refuses the allocation
func Allocate(n int, opts ...Option) (s *Store, err error) {
	o := options{limits: DefaultLimits()}
	for _, opt := range opts {
		opt(&o)
	}

	if n <= 0 {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("vertex count must be positive, got %d", n), "vertices")
	}
	if err := o.limits.Validate(); err != nil {
		return nil, err
	}
	if n > math.MaxInt/n {
		return nil, apperror.NewCritical(apperror.CodeOutOfMemory, "matrix size overflows").
			WithDetails("vertices", n)
	}
	cells := n * n
	if o.maxCells > 0 && int64(cells) > o.maxCells {
		return nil, apperror.NewCritical(apperror.CodeOutOfMemory, "matrix exceeds cell budget").
			WithDetails("vertices", n).
			WithDetails("cells", cells).
			WithDetails("max_cells", o.maxCells)
	}

	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = apperror.NewCritical(apperror.CodeOutOfMemory, "matrix allocation failed").
				WithDetails("vertices", n).
				WithDetails("panic", fmt.Sprint(r))
		}
	}()

	s = &Store{
		n:          n,
		limits:     o.limits,
		weights:    make([]uint8, cells),
		dist:       make([]int64, n),
		discovered: make([]bool, n),
	}

	none := uint8(o.limits.NoConnection)
	for i := range s.weights {
		s.weights[i] = none
	}
	for i := 0; i < n; i++ {
		s.weights[i*n+i] = 0
	}
	s.Reset()

	return s, nil
}

// Reset sets every distance to Infinity and clears every discovery flag.
func (s *Store) Reset() {
	for i := range s.dist {
		s.dist[i] = Infinity
	}
	clear(s.discovered)
}

// Len returns the vertex count.
func (s *Store) Len() int {
	return s.n
}

// Limits returns the weight encoding.
func (s *Store) Limits() Limits {
	return s.limits
}

func (s *Store) index(i, j int) int {
	if i < 0 || i >= s.n || j < 0 || j >= s.n {
		panic(fmt.Sprintf("graph: index (%d, %d) out of range [0, %d)", i, j, s.n))
	}
	return i*s.n + j
}

// Weight returns the stored cell for (i, j): 0 on the diagonal, NoConnection
// for an absent edge, a legal weight otherwise. Panics on out-of-range indices.
func (s *Store) Weight(i, j int) int {
	return int(s.weights[s.index(i, j)])
}

// SetWeight stores w at (i, j). The diagonal only accepts 0; other cells
// accept NoConnection or a legal weight. Anything else panics.
func (s *Store) SetWeight(i, j, w int) {
	idx := s.index(i, j)
	if i == j {
		if w != 0 {
			panic(fmt.Sprintf("graph: self-loop %d -> %d with weight %d", i, j, w))
		}
		return
	}
	if w != s.limits.NoConnection && !s.limits.IsLegalWeight(w) {
		panic(fmt.Sprintf("graph: illegal weight %d for %d -> %d", w, i, j))
	}
	s.weights[idx] = uint8(w)
}

// HasEdge reports whether a traversable edge i -> j exists.
func (s *Store) HasEdge(i, j int) bool {
	if i == j {
		s.index(i, j)
		return false
	}
	return s.limits.IsLegalWeight(s.Weight(i, j))
}

// Row returns the outgoing weights of vertex i. The slice aliases the store
// and must not be modified.
func (s *Store) Row(i int) []uint8 {
	start := s.index(i, 0)
	end := start + s.n
	return s.weights[start:end:end]
}

// OutDegree returns the number of edges leaving i.
func (s *Store) OutDegree(i int) int {
	deg := 0
	for j := 0; j < s.n; j++ {
		if j != i && s.HasEdge(i, j) {
			deg++
		}
	}
	return deg
}

// InDegree returns the number of edges entering j.
func (s *Store) InDegree(j int) int {
	deg := 0
	for i := 0; i < s.n; i++ {
		if i != j && s.HasEdge(i, j) {
			deg++
		}
	}
	return deg
}

// EdgeCount returns the total number of edges.
func (s *Store) EdgeCount() int {
	count := 0
	for i := 0; i < s.n; i++ {
		count += s.OutDegree(i)
	}
	return count
}

// Equal reports whether both stores hold bit-identical matrices.
func (s *Store) Equal(other *Store) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.n != other.n || s.limits != other.limits {
		return false
	}
	for i := range s.weights {
		if s.weights[i] != other.weights[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (s *Store) Clone() *Store {
	return &Store{
		n:          s.n,
		limits:     s.limits,
		weights:    append([]uint8(nil), s.weights...),
		dist:       append([]int64(nil), s.dist...),
		discovered: append([]bool(nil), s.discovered...),
	}
}

// =============================================================================
// Per-vertex bookkeeping
// =============================================================================

// Distances returns the distance scratch array. The slice aliases the store.
func (s *Store) Distances() []int64 {
	return s.dist
}

// SetDistance stores d as the distance of v.
func (s *Store) SetDistance(v int, d int64) {
	s.index(v, 0)
	s.dist[v] = d
}

// Discovered reports whether v has been marked.
func (s *Store) Discovered(v int) bool {
	s.index(v, 0)
	return s.discovered[v]
}

// MarkDiscovered marks v.
func (s *Store) MarkDiscovered(v int) {
	s.index(v, 0)
	s.discovered[v] = true
}

// =============================================================================
// Debug output
// =============================================================================

// Dump writes the matrix with [%03d] row and column headers.
func (s *Store) Dump(w io.Writer) error {
	var b strings.Builder

	header := func() {
		b.WriteString("       ")
		for j := 0; j < s.n; j++ {
			fmt.Fprintf(&b, " [%03d] ", j)
		}
	}

	header()
	b.WriteString("\n\n")
	for i := 0; i < s.n; i++ {
		fmt.Fprintf(&b, "[%03d]  ", i)
		for _, cell := range s.Row(i) {
			fmt.Fprintf(&b, "  %03d  ", cell)
		}
		fmt.Fprintf(&b, "  [%03d]\n", i)
	}
	b.WriteString("\n")
	header()
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
