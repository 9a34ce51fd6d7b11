// Package generator builds random dense digraphs for the shortest path engine.
//
// # Algorithm
//
// Every off-diagonal cell draws a candidate t uniformly from
// [1, 2*(MaxEdgeWeight-1)]. Values below MaxEdgeWeight become the edge
// weight, anything else marks the cell as absent, so roughly half of all
// cells carry an edge.
//
// After the draw two repair passes run:
//
//  1. A row with no outgoing edge gets one forced edge to a random target.
//  2. A vertex with no incoming edge gets one forced edge from a random source.
//
// Both passes avoid self-loops, so for N >= 2 every vertex ends with
// out-degree >= 1 and in-degree >= 1. The graph is NOT guaranteed to be
// strongly connected.
//
// # Determinism
//
// The same (Vertices, Seed, MaxEdgeWeight) always yields a bit-identical
// matrix: a single math/rand source drives the draws in row-major order.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"pathfinder/pkg/apperror"
	"pathfinder/pkg/logger"
	"pathfinder/services/dijkstra-svc/internal/graph"
)

// =============================================================================
// Configuration
// =============================================================================

const (
	// DefaultVertices is the default graph size.
	DefaultVertices = 5000

	// DefaultSeed is the default random seed.
	DefaultSeed = 10
)

// Config describes the graph to generate.
type Config struct {
	Vertices      int
	Seed          int64
	MaxEdgeWeight int
	NoConnection  int

	// MaxCells caps the matrix size, zero means unlimited.
	MaxCells int64
}

// DefaultConfig returns the default generator configuration.
func DefaultConfig() Config {
	return Config{
		Vertices:      DefaultVertices,
		Seed:          DefaultSeed,
		MaxEdgeWeight: graph.DefaultMaxEdgeWeight,
		NoConnection:  graph.DefaultNoConnection,
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	ve := apperror.NewValidationErrors()

	if c.Vertices <= 0 {
		ve.AddErrorWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("vertex count must be positive, got %d", c.Vertices), "vertices")
	}
	if c.Seed < 0 {
		ve.AddErrorWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("seed must be non-negative, got %d", c.Seed), "seed")
	}
	if c.MaxEdgeWeight < 2 {
		ve.AddErrorWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("max edge weight must be at least 2, got %d", c.MaxEdgeWeight), "max_edge_weight")
	}
	if c.NoConnection < c.MaxEdgeWeight || c.NoConnection > math.MaxUint8 {
		ve.AddErrorWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("no connection marker must be in [%d, %d], got %d", c.MaxEdgeWeight, math.MaxUint8, c.NoConnection),
			"no_connection")
	}
	if c.MaxCells < 0 {
		ve.AddErrorWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("max cells must be non-negative, got %d", c.MaxCells), "max_cells")
	}

	return ve.Err()
}

// =============================================================================
// Report
// =============================================================================

// Direction tells which repair pass added a forced edge.
type Direction string

const (
	Outgoing Direction = "outgoing"
	Incoming Direction = "incoming"
)

// ForcedEdge is an edge added by a repair pass.
type ForcedEdge struct {
	From   int
	To     int
	Weight int
}

// Report summarizes a generation run.
type Report struct {
	Vertices       int
	Seed           int64
	Edges          int
	ForcedOutgoing []ForcedEdge
	ForcedIncoming []ForcedEdge
	Duration       time.Duration
}

// Forced returns the total number of repair edges.
func (r *Report) Forced() int {
	return len(r.ForcedOutgoing) + len(r.ForcedIncoming)
}

// Observer is notified of every forced edge as it is added.
type Observer func(dir Direction, edge ForcedEdge)

// =============================================================================
// Generator
// =============================================================================

// Generator produces random graphs from a Config.
type Generator struct {
	cfg      Config
	observer Observer
	log      *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithObserver registers a callback for forced edges.
func WithObserver(obs Observer) Option {
	return func(g *Generator) {
		g.observer = obs
	}
}

// WithLogger overrides the logger.
func WithLogger(log *slog.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// New creates a generator.
func New(cfg Config, opts ...Option) *Generator {
	g := &Generator{
		cfg: cfg,
		log: logger.WithComponent("generator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Config returns the generator configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate builds a new graph.
//
// Errors:
//   - CodeInvalidArgument: the configuration is invalid (checked before allocation)
//   - CodeOutOfMemory: the matrix could not be allocated
//   - CodeCanceled / CodeTimeout: ctx ended while rows were being drawn
func (g *Generator) Generate(ctx context.Context) (*graph.Store, *Report, error) {
	start := time.Now()

	if err := g.cfg.Validate(); err != nil {
		return nil, nil, err
	}

	rng := rand.New(rand.NewSource(g.cfg.Seed))

	store, err := graph.Allocate(g.cfg.Vertices,
		graph.WithLimits(g.cfg.MaxEdgeWeight, g.cfg.NoConnection),
		graph.WithMaxCells(g.cfg.MaxCells),
	)
	if err != nil {
		return nil, nil, err
	}
	store.Reset()

	n := g.cfg.Vertices
	maxW := g.cfg.MaxEdgeWeight

	report := &Report{
		Vertices: n,
		Seed:     g.cfg.Seed,
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, apperror.FromContext(err, "graph generation interrupted").
				WithDetails("row", i)
		}

		outgoing := 0
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			t := rng.Intn((maxW-1)*2) + 1
			if t >= maxW {
				continue
			}
			store.SetWeight(i, j, t)
			store.MarkDiscovered(j)
			outgoing++
		}

		if outgoing == 0 && n > 1 {
			to := rng.Intn(n)
			if to == i {
				to = (to * to) % n
				if to == i {
					to = (to + 1) % n
				}
			}
			edge := ForcedEdge{From: i, To: to, Weight: rng.Intn(maxW-1) + 1}
			store.SetWeight(edge.From, edge.To, edge.Weight)
			report.ForcedOutgoing = append(report.ForcedOutgoing, edge)
			g.notify(Outgoing, edge)
		}
	}

	if n > 1 {
		for i := 0; i < n; i++ {
			if store.Discovered(i) {
				continue
			}
			from := rng.Intn(n)
			if from == i {
				from = (from + 1) % n
			}
			edge := ForcedEdge{From: from, To: i, Weight: rng.Intn(maxW-1) + 1}
			store.SetWeight(edge.From, edge.To, edge.Weight)
			report.ForcedIncoming = append(report.ForcedIncoming, edge)
			g.notify(Incoming, edge)
		}
	}

	// Discovery flags only track incoming edges during repair
	store.Reset()

	report.Edges = store.EdgeCount()
	report.Duration = time.Since(start)

	g.log.Debug("graph generated",
		"vertices", n,
		"seed", g.cfg.Seed,
		"edges", report.Edges,
		"forced_outgoing", len(report.ForcedOutgoing),
		"forced_incoming", len(report.ForcedIncoming),
		"duration", report.Duration,
	)

	return store, report, nil
}

func (g *Generator) notify(dir Direction, edge ForcedEdge) {
	switch dir {
	case Outgoing:
		g.log.Info("Adding outgoing link", "from", edge.From, "to", edge.To, "weight", edge.Weight)
	case Incoming:
		g.log.Info("Adding incoming link", "from", edge.From, "to", edge.To, "weight", edge.Weight)
	}
	if g.observer != nil {
		g.observer(dir, edge)
	}
}
