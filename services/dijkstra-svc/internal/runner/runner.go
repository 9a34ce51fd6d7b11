// Package runner wires the generator and the engine into a single run:
// generate a graph, search it from the configured source and report the
// distance vector together with the search time.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pathfinder/pkg/config"
	"pathfinder/pkg/logger"
	"pathfinder/pkg/metrics"
	"pathfinder/pkg/telemetry"
	"pathfinder/services/dijkstra-svc/internal/engine"
	"pathfinder/services/dijkstra-svc/internal/generator"
	"pathfinder/services/dijkstra-svc/internal/graph"
)

// Summary describes a finished run.
type Summary struct {
	RunID  string
	Report *generator.Report
	Result *engine.Result

	// Elapsed covers the search phase only.
	Elapsed time.Duration
}

// Runner executes runs for one configuration.
type Runner struct {
	cfg     *config.Config
	out     io.Writer
	metrics *metrics.Metrics
	tracer  trace.Tracer
	log     *slog.Logger
	pool    *graph.BufferPool
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets where the report is written. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// WithMetrics sets the metrics sink. Without it the global metrics are used
// when metrics are enabled in the configuration.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTracer sets the tracer. Defaults to the global telemetry provider.
func WithTracer(tr trace.Tracer) Option {
	return func(r *Runner) {
		r.tracer = tr
	}
}

// WithLogger overrides the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}

// WithPool sets the engine buffer pool.
func WithPool(p *graph.BufferPool) Option {
	return func(r *Runner) {
		r.pool = p
	}
}

// New creates a runner for cfg.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg: cfg,
		out: os.Stdout,
		log: logger.WithComponent("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.metrics == nil && cfg.Metrics.Enabled {
		r.metrics = metrics.Get()
	}
	if r.tracer == nil {
		r.tracer = telemetry.Get().Tracer()
	}
	return r
}

// Run generates the graph, searches it and writes the report.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.New().String()
	log := r.log.With("run_id", runID)
	out := bufio.NewWriter(r.out)

	summary := &Summary{RunID: runID}
	err := r.run(ctx, runID, log, out, summary)

	if flushErr := out.Flush(); flushErr != nil && err == nil {
		err = fmt.Errorf("write report: %w", flushErr)
	}
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *Runner) run(ctx context.Context, runID string, log *slog.Logger, out *bufio.Writer, summary *Summary) error {
	g := r.cfg.Graph

	fmt.Fprintf(out, "Generating graph of size %dx%d with seed [%d]\n", g.Vertices, g.Vertices, g.Seed)

	store, report, err := r.generate(ctx, runID, log, out)
	if err != nil {
		return err
	}
	summary.Report = report

	fmt.Fprintln(out, "DONE!")

	if g.PrintMatrix {
		if err := store.Dump(out); err != nil {
			return fmt.Errorf("write matrix: %w", err)
		}
	}

	start := time.Now()
	result, err := r.search(ctx, runID, log, store)
	if err != nil {
		return err
	}
	summary.Result = result

	for v, d := range result.Distances {
		store.SetDistance(v, d)
	}
	summary.Elapsed = time.Since(start)

	if r.cfg.Output.PrintDistances {
		writeDistances(out, store.Distances())
	}

	fmt.Fprintf(out, "Time elapsed: %f\n", summary.Elapsed.Seconds())

	log.Info("run finished",
		"vertices", g.Vertices,
		"source", g.Source,
		"edges", report.Edges,
		"unreachable", result.Unreachable,
		"elapsed", summary.Elapsed,
	)
	return nil
}

func (r *Runner) generate(ctx context.Context, runID string, log *slog.Logger, out io.Writer) (*graph.Store, *generator.Report, error) {
	g := r.cfg.Graph

	ctx, span := r.tracer.Start(ctx, "pathfinder.generate",
		trace.WithAttributes(attribute.String(telemetry.AttrRunID, runID)))
	defer span.End()

	gen := generator.New(generator.Config{
		Vertices:      g.Vertices,
		Seed:          g.Seed,
		MaxEdgeWeight: g.MaxEdgeWeight,
		NoConnection:  g.NoConnection,
		MaxCells:      g.MaxCells,
	},
		generator.WithLogger(log.With("component", "generator")),
		generator.WithObserver(func(dir generator.Direction, e generator.ForcedEdge) {
			switch dir {
			case generator.Outgoing:
				fmt.Fprintf(out, "Adding outgoing link for [%d]\n", e.From)
			case generator.Incoming:
				fmt.Fprintf(out, "Adding incoming link for %d -> %d\n", e.From, e.To)
			}
			span.AddEvent("forced edge", trace.WithAttributes(
				attribute.String("direction", string(dir)),
				attribute.Int("from", e.From),
				attribute.Int("to", e.To),
				attribute.Int("weight", e.Weight),
			))
		}),
	)

	store, report, err := gen.Generate(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if r.metrics != nil {
			r.metrics.RecordGeneration(false, 0, 0, 0)
		}
		log.Error("graph generation failed", "error", err)
		return nil, nil, err
	}

	span.SetAttributes(telemetry.GraphAttributes(report.Vertices, report.Edges, report.Seed)...)
	span.SetAttributes(telemetry.ForcedEdgeAttributes(len(report.ForcedOutgoing), len(report.ForcedIncoming))...)
	span.SetStatus(codes.Ok, "")

	if r.metrics != nil {
		r.metrics.RecordGeneration(true, report.Duration, report.Vertices, report.Edges)
		r.metrics.RecordForcedEdges(len(report.ForcedOutgoing), len(report.ForcedIncoming))
	}

	log.Info("graph generated",
		"vertices", report.Vertices,
		"edges", report.Edges,
		"forced", report.Forced(),
		"duration", report.Duration,
	)
	return store, report, nil
}

func (r *Runner) search(ctx context.Context, runID string, log *slog.Logger, store *graph.Store) (*engine.Result, error) {
	opts := []engine.Option{
		engine.WithWorkers(r.cfg.Engine.Workers),
		engine.WithMinChunk(r.cfg.Engine.MinChunk),
		engine.WithLogger(log.With("component", "engine")),
	}
	if r.pool != nil {
		opts = append(opts, engine.WithPool(r.pool))
	}
	eng := engine.New(opts...)

	ctx, span := r.tracer.Start(ctx, "pathfinder.search",
		trace.WithAttributes(attribute.String(telemetry.AttrRunID, runID)))
	defer span.End()

	start := time.Now()
	result, err := eng.Run(ctx, store, r.cfg.Graph.Source)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if r.metrics != nil {
			r.metrics.RecordSearch(false, time.Since(start), 0, 0, 0)
		}
		log.Error("search failed", "error", err)
		return nil, err
	}

	span.SetAttributes(telemetry.SearchAttributes(result.Source, result.Rounds, result.Unreachable, result.Workers)...)
	span.SetStatus(codes.Ok, "")

	if r.metrics != nil {
		r.metrics.RecordSearch(true, result.Duration, result.Rounds, result.Unreachable, result.Workers)
	}
	return result, nil
}

func writeDistances(w io.Writer, dist []int64) {
	fmt.Fprintln(w, "Vertex   Distance from Source")
	for v, d := range dist {
		value := "INF"
		if d != graph.Infinity {
			value = strconv.FormatInt(d, 10)
		}
		fmt.Fprintf(w, "%d\t%s\n", v, value)
	}
}
