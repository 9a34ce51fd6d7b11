// Package main is the entry point for dijkstra-svc.
//
// dijkstra-svc generates a random dense weighted digraph and computes the
// shortest distance from one source vertex to every other vertex with a
// parallel Dijkstra.
//
// # Run Overview
//
// A run has two timed phases:
//   - Generation: a seeded random adjacency matrix is built and repaired so
//     every vertex has at least one incoming and one outgoing edge
//   - Search: Dijkstra with single-threaded selection and parallel relaxation
//     over contiguous target ranges
//
// The distance vector and the search time are written to stdout. Logs go to
// stderr by default so the report stays machine readable.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                          Driver                             │
//	│  (cmd/main.go) config, logger, telemetry, metrics, signals  │
//	├─────────────────────────────────────────────────────────────┤
//	│                          Runner                             │
//	│  (internal/runner) generate → search → report               │
//	├──────────────────────────────┬──────────────────────────────┤
//	│          Generator           │            Engine            │
//	│  (internal/generator)        │  (internal/engine)           │
//	│  - seeded weights            │  - min selection             │
//	│  - degree repair             │  - errgroup relaxation       │
//	├──────────────────────────────┴──────────────────────────────┤
//	│                        Graph Layer                          │
//	│  (internal/graph) Store: dense matrix, BufferPool           │
//	└─────────────────────────────────────────────────────────────┘
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Environment variables (prefix: PATHFINDER_)
//  2. Config file (CONFIG_PATH, config.yaml, config/config.yaml, /etc/pathfinder/config.yaml)
//  3. Default values
//
// Key configuration options (environment variable format):
//
//	# Graph
//	PATHFINDER_GRAPH_VERTICES        - Vertex count (default: 5000)
//	PATHFINDER_GRAPH_SEED            - Random seed (default: 10)
//	PATHFINDER_GRAPH_MAX_EDGE_WEIGHT - Exclusive weight bound (default: 25)
//	PATHFINDER_GRAPH_NO_CONNECTION   - Absent edge marker (default: 111)
//	PATHFINDER_GRAPH_MAX_CELLS       - Matrix cell budget, 0 = unlimited
//	PATHFINDER_GRAPH_SOURCE          - Source vertex (default: 0)
//	PATHFINDER_GRAPH_PRINT_MATRIX    - Dump the matrix after generation
//
//	# Engine
//	PATHFINDER_ENGINE_WORKERS   - Relaxation goroutines, 0 = NumCPU
//	PATHFINDER_ENGINE_MIN_CHUNK - Minimum targets per goroutine (default: 256)
//
//	# Output
//	PATHFINDER_OUTPUT_PRINT_DISTANCES - Print the distance vector (default: true)
//
//	# Logging
//	PATHFINDER_LOG_LEVEL     - debug, info, warn, error (default: info)
//	PATHFINDER_LOG_FORMAT    - json, text (default: text)
//	PATHFINDER_LOG_OUTPUT    - stdout, stderr, file (default: stderr)
//	PATHFINDER_LOG_FILE_PATH - Log file path when output=file
//
//	# Metrics (Prometheus)
//	PATHFINDER_METRICS_ENABLED - Collect metrics (default: true)
//	PATHFINDER_METRICS_SERVE   - Serve /metrics and /health (default: false)
//	PATHFINDER_METRICS_PORT    - Metrics HTTP port (default: 9090)
//	PATHFINDER_METRICS_LINGER  - Keep serving after the run until SIGINT/SIGTERM
//
//	# Tracing (OpenTelemetry)
//	PATHFINDER_TRACING_ENABLED  - Enable tracing (default: false)
//	PATHFINDER_TRACING_EXPORTER - otlp, stdout (default: otlp)
//	PATHFINDER_TRACING_ENDPOINT - OTLP endpoint (default: localhost:4317)
//
// # Exit Codes
//
//	0 - Success
//	1 - Internal error
//	2 - Invalid configuration or input
//	3 - Graph storage could not be allocated
//	4 - Interrupted (SIGINT/SIGTERM) or timed out
//
// # Local Development
//
//	PATHFINDER_GRAPH_VERTICES=10 PATHFINDER_GRAPH_PRINT_MATRIX=true go run ./services/dijkstra-svc/cmd
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pathfinder/pkg/apperror"
	"pathfinder/pkg/config"
	"pathfinder/pkg/logger"
	"pathfinder/pkg/metrics"
	"pathfinder/pkg/telemetry"
	"pathfinder/services/dijkstra-svc/internal/runner"
)

func main() {
	if err := run(); err != nil {
		logger.FatalCode(apperror.ExitCode(err), "run failed",
			"error", err,
			"critical", apperror.IsCritical(err),
		)
	}
}

func run() error {
	// =========================================================================
	// Configuration Loading
	// =========================================================================
	loader := config.NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		return apperror.Wrap(err, apperror.CodeInvalidArgument, "failed to load config")
	}

	// =========================================================================
	// Logger Initialization
	// =========================================================================
	//
	// Supported outputs:
	//   - stdout/stderr: Direct console output
	//   - file: File output with automatic rotation (via lumberjack)
	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	for _, w := range loader.Warnings() {
		logger.Debug("config", "warning", w)
	}

	// SIGINT/SIGTERM cancel the run; the engine notices between rounds.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// Telemetry Initialization (OpenTelemetry)
	// =========================================================================
	//
	// Shutdown flushes pending spans before the process exits.
	if cfg.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Exporter:    cfg.Tracing.Exporter,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.ServiceName,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Log.Warn("Failed to init telemetry", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Log.Warn("Failed to shutdown telemetry", "error", err)
				}
			}()
			logger.Log.Info("Telemetry initialized", "exporter", cfg.Tracing.Exporter, "endpoint", cfg.Tracing.Endpoint)
		}
	}

	// =========================================================================
	// Metrics Initialization (Prometheus)
	// =========================================================================
	//
	// Metrics are always collected when enabled; the HTTP endpoint is only
	// started when metrics.serve is set.
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		m := metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
		m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)
		prometheus.MustRegister(metrics.NewCapacityCollector(cfg.Metrics.Namespace, cfg.Metrics.Subsystem, cfg.Engine.Workers))

		if cfg.Metrics.Serve {
			metricsServer = metrics.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, m.Handler())
			go func() {
				if err := metricsServer.ListenAndServe(); err != nil {
					logger.Log.Warn("Metrics server failed", "error", err)
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := metricsServer.Shutdown(shutdownCtx); err != nil {
					logger.Log.Warn("Failed to shutdown metrics server", "error", err)
				}
			}()
			logger.Log.Info("Metrics server started", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		}
	}

	// =========================================================================
	// Run
	// =========================================================================
	logger.Info("Starting run",
		"vertices", cfg.Graph.Vertices,
		"seed", cfg.Graph.Seed,
		"source", cfg.Graph.Source,
		"workers", cfg.Engine.Workers,
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	if _, err := runner.New(cfg, runner.WithOutput(os.Stdout)).Run(ctx); err != nil {
		return err
	}

	// =========================================================================
	// Linger
	// =========================================================================
	//
	// Keeps the metrics endpoint up for scraping until a signal arrives.
	if metricsServer != nil && cfg.Metrics.Linger {
		logger.Info("Run finished, serving metrics until interrupted")
		<-ctx.Done()
	}

	return nil
}
