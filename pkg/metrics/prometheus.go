package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик
type Metrics struct {
	// Генерация графа
	GenerationsTotal *prometheus.CounterVec
	GenerateDuration prometheus.Histogram
	ForcedEdgesTotal *prometheus.CounterVec
	GraphVertices    prometheus.Histogram
	GraphEdges       prometheus.Histogram

	// Поиск кратчайших путей
	SearchesTotal       *prometheus.CounterVec
	SearchDuration      prometheus.Histogram
	SearchRounds        prometheus.Gauge
	UnreachableVertices prometheus.Gauge
	EngineWorkers       prometheus.Gauge

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

var defaultMetrics *Metrics

// InitMetrics инициализирует метрики в глобальном registry
func InitMetrics(namespace, subsystem string) *Metrics {
	m := NewMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer, namespace, subsystem)
	defaultMetrics = m
	return m
}

// NewMetrics создаёт метрики в указанном registry
func NewMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer, namespace, subsystem string) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "generations_total",
				Help:      "Total number of graph generations",
			},
			[]string{"status"},
		),

		GenerateDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "generate_duration_seconds",
				Help:      "Duration of graph generation",
				Buckets:   []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),

		ForcedEdgesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "forced_edges_total",
				Help:      "Edges added to repair vertices without incoming or outgoing edges",
			},
			[]string{"direction"},
		),

		GraphVertices: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_vertices",
				Help:      "Number of vertices in generated graphs",
				Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
			},
		),

		GraphEdges: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_edges",
				Help:      "Number of edges in generated graphs",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
			},
		),

		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "searches_total",
				Help:      "Total number of shortest path searches",
			},
			[]string{"status"},
		),

		SearchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "search_duration_seconds",
				Help:      "Duration of shortest path searches",
				Buckets:   []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),

		SearchRounds: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "search_rounds",
				Help:      "Settle rounds executed by the last search",
			},
		),

		UnreachableVertices: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "unreachable_vertices",
				Help:      "Vertices left at infinity by the last search",
			},
		),

		EngineWorkers: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "engine_workers",
				Help:      "Relaxation workers used by the last search",
			},
		),

		ServiceInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),

		gatherer: gatherer,
	}

	return m
}

// Get возвращает глобальные метрики
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("pathfinder", "")
	}
	return defaultMetrics
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordGeneration записывает метрики генерации графа
func (m *Metrics) RecordGeneration(success bool, duration time.Duration, vertices, edges int) {
	m.GenerationsTotal.WithLabelValues(status(success)).Inc()
	if !success {
		return
	}
	m.GenerateDuration.Observe(duration.Seconds())
	m.GraphVertices.Observe(float64(vertices))
	m.GraphEdges.Observe(float64(edges))
}

// RecordForcedEdges записывает количество добавленных рёбер
func (m *Metrics) RecordForcedEdges(outgoing, incoming int) {
	m.ForcedEdgesTotal.WithLabelValues("outgoing").Add(float64(outgoing))
	m.ForcedEdgesTotal.WithLabelValues("incoming").Add(float64(incoming))
}

// RecordSearch записывает метрики поиска
func (m *Metrics) RecordSearch(success bool, duration time.Duration, rounds, unreachable, workers int) {
	m.SearchesTotal.WithLabelValues(status(success)).Inc()
	if !success {
		return
	}
	m.SearchDuration.Observe(duration.Seconds())
	m.SearchRounds.Set(float64(rounds))
	m.UnreachableVertices.Set(float64(unreachable))
	m.EngineWorkers.Set(float64(workers))
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func (m *Metrics) Handler() http.Handler {
	if m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Handler возвращает HTTP handler глобальных метрик
func Handler() http.Handler {
	return promhttp.Handler()
}

// Server HTTP сервер метрик
type Server struct {
	srv *http.Server
}

// NewServer создаёт HTTP сервер для метрик
func NewServer(port int, path string, handler http.Handler) *Server {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		// Игнорируем ошибку записи - response уже отправлен
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, ошибка записи не критична
	})

	return &Server{
		srv: &http.Server{
			Addr:         ":" + strconv.Itoa(port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// ListenAndServe блокируется до остановки сервера; штатная остановка не считается ошибкой
func (s *Server) ListenAndServe() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает сервер
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler возвращает mux сервера (для тестов)
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
