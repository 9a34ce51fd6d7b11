// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
)

// Config - главная структура конфигурации
type Config struct {
	App     AppConfig     `koanf:"app"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Tracing TracingConfig `koanf:"tracing"`
	Graph   GraphConfig   `koanf:"graph"`
	Engine  EngineConfig  `koanf:"engine"`
	Output  OutputConfig  `koanf:"output"`
}

// AppConfig - общие настройки приложения
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level      string `koanf:"level"`  // debug, info, warn, error
	Format     string `koanf:"format"` // json, text
	Output     string `koanf:"output"` // stdout, stderr, file
	FilePath   string `koanf:"file_path"`
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // количество файлов
	MaxAge     int    `koanf:"max_age"`     // дни
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig - настройки метрик
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Serve     bool   `koanf:"serve"` // поднимать HTTP endpoint /metrics
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
	Linger    bool   `koanf:"linger"` // не завершать процесс после расчёта, пока не придёт сигнал
}

// TracingConfig - настройки трейсинга
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Exporter    string  `koanf:"exporter"` // otlp, stdout
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// GraphConfig - параметры генерации графа
type GraphConfig struct {
	Vertices      int   `koanf:"vertices"`
	Seed          int64 `koanf:"seed"`
	MaxEdgeWeight int   `koanf:"max_edge_weight"` // веса рёбер лежат в [1, max_edge_weight)
	NoConnection  int   `koanf:"no_connection"`   // маркер отсутствия ребра, >= max_edge_weight
	MaxCells      int64 `koanf:"max_cells"`       // лимит ячеек матрицы, 0 - без лимита
	Source        int   `koanf:"source"`
	PrintMatrix   bool  `koanf:"print_matrix"`
}

// EngineConfig - параметры параллельной релаксации
type EngineConfig struct {
	Workers  int `koanf:"workers"`   // 0 - по числу CPU
	MinChunk int `koanf:"min_chunk"` // минимум вершин на одну задачу релаксации
}

// OutputConfig - параметры вывода результата
type OutputConfig struct {
	PrintDistances bool `koanf:"print_distances"`
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Metrics.Serve && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		errs = append(errs, fmt.Sprintf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port))
	}

	validExporters := map[string]bool{"otlp": true, "stdout": true}
	if c.Tracing.Enabled && !validExporters[c.Tracing.Exporter] {
		errs = append(errs, fmt.Sprintf("tracing.exporter must be one of: otlp, stdout, got %s", c.Tracing.Exporter))
	}

	// Валидация параметров графа
	if c.Graph.Vertices <= 0 {
		errs = append(errs, fmt.Sprintf("graph.vertices must be positive, got %d", c.Graph.Vertices))
	}
	if c.Graph.Seed < 0 {
		errs = append(errs, fmt.Sprintf("graph.seed must be non-negative, got %d", c.Graph.Seed))
	}
	if c.Graph.MaxEdgeWeight < 2 {
		errs = append(errs, fmt.Sprintf("graph.max_edge_weight must be at least 2, got %d", c.Graph.MaxEdgeWeight))
	}
	if c.Graph.NoConnection < c.Graph.MaxEdgeWeight || c.Graph.NoConnection > 255 {
		errs = append(errs, fmt.Sprintf("graph.no_connection must be in [max_edge_weight, 255], got %d", c.Graph.NoConnection))
	}
	if c.Graph.MaxCells < 0 {
		errs = append(errs, "graph.max_cells must be non-negative")
	}
	if c.Graph.Source < 0 || (c.Graph.Vertices > 0 && c.Graph.Source >= c.Graph.Vertices) {
		errs = append(errs, fmt.Sprintf("graph.source must be in [0, %d), got %d", c.Graph.Vertices, c.Graph.Source))
	}

	// Валидация движка
	if c.Engine.Workers < 0 {
		errs = append(errs, fmt.Sprintf("engine.workers must be non-negative, got %d", c.Engine.Workers))
	}
	if c.Engine.MinChunk < 0 {
		errs = append(errs, fmt.Sprintf("engine.min_chunk must be non-negative, got %d", c.Engine.MinChunk))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment проверяет режим разработки
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction проверяет продакшн режим
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
