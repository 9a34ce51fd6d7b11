package config

import (
	"testing"
)

func validConfig() Config {
	return Config{
		App:     AppConfig{Name: "test-service"},
		Log:     LogConfig{Level: "info"},
		Tracing: TracingConfig{Exporter: "otlp"},
		Graph: GraphConfig{
			Vertices:      10,
			Seed:          1,
			MaxEdgeWeight: 25,
			NoConnection:  111,
		},
		Engine: EngineConfig{Workers: 4, MinChunk: 16},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing app name",
			mutate:  func(c *Config) { c.App.Name = "" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Log.Level = "invalid" },
			wantErr: true,
		},
		{
			name:    "empty log level defaults to info",
			mutate:  func(c *Config) { c.Log.Level = "" },
			wantErr: false,
		},
		{
			name:    "zero vertices",
			mutate:  func(c *Config) { c.Graph.Vertices = 0 },
			wantErr: true,
		},
		{
			name:    "negative seed",
			mutate:  func(c *Config) { c.Graph.Seed = -1 },
			wantErr: true,
		},
		{
			name:    "max edge weight too small",
			mutate:  func(c *Config) { c.Graph.MaxEdgeWeight = 1 },
			wantErr: true,
		},
		{
			name:    "no connection collides with legal weight",
			mutate:  func(c *Config) { c.Graph.NoConnection = 24 },
			wantErr: true,
		},
		{
			name:    "no connection does not fit a byte",
			mutate:  func(c *Config) { c.Graph.NoConnection = 300 },
			wantErr: true,
		},
		{
			name:    "source out of range",
			mutate:  func(c *Config) { c.Graph.Source = 10 },
			wantErr: true,
		},
		{
			name:    "negative workers",
			mutate:  func(c *Config) { c.Engine.Workers = -2 },
			wantErr: true,
		},
		{
			name: "metrics served on invalid port",
			mutate: func(c *Config) {
				c.Metrics.Serve = true
				c.Metrics.Port = 0
			},
			wantErr: true,
		},
		{
			name: "unknown tracing exporter",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "zipkin"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateSetsDefaultLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Log.Level)
	}
}

func TestConfig_Environment(t *testing.T) {
	cfg := Config{App: AppConfig{Environment: "dev"}}
	if !cfg.IsDevelopment() {
		t.Error("dev should be development")
	}
	if cfg.IsProduction() {
		t.Error("dev should not be production")
	}

	cfg.App.Environment = "production"
	if !cfg.IsProduction() {
		t.Error("production should be production")
	}
}
