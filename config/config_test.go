package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/artpar/resttree/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 5s
  base_path: /api/

database:
  driver: "sqlite"
  dsn: ":memory:"

models:
  dir: ./models

logging:
  level: debug
  format: console

metrics:
  enabled: true

tracing:
  endpoint: "localhost:4317"
  insecure: true

converter:
  lowercase: true

demo:
  enabled: true
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("Addr = %s, want 127.0.0.1:9090", cfg.Server.Addr())
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.BasePath != "/api/" {
		t.Errorf("BasePath = %s, want /api/", cfg.Server.BasePath)
	}
	if cfg.Database.DSN != ":memory:" {
		t.Errorf("DSN = %s, want :memory:", cfg.Database.DSN)
	}
	if cfg.Models.Dir != "./models" {
		t.Errorf("Models.Dir = %s", cfg.Models.Dir)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.Tracing.Endpoint != "localhost:4317" || !cfg.Tracing.Insecure {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if !cfg.Converter.Lowercase || !cfg.Demo.Enabled {
		t.Error("converter or demo flag not read")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "{}\n")

	want := config.Config{
		Server: config.ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			BasePath:     "/",
			MaxBodyBytes: 1 << 20,
		},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: "resttree.db"},
		Logging:  config.LoggingConfig{Level: "info", Format: "json"},
		Metrics:  config.MetricsConfig{Path: "/metrics"},
		Tracing:  config.TracingConfig{Service: "resttree", SampleRatio: 1},
	}
	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/tmp/test.db")

	cfg := writeAndLoad(t, `
database:
  dsn: "${TEST_DB_PATH}"
`)
	if cfg.Database.DSN != "/tmp/test.db" {
		t.Errorf("DSN = %s, want /tmp/test.db", cfg.Database.DSN)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RESTTREE_SERVER_PORT", "7070")
	t.Setenv("RESTTREE_SERVER_WRITE_TIMEOUT", "2m")
	t.Setenv("RESTTREE_LOG_LEVEL", "warn")
	t.Setenv("RESTTREE_METRICS_ENABLED", "yes")
	t.Setenv("RESTTREE_CONVERTER_LOWERCASE", "1")
	t.Setenv("RESTTREE_DEMO_ENABLED", "off")

	cfg := writeAndLoad(t, `
server:
  port: 9090
logging:
  level: debug
demo:
  enabled: true
`)

	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Server.WriteTimeout != 2*time.Minute {
		t.Errorf("WriteTimeout = %v, want 2m", cfg.Server.WriteTimeout)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %s, want warn", cfg.Logging.Level)
	}
	if !cfg.Metrics.Enabled || !cfg.Converter.Lowercase {
		t.Error("boolean overrides not applied")
	}
	if cfg.Demo.Enabled {
		t.Error("demo override 'off' not applied")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "server: [", "parse config"},
		{"port", "server:\n  port: 70000\n", "server.port"},
		{"base path", "server:\n  base_path: api\n", "server.base_path"},
		{"driver", "database:\n  driver: postgres\n", "database.driver"},
		{"level", "logging:\n  level: loud\n", "logging.level"},
		{"format", "logging:\n  format: xml\n", "logging.format"},
		{"metrics path", "metrics:\n  path: metrics\n", "metrics.path"},
		{"sample ratio", "tracing:\n  sample_ratio: 2\n", "tracing.sample_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadWithFallback(t *testing.T) {
	t.Setenv("RESTTREE_DATABASE_DSN", "env.db")

	cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.DSN != "env.db" {
		t.Errorf("DSN = %s, want env.db", cfg.Database.DSN)
	}
}

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func TestLoad_AssemblerOrder(t *testing.T) {
	cfg := writeAndLoad(t, `
tree:
  assemblers: [get-by-id, get-all]
`)
	if diff := cmp.Diff([]string{"get-by-id", "get-all"}, cfg.Tree.Assemblers); diff != "" {
		t.Errorf("assemblers mismatch (-want +got):\n%s", diff)
	}
}
