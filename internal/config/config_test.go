package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("TEST_REMOTE_KEY", "anon-from-env")

	yamlContent := `
app:
  name: "islandstay"
remote:
  url: "https://project.example.co/"
  anon_key: "${TEST_REMOTE_KEY}"
  request_timeout: 3s
api:
  http:
    enabled: true
    port: 9000
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Remote.AnonKey != "anon-from-env" {
		t.Errorf("expected anon key from env, got %s", cfg.Remote.AnonKey)
	}
	if cfg.Remote.URL != "https://project.example.co" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.Remote.URL)
	}
	if cfg.Remote.RequestTimeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %s", cfg.Remote.RequestTimeout)
	}
	if cfg.API.HTTP.Port != 9000 {
		t.Errorf("expected http port 9000, got %d", cfg.API.HTTP.Port)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateConfig(t *testing.T) {
	base := func() Config {
		return Config{
			Remote:  RemoteConfig{URL: "https://x.example.co", AnonKey: "key"},
			Session: SessionConfig{CookieName: "sid"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing url", mutate: func(c *Config) { c.Remote.URL = "" }, wantErr: true},
		{name: "non http url", mutate: func(c *Config) { c.Remote.URL = "ftp://x" }, wantErr: true},
		{name: "placeholder key", mutate: func(c *Config) { c.Remote.AnonKey = "YOUR_ANON_KEY_HERE" }, wantErr: true},
		{
			name: "duplicate api key",
			mutate: func(c *Config) {
				c.API.Auth.APIKeys = []APIClientKey{{Key: "k", Name: "a"}, {Key: "k", Name: "b"}}
			},
			wantErr: true,
		},
		{
			name:    "empty api key",
			mutate:  func(c *Config) { c.API.Auth.APIKeys = []APIClientKey{{Name: "a"}} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Monitoring: MonitoringConfig{PrometheusEnabled: true}}
	cfg.applyDefaults()

	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.API.GRPC.Port != 8081 {
		t.Errorf("expected default gRPC port 8081, got %d", cfg.API.GRPC.Port)
	}
	if cfg.Monitoring.PrometheusPort != 9090 {
		t.Errorf("expected default Prometheus port 9090, got %d", cfg.Monitoring.PrometheusPort)
	}
	if cfg.Remote.RequestTimeout != 10*time.Second {
		t.Errorf("expected default request timeout 10s, got %s", cfg.Remote.RequestTimeout)
	}
	if cfg.Session.CookieName == "" || cfg.Session.TTL == 0 || cfg.Session.LoginAttempts == 0 {
		t.Errorf("expected session defaults, got %+v", cfg.Session)
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header, got %s", cfg.API.Auth.HeaderAPIKey)
	}
}
