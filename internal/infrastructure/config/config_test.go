package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validSecret = "test-secret-key-at-least-32-chars!"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    tls: false
    client_id: "test-client"
  qos: 1
  history_size: 3
redis:
  addr: "localhost:6379"
api:
  host: "0.0.0.0"
  port: 8080
security:
  jwt:
    secret: "`+validSecret+`"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
	if cfg.MQTT.Broker.TLS {
		t.Error("MQTT.Broker.TLS = true, want false")
	}
	if cfg.MQTT.HistorySize != 3 {
		t.Errorf("MQTT.HistorySize = %d, want 3", cfg.MQTT.HistorySize)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q, want %q", cfg.Redis.Addr, "localhost:6379")
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
security:
  jwt:
    secret: "`+validSecret+`"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.HistorySize != 5 {
		t.Errorf("MQTT.HistorySize = %d, want 5", cfg.MQTT.HistorySize)
	}
	if cfg.WebSocket.Path != "/wsinit" {
		t.Errorf("WebSocket.Path = %q, want %q", cfg.WebSocket.Path, "/wsinit")
	}
	if cfg.Redis.KeyPrefix != "redbeat:" {
		t.Errorf("Redis.KeyPrefix = %q, want %q", cfg.Redis.KeyPrefix, "redbeat:")
	}
	if cfg.GetSyncInterval() != 15*time.Second {
		t.Errorf("GetSyncInterval() = %v, want 15s", cfg.GetSyncInterval())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	configPath := writeConfig(t, `
security:
  jwt:
    secret: "short"
`)

	t.Setenv("GARDENCORE_JWT_SECRET", validSecret)
	t.Setenv("GARDENCORE_MQTT_HOST", "broker.internal")
	t.Setenv("GARDENCORE_MQTT_PORT", "1884")
	t.Setenv("GARDENCORE_REDIS_ADDR", "cache.internal:6380")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Security.JWT.Secret != validSecret {
		t.Errorf("Security.JWT.Secret not overridden from environment")
	}
	if cfg.MQTT.Broker.Host != "broker.internal" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.internal")
	}
	if cfg.MQTT.Broker.Port != 1884 {
		t.Errorf("MQTT.Broker.Port = %d, want 1884", cfg.MQTT.Broker.Port)
	}
	if cfg.Redis.Addr != "cache.internal:6380" {
		t.Errorf("Redis.Addr = %q, want %q", cfg.Redis.Addr, "cache.internal:6380")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults with secret",
			mutate: func(*Config) {},
		},
		{
			name:    "missing secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "" },
			wantErr: "security.jwt.secret is required",
		},
		{
			name:    "short secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "too-short" },
			wantErr: "at least 32 characters",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "zero history",
			mutate:  func(c *Config) { c.MQTT.HistorySize = 0 },
			wantErr: "mqtt.history_size",
		},
		{
			name:    "bad websocket path",
			mutate:  func(c *Config) { c.WebSocket.Path = "wsinit" },
			wantErr: "websocket.path",
		},
		{
			name:    "influx without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: "influxdb.url",
		},
		{
			name: "influx without bucket",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://influxdb:8086"
				c.InfluxDB.Org = "gardencore"
			},
			wantErr: "influxdb.bucket",
		},
		{
			name:    "scheduler without redis",
			mutate:  func(c *Config) { c.Redis.Addr = "" },
			wantErr: "redis.addr",
		},
		{
			name:    "scheduler bad timezone",
			mutate:  func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" },
			wantErr: "scheduler.timezone",
		},
		{
			name: "scheduler disabled skips redis",
			mutate: func(c *Config) {
				c.Scheduler.Enabled = false
				c.Redis.Addr = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.JWT.Secret = validSecret
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
