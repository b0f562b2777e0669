package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Garden Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Redis     RedisConfig     `yaml:"redis"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Agent     AgentConfig     `yaml:"agent"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// HistorySize is the number of decoded payloads retained per topic.
	HistorySize int `yaml:"history_size"`

	// InboundBuffer bounds the queue between the broker callbacks and the
	// router's receive loop.
	InboundBuffer int `yaml:"inbound_buffer"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	TLS      bool          `yaml:"tls"`
	TLSFiles MQTTTLSConfig `yaml:"tls_files"`
	ClientID string        `yaml:"client_id"`
}

// MQTTTLSConfig points at the PEM files used for mutual TLS with the broker.
// All fields are optional; an empty CAFile falls back to the system pool.
type MQTTTLSConfig struct {
	CAFile   string `yaml:"ca_file"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
// An empty AllowedOrigins list allows every origin.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains realtime WebSocket endpoint settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
// When enabled, every sensor reading is mirrored as a time-series point.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`

	// Measurement names; empty means sensor_reading and esp_status.
	ReadingMeasurement string `yaml:"reading_measurement"`
	StatusMeasurement  string `yaml:"status_measurement"`

	// Tags are added to every mirrored point, after service=gardencore.
	Tags map[string]string `yaml:"tags"`
}

// RedisConfig contains the connection settings for the scheduled job keyspace.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// SchedulerConfig contains settings for the cron runner.
type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`

	// SyncInterval is how often (seconds) the runner reloads jobs from Redis.
	SyncInterval int `yaml:"sync_interval"`

	// Timezone is the IANA location cron expressions are evaluated in.
	Timezone string `yaml:"timezone"`
}

// AgentConfig contains settings for the external agent service.
type AgentConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains the shared secret used to verify access tokens.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GARDENCORE_SECTION_KEY
// For example: GARDENCORE_DATABASE_PATH, GARDENCORE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/gardencore.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "mqtt-broker",
				Port:     8883,
				TLS:      true,
				ClientID: "gardencore",
			},
			QoS: 0,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			HistorySize:   5,
			InboundBuffer: 256,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/wsinit",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Redis: RedisConfig{
			Addr:      "redis:6379",
			KeyPrefix: "redbeat:",
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			SyncInterval: 15,
			Timezone:     "UTC",
		},
		Agent: AgentConfig{
			BaseURL: "http://agent:9000",
			Timeout: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GARDENCORE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("GARDENCORE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GARDENCORE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GARDENCORE_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("GARDENCORE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GARDENCORE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("GARDENCORE_MQTT_CA_FILE"); v != "" {
		cfg.MQTT.Broker.TLSFiles.CAFile = v
	}
	if v := os.Getenv("GARDENCORE_MQTT_CERT_FILE"); v != "" {
		cfg.MQTT.Broker.TLSFiles.CertFile = v
	}
	if v := os.Getenv("GARDENCORE_MQTT_KEY_FILE"); v != "" {
		cfg.MQTT.Broker.TLSFiles.KeyFile = v
	}

	// API
	if v := os.Getenv("GARDENCORE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("GARDENCORE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Redis
	if v := os.Getenv("GARDENCORE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("GARDENCORE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	// Agent service
	if v := os.Getenv("GARDENCORE_AGENT_BASE_URL"); v != "" {
		cfg.Agent.BaseURL = v
	}

	// Security - JWT secret (always override in production)
	if v := os.Getenv("GARDENCORE_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.HistorySize < 1 {
		errs = append(errs, "mqtt.history_size must be at least 1")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if !strings.HasPrefix(c.WebSocket.Path, "/") {
		errs = append(errs, "websocket.path must start with /")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if c.Scheduler.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis.addr is required when the scheduler is enabled")
		}
		if c.Scheduler.SyncInterval < 1 {
			errs = append(errs, "scheduler.sync_interval must be at least 1 second")
		}
		if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("scheduler.timezone %q is not a valid location", c.Scheduler.Timezone))
		}
	}

	// Realtime connections are authenticated with HS256 tokens; a short
	// secret lets anyone forge a subject and control garden hardware.
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set GARDENCORE_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetSyncInterval returns the scheduler sync interval as a Duration.
func (c *Config) GetSyncInterval() time.Duration {
	return time.Duration(c.Scheduler.SyncInterval) * time.Second
}

// GetAgentTimeout returns the agent service request timeout as a Duration.
func (c *Config) GetAgentTimeout() time.Duration {
	return time.Duration(c.Agent.Timeout) * time.Second
}
