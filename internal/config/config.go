// Package config loads process settings for the designer binaries.
//
// Settings are layered: built-in defaults, an optional YAML file, an
// optional .env file, SATNET_* environment variables and finally the
// command-line flags each binary defines. Later layers win.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/satnet-designer/core"
	"github.com/signalsfoundry/satnet-designer/internal/logging"
	"github.com/signalsfoundry/satnet-designer/internal/observability"
	"github.com/signalsfoundry/satnet-designer/internal/validation"
	"github.com/signalsfoundry/satnet-designer/model"
)

// DefaultEnvFile is read when SATNET_ENV_FILE is unset.
const DefaultEnvFile = ".env"

// HTTPConfig configures the GPSS generator service.
type HTTPConfig struct {
	Addr            string        `json:"addr" yaml:"addr" validate:"required,hostname_port"`
	ReadTimeout     time.Duration `json:"readTimeout" yaml:"readTimeout" validate:"gte=0"`
	WriteTimeout    time.Duration `json:"writeTimeout" yaml:"writeTimeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout" validate:"gt=0"`
	MaxBodyBytes    int64         `json:"maxBodyBytes" yaml:"maxBodyBytes" validate:"gt=0"`
}

// MetricsConfig configures the Prometheus listener. An empty address
// serves /metrics on the main listener only.
type MetricsConfig struct {
	Addr string `json:"addr" yaml:"addr" validate:"omitempty,hostname_port"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `json:"path" yaml:"path" validate:"required"`
}

// LogConfig mirrors logging.Config.
type LogConfig struct {
	Level  string `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `json:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

// ModelDefaults seeds new topologies.
type ModelDefaults struct {
	ID       string  `json:"id" yaml:"id"`
	Duration float64 `json:"duration" yaml:"duration" validate:"gt=0"`
	MTU      int     `json:"mtu" yaml:"mtu" validate:"gte=1"`
}

// CodegenConfig holds defaults for generated GPSS programs.
type CodegenConfig struct {
	Encoding              string `json:"encoding" yaml:"encoding" validate:"oneof=utf-8 cp1251"`
	IncludeGenerationInfo bool   `json:"includeGenerationInfo" yaml:"includeGenerationInfo"`
}

// Config is the full set of process settings.
type Config struct {
	HTTP    HTTPConfig                  `json:"http" yaml:"http"`
	Metrics MetricsConfig               `json:"metrics" yaml:"metrics"`
	Store   StoreConfig                 `json:"store" yaml:"store"`
	Log     LogConfig                   `json:"log" yaml:"log"`
	Tracing observability.TracingConfig `json:"tracing" yaml:"tracing"`
	Model   ModelDefaults               `json:"model" yaml:"model"`
	Codegen CodegenConfig               `json:"codegen" yaml:"codegen"`
}

// Default returns the built-in settings.
func Default() Config {
	m := core.DefaultModelConfig("")
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    4 << 20,
		},
		Store:   StoreConfig{Path: "satnet.db"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Tracing: observability.DefaultTracingConfig(),
		Model: ModelDefaults{
			ID:       "model",
			Duration: m.Sim.Duration,
			MTU:      m.Packet.MTU,
		},
		Codegen: CodegenConfig{Encoding: "cp1251"},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), the .env file and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}
	ApplyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// loadEnvFile exports the .env entries that are not already set. A
// missing file is not an error.
func loadEnvFile() error {
	path := os.Getenv("SATNET_ENV_FILE")
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg from SATNET_* variables. Malformed numbers are
// ignored.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("SATNET_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("SATNET_HTTP_MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.HTTP.MaxBodyBytes = n
		}
	}
	if v := os.Getenv("SATNET_HTTP_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ShutdownTimeout = d
		}
	}
	if v, ok := os.LookupEnv("SATNET_METRICS_ADDR"); ok {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("SATNET_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("SATNET_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SATNET_LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := os.Getenv("SATNET_MODEL_ID"); v != "" {
		cfg.Model.ID = v
	}
	if v := os.Getenv("SATNET_MODEL_DURATION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Model.Duration = f
		}
	}
	if v := os.Getenv("SATNET_MODEL_MTU"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Model.MTU = n
		}
	}
	if v := os.Getenv("SATNET_CODEGEN_ENCODING"); v != "" {
		cfg.Codegen.Encoding = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv("SATNET_CODEGEN_INCLUDE_INFO"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Codegen.IncludeGenerationInfo = b
		}
	}
	observability.ApplyTracingEnv(&cfg.Tracing)
}

// Validate checks every section and reports all failures at once.
func (c Config) Validate() error {
	return validation.Struct("", c).Err()
}

// Logger builds the logger described by the log section.
func (c Config) Logger() logging.Logger {
	return logging.New(logging.Config{Level: c.Log.Level, Format: c.Log.Format})
}

// ModelConfig returns the default model configuration for a new topology
// named id, or named after the configured default when id is empty.
func (c Config) ModelConfig(id string) model.ModelConfig {
	if id == "" {
		id = c.Model.ID
	}
	m := core.DefaultModelConfig(id)
	m.Sim.Duration = c.Model.Duration
	m.Packet.MTU = c.Model.MTU
	return m
}
