package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "swarmpilot.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "SWARMPILOT_PORT")
	setString(&cfg.Server.CORSOrigin, "SWARMPILOT_CORS_ORIGIN")
	setString(&cfg.Logging.Level, "SWARMPILOT_LOG_LEVEL")
	setString(&cfg.Logging.Service, "SWARMPILOT_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "SWARMPILOT_LOG_ASYNC")
	setInt(&cfg.Dispatch.QueueCapacity, "SWARMPILOT_QUEUE_CAPACITY")
	setDuration(&cfg.Dispatch.Tick, "SWARMPILOT_TICK")
	setDuration(&cfg.Dispatch.ErrorBackoff, "SWARMPILOT_ERROR_BACKOFF")
	setDuration(&cfg.Dispatch.StopTimeout, "SWARMPILOT_STOP_TIMEOUT")
	setString(&cfg.Dispatch.Workspace, "SWARMPILOT_WORKSPACE")
	setString(&cfg.Audit.Path, "SWARMPILOT_AUDIT_LOG")
	setInt64(&cfg.Cache.MaxSizeMB, "SWARMPILOT_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.IdempotencyTTL, "SWARMPILOT_IDEMPOTENCY_TTL")
	setString(&cfg.Telemetry.Endpoint, "SWARMPILOT_OTLP_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "SWARMPILOT_OTLP_INSECURE")
	setString(&cfg.LocalLLM.URL, "SWARMPILOT_LLM_URL")
	setString(&cfg.LocalLLM.Model, "SWARMPILOT_LLM_MODEL")
	setDuration(&cfg.LocalLLM.Timeout, "SWARMPILOT_LLM_TIMEOUT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Dispatch.QueueCapacity < 1 {
		return errors.New("dispatch.queue_capacity must be >= 1")
	}
	if cfg.Dispatch.Tick <= 0 {
		return errors.New("dispatch.tick must be positive")
	}
	if cfg.Dispatch.ErrorBackoff <= 0 {
		return errors.New("dispatch.error_backoff must be positive")
	}
	if cfg.Audit.Path == "" {
		return errors.New("audit.path is required")
	}
	for i := range cfg.Agents {
		if cfg.Agents[i].ID == "" {
			return fmt.Errorf("agents[%d].id is required", i)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
