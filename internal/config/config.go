// Package config provides hierarchical configuration loading for swarmpilot.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the swarmpilot core service.
type Config struct {
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
	Dispatch  Dispatch  `yaml:"dispatch"`
	Audit     Audit     `yaml:"audit"`
	Cache     Cache     `yaml:"cache"`
	Telemetry Telemetry `yaml:"telemetry"`
	LocalLLM  LocalLLM  `yaml:"local_llm"`
	Agents    []AgentDef `yaml:"agents"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Dispatch holds task queue and executor configuration.
type Dispatch struct {
	QueueCapacity int           `yaml:"queue_capacity"` // buffered channel size (default: 256)
	Tick          time.Duration `yaml:"tick"`           // idle wake-up interval (default: 2s)
	ErrorBackoff  time.Duration `yaml:"error_backoff"`  // sleep after an unexpected executor error (default: 5s)
	StopTimeout   time.Duration `yaml:"stop_timeout"`   // max wait for the executor to drain on Stop (default: 5s)
	Workspace     string        `yaml:"workspace"`      // default workspace directory
}

// Audit holds the append-only instruction log configuration.
type Audit struct {
	Path string `yaml:"path"`
}

// Cache holds the in-process cache configuration.
type Cache struct {
	MaxSizeMB      int64         `yaml:"max_size_mb"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
}

// Telemetry holds OpenTelemetry export configuration.
// Metrics and traces are disabled unless an endpoint is set.
type Telemetry struct {
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// LocalLLM holds the optional local model server configuration
// (OpenAI-compatible chat endpoint: Ollama, LM Studio, vLLM).
// The generic handler falls back to a plain echo when URL is empty.
type LocalLLM struct {
	URL     string        `yaml:"url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// AgentDef describes one agent in the registry. When the agents list is
// empty the built-in registry is used.
type AgentDef struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Role         string   `yaml:"role"`
	Capabilities []string `yaml:"capabilities"`
	RoleKeywords []string `yaml:"role_keywords"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		Logging: Logging{
			Level:   "info",
			Service: "swarmpilot-core",
		},
		Dispatch: Dispatch{
			QueueCapacity: 256,
			Tick:          2 * time.Second,
			ErrorBackoff:  5 * time.Second,
			StopTimeout:   5 * time.Second,
			Workspace:     "./workspace",
		},
		Audit: Audit{
			Path: "swarmpilot_activity.log",
		},
		Cache: Cache{
			MaxSizeMB:      64,
			IdempotencyTTL: 10 * time.Minute,
		},
		LocalLLM: LocalLLM{
			Timeout: 30 * time.Second,
		},
	}
}
