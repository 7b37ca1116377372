package config

import (
	"time"

	"github.com/kbukum/resolvekit/observability"
	"github.com/kbukum/resolvekit/validation"
)

// Engine names accepted by ResolverConfig.Engine.
const (
	EngineCompiled    = "compiled"
	EngineInterpreted = "interpreted"
	EngineDynamic     = "dynamic"
)

// Lock granularities accepted by ResolverConfig.LockGranularity.
const (
	LockScope = "scope"
	LockKey   = "key"
)

// ResolverConfig selects how call sites are realized.
type ResolverConfig struct {
	// Engine is compiled, interpreted or dynamic.
	Engine string `yaml:"engine" mapstructure:"engine" validate:"oneof=compiled interpreted dynamic"`
	// CompileAfter is the call count at which the dynamic engine compiles a
	// call site in the background.
	CompileAfter int `yaml:"compile_after" mapstructure:"compile_after" validate:"gte=1"`
	// LockGranularity is scope (one lock per scope) or key (one lock per cache key).
	LockGranularity string `yaml:"lock_granularity" mapstructure:"lock_granularity" validate:"oneof=scope key"`
}

// DefaultResolverConfig returns the defaults used when nothing is configured.
func DefaultResolverConfig() ResolverConfig {
	cfg := ResolverConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *ResolverConfig) ApplyDefaults() {
	if c.Engine == "" {
		c.Engine = EngineDynamic
	}
	if c.CompileAfter == 0 {
		c.CompileAfter = 2
	}
	if c.LockGranularity == "" {
		c.LockGranularity = LockScope
	}
}

// Validate validates the resolver configuration.
func (c *ResolverConfig) Validate() error {
	return validation.Validate(c)
}

// TelemetryConfig configures OTLP export of resolver traces and metrics.
type TelemetryConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	ExportInterval time.Duration `yaml:"export_interval" mapstructure:"export_interval" validate:"gte=0"`
}

// ApplyDefaults fills unset fields.
func (c *TelemetryConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.ExportInterval == 0 {
		c.ExportInterval = 15 * time.Second
	}
}

// Validate validates the telemetry configuration.
func (c *TelemetryConfig) Validate() error {
	return validation.Validate(c)
}

// TracerConfig derives the tracer settings for svc.
func (c *TelemetryConfig) TracerConfig(svc *ServiceConfig) observability.TracerConfig {
	return observability.TracerConfig{
		ServiceName:    svc.Name,
		ServiceVersion: svc.Version,
		Environment:    svc.Environment,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure,
		SampleRate:     c.SampleRate,
	}
}

// MeterConfig derives the meter settings for svc.
func (c *TelemetryConfig) MeterConfig(svc *ServiceConfig) observability.MeterConfig {
	return observability.MeterConfig{
		ServiceName:    svc.Name,
		ServiceVersion: svc.Version,
		Environment:    svc.Environment,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure,
		Interval:       c.ExportInterval,
	}
}
