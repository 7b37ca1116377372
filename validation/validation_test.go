package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/resolvekit/errors"
)

type innerConfig struct {
	Engine string `mapstructure:"engine" validate:"oneof=compiled interpreted dynamic"`
}

type sampleConfig struct {
	Name         string      `mapstructure:"name" validate:"required"`
	CompileAfter int         `mapstructure:"compile_after" validate:"gte=1"`
	SampleRate   float64     `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Endpoint     string      `validate:"omitempty,hostname_port"`
	Resolver     innerConfig `mapstructure:"resolver"`
}

func validSample() sampleConfig {
	return sampleConfig{
		Name:         "svc",
		CompileAfter: 2,
		SampleRate:   0.5,
		Endpoint:     "localhost:4318",
		Resolver:     innerConfig{Engine: "dynamic"},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validSample()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*sampleConfig)
		field   string
		message string
	}{
		{"required", func(c *sampleConfig) { c.Name = "" }, "name", "is required"},
		{"gte", func(c *sampleConfig) { c.CompileAfter = 0 }, "compile_after", "must be at least 1"},
		{"lte", func(c *sampleConfig) { c.SampleRate = 2 }, "sample_rate", "must be at most 1"},
		{"oneof nested", func(c *sampleConfig) { c.Resolver.Engine = "jit" }, "resolver.engine", "must be one of: compiled interpreted dynamic"},
		{"fallback name", func(c *sampleConfig) { c.Endpoint = "nope" }, "endpoint", "must be a host:port address"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validSample()
			tc.mutate(&cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %T", err)
			}
			if appErr.Code != errors.ErrCodeInvalidConfig {
				t.Errorf("expected INVALID_CONFIG, got %s", appErr.Code)
			}
			fields, ok := appErr.Details["fields"].([]FieldError)
			if !ok || len(fields) != 1 {
				t.Fatalf("expected one field error, got %v", appErr.Details["fields"])
			}
			if fields[0].Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, fields[0].Field)
			}
			if fields[0].Message != tc.message {
				t.Errorf("expected message %q, got %q", tc.message, fields[0].Message)
			}
			if !strings.Contains(appErr.Message, tc.field+": ") {
				t.Errorf("expected message to name the field, got %q", appErr.Message)
			}
		})
	}
}

func TestValidate_MultipleFields(t *testing.T) {
	err := Validate(sampleConfig{Resolver: innerConfig{Engine: "compiled"}})
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if fields := appErr.Details["fields"].([]FieldError); len(fields) != 2 {
		t.Errorf("expected name and compile_after errors, got %v", fields)
	}
}

func TestValidate_NotAStruct(t *testing.T) {
	err := Validate(42)
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"CompileAfter": "compile_after",
		"Engine":       "engine",
		"name":         "name",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
