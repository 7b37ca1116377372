package compiler

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/resolvekit/logger"
)

// Telemetry receives one notification per published compilation. Calls are
// fire-and-forget: a panicking sink is logged and ignored.
type Telemetry interface {
	RecordCompile(ctx context.Context, serviceType string, cost int, d time.Duration)
}

// TelemetryFunc adapts a function to Telemetry.
type TelemetryFunc func(ctx context.Context, serviceType string, cost int, d time.Duration)

func (f TelemetryFunc) RecordCompile(ctx context.Context, serviceType string, cost int, d time.Duration) {
	f(ctx, serviceType, cost, d)
}

func (c *Compiler) emit(ctx context.Context, compiled *Compiled) {
	if c.telemetry == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("telemetry sink panicked", logger.Fields(
				logger.FieldServiceType, compiled.site.ServiceType().String(),
				logger.FieldError, fmt.Sprint(r),
			))
		}
	}()
	c.telemetry.RecordCompile(ctx, compiled.site.ServiceType().String(), compiled.Cost(), compiled.duration)
}
