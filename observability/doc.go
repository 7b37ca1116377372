// Package observability provides OpenTelemetry tracing and metrics for the
// resolver.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &meterCfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("resolvekit"))
//
// *Metrics satisfies the compiler's telemetry sink, so compilations are
// counted once published, and the container records every resolution through
// StartResolve / End.
package observability
