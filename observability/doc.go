// Package observability provides OpenTelemetry tracing and metrics setup for
// networkable clients.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultConfig("users-client"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultConfig("users-client"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewClientMetrics(observability.Meter("users-client"))
//	metrics.RecordEnd(ctx, "GET", "api.test", 200, "", elapsed)
//
// The middleware package turns these into per-exchange spans and instruments.
package observability
