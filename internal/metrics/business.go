package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "github.com/allisson/vaultemu/internal/errors"
)

// Operation statuses recorded as the status label.
const (
	StatusSuccess      = "success"
	StatusNotFound     = "not_found"
	StatusConflict     = "conflict"
	StatusInvalidInput = "invalid_input"
	StatusIllegalState = "illegal_state"
	StatusError        = "error"
)

// BusinessMetrics records emulator operations.
type BusinessMetrics interface {
	// RecordOperation counts one operation of a domain ("vault", "lifetime") with its status.
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)

	// RecordLifetimeEvent counts an automatic renewal, rotation or notification
	// fired for an entity kind.
	RecordLifetimeEvent(ctx context.Context, kind, action, trigger string)
}

// StatusFromError classifies err into one of the status labels.
func StatusFromError(err error) string {
	if err == nil {
		return StatusSuccess
	}
	if code := apperrors.Code(err); code != apperrors.CodeInternal {
		return code
	}
	return StatusError
}

type businessMetrics struct {
	operationCounter metric.Int64Counter
	durationHisto    metric.Float64Histogram
	lifetimeCounter  metric.Int64Counter
}

// NewBusinessMetrics creates the OpenTelemetry instruments, prefixed with namespace.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of emulator operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durationHisto, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Duration of emulator operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	lifetimeCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_lifetime_events_total", namespace),
		metric.WithDescription("Total number of lifetime actions fired"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lifetime event counter: %w", err)
	}

	return &businessMetrics{
		operationCounter: operationCounter,
		durationHisto:    durationHisto,
		lifetimeCounter:  lifetimeCounter,
	}, nil
}

func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

func (b *businessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	b.durationHisto.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

func (b *businessMetrics) RecordLifetimeEvent(ctx context.Context, kind, action, trigger string) {
	b.lifetimeCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("action", action),
			attribute.String("trigger", trigger),
		),
	)
}

// NoOpBusinessMetrics is used when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

// RecordOperation does nothing.
func (n *NoOpBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {}

// RecordDuration does nothing.
func (n *NoOpBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
}

// RecordLifetimeEvent does nothing.
func (n *NoOpBusinessMetrics) RecordLifetimeEvent(ctx context.Context, kind, action, trigger string) {}
