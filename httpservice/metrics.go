package httpservice

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the metric instruments of a Service.
type metrics struct {
	// invocations counts Invoke calls by outcome.
	invocations metric.Int64Counter

	// invokeDuration measures Invoke latency in seconds, cache hits included.
	invokeDuration metric.Float64Histogram

	// attempts counts send attempts, including the first one.
	attempts metric.Int64Counter

	// retryExhausted counts retried sends that failed on their last attempt.
	retryExhausted metric.Int64Counter

	// cacheLookups counts cache reads by result (hit, miss).
	cacheLookups metric.Int64Counter

	// breakerRequests counts breaker decisions by result.
	breakerRequests metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	m.invocations, err = meter.Int64Counter(
		"httpservice.invocations",
		metric.WithDescription("Number of service invocations by outcome"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, err
	}

	m.invokeDuration, err = meter.Float64Histogram(
		"httpservice.invoke.duration",
		metric.WithDescription("Duration of service invocations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
		),
	)
	if err != nil {
		return nil, err
	}

	m.attempts, err = meter.Int64Counter(
		"httpservice.send.attempts",
		metric.WithDescription("Number of HTTP send attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	m.retryExhausted, err = meter.Int64Counter(
		"httpservice.retry.exhausted",
		metric.WithDescription("Number of sends that failed on their last attempt"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.cacheLookups, err = meter.Int64Counter(
		"httpservice.cache.lookups",
		metric.WithDescription("Number of response cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	m.breakerRequests, err = meter.Int64Counter(
		"httpservice.breaker.requests",
		metric.WithDescription("Number of requests seen by the circuit breaker by result"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metrics) recordInvocation(
	ctx context.Context,
	attrs []attribute.KeyValue,
	outcome string,
	duration time.Duration,
) {
	if m == nil {
		return
	}
	all := append(append(make([]attribute.KeyValue, 0, len(attrs)+1), attrs...),
		attribute.String("outcome", outcome))

	if m.invocations != nil {
		m.invocations.Add(ctx, 1, metric.WithAttributes(all...))
	}
	if m.invokeDuration != nil {
		m.invokeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(all...))
	}
}

func (m *metrics) recordAttempt(ctx context.Context, attrs []attribute.KeyValue, attempt int) {
	if m == nil || m.attempts == nil {
		return
	}
	all := append(append(make([]attribute.KeyValue, 0, len(attrs)+1), attrs...),
		attribute.Int("attempt", attempt))
	m.attempts.Add(ctx, 1, metric.WithAttributes(all...))
}

func (m *metrics) recordRetryExhausted(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.retryExhausted == nil {
		return
	}
	m.retryExhausted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metrics) recordCacheLookup(ctx context.Context, attrs []attribute.KeyValue, hit bool) {
	if m == nil || m.cacheLookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	all := append(append(make([]attribute.KeyValue, 0, len(attrs)+1), attrs...),
		attribute.String("result", result))
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(all...))
}

func (m *metrics) recordBreakerRequest(ctx context.Context, name, result string) {
	if m == nil || m.breakerRequests == nil {
		return
	}
	m.breakerRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker.name", name),
		attribute.String("result", result),
	))
}
