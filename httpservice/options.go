package httpservice

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kroma-labs/invoker/cache"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	scope = "github.com/kroma-labs/invoker/httpservice"
)

// ResponseCache stores raw response bodies by fingerprint.
// *cache.Store implements it.
type ResponseCache interface {
	Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
}

// config is the resolved configuration of a Service.
type config struct {
	httpClient *http.Client
	transport  http.RoundTripper

	logger zerolog.Logger
	curl   bool

	cache  ResponseCache
	hasher cache.Hasher
	probe  NetworkProbe

	defaultTimeout time.Duration

	rateLimit *RateLimitConfig
	breaker   *BreakerConfig

	serviceName    string
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	metrics        *metrics
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		logger:         zerolog.Nop(),
		hasher:         cache.SHA1,
		probe:          AlwaysAvailable,
		defaultTimeout: DefaultTimeout,
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.cache == nil {
		cfg.cache = cache.New(cache.NewMemStore(), cache.WithLogger(cfg.logger))
	}

	cfg.tracer = cfg.tracerProvider.Tracer(scope)

	// Instruments stay nil on error; every record* helper is nil-safe.
	cfg.metrics, _ = newMetrics(cfg.meterProvider.Meter(scope))

	return cfg
}

// buildClient assembles the transport chain:
// rate limit -> circuit breaker -> base transport.
func (cfg *config) buildClient() *http.Client {
	client := &http.Client{}
	if cfg.httpClient != nil {
		c := *cfg.httpClient
		client = &c
	}

	base := cfg.transport
	if base == nil {
		base = client.Transport
	}
	if base == nil {
		base = http.DefaultTransport
	}

	rt := newBreakerTransport(base, cfg)
	if cfg.rateLimit != nil {
		rt = newRateLimitTransport(rt, *cfg.rateLimit)
	}

	client.Transport = rt

	return client
}

// baseAttributes returns common attributes for spans and metrics.
func (cfg *config) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 1)
	if cfg.serviceName != "" {
		attrs = append(attrs, attribute.String("httpservice.name", cfg.serviceName))
	}
	return attrs
}

// Option configures a Service.
type Option func(*config)

// WithHTTPClient sets the client used to send requests. Its Transport is
// wrapped by the rate limiter and circuit breaker when those are enabled.
// Per-attempt deadlines are applied through the request context, so the
// client's own Timeout should be zero or larger than any call timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) {
		cfg.httpClient = c
	}
}

// WithTransport sets the base round tripper, for example a MockTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(cfg *config) {
		cfg.transport = rt
	}
}

// WithLogger sets the logger. Request and header lines are written at
// trace level, attempt outcomes at debug level.
// Default: zerolog.Nop().
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// WithCurlLogging logs every attempt as a cURL command at trace level.
func WithCurlLogging(enabled bool) Option {
	return func(cfg *config) {
		cfg.curl = enabled
	}
}

// WithCache sets the response cache consulted by calls that enable it.
// Default: an in-memory cache.Store.
func WithCache(c ResponseCache) Option {
	return func(cfg *config) {
		cfg.cache = c
	}
}

// WithHasher sets the hasher used to name cache entries.
// Default: cache.SHA1.
func WithHasher(h cache.Hasher) Option {
	return func(cfg *config) {
		if h != nil {
			cfg.hasher = h
		}
	}
}

// WithNetworkProbe sets the probe consulted before remote calls.
// Default: AlwaysAvailable.
func WithNetworkProbe(p NetworkProbe) Option {
	return func(cfg *config) {
		if p != nil {
			cfg.probe = p
		}
	}
}

// WithDefaultTimeout sets the per-attempt deadline for calls whose
// Parameter.Timeout is zero.
// Default: DefaultTimeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.defaultTimeout = d
		}
	}
}

// WithRateLimit throttles attempts across all calls of the service.
func WithRateLimit(c RateLimitConfig) Option {
	return func(cfg *config) {
		cfg.rateLimit = &c
	}
}

// WithBreaker guards the transport with a circuit breaker.
// An open breaker fails attempts as network errors.
func WithBreaker(c BreakerConfig) Option {
	return func(cfg *config) {
		cfg.breaker = &c
	}
}

// WithServiceName sets the "httpservice.name" attribute on spans and
// metrics, and names the circuit breaker.
func WithServiceName(name string) Option {
	return func(cfg *config) {
		cfg.serviceName = name
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Default: otel.GetTracerProvider().
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) {
		if tp != nil {
			cfg.tracerProvider = tp
		}
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider.
// Default: otel.GetMeterProvider().
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *config) {
		if mp != nil {
			cfg.meterProvider = mp
		}
	}
}
