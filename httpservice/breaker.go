package httpservice

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	gobreakerredis "github.com/sony/gobreaker/v2/redis"
)

// NewRedisBreakerStore creates a SharedDataStore so that every process
// calling the same service shares one breaker state.
//
// Usage:
//
//	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{"localhost:6379"}})
//	cfg := httpservice.DefaultBreakerConfig()
//	cfg.Store = httpservice.NewRedisBreakerStore(rdb)
func NewRedisBreakerStore(client redis.UniversalClient) gobreaker.SharedDataStore {
	return gobreakerredis.NewStoreFromClient(client)
}

// BreakerClassifier reports whether an attempt counts as a breaker failure.
type BreakerClassifier func(resp *http.Response, err error) bool

// BreakerConfig configures the circuit breaker guarding the transport.
type BreakerConfig struct {
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state after which
	// counts are cleared. Zero never clears them.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// ConsecutiveFailures trips the breaker after that many failures in a row.
	ConsecutiveFailures uint32

	// Store shares breaker state between processes. Nil keeps it local.
	Store gobreaker.SharedDataStore

	// Classifier decides which attempts are failures.
	// Default: DefaultBreakerClassifier.
	Classifier BreakerClassifier

	// OnStateChange is invoked on every state transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultBreakerConfig trips after 5 consecutive failures and probes
// again after 30 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
		Classifier:          DefaultBreakerClassifier,
	}
}

// DefaultBreakerClassifier counts transport errors and 5xx responses.
// Caller cancellation is not a failure of the remote service.
func DefaultBreakerClassifier(resp *http.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	return resp != nil && resp.StatusCode >= http.StatusInternalServerError
}

// circuitBreaker matches the Execute method of both gobreaker breakers.
type circuitBreaker interface {
	Execute(req func() (*http.Response, error)) (*http.Response, error)
}

// errCountedFailure marks a response the classifier rejected so the
// breaker records it; the response itself is still returned to the caller.
var errCountedFailure = errors.New("counted failure")

// uncountedError carries an error the classifier accepted through the
// breaker without recording a failure.
type uncountedError struct {
	err error
}

func (e *uncountedError) Error() string { return e.err.Error() }
func (e *uncountedError) Unwrap() error { return e.err }

type breakerTransport struct {
	next       http.RoundTripper
	breaker    circuitBreaker
	classifier BreakerClassifier
	metrics    *metrics
	name       string
}

func newBreakerTransport(next http.RoundTripper, cfg *config) http.RoundTripper {
	if cfg.breaker == nil {
		return next
	}
	bc := *cfg.breaker

	name := cfg.serviceName
	if name == "" {
		name = "httpservice"
	}

	classifier := bc.Classifier
	if classifier == nil {
		classifier = DefaultBreakerClassifier
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		IsSuccessful: func(err error) bool {
			var uncounted *uncountedError
			return err == nil || errors.As(err, &uncounted)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return bc.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= bc.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			if bc.OnStateChange != nil {
				bc.OnStateChange(name, from, to)
			}
		},
	}

	var cb circuitBreaker = gobreaker.NewCircuitBreaker[*http.Response](st)
	if bc.Store != nil {
		dcb, err := gobreaker.NewDistributedCircuitBreaker[*http.Response](bc.Store, st)
		if err != nil {
			// A local breaker still protects this process.
			cfg.logger.Error().Err(err).Str("breaker", name).Msg("distributed breaker unavailable, using local")
		} else {
			cb = dcb
		}
	}

	return &breakerTransport{
		next:       next,
		breaker:    cb,
		classifier: classifier,
		metrics:    cfg.metrics,
		name:       name,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.next.RoundTrip(req) //nolint:bodyclose
		if t.classifier(resp, err) {
			if err != nil {
				return resp, err
			}
			return resp, errCountedFailure
		}
		if err != nil {
			return resp, &uncountedError{err: err}
		}
		return resp, nil
	})

	var uncounted *uncountedError
	switch {
	case errors.As(err, &uncounted):
		t.metrics.recordBreakerRequest(ctx, t.name, "success")
		return nil, uncounted.err
	case err == nil:
		t.metrics.recordBreakerRequest(ctx, t.name, "success")
		return resp, nil
	case errors.Is(err, errCountedFailure):
		t.metrics.recordBreakerRequest(ctx, t.name, "failure")
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		t.metrics.recordBreakerRequest(ctx, t.name, "rejected")
		return nil, err
	default:
		t.metrics.recordBreakerRequest(ctx, t.name, "failure")
		return nil, err
	}
}
