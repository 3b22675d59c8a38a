package httpservice

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitConfig throttles outgoing attempts.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained attempt rate.
	RequestsPerSecond float64

	// Burst is the number of attempts allowed above the rate at once.
	Burst int

	// WaitOnLimit makes attempts wait for a token, bounded by the attempt
	// deadline. When false, an attempt without a token fails with
	// ErrRateLimited and counts as a network failure.
	WaitOnLimit bool
}

// DefaultRateLimitConfig allows 10 attempts per second with a burst of 5.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		Burst:             5,
		WaitOnLimit:       true,
	}
}

// ErrRateLimited is returned when an attempt is rejected by the rate limiter.
var ErrRateLimited = errors.New("rate limit exceeded")

type rateLimitTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
	wait    bool
}

func newRateLimitTransport(next http.RoundTripper, cfg RateLimitConfig) http.RoundTripper {
	if cfg.RequestsPerSecond <= 0 {
		return next
	}

	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &rateLimitTransport{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		wait:    cfg.WaitOnLimit,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if !t.wait {
		if !t.limiter.Allow() {
			return nil, ErrRateLimited
		}
		return t.next.RoundTrip(req)
	}

	if err := t.limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		// Wait fails fast when the deadline cannot be met.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrRateLimited
	}

	return t.next.RoundTrip(req)
}
