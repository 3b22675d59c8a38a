package httpservice

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitConfig_Default(t *testing.T) {
	t.Parallel()

	cfg := DefaultRateLimitConfig()

	assert.InDelta(t, float64(10), cfg.RequestsPerSecond, 0.0001)
	assert.Equal(t, 5, cfg.Burst)
	assert.True(t, cfg.WaitOnLimit)
}

func TestRateLimit_WithinLimit(t *testing.T) {
	t.Parallel()

	mt := NewMockTransport().StubResponse(http.StatusOK, `{"message":"hi"}`)
	svc := newGreetingService(mt, WithRateLimit(RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             10,
		WaitOnLimit:       true,
	}))

	for i := 0; i < 5; i++ {
		res := svc.Invoke(context.Background(), params())
		require.True(t, res.IsSuccess())
	}

	assert.Equal(t, 5, mt.RequestCount())
}

func TestRateLimit_FailFast(t *testing.T) {
	t.Parallel()

	mt := NewMockTransport().StubResponse(http.StatusOK, `{"message":"hi"}`)
	svc := newGreetingService(mt, WithRateLimit(RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             1,
		WaitOnLimit:       false,
	}))

	first := svc.Invoke(context.Background(), params())
	require.True(t, first.IsSuccess())

	second := svc.Invoke(context.Background(), params())
	require.NotNil(t, second.Err)
	assert.Equal(t, KindNetwork, second.Err.Kind)
	assert.ErrorIs(t, second.Err, ErrRateLimited)
	assert.Equal(t, 1, mt.RequestCount())
}

func TestRateLimit_Wait(t *testing.T) {
	t.Parallel()

	mt := NewMockTransport().StubResponse(http.StatusOK, `{"message":"hi"}`)
	svc := newGreetingService(mt, WithRateLimit(RateLimitConfig{
		RequestsPerSecond: 20,
		Burst:             1,
		WaitOnLimit:       true,
	}))

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.True(t, svc.Invoke(context.Background(), params()).IsSuccess())
	}

	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.Equal(t, 3, mt.RequestCount())
}

func TestRateLimit_WaitBeyondDeadline(t *testing.T) {
	t.Parallel()

	mt := NewMockTransport().StubResponse(http.StatusOK, `{"message":"hi"}`)
	svc := newGreetingService(mt, WithRateLimit(RateLimitConfig{
		RequestsPerSecond: 0.5,
		Burst:             1,
		WaitOnLimit:       true,
	}))

	require.True(t, svc.Invoke(context.Background(), params()).IsSuccess())

	p := params()
	p.Timeout = 50 * time.Millisecond

	res := svc.Invoke(context.Background(), p)

	require.NotNil(t, res.Err)
	assert.Contains(t, []ErrorKind{KindTimeout, KindNetwork}, res.Err.Kind)
	assert.Equal(t, 1, mt.RequestCount())
}

func TestRateLimit_Disabled(t *testing.T) {
	t.Parallel()

	next := NewMockTransport()
	rt := newRateLimitTransport(next, RateLimitConfig{RequestsPerSecond: 0})

	assert.Same(t, next, rt)
}
