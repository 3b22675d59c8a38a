package httpservice

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// call is one packed invocation ready to be sent.
type call struct {
	param   *Parameter
	pack    *PackResult
	baseURL string
}

// statusFailure signals a non-2xx response to the retry loop.
type statusFailure struct {
	code int
}

func (e *statusFailure) Error() string {
	return http.StatusText(e.code)
}

// sender runs the attempt loop of a call.
type sender struct {
	client *http.Client
	cfg    *config
}

func newSender(cfg *config) *sender {
	return &sender{
		client: cfg.buildClient(),
		cfg:    cfg,
	}
}

// send performs up to MaxRetryTimes+1 attempts, pausing Interval between
// them. It stops at the first 2xx response, on caller cancellation, or on a
// build error.
//
// When every attempt fails, the last response is returned if the last
// attempt produced one; otherwise the last attempt's error is returned.
func (s *sender) send(ctx context.Context, c *call) (*Response, *ParseError) {
	retry := c.param.Options.Retry
	span := trace.SpanFromContext(ctx)
	attrs := s.cfg.baseAttributes()

	var (
		lastResp *Response
		lastErr  *ParseError
		attempt  int
	)

	operation := func() (*Response, error) {
		attempt++
		s.cfg.metrics.recordAttempt(ctx, attrs, attempt)

		resp, perr := s.attempt(ctx, c, attempt)
		lastResp, lastErr = resp, perr

		if perr != nil {
			if perr.Kind == KindCancelled || perr.Kind == KindBuild {
				return nil, backoff.Permanent(perr)
			}
			return nil, perr
		}

		if !resp.IsSuccess() {
			return nil, &statusFailure{code: resp.StatusCode}
		}

		return resp, nil
	}

	maxRetries := retry.MaxRetryTimes
	if maxRetries < 0 {
		maxRetries = 0
	}
	interval := retry.Interval
	switch {
	case interval < 0:
		interval = 0
	case interval == 0 && maxRetries > 0:
		interval = DefaultRetryInterval
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(interval)),
		backoff.WithMaxTries(uint(maxRetries+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			zerolog.Ctx(ctx).Debug().
				Err(err).
				Int("attempt", attempt).
				Dur("next_in", next).
				Msg("attempt failed, retrying")
			if span.IsRecording() {
				span.AddEvent("http.retry", trace.WithAttributes(
					attribute.Int("retry.attempt", attempt),
					attribute.Int64("retry.delay_ms", next.Milliseconds()),
					attribute.String("retry.reason", err.Error()),
				))
			}
		}),
	)

	if err == nil {
		return lastResp, nil
	}

	// Cancelled while waiting between attempts.
	if ctx.Err() != nil {
		return nil, cancelledError(context.Cause(ctx))
	}

	if maxRetries > 0 && (lastErr == nil || (lastErr.Kind != KindCancelled && lastErr.Kind != KindBuild)) {
		s.cfg.metrics.recordRetryExhausted(ctx, attrs)
	}

	if span.IsRecording() {
		span.SetAttributes(attribute.Int("http.attempts", attempt))
	}

	if lastErr != nil {
		return nil, lastErr
	}

	return lastResp, nil
}

// attempt builds and sends one request under the per-attempt deadline and
// reads the whole body before the deadline is released.
func (s *sender) attempt(ctx context.Context, c *call, n int) (*Response, *ParseError) {
	if err := ctx.Err(); err != nil {
		return nil, cancelledError(context.Cause(ctx))
	}

	timeout := c.param.Timeout
	if timeout <= 0 {
		timeout = s.cfg.defaultTimeout
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, body, err := newRequest(attemptCtx, c.param, c.baseURL, c.pack)
	if err != nil {
		return nil, newParseError(KindBuild, err)
	}

	id := req.Header.Get(RequestIDHeader)
	logger := zerolog.Ctx(ctx)

	if s.cfg.curl {
		logger.Trace().Str("request_id", id).Str("curl", CurlCommand(req, body)).Msg("request as curl")
	}

	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, s.classify(ctx, attemptCtx, err)
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, s.classify(ctx, attemptCtx, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
		Body:       payload,
		RequestID:  id,
		URL:        req.URL.String(),
	}
	traceResponse(logger, resp, n)

	return resp, nil
}

// classify maps a transport error to cancellation, timeout or network failure.
// Caller cancellation wins over an attempt deadline that fired at the same time.
func (s *sender) classify(ctx, attemptCtx context.Context, err error) *ParseError {
	if ctx.Err() != nil {
		return cancelledError(context.Cause(ctx))
	}

	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return &ParseError{
			Kind:    KindTimeout,
			Message: ErrTimeout.Error(),
			Err:     errors.Join(ErrTimeout, err),
		}
	}

	return newParseError(KindNetwork, err)
}
