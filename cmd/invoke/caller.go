package main

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/kroma-labs/invoker/httpservice"
)

// caller invokes the call of one CallFile.
type caller struct {
	call   *CallFile
	svc    *httpservice.Service[*callParams, string]
	closer io.Closer
}

func newCaller(ctx context.Context, cf *CallFile, s Settings, logger zerolog.Logger) (*caller, error) {
	// Fail on unreadable files before the first call.
	if _, err := cf.Params(); err != nil {
		return nil, err
	}

	store, closer, err := openCache(ctx, s, logger)
	if err != nil {
		return nil, err
	}

	opts := []httpservice.Option{
		httpservice.WithLogger(logger.With().Str("call", cf.Name).Logger()),
		httpservice.WithCurlLogging(s.Curl),
		httpservice.WithCache(store),
		httpservice.WithServiceName(cf.Name),
	}
	if s.ProbeAddr != "" {
		opts = append(opts, httpservice.WithNetworkProbe(httpservice.DialProbe(s.ProbeAddr, 2*time.Second)))
	}

	url := cf.URL
	svc := httpservice.New(
		func(*callParams) string { return url },
		httpservice.Parser[string](httpservice.StringParser{}),
		opts...,
	)
	if cf.Auth != nil {
		svc.Use(newTokenHook(*cf.Auth))
	}

	return &caller{call: cf, svc: svc, closer: closer}, nil
}

// Invoke runs the call once.
func (c *caller) Invoke(ctx context.Context) *httpservice.ParseResult[string] {
	p, err := c.call.Params()
	if err != nil {
		return httpservice.Fail[string](&httpservice.ParseError{
			Kind:    httpservice.KindBuild,
			Message: err.Error(),
			Err:     err,
		})
	}
	return c.svc.Invoke(ctx, p)
}

func (c *caller) Close() error {
	return c.closer.Close()
}
