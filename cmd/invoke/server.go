package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kroma-labs/invoker/httpservice"
)

const shutdownTimeout = 10 * time.Second

// serve runs srv on ln until ctx is cancelled, SIGTERM or SIGINT arrives,
// or the server fails, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, logger zerolog.Logger) error {
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(shutdownChan)

	serverErrChan := make(chan error, 1)

	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("metrics server starting")

		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
		close(serverErrChan)
	}()

	select {
	case err := <-serverErrChan:
		if err != nil {
			logger.Error().Err(err).Msg("metrics server error")
			return err
		}
	case sig := <-shutdownChan:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case <-ctx.Done():
		logger.Info().Err(ctx.Err()).Msg("context cancelled, shutting down")
	}

	return shutdown(srv, logger)
}

func shutdown(srv *http.Server, logger zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed, forcing close")
		if closeErr := srv.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("force close failed")
		}
		return err
	}

	logger.Info().Msg("metrics server stopped gracefully")
	return nil
}

// requestID forwards the caller's X-Request-ID or generates one, and echoes
// it on the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(httpservice.RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(httpservice.RequestIDHeader, id)

		next.ServeHTTP(w, r)
	})
}
