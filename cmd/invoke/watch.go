package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newWatchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <call.yaml>",
		Short: "Invoke a call periodically and expose Prometheus metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := settingsFrom(v)
			if s.Interval <= 0 {
				return errors.New("--interval must be positive")
			}

			logger, err := newLogger(cmd.ErrOrStderr(), s.LogLevel, s.LogFormat)
			if err != nil {
				return err
			}

			cf, err := LoadCallFile(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(logger.WithContext(cmd.Context()))
			defer cancel()

			c, err := newCaller(ctx, cf, s, logger)
			if err != nil {
				return err
			}
			defer c.Close()

			reg := prometheus.NewRegistry()
			w := newWatcher(c, s.Interval, logger, reg)

			ln, err := net.Listen("tcp", s.MetricsAddr)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Handler:           w.routes(reg),
				ReadHeaderTimeout: 5 * time.Second,
			}

			go w.run(ctx)

			return serve(ctx, srv, ln, logger)
		},
	}

	flags := cmd.Flags()
	flags.String("metrics-addr", ":9090", "listen address of the metrics server")
	flags.Duration("interval", 30*time.Second, "pause between calls")
	_ = v.BindPFlags(flags)

	return cmd
}

// pollStatus is the outcome of the latest poll, served on /healthz.
type pollStatus struct {
	Call      string `json:"call"`
	Status    string `json:"status"`
	Outcome   string `json:"outcome,omitempty"`
	Message   string `json:"message,omitempty"`
	CheckedAt string `json:"checked_at,omitempty"`
	Polls     int    `json:"polls"`
}

// watcher polls a call and keeps Prometheus series about it.
type watcher struct {
	caller   *caller
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	lastOK   *prometheus.GaugeVec

	mu   sync.RWMutex
	last pollStatus
}

func newWatcher(c *caller, interval time.Duration, logger zerolog.Logger, reg prometheus.Registerer) *watcher {
	w := &watcher{
		caller:   c,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoke",
			Name:      "calls_total",
			Help:      "Number of watched calls by outcome.",
		}, []string{"call", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "invoke",
			Name:      "call_duration_seconds",
			Help:      "Duration of watched calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"call"}),
		lastOK: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "invoke",
			Name:      "last_call_success",
			Help:      "1 when the latest call succeeded, 0 otherwise.",
		}, []string{"call"}),
		last: pollStatus{Call: c.call.Name, Status: "pending"},
	}

	reg.MustRegister(w.calls, w.duration, w.lastOK)

	return w
}

// run polls immediately and then every interval until ctx is done.
func (w *watcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll invokes the call once and records its outcome.
func (w *watcher) poll(ctx context.Context) {
	name := w.caller.call.Name

	start := time.Now()
	res := w.caller.Invoke(ctx)
	w.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if res.Err != nil && res.Err.Cancelled() && ctx.Err() != nil {
		return
	}

	status := pollStatus{Call: name, CheckedAt: w.now().UTC().Format(time.RFC3339)}
	if res.IsSuccess() {
		status.Status = "ok"
		status.Outcome = "success"
		w.lastOK.WithLabelValues(name).Set(1)
		w.logger.Debug().Str("call", name).Int("size", len(res.Content)).Msg("call succeeded")
	} else {
		status.Status = "failing"
		status.Outcome = res.Err.Kind.String()
		status.Message = res.Err.Message
		w.lastOK.WithLabelValues(name).Set(0)
		w.logger.Warn().Str("call", name).Err(res.Err).Msg("call failed")
	}
	w.calls.WithLabelValues(name, status.Outcome).Inc()

	w.mu.Lock()
	status.Polls = w.last.Polls + 1
	w.last = status
	w.mu.Unlock()
}

func (w *watcher) status() pollStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last
}

func (w *watcher) routes(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", w.handleHealth)

	return r
}

func (w *watcher) handleHealth(rw http.ResponseWriter, _ *http.Request) {
	status := w.status()

	code := http.StatusOK
	if status.Status == "failing" {
		code = http.StatusServiceUnavailable
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	_ = json.NewEncoder(rw).Encode(status)
}
