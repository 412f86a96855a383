package sys

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kyvex_commands_total",
		Help: "Text commands and controls handled, by command and outcome.",
	}, []string{"command", "outcome"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kyvex_active_sessions",
		Help: "Guilds with a live playback session.",
	})

	TracksStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kyvex_tracks_started_total",
		Help: "Tracks reported as started by the audio node.",
	})
)

// StartMetricsServer is a daemon starter serving /metrics on addr. Empty addr disables it.
func StartMetricsServer(addr string) func(ctx context.Context) (bool, func(), func()) {
	return func(ctx context.Context) (bool, func(), func()) {
		if addr == "" {
			return false, nil, nil
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		run := func() {
			LogInfo(MsgMetricsListening, addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				LogError(MsgMetricsFail, err)
			}
		}
		shutdown := func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}
		return true, run, shutdown
	}
}
