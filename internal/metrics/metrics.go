package metrics

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
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labradar_refresh_total",
			Help: "Position-driven refreshes by kind (large, small)",
		},
		[]string{"kind"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labradar_notifications_total",
			Help: "Proximity notifications by delivery path and outcome",
		},
		[]string{"channel", "status"},
	)

	AnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labradar_answers_total",
			Help: "Answer submissions by terminal color",
		},
		[]string{"color"},
	)

	RemoteErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labradar_remote_errors_total",
			Help: "Failed remote calls by operation",
		},
		[]string{"op"},
	)

	LabsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "labradar_labs",
			Help: "Labs currently held in the store",
		},
	)
)

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
