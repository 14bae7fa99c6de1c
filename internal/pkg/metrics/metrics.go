package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skyfield-io/mavbridge/pkg/log"
)

var (
	// MessagesApplied counts inbound vehicle messages applied to the state store.
	MessagesApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mavbridge_messages_applied_total",
			Help: "Total vehicle messages applied to the state store.",
		},
		[]string{"type"},
	)

	// CommandsTotal counts dispatched commands by type and outcome.
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mavbridge_commands_total",
			Help: "Total commands executed, by type and status.",
		},
		[]string{"type", "status"}, // status: success/failed
	)

	// LinkReconnects counts completed reconnect cycles of the vehicle link.
	LinkReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mavbridge_link_reconnects_total",
			Help: "Total vehicle link reconnect cycles.",
		},
	)

	// LinkUp reports the current link state (1=connected, 0=down).
	LinkUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mavbridge_link_up",
			Help: "Whether the vehicle link is currently connected.",
		},
	)

	// RecorderRows counts correlated rows appended to the recorder buffer.
	RecorderRows = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mavbridge_recorder_rows_total",
			Help: "Total correlated rows appended while recording.",
		},
	)

	// RecordingActive reports whether a recording session is active.
	RecordingActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mavbridge_recording_active",
			Help: "Whether a recording session is currently active.",
		},
	)
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		MessagesApplied,
		CommandsTotal,
		LinkReconnects,
		LinkUp,
		RecorderRows,
		RecordingActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler returns the HTTP handler for the metrics registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Serve runs the metrics endpoint on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	r := mux.NewRouter()
	r.Handle("/metrics", Handler())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Metrics endpoint listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
