// Package metrics exposes lanwake counters in the Prometheus text format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the counters for one process run.
type Recorder struct {
	registry *prometheus.Registry

	// PacketsSent counts magic packets written to the network.
	PacketsSent prometheus.Counter
	// TargetsWoken counts targets whose full repeat sequence was sent.
	TargetsWoken prometheus.Counter
	// SendErrors counts failed sends, labelled by error kind.
	SendErrors *prometheus.CounterVec
	// LastRun records the completion time of the last run.
	LastRun prometheus.Gauge
}

// New creates a Recorder backed by its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		PacketsSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lanwake_packets_sent_total",
				Help: "Number of Wake-on-LAN magic packets sent",
			},
		),
		TargetsWoken: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lanwake_targets_woken_total",
				Help: "Number of targets that received their full packet sequence",
			},
		),
		SendErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lanwake_send_errors_total",
				Help: "Number of errors while resolving or waking targets",
			},
			[]string{"kind"},
		),
		LastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lanwake_last_run_timestamp_seconds",
				Help: "Unix time the last wake run finished",
			},
		),
	}

	r.registry.MustRegister(
		r.PacketsSent,
		r.TargetsWoken,
		r.SendErrors,
		r.LastRun,
	)

	return r
}

// MarkRun sets the last run gauge to t.
func (r *Recorder) MarkRun(t time.Time) {
	r.LastRun.Set(float64(t.Unix()))
}

// WriteTextfile writes all metrics to path for the node_exporter textfile
// collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
