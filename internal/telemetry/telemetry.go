package telemetry

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/docportal/config"
)

// Telemetry tracks ingestion activity on a private prometheus registry.
// All Record methods are nil-safe so components can run without
// monitoring wired in.
type Telemetry struct {
	cfg    config.TelemetryConfig
	logger *log.Logger

	registry    *prometheus.Registry
	uploads     prometheus.Counter
	uploadBytes prometheus.Counter
	truncations prometheus.Counter
	pruned      prometheus.Counter
	failures    *prometheus.CounterVec
}

// New creates a telemetry instance and registers its collectors.
func New(cfg config.TelemetryConfig, logger *log.Logger) *Telemetry {
	if logger == nil {
		logger = log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags)
	}
	t := &Telemetry{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docportal_uploads_total",
			Help: "Documents successfully saved into a session.",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docportal_upload_bytes_total",
			Help: "Total bytes persisted by successful saves.",
		}),
		truncations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docportal_extraction_truncations_total",
			Help: "Extractions stopped early by the text size soft cap.",
		}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docportal_pruned_sessions_total",
			Help: "Session directories removed by retention pruning.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docportal_ingest_failures_total",
			Help: "Ingestion failures by error kind.",
		}, []string{"kind"}),
	}
	t.registry.MustRegister(t.uploads, t.uploadBytes, t.truncations, t.pruned, t.failures)
	return t
}

// Handler exposes the registry for the /metrics endpoint.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// RecordUpload counts one saved document of the given size.
func (t *Telemetry) RecordUpload(sizeBytes int64) {
	if t == nil || !t.cfg.Enabled {
		return
	}
	t.uploads.Inc()
	t.uploadBytes.Add(float64(sizeBytes))
}

// RecordTruncation counts one soft-cap extraction truncation.
func (t *Telemetry) RecordTruncation() {
	if t == nil || !t.cfg.Enabled {
		return
	}
	t.truncations.Inc()
}

// RecordPruned counts removed session directories.
func (t *Telemetry) RecordPruned(n int) {
	if t == nil || !t.cfg.Enabled {
		return
	}
	t.pruned.Add(float64(n))
}

// RecordFailure counts one ingestion failure by kind.
func (t *Telemetry) RecordFailure(kind string) {
	if t == nil || !t.cfg.Enabled {
		return
	}
	t.failures.WithLabelValues(kind).Inc()
}
