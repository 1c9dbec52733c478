// Package metrics exposes Prometheus collectors for the booth.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the booth's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photo_booth",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photo_booth",
			Subsystem: "workflow",
			Name:      "commands_total",
			Help:      "Total number of workflow commands applied.",
		},
		[]string{"command", "outcome"},
	)

	swaps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photo_booth",
			Subsystem: "swap",
			Name:      "requests_total",
			Help:      "Total number of swap requests by model and outcome.",
		},
		[]string{"model", "outcome"},
	)

	swapDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "photo_booth",
			Subsystem: "swap",
			Name:      "duration_seconds",
			Help:      "Duration of swap requests.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2min
		},
		[]string{"model"},
	)

	galleryFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photo_booth",
			Subsystem: "gallery",
			Name:      "fetches_total",
			Help:      "Total number of template gallery fetches.",
		},
		[]string{"success"},
	)

	cameraActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "photo_booth",
			Subsystem: "capture",
			Name:      "camera_active",
			Help:      "Whether the session currently holds a camera stream.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		commands,
		swaps,
		swapDuration,
		galleryFetches,
		cameraActive,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		httpRequests.WithLabelValues(strings.ToUpper(r.Method), canonicalPath(r.URL.Path), strconv.Itoa(rec.status)).Inc()
	})
}

// RecordCommand counts an applied workflow command.
func RecordCommand(command string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	commands.WithLabelValues(command, outcome).Inc()
}

// RecordSwap records the outcome and duration of a swap call.
func RecordSwap(model string, duration time.Duration, err error) {
	if model == "" {
		model = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	swaps.WithLabelValues(model, outcome).Inc()
	swapDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordGalleryFetch counts a gallery fetch.
func RecordGalleryFetch(success bool) {
	galleryFetches.WithLabelValues(strconv.FormatBool(success)).Inc()
}

// SetCameraActive reports whether a camera stream is held.
func SetCameraActive(active bool) {
	if active {
		cameraActive.Set(1)
	} else {
		cameraActive.Set(0)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// canonicalPath keeps label cardinality bounded: /api/v1/workflow/swap stays
// as is, anything deeper than four segments is truncated.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) > 4 {
		parts = parts[:4]
	}
	return "/" + strings.Join(parts, "/")
}
