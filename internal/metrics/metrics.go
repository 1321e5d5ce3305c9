// Package metrics exposes Prometheus collectors for catalog fetches.
package metrics

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes used as the "outcome" label.
const (
	OutcomeSuccess        = "success"
	OutcomeTransportError = "transport_error"
	OutcomeDecodeError    = "decode_error"
)

var (
	fetchesTotal         *prometheus.CounterVec
	fetchDurationSeconds *prometheus.HistogramVec
	recordsTotal         *prometheus.CounterVec
	bytesTotal           *prometheus.CounterVec
	fetchesInFlight      *prometheus.GaugeVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "titledb_fetches_total",
				Help: "Total number of catalog fetches, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "titledb_fetch_duration_seconds",
				Help:    "Histogram of fetch plus decode latencies, labeled by source.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"source"},
		)

		recordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "titledb_records_total",
				Help: "Total number of records decoded, labeled by source.",
			},
			[]string{"source"},
		)

		bytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "titledb_bytes_total",
				Help: "Total number of response bytes fetched, labeled by host.",
			},
			[]string{"host"},
		)

		fetchesInFlight = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "titledb_fetches_in_flight",
				Help: "Number of fetches currently waiting on the transport.",
			},
			[]string{"source"},
		)
	})
}

// SanitizeHost extracts a lowercase hostname from a URL.
// It returns "unknown" if the URL is invalid.
func SanitizeHost(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// StartFetch marks a fetch as in flight and returns the function that ends it.
func StartFetch(source string) func() {
	Init()
	g := fetchesInFlight.WithLabelValues(source)
	g.Inc()
	return g.Dec
}

// ObserveFetch records the outcome of one fetch plus decode.
func ObserveFetch(source, outcome string, duration time.Duration, records int) {
	Init()
	fetchesTotal.WithLabelValues(source, outcome).Inc()
	fetchDurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
	if records > 0 {
		recordsTotal.WithLabelValues(source).Add(float64(records))
	}
}

// ObserveBytes adds the size of a response body for the URL's host.
func ObserveBytes(rawURL string, n int) {
	Init()
	if n > 0 {
		bytesTotal.WithLabelValues(SanitizeHost(rawURL)).Add(float64(n))
	}
}
