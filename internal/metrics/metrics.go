package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	askTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "readercompanion",
			Name:      "asks_total",
			Help:      "Total queries sent, by context strategy and result",
		},
		[]string{"strategy", "result"},
	)

	askLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "readercompanion",
			Name:      "ask_duration_seconds",
			Help:      "End-to-end duration of a send, by context strategy",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	contextPrep = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "readercompanion",
			Name:      "context_preparations_total",
			Help:      "Page renders and file uploads performed, by kind and result",
		},
		[]string{"kind", "result"},
	)

	uploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "readercompanion",
			Name:      "upload_bytes_total",
			Help:      "Total document bytes sent through the upload endpoint",
		},
	)

	historyTurns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "readercompanion",
			Name:      "history_turns",
			Help:      "Current number of turns held in conversation history",
		},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(askTotal, askLatency, contextPrep, uploadBytes, historyTurns)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveAsk(strategy, result string, dur time.Duration) {
	askTotal.WithLabelValues(strategy, result).Inc()
	askLatency.WithLabelValues(strategy).Observe(dur.Seconds())
}

func IncContextPrep(kind, result string) { contextPrep.WithLabelValues(kind, result).Inc() }
func AddUploadBytes(n int)               { uploadBytes.Add(float64(n)) }
func SetHistoryTurns(n int)              { historyTurns.Set(float64(n)) }
