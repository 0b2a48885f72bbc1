package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record store collectors, labelled by logical stream name.
var (
	RecordsAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffsuite",
		Subsystem: "records",
		Name:      "appended_total",
		Help:      "Records written to a stream.",
	}, []string{"stream"})

	DecodeSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffsuite",
		Subsystem: "records",
		Name:      "decode_skipped_total",
		Help:      "Malformed records dropped while decoding a scan.",
	}, []string{"stream"})

	RecordsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffsuite",
		Subsystem: "records",
		Name:      "removed_total",
		Help:      "Records removed from a stream, by operation (delete or clear).",
	}, []string{"stream", "op"})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffsuite",
		Subsystem: "records",
		Name:      "store_errors_total",
		Help:      "Backing store failures by operation.",
	}, []string{"stream", "op"})
)

// Face clock worker collectors.
var (
	FaceClockProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "staffsuite",
		Subsystem: "face_clock",
		Name:      "processed_total",
		Help:      "Face clock requests handled by the worker, by outcome.",
	}, []string{"outcome"})
)

// RateLimited counts requests rejected by the HTTP rate limiter.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "staffsuite",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the per-client rate limiter.",
})
