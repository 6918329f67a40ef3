// Package observability provides Prometheus metrics for the Caesarion
// client and its mock backend.
package observability

import "github.com/prometheus/client_golang/prometheus"

// TurnBuckets defines histogram buckets suited for conversational turn
// latencies, ranging from 100ms to 120s.
var TurnBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// StreamFramesTotal counts streamed chat frames by frame type.
	StreamFramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caesarion_stream_frames_total",
			Help: "Streamed chat frames",
		},
		[]string{"type"},
	)

	// StreamErrorsTotal counts stream failures by kind
	// (transport, backend, rate_limited, cancelled).
	StreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caesarion_stream_errors_total",
			Help: "Stream failures",
		},
		[]string{"kind"},
	)

	// TurnDuration records the duration of one full chat turn in seconds.
	TurnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "caesarion_turn_duration_seconds",
			Help:    "Chat turn duration",
			Buckets: TurnBuckets,
		},
	)

	// ToolInvocationsTotal counts completed tool invocations by tool name
	// and classified outcome (completed, error).
	ToolInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caesarion_tool_invocations_total",
			Help: "Tool invocations",
		},
		[]string{"tool_name", "outcome"},
	)

	// SandboxInitTotal counts sandbox initialization attempts by resulting
	// state (ready, failed).
	SandboxInitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caesarion_sandbox_init_total",
			Help: "Sandbox initialization outcomes",
		},
		[]string{"state"},
	)

	// UploadsTotal counts upload tasks by terminal outcome
	// (succeeded, failed, cancelled, rejected).
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caesarion_uploads_total",
			Help: "Upload outcomes",
		},
		[]string{"outcome"},
	)

	// UploadBytesTotal counts bytes transferred by completed uploads.
	UploadBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "caesarion_upload_bytes_total",
			Help: "Uploaded bytes",
		},
	)
)

func init() {
	prometheus.MustRegister(
		StreamFramesTotal,
		StreamErrorsTotal,
		TurnDuration,
		ToolInvocationsTotal,
		SandboxInitTotal,
		UploadsTotal,
		UploadBytesTotal,
	)
}
