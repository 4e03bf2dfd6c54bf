// Package metrics exposes Prometheus collectors for conversation turns and tool calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records turn and tool activity. It satisfies llm.Recorder.
type Metrics struct {
	turns              *prometheus.CounterVec
	toolCalls          *prometheus.CounterVec
	toolDuration       *prometheus.HistogramVec
	completionDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ghost_turns_total",
				Help: "Total number of conversation turns by outcome",
			},
			[]string{"outcome"},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ghost_tool_calls_total",
				Help: "Total number of tool calls requested by the model",
			},
			[]string{"tool", "result"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ghost_tool_duration_seconds",
				Help:    "Duration of tool executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		completionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ghost_completion_duration_seconds",
				Help:    "Duration of completion endpoint requests",
				Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"status"},
		),
	}
	reg.MustRegister(m.turns, m.toolCalls, m.toolDuration, m.completionDuration)
	return m
}

func (m *Metrics) ObserveTurn(outcome string) {
	m.turns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCompletion(d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.completionDuration.WithLabelValues(status).Observe(d.Seconds())
}

// ObserveToolCall counts a call; only executed calls (result ok or error)
// contribute to the duration histogram.
func (m *Metrics) ObserveToolCall(tool, result string, d time.Duration) {
	m.toolCalls.WithLabelValues(tool, result).Inc()
	if result == "ok" || result == "error" {
		m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
	}
}
