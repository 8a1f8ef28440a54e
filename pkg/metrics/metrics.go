// Package metrics records per-run Autocoder metrics in a run-scoped
// Prometheus registry. At the end of a run the registry is written as a
// text-format file into the output directory and, when a Pushgateway is
// configured, pushed there.
package metrics

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/common/expfmt"

	"autocoder/pkg/taskerr"
)

const namespace = "autocoder"

// Recorder receives run and step observations.
type Recorder interface {
	// ObserveStep records the duration of a run step and whether it failed.
	ObserveStep(step string, err error, duration time.Duration)
	// ObserveRun records the final result of a run.
	ObserveRun(agentType, mode, result string, duration time.Duration)
}

// NoopRecorder discards all observations.
type NoopRecorder struct{}

// Nop returns a recorder that discards everything.
func Nop() Recorder {
	return NoopRecorder{}
}

// ObserveStep does nothing.
func (NoopRecorder) ObserveStep(string, error, time.Duration) {}

// ObserveRun does nothing.
func (NoopRecorder) ObserveRun(string, string, string, time.Duration) {}

// PrometheusRecorder implements Recorder with collectors on a private
// registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	stepDuration *prometheus.HistogramVec
	stepFailures *prometheus.CounterVec
	runsTotal    *prometheus.CounterVec
	runDuration  prometheus.Gauge
}

// NewPrometheusRecorder creates a recorder with a fresh registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "step_duration_seconds",
				Help:      "Duration of each Autocoder run step",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
			},
			[]string{"step", "status"},
		),
		stepFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "step_failures_total",
				Help:      "Run steps that failed, by error kind",
			},
			[]string{"step", "kind"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Completed Autocoder runs by agent, execution mode and result",
			},
			[]string{"agent_type", "mode", "result"},
		),
		runDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall-clock duration of the run",
			},
		),
	}
}

// ObserveStep records a step duration. Failed steps are also counted by
// error kind.
func (p *PrometheusRecorder) ObserveStep(step string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
		kind := "unclassified"
		if k, ok := taskerr.KindOf(err); ok {
			kind = k.String()
		}
		p.stepFailures.WithLabelValues(step, kind).Inc()
	}
	p.stepDuration.WithLabelValues(step, status).Observe(duration.Seconds())
}

// ObserveRun records the run result.
func (p *PrometheusRecorder) ObserveRun(agentType, mode, result string, duration time.Duration) {
	p.runsTotal.WithLabelValues(agentType, mode, result).Inc()
	p.runDuration.Set(duration.Seconds())
}

// WriteTextfile writes every metric in the text exposition format to path.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	families, err := p.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	defer f.Close()

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return f.Sync()
}

// Push sends the registry to a Pushgateway, grouped by run id.
func (p *PrometheusRecorder) Push(ctx context.Context, gatewayURL, runID string) error {
	err := push.New(gatewayURL, namespace).
		Gatherer(p.registry).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
