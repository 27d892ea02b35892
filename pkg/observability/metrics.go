// Package observability exposes Prometheus instrumentation for pipeline runs
// and refresh scheduling.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/opsdeck/opsdeck/pkg/pipeline"
)

// Metrics holds the collectors for chain, link and refresh activity.
type Metrics struct {
	chainRuns     *prometheus.CounterVec
	chainDuration *prometheus.HistogramVec
	linkDuration  *prometheus.HistogramVec
	refreshRuns   *prometheus.CounterVec
	refreshSkips  *prometheus.CounterVec
}

// NewMetrics creates and registers the opsdeck collectors. A nil reg
// registers against the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		chainRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsdeck_chain_runs_total",
				Help: "Total number of chain runs by outcome",
			},
			[]string{"chain", "outcome"},
		),
		chainDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "opsdeck_chain_duration_seconds",
				Help: "Duration of chain runs",
			},
			[]string{"chain"},
		),
		linkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "opsdeck_link_duration_seconds",
				Help: "Duration of link calls",
			},
			[]string{"chain", "link"},
		),
		refreshRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsdeck_refresh_runs_total",
				Help: "Total number of completed view refreshes by outcome",
			},
			[]string{"view", "outcome"},
		),
		refreshSkips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsdeck_refresh_skips_total",
				Help: "Ticks dropped because the previous refresh was still in flight",
			},
			[]string{"view"},
		),
	}
	reg.MustRegister(m.chainRuns, m.chainDuration, m.linkDuration, m.refreshRuns, m.refreshSkips)
	return m
}

// PipelineHooks returns lifecycle hooks that record every chain and link
// completion.
func (m *Metrics) PipelineHooks() pipeline.LifecycleHooks {
	return pipeline.LifecycleHooks{
		OnChainEnd: func(ctx context.Context, e *pipeline.ChainEvent) {
			m.chainRuns.WithLabelValues(e.Chain, outcome(e.Err)).Inc()
			m.chainDuration.WithLabelValues(e.Chain).Observe(e.Duration.Seconds())
		},
		OnLinkEnd: func(ctx context.Context, e *pipeline.LinkEvent) {
			m.linkDuration.WithLabelValues(e.Chain, e.Link).Observe(e.Duration.Seconds())
		},
	}
}

// RefreshObservers returns the run and skip callbacks for one view's
// scheduler.
func (m *Metrics) RefreshObservers(view string) (onRun func(error), onSkip func()) {
	onRun = func(err error) {
		m.refreshRuns.WithLabelValues(view, outcome(err)).Inc()
	}
	onSkip = func() {
		m.refreshSkips.WithLabelValues(view).Inc()
	}
	return onRun, onSkip
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
