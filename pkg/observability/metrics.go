package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/viewhost/pkg/domain"
)

const namespace = "viewhost"

// Metrics holds the collectors updated by lifecycle hooks.
type Metrics struct {
	StateTransitions *prometheus.CounterVec
	Milestones       *prometheus.CounterVec
	PrepareDuration  prometheus.Histogram
	RenderDuration   prometheus.Histogram
	Commands         *prometheus.CounterVec
	BackstackDepth   prometheus.Gauge
	BackstackEvents  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_state_transitions_total",
			Help:      "Document state transitions by target state.",
		}, []string{"state"}),
		Milestones: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_milestones_total",
			Help:      "Document milestones reached.",
		}, []string{"milestone"}),
		PrepareDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_prepare_duration_seconds",
			Help:      "Time from document creation to prepared.",
			Buckets:   prometheus.DefBuckets,
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_render_duration_seconds",
			Help:      "Time spent binding and inflating a prepared document.",
			Buckets:   prometheus.DefBuckets,
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_batches_total",
			Help:      "Command batches by outcome.",
		}, []string{"outcome"}),
		BackstackDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backstack_depth",
			Help:      "Documents currently cached in the backstack.",
		}),
		BackstackEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backstack_events_total",
			Help:      "Backstack changes by action.",
		}, []string{"action"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.StateTransitions, m.Milestones, m.PrepareDuration, m.RenderDuration,
			m.Commands, m.BackstackDepth, m.BackstackEvents,
		)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateChange: func(e *domain.StateEvent) {
			m.StateTransitions.WithLabelValues(e.To.String()).Inc()
		},
		OnMilestone: func(e *domain.MilestoneEvent) {
			m.Milestones.WithLabelValues(string(e.Milestone)).Inc()
			switch e.Milestone {
			case domain.MilestonePrepared:
				m.PrepareDuration.Observe(e.Elapsed.Seconds())
			case domain.MilestoneRendered:
				m.RenderDuration.Observe(e.Elapsed.Seconds())
			}
		},
		OnCommand: func(e *domain.CommandEvent) {
			m.Commands.WithLabelValues(commandOutcome(e)).Inc()
		},
		OnBackstack: func(e *domain.BackstackEvent) {
			m.BackstackEvents.WithLabelValues(e.Action).Inc()
			m.BackstackDepth.Set(float64(e.Depth))
		},
	}
}

func commandOutcome(e *domain.CommandEvent) string {
	switch {
	case e.Err != nil:
		return "error"
	case e.Completed:
		return "completed"
	default:
		return "terminated"
	}
}

// Combine returns hooks that call every non-nil hook of each set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateChange: func(e *domain.StateEvent) {
			for _, h := range sets {
				if h.OnStateChange != nil {
					h.OnStateChange(e)
				}
			}
		},
		OnMilestone: func(e *domain.MilestoneEvent) {
			for _, h := range sets {
				if h.OnMilestone != nil {
					h.OnMilestone(e)
				}
			}
		},
		OnCommand: func(e *domain.CommandEvent) {
			for _, h := range sets {
				if h.OnCommand != nil {
					h.OnCommand(e)
				}
			}
		},
		OnBackstack: func(e *domain.BackstackEvent) {
			for _, h := range sets {
				if h.OnBackstack != nil {
					h.OnBackstack(e)
				}
			}
		},
	}
}
