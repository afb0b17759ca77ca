package observability_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/viewhost/pkg/domain"
	"github.com/aretw0/viewhost/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()

	hooks.EmitState("t", domain.StatePending, domain.StatePrepared)
	hooks.EmitState("t", domain.StatePrepared, domain.StateInflated)
	hooks.EmitState("u", domain.StatePending, domain.StatePrepared)
	hooks.EmitMilestone("t", domain.MilestonePrepared, 20*time.Millisecond)
	hooks.EmitMilestone("t", domain.MilestoneRendered, 5*time.Millisecond)
	hooks.EmitCommand("t", false, true, nil)
	hooks.EmitCommand("t", true, false, nil)
	hooks.EmitCommand("t", true, false, errors.New("boom"))
	hooks.EmitBackstack("push", "home", 1)
	hooks.EmitBackstack("push", "list", 2)
	hooks.EmitBackstack("restore", "home", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StateTransitions.WithLabelValues("prepared")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StateTransitions.WithLabelValues("inflated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Milestones.WithLabelValues(string(domain.MilestonePrepared))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("terminated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BackstackEvents.WithLabelValues("push")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BackstackDepth))

	const want = `
# HELP viewhost_document_prepare_duration_seconds Time from document creation to prepared.
# TYPE viewhost_document_prepare_duration_seconds histogram
viewhost_document_prepare_duration_seconds_bucket{le="0.005"} 0
viewhost_document_prepare_duration_seconds_bucket{le="0.01"} 0
viewhost_document_prepare_duration_seconds_bucket{le="0.025"} 1
viewhost_document_prepare_duration_seconds_bucket{le="0.05"} 1
viewhost_document_prepare_duration_seconds_bucket{le="0.1"} 1
viewhost_document_prepare_duration_seconds_bucket{le="0.25"} 1
viewhost_document_prepare_duration_seconds_bucket{le="0.5"} 1
viewhost_document_prepare_duration_seconds_bucket{le="1"} 1
viewhost_document_prepare_duration_seconds_bucket{le="2.5"} 1
viewhost_document_prepare_duration_seconds_bucket{le="5"} 1
viewhost_document_prepare_duration_seconds_bucket{le="10"} 1
viewhost_document_prepare_duration_seconds_bucket{le="+Inf"} 1
viewhost_document_prepare_duration_seconds_sum 0.02
viewhost_document_prepare_duration_seconds_count 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want), "viewhost_document_prepare_duration_seconds"))
}

func TestNewMetrics_Unregistered(t *testing.T) {
	m := observability.NewMetrics(nil)
	m.Hooks().EmitBackstack("push", "a", 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BackstackDepth))
}

func TestCombine(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{OnBackstack: func(*domain.BackstackEvent) { order = append(order, "a") }}
	b := domain.LifecycleHooks{
		OnBackstack:   func(*domain.BackstackEvent) { order = append(order, "b") },
		OnStateChange: func(*domain.StateEvent) { order = append(order, "b-state") },
	}

	hooks := observability.Combine(a, b)
	hooks.EmitBackstack("clear", "", 0)
	hooks.EmitState("t", domain.StatePending, domain.StateError)
	hooks.EmitMilestone("t", domain.MilestoneReceived, 0)

	assert.Equal(t, []string{"a", "b", "b-state"}, order)
}
