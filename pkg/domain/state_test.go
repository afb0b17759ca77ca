package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/viewhost/pkg/domain"
)

func TestDocumentState_String(t *testing.T) {
	states := []domain.DocumentState{
		domain.StatePending, domain.StatePrepared, domain.StateInflated,
		domain.StateDisplayed, domain.StateFinished, domain.StateError,
	}
	for _, s := range states {
		parsed, err := domain.ParseDocumentState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	assert.Equal(t, "DocumentState(42)", domain.DocumentState(42).String())
	_, err := domain.ParseDocumentState("sleeping")
	assert.Error(t, err)
}

func TestDocumentState_Predicates(t *testing.T) {
	tests := []struct {
		state    domain.DocumentState
		rendered bool
		terminal bool
	}{
		{domain.StatePending, false, false},
		{domain.StatePrepared, false, false},
		{domain.StateInflated, true, false},
		{domain.StateDisplayed, true, false},
		{domain.StateFinished, false, true},
		{domain.StateError, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.rendered, tt.state.IsRendered())
			assert.Equal(t, tt.terminal, tt.state.IsTerminal())
		})
	}
}

func TestDisplayState_Valid(t *testing.T) {
	assert.True(t, domain.DisplayHidden.Valid())
	assert.True(t, domain.DisplayBackground.Valid())
	assert.True(t, domain.DisplayForeground.Valid())
	assert.False(t, domain.DisplayState("dimmed").Valid())
}

func TestStateConflictError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &domain.StateConflictError{Op: "resume", State: domain.StatePrepared})

	assert.ErrorIs(t, err, domain.ErrStateConflict)
	assert.EqualError(t, err, "wrapped: cannot resume: document is prepared")
	assert.ErrorIs(t, domain.ErrContextDestroyed, domain.ErrStateConflict)
	assert.ErrorIs(t, domain.ErrNotRendered, domain.ErrStateConflict)
	assert.NotErrorIs(t, domain.ErrMalformedCommand, domain.ErrStateConflict)
}

func TestPackageError(t *testing.T) {
	cause := errors.New("boom")
	err := &domain.PackageError{Name: "base", Version: "1.0", Err: cause}

	assert.EqualError(t, err, "package base/1.0: boom")
	assert.ErrorIs(t, err, cause)
}

func TestLifecycleHooks_NilSafe(t *testing.T) {
	var hooks domain.LifecycleHooks
	hooks.EmitState("t", domain.StatePending, domain.StatePrepared)
	hooks.EmitMilestone("t", domain.MilestoneReceived, 0)
	hooks.EmitCommand("t", false, true, nil)
	hooks.EmitBackstack("push", "home", 1)

	var got []string
	hooks = domain.LifecycleHooks{
		OnStateChange: func(e *domain.StateEvent) { got = append(got, e.From.String()+">"+e.To.String()) },
		OnBackstack:   func(e *domain.BackstackEvent) { got = append(got, fmt.Sprintf("%s:%s:%d", e.Action, e.ID, e.Depth)) },
	}
	hooks.EmitState("t", domain.StatePending, domain.StatePrepared)
	hooks.EmitBackstack("push", "home", 1)

	assert.Equal(t, []string{"pending>prepared", "push:home:1"}, got)
}
