package runtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/viewhost/internal/runtime"
	"github.com/aretw0/viewhost/pkg/adapters/sim"
	"github.com/aretw0/viewhost/pkg/backstack"
	"github.com/aretw0/viewhost/pkg/dispatch"
	"github.com/aretw0/viewhost/pkg/document"
	"github.com/aretw0/viewhost/pkg/domain"
)

const (
	plainDoc   = `{"type":"APL","mainTemplate":{"items":[]}}`
	cachedDoc  = `{"type":"APL","extensions":[{"name":"Back","uri":"aplext:backstack:10"}],"settings":{"Back":{"backstackId":"home"}},"mainTemplate":{"items":[]}}`
	brokenDoc  = `{"type":"APL","import":[{"name":"missing","version":"1.0"}],"mainTemplate":{"items":[]}}`
	secondView = "second"
)

type harness struct {
	engine *sim.Engine
	host   document.Host
	ext    *backstack.Extension
	ctrl   *runtime.Controller
	view   *sim.View
}

func newHarness(withBackstack bool) *harness {
	engine := sim.NewEngine()
	h := &harness{
		engine: engine,
		host:   document.Host{Engine: engine, Scheduler: dispatch.NewManual()},
		view:   sim.NewView("main"),
	}
	var opts []runtime.Option
	if withBackstack {
		h.ext = backstack.New()
		opts = append(opts, runtime.WithBackstack(h.ext))
	}
	h.ctrl = runtime.NewController(opts...)
	h.ctrl.Bind(h.view)
	return h
}

func (h *harness) newDoc(t *testing.T, source string) *document.Context {
	t.Helper()
	c, err := document.New(document.Request{Document: []byte(source)}, h.host)
	require.NoError(t, err)
	return c
}

func (h *harness) render(t *testing.T, source string) *document.Context {
	t.Helper()
	c := h.newDoc(t, source)
	_, err := h.ctrl.RenderDocument(context.Background(), c)
	require.NoError(t, err)
	return c
}

func (h *harness) renderer(t *testing.T, c *document.Context) *sim.Renderer {
	t.Helper()
	r, ok := h.engine.Renderer(c.Token())
	require.True(t, ok)
	return r
}

func TestController_RequiresView(t *testing.T) {
	h := newHarness(false)
	h.ctrl.Unbind()
	assert.False(t, h.ctrl.IsBound())

	_, err := h.ctrl.RenderDocument(context.Background(), h.newDoc(t, plainDoc))
	assert.ErrorIs(t, err, domain.ErrNotBound)
}

func TestController_IsBoundFollowsView(t *testing.T) {
	h := newHarness(false)
	assert.True(t, h.ctrl.IsBound())
	h.view.Disconnect()
	assert.False(t, h.ctrl.IsBound())
}

func TestController_OutgoingDestroyedWithoutBackstackID(t *testing.T) {
	h := newHarness(true)
	first := h.render(t, plainDoc)
	second := h.render(t, plainDoc)

	assert.True(t, first.IsDestroyed())
	assert.Zero(t, h.ext.Len())
	assert.Same(t, second, h.ctrl.Current())
	assert.Equal(t, domain.StateDisplayed, second.State())
}

func TestController_OutgoingCached(t *testing.T) {
	h := newHarness(true)
	first := h.render(t, cachedDoc)
	assert.Equal(t, "home", h.ext.ActiveID())

	second := h.render(t, plainDoc)
	assert.False(t, first.IsDestroyed())
	assert.Equal(t, []string{"home"}, h.ext.IDs())
	assert.Empty(t, h.ext.ActiveID())

	r := h.renderer(t, first)
	assert.True(t, r.Paused())
	assert.Nil(t, r.View())
	assert.Equal(t, []domain.DisplayState{domain.DisplayHidden}, r.DisplayStates())
	assert.Same(t, second, h.ctrl.Current())
}

func TestController_PrepareFailureKeepsCurrent(t *testing.T) {
	h := newHarness(true)
	first := h.render(t, plainDoc)

	_, err := h.ctrl.RenderDocument(context.Background(), h.newDoc(t, brokenDoc))
	assert.ErrorIs(t, err, domain.ErrPrepareFailed)
	assert.Same(t, first, h.ctrl.Current())
	assert.False(t, first.IsDestroyed())
	assert.Equal(t, domain.StateDisplayed, first.State())
}

func TestController_RestoreFromBackstack(t *testing.T) {
	h := newHarness(true)
	first := h.render(t, cachedDoc)
	second := h.render(t, plainDoc)

	h.ctrl.ConfigurationChange(domain.ConfigurationChange{"width": 800})
	h.ctrl.ConfigurationChange(domain.ConfigurationChange{"height": 600})
	assert.Len(t, h.renderer(t, second).ConfigurationChanges(), 2)
	assert.Empty(t, h.renderer(t, first).ConfigurationChanges(), "cached documents only accumulate")

	ok, err := h.ext.HandleBack(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, second.IsDestroyed(), "restore always destroys the outgoing document")
	assert.Same(t, first, h.ctrl.Current())
	assert.Equal(t, domain.StateDisplayed, first.State())

	r := h.renderer(t, first)
	assert.False(t, r.Paused())
	assert.Equal(t, h.view, r.View())
	assert.Equal(t, []domain.ConfigurationChange{{"width": 800, "height": 600}}, r.ConfigurationChanges())
	assert.Equal(t, []domain.DisplayState{domain.DisplayHidden, domain.DisplayForeground}, r.DisplayStates())
	assert.Equal(t, "home", h.ext.ActiveID())

	// The restored document is cached again under its id when displaced.
	h.render(t, plainDoc)
	assert.Equal(t, []string{"home"}, h.ext.IDs())
}

func TestController_RestoreKeepsPause(t *testing.T) {
	h := newHarness(true)
	first := h.render(t, cachedDoc)
	h.render(t, plainDoc)

	h.ctrl.PauseDocument()
	ok, err := h.ext.HandleBack(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, h.renderer(t, first).Paused())
}

func TestController_GlobalPause(t *testing.T) {
	h := newHarness(false)
	first := h.render(t, plainDoc)

	h.ctrl.PauseDocument()
	assert.True(t, h.ctrl.IsPaused())
	assert.True(t, h.renderer(t, first).Paused())

	second := h.render(t, plainDoc)
	assert.True(t, h.renderer(t, second).Paused(), "new documents inherit the pause")
	assert.True(t, second.IsPaused())

	h.ctrl.ResumeDocument()
	assert.False(t, h.renderer(t, second).Paused())
	assert.Equal(t, domain.StateDisplayed, second.State(), "pausing never changes the document state")
}

func TestController_BindResumesUnbindPauses(t *testing.T) {
	h := newHarness(false)
	doc := h.render(t, plainDoc)

	h.ctrl.Unbind()
	assert.True(t, h.renderer(t, doc).Paused())

	h.ctrl.Bind(sim.NewView(secondView))
	assert.False(t, h.renderer(t, doc).Paused())
}

func TestController_DisplayStateForwardedOnChange(t *testing.T) {
	h := newHarness(false)
	doc := h.render(t, plainDoc)

	h.ctrl.UpdateDisplayState(domain.DisplayForeground)
	h.ctrl.UpdateDisplayState(domain.DisplayBackground)
	h.ctrl.UpdateDisplayState(domain.DisplayBackground)
	assert.Equal(t, domain.DisplayBackground, h.ctrl.DisplayState())
	assert.Equal(t, []domain.DisplayState{domain.DisplayBackground}, h.renderer(t, doc).DisplayStates())
}

func TestController_Destroy(t *testing.T) {
	h := newHarness(false)
	doc := h.render(t, plainDoc)

	h.ctrl.Destroy()
	assert.True(t, doc.IsDestroyed())
	assert.Nil(t, h.ctrl.Current())
	assert.False(t, h.ctrl.IsBound())
}
