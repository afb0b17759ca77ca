package backstack_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/viewhost/pkg/adapters/sim"
	"github.com/aretw0/viewhost/pkg/backstack"
	"github.com/aretw0/viewhost/pkg/dispatch"
	"github.com/aretw0/viewhost/pkg/document"
	"github.com/aretw0/viewhost/pkg/domain"
)

type fixture struct {
	engine   *sim.Engine
	host     document.Host
	restored []*document.Context
}

func newFixture() *fixture {
	engine := sim.NewEngine()
	return &fixture{
		engine: engine,
		host:   document.Host{Engine: engine, Scheduler: dispatch.NewManual()},
	}
}

func (f *fixture) rendered(t *testing.T) *document.Context {
	t.Helper()
	c, err := document.New(document.Request{Document: []byte(`{"type":"APL","mainTemplate":{"items":[]}}`)}, f.host)
	require.NoError(t, err)
	_, err = c.Render(context.Background(), sim.NewView("main"))
	require.NoError(t, err)
	return c
}

func (f *fixture) renderer(t *testing.T, c *document.Context) *sim.Renderer {
	t.Helper()
	r, ok := f.engine.Renderer(c.Token())
	require.True(t, ok)
	return r
}

func (f *fixture) extension(opts ...backstack.Option) *backstack.Extension {
	ext := backstack.New(opts...)
	ext.SetRestoreFunc(func(ctx context.Context, doc *document.Context) error {
		f.restored = append(f.restored, doc)
		return nil
	})
	return ext
}

func (f *fixture) push(t *testing.T, ext *backstack.Extension, id string) *document.Context {
	t.Helper()
	require.NoError(t, ext.ApplySettings(map[string]any{"backstackId": id}))
	c := f.rendered(t)
	require.True(t, ext.Push(c))
	return c
}

func TestExtension_PushRequiresActiveID(t *testing.T) {
	f := newFixture()
	ext := f.extension()

	c := f.rendered(t)
	assert.False(t, ext.ShouldCache())
	assert.False(t, ext.Push(c))
	assert.Zero(t, ext.Len())
	assert.False(t, c.IsPaused())
}

func TestExtension_PushConsumesID(t *testing.T) {
	f := newFixture()
	ext := f.extension()

	c := f.push(t, ext, "home")
	assert.Equal(t, 1, ext.Len())
	assert.Equal(t, []string{"home"}, ext.IDs())
	assert.Empty(t, ext.ActiveID())
	assert.True(t, c.IsPaused(), "cached documents stay paused")
	assert.True(t, f.renderer(t, c).Paused())
}

func TestExtension_ApplySettings(t *testing.T) {
	ext := backstack.New()

	require.NoError(t, ext.ApplySettings(map[string]any{"backstackId": "first", "backstackArrayName": "ids"}))
	assert.Equal(t, "first", ext.ActiveID())
	assert.Equal(t, map[string][]string{"ids": {}}, ext.LiveData())

	// An active id is not replaced, and the array name is reset every time.
	require.NoError(t, ext.ApplySettings(map[string]any{"backstackId": "second"}))
	assert.Equal(t, "first", ext.ActiveID())
	assert.Empty(t, ext.LiveData())

	require.NoError(t, ext.ApplySettings(nil))
	assert.Equal(t, "first", ext.ActiveID())

	assert.Error(t, ext.ApplySettings(map[string]any{"backstackId": []string{"a", "b"}}))
}

func TestExtension_EnvironmentAndLiveData(t *testing.T) {
	f := newFixture()
	ext := f.extension(backstack.WithResponsibleForBackButton(true))

	f.push(t, ext, "a")
	f.push(t, ext, "b")
	require.NoError(t, ext.ApplySettings(map[string]any{"backstackArrayName": "history"}))

	assert.Equal(t, backstack.Environment{ResponsibleForBackButton: true, Backstack: []string{"a", "b"}}, ext.Environment())
	assert.Equal(t, map[string][]string{"history": {"a", "b"}}, ext.LiveData())
}

func TestExtension_GoBackRestoresWithMergedConfiguration(t *testing.T) {
	f := newFixture()
	ext := f.extension()

	x := f.push(t, ext, "X")
	ext.StoreConfigurationChange(domain.ConfigurationChange{"width": 10})
	ext.StoreConfigurationChange(domain.ConfigurationChange{"height": 20})

	ok, err := ext.GoBack(context.Background(), backstack.GoBackParams{BackType: backstack.BackTypeID, BackValue: "X"})
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, f.restored, 1)
	assert.Same(t, x, f.restored[0])
	assert.Equal(t, []domain.ConfigurationChange{{"width": 10, "height": 20}}, f.renderer(t, x).ConfigurationChanges())
	assert.Equal(t, "X", ext.ActiveID(), "the restored id becomes active again")
	assert.Zero(t, ext.Len())
}

func TestExtension_GoBackDestroysDiscarded(t *testing.T) {
	f := newFixture()
	var actions []string
	ext := f.extension(backstack.WithLifecycleHooks(domain.LifecycleHooks{
		OnBackstack: func(e *domain.BackstackEvent) { actions = append(actions, e.Action+":"+e.ID) },
	}))

	a := f.push(t, ext, "A")
	b := f.push(t, ext, "B")
	c := f.push(t, ext, "C")

	ok, err := ext.GoBack(context.Background(), backstack.GoBackParams{BackType: backstack.BackTypeIndex, BackValue: 0})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, a, f.restored[0])
	assert.False(t, a.IsDestroyed())
	assert.True(t, b.IsDestroyed())
	assert.True(t, c.IsDestroyed())
	assert.Equal(t, []string{"push:A", "push:B", "push:C", "discard:C", "discard:B", "restore:A"}, actions)
}

func TestExtension_GoBackIgnored(t *testing.T) {
	f := newFixture()
	ext := f.extension()
	f.push(t, ext, "A")

	for _, p := range []backstack.GoBackParams{
		{BackType: backstack.BackTypeCount, BackValue: 2},
		{BackType: backstack.BackTypeIndex, BackValue: 5},
		{BackType: backstack.BackTypeID, BackValue: "missing"},
		{BackType: "sideways", BackValue: 1},
	} {
		ok, err := ext.GoBack(context.Background(), p)
		require.NoError(t, err)
		assert.False(t, ok, "%+v", p)
	}
	assert.Equal(t, 1, ext.Len())
	assert.Empty(t, f.restored)

	_, err := ext.GoBack(context.Background(), backstack.GoBackParams{BackType: backstack.BackTypeCount, BackValue: "many"})
	assert.Error(t, err)
}

func TestExtension_GoBackWithoutRestoreFunc(t *testing.T) {
	f := newFixture()
	ext := backstack.New()
	require.NoError(t, ext.ApplySettings(map[string]any{"backstackId": "A"}))
	require.True(t, ext.Push(f.rendered(t)))

	ok, err := ext.GoBack(context.Background(), backstack.GoBackParams{BackType: backstack.BackTypeCount, BackValue: 1})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, ext.Len())
}

func TestExtension_Clear(t *testing.T) {
	f := newFixture()
	ext := f.extension()
	a := f.push(t, ext, "A")
	b := f.push(t, ext, "B")

	require.NoError(t, ext.OnExtensionEvent(context.Background(), backstack.URI, backstack.CommandClear, nil))
	assert.Zero(t, ext.Len())
	assert.Empty(t, ext.IDs())
	assert.True(t, a.IsDestroyed())
	assert.True(t, b.IsDestroyed())

	ok, err := ext.HandleBack(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtension_OnExtensionEvent(t *testing.T) {
	f := newFixture()
	ext := f.extension()
	f.push(t, ext, "A")
	f.push(t, ext, "B")

	// Other extensions and unknown commands are ignored.
	require.NoError(t, ext.OnExtensionEvent(context.Background(), "aplext:other:10", backstack.CommandClear, nil))
	require.NoError(t, ext.OnExtensionEvent(context.Background(), backstack.URI, "Rewind", nil))
	assert.Equal(t, 2, ext.Len())

	// GoBack defaults to count 1.
	require.NoError(t, ext.OnExtensionEvent(context.Background(), backstack.URI, backstack.CommandGoBack, map[string]any{}))
	assert.Equal(t, []string{"A"}, ext.IDs())

	require.NoError(t, ext.OnExtensionEvent(context.Background(), backstack.URI, backstack.CommandGoBack,
		map[string]any{"backType": "id", "backValue": "A"}))
	assert.Zero(t, ext.Len())
	assert.Len(t, f.restored, 2)
}

func TestExtension_HandleBack(t *testing.T) {
	f := newFixture()
	ext := f.extension()
	f.push(t, ext, "A")

	ok, err := ext.HandleBack(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	f.push(t, ext, "B")
	ext.SetResponsibleForBackButton(true)
	ok, err = ext.HandleBack(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, ext.Len())
}
