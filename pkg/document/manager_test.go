package document_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/viewhost/pkg/document"
	"github.com/aretw0/viewhost/pkg/domain"
)

func embedFactory(t *testing.T, seen *[]string) document.EmbeddedFactoryFunc {
	return func(ctx context.Context, req document.EmbedRequest) (*document.Prepared, error) {
		*seen = append(*seen, req.URL)
		return req.Prepare(ctx, document.Request{Document: doc, Token: "child"})
	}
}

func TestManager_EmbedRequestSucceeds(t *testing.T) {
	engine := &fakeEngine{}
	rec := &recorder{}
	host, sched := newHost(engine, &fakeLoader{})
	host.Listener = rec

	var seen []string
	parent, err := document.New(document.Request{Document: doc, EmbeddedFactory: embedFactory(t, &seen)}, host)
	require.NoError(t, err)
	parentRenderer := engine.last()

	parentRenderer.opts.OnEmbedRequest(7, "https://example.test/child.json", nil)
	assert.Equal(t, []string{"https://example.test/child.json"}, seen)
	require.Len(t, parentRenderer.embedded, 1)

	children := parent.EmbeddedDocuments()
	require.Len(t, children, 1)
	child := children[0]
	assert.Equal(t, "child", child.Token())
	assert.False(t, child.Config().FillMissingData)
	// The child was prepared, then pulled back to the parent's state.
	assert.Equal(t, domain.StatePending, child.State())

	_, err = parent.Render(context.Background(), fakeView{})
	require.NoError(t, err)
	assert.Equal(t, domain.StateDisplayed, child.State())

	require.NoError(t, parent.Destroy())
	assert.True(t, child.IsDestroyed())
	assert.Empty(t, parent.EmbeddedDocuments())

	// Quiet children never reach host-wide listeners.
	sched.RunPending()
	for _, s := range rec.States() {
		assert.NotEqual(t, domain.StatePending, s)
	}
	assert.Equal(t, domain.StateFinished, rec.States()[len(rec.States())-1])
}

func TestManager_EmbedRequestFails(t *testing.T) {
	t.Run("NoFactory", func(t *testing.T) {
		engine := &fakeEngine{}
		host, _ := newHost(engine, &fakeLoader{})
		_, err := document.New(document.Request{Document: doc}, host)
		require.NoError(t, err)

		r := engine.last()
		r.opts.OnEmbedRequest(1, "child.json", nil)
		assert.Equal(t, []string{domain.ErrNoEmbeddedFactory.Error()}, r.failures)
	})

	t.Run("FactoryError", func(t *testing.T) {
		engine := &fakeEngine{}
		host, _ := newHost(engine, &fakeLoader{})
		factory := document.EmbeddedFactoryFunc(func(ctx context.Context, req document.EmbedRequest) (*document.Prepared, error) {
			return nil, errors.New("404")
		})
		parent, err := document.New(document.Request{Document: doc, EmbeddedFactory: factory}, host)
		require.NoError(t, err)

		r := engine.last()
		r.opts.OnEmbedRequest(1, "child.json", nil)
		assert.Equal(t, []string{"404"}, r.failures)
		assert.Empty(t, parent.EmbeddedDocuments())
	})
}

func TestManager_TerminalChildIsNotRenotified(t *testing.T) {
	engine := &fakeEngine{}
	host, _ := newHost(engine, &fakeLoader{})
	var seen []string
	parent, err := document.New(document.Request{Document: doc, EmbeddedFactory: embedFactory(t, &seen)}, host)
	require.NoError(t, err)

	engine.last().opts.OnEmbedRequest(1, "child.json", nil)
	child := parent.EmbeddedDocuments()[0]
	require.NoError(t, child.Destroy())

	_, err = parent.Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StateFinished, child.State())
}
