package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/viewhost/pkg/domain"
	"github.com/aretw0/viewhost/pkg/ports"
)

// PrepareFunc prepares a document on behalf of an embed request.
type PrepareFunc func(ctx context.Context, req Request) (*Prepared, error)

// EmbedRequest is handed to the embedded document factory. Prepare builds a
// child document with the parent's host; the factory decides what to load.
type EmbedRequest struct {
	URL     string
	Headers []string
	Prepare PrepareFunc
}

// EmbeddedDocumentFactory resolves embed requests into prepared documents.
type EmbeddedDocumentFactory interface {
	Request(ctx context.Context, req EmbedRequest) (*Prepared, error)
}

// EmbeddedFactoryFunc adapts a function to EmbeddedDocumentFactory.
type EmbeddedFactoryFunc func(ctx context.Context, req EmbedRequest) (*Prepared, error)

func (f EmbeddedFactoryFunc) Request(ctx context.Context, req EmbedRequest) (*Prepared, error) {
	return f(ctx, req)
}

// embedResponder is the part of a renderer that answers embed requests.
type embedResponder interface {
	EmbedRequestSucceeded(requestID int, url string, doc ports.EmbeddedDocument) error
	EmbedRequestFailed(requestID int, url, reason string)
}

// Manager tracks the embedded documents of one parent and keeps them in the
// parent's lifecycle state.
type Manager struct {
	host    Host
	logger  *slog.Logger
	factory EmbeddedDocumentFactory

	mu        sync.Mutex
	responder embedResponder
	children  []*Context
	state     domain.DocumentState
	destroyed bool
}

func newManager(host Host, factory EmbeddedDocumentFactory, logger *slog.Logger) *Manager {
	return &Manager{host: host, factory: factory, logger: logger, state: domain.StatePending}
}

func (m *Manager) bind(responder embedResponder) {
	m.mu.Lock()
	m.responder = responder
	m.mu.Unlock()
}

// Request asks the factory for the document at url and hands the result to the
// parent's renderer.
func (m *Manager) Request(ctx context.Context, requestID int, url string, headers []string) {
	m.mu.Lock()
	responder := m.responder
	factory := m.factory
	destroyed := m.destroyed
	m.mu.Unlock()
	if responder == nil || destroyed {
		return
	}
	if factory == nil {
		m.logger.Error("embedded document requested", "url", url, "err", domain.ErrNoEmbeddedFactory)
		responder.EmbedRequestFailed(requestID, url, domain.ErrNoEmbeddedFactory.Error())
		return
	}

	prepared, err := factory.Request(ctx, EmbedRequest{URL: url, Headers: headers, Prepare: m.prepare})
	if err == nil && prepared == nil {
		err = errors.New("factory returned no document")
	}
	if err != nil {
		m.logger.Warn("embedded document request failed", "url", url, "err", err)
		responder.EmbedRequestFailed(requestID, url, err.Error())
		return
	}

	child, err := prepared.Extract()
	if err != nil {
		prepared.Destroy()
		m.logger.Warn("embedded document is not usable", "url", url, "err", err)
		responder.EmbedRequestFailed(requestID, url, err.Error())
		return
	}

	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		// The parent went away while the factory was working.
		_ = child.Destroy()
		return
	}
	m.children = append(m.children, child)
	state := m.state
	m.mu.Unlock()

	if err := responder.EmbedRequestSucceeded(requestID, url, child); err != nil {
		m.logger.Warn("renderer refused embedded document", "url", url, "err", err)
		m.remove(child)
		_ = child.Destroy()
		return
	}
	child.onDocumentStateUpdate(state)
}

// prepare builds a quiet child document sharing the parent's host.
func (m *Manager) prepare(ctx context.Context, req Request) (*Prepared, error) {
	req.Quiet = true
	child, err := New(req, m.host)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPrepareFailed, err)
	}
	handle, err := child.Prepare(ctx)
	if err != nil {
		_ = child.Destroy()
		return nil, err
	}
	return NewPrepared(handle), nil
}

// UpdateDocumentState moves every live child to state.
func (m *Manager) UpdateDocumentState(state domain.DocumentState) {
	m.mu.Lock()
	m.state = state
	children := slices.Clone(m.children)
	m.mu.Unlock()
	for _, child := range children {
		child.onDocumentStateUpdate(state)
	}
}

// Children returns the embedded documents still owned by the manager.
func (m *Manager) Children() []*Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.children)
}

// Destroy destroys every child. Requests completing afterwards destroy their result.
func (m *Manager) Destroy() {
	m.mu.Lock()
	m.destroyed = true
	children := m.children
	m.children = nil
	m.factory = nil
	m.mu.Unlock()
	for _, child := range children {
		if err := child.Destroy(); err != nil && !errors.Is(err, domain.ErrContextDestroyed) {
			m.logger.Warn("failed to destroy embedded document", "token", child.Token(), "err", err)
		}
	}
}

func (m *Manager) remove(child *Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.children = slices.DeleteFunc(m.children, func(c *Context) bool { return c == child })
}
