package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/viewhost/pkg/backstack"
	"github.com/aretw0/viewhost/pkg/document"
	"github.com/aretw0/viewhost/pkg/domain"
	"github.com/aretw0/viewhost/pkg/ports"
)

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithBackstack lets displaced documents be cached instead of destroyed.
func WithBackstack(ext *backstack.Extension) Option {
	return func(c *Controller) {
		c.backstack = ext
	}
}

// Controller owns the view surface and the document currently bound to it.
//
// Swaps (render, restore, destroy) are serialized. No lock is held while a
// document runs listeners or commands.
type Controller struct {
	logger    *slog.Logger
	backstack *backstack.Extension

	swap sync.Mutex

	mu      sync.Mutex
	view    ports.View
	current *document.Context
	paused  bool
	display domain.DisplayState
}

func NewController(opts ...Option) *Controller {
	c := &Controller{
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		display: domain.DisplayForeground,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.backstack != nil {
		c.backstack.SetRestoreFunc(c.RestoreDocument)
	}
	return c
}

// Bind attaches the view surface and resumes the current document.
func (c *Controller) Bind(view ports.View) {
	c.mu.Lock()
	c.view = view
	current := c.current
	paused := c.paused
	c.mu.Unlock()
	if current != nil && !paused {
		if err := current.Resume(); err != nil {
			c.logger.Debug("current document not resumed on bind", "err", err)
		}
	}
}

// Unbind detaches the view surface and pauses the current document.
func (c *Controller) Unbind() {
	c.mu.Lock()
	c.view = nil
	current := c.current
	c.mu.Unlock()
	if current != nil {
		_ = current.Pause()
	}
}

// IsBound reports whether a connected view is bound.
func (c *Controller) IsBound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view != nil && c.view.Connected()
}

// Current returns the document bound to the view, or nil.
func (c *Controller) Current() *document.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// RenderDocument prepares doc and makes it current. When preparation fails the
// current document is left untouched. Otherwise the outgoing document is cached
// in the backstack if it is rendered and the backstack holds an active id, and
// destroyed if not.
func (c *Controller) RenderDocument(ctx context.Context, doc *document.Context) (*document.Handle, error) {
	c.swap.Lock()
	defer c.swap.Unlock()

	c.mu.Lock()
	view := c.view
	c.mu.Unlock()
	if view == nil {
		return nil, domain.ErrNotBound
	}

	if _, err := doc.Prepare(ctx); err != nil {
		return nil, err
	}
	if state := doc.State(); state != domain.StatePrepared {
		return nil, fmt.Errorf("%w: document is %s", domain.ErrPrepareFailed, state)
	}

	c.mu.Lock()
	outgoing := c.current
	paused := c.paused
	c.current = doc
	c.mu.Unlock()

	if outgoing != nil && outgoing != doc && !c.tryCache(outgoing) {
		c.destroy(outgoing)
	}

	if paused {
		_ = doc.Pause()
	}
	if c.backstack != nil {
		if settings, ok := doc.ExtensionSettings(backstack.URI); ok {
			if err := c.backstack.ApplySettings(settings); err != nil {
				c.logger.Warn("ignoring backstack settings", "token", doc.Token(), "err", err)
			}
		}
	}
	return doc.Render(ctx, view)
}

func (c *Controller) tryCache(doc *document.Context) bool {
	if c.backstack == nil || !doc.IsRendered() || !c.backstack.ShouldCache() {
		return false
	}
	c.logger.Info("pushing document to backstack", "token", doc.Token(), "backstack_id", c.backstack.ActiveID())
	_ = doc.Pause()
	doc.UnbindFromView()
	_ = doc.UpdateDisplayState(domain.DisplayHidden)
	return c.backstack.Push(doc)
}

// RestoreDocument installs a document popped off the backstack. The outgoing
// document is destroyed; a popped document is never cached again on the way out.
func (c *Controller) RestoreDocument(ctx context.Context, doc *document.Context) error {
	c.swap.Lock()
	defer c.swap.Unlock()

	c.mu.Lock()
	outgoing := c.current
	c.current = doc
	view := c.view
	paused := c.paused
	display := c.display
	c.mu.Unlock()

	c.logger.Info("restoring document from backstack", "token", doc.Token())
	if outgoing != nil && outgoing != doc {
		c.destroy(outgoing)
	}
	if !paused {
		if err := doc.Resume(); err != nil {
			c.logger.Warn("restored document not resumed", "token", doc.Token(), "err", err)
		}
	}
	if view == nil {
		return domain.ErrNotBound
	}
	if _, err := doc.Render(ctx, view); err != nil {
		return fmt.Errorf("failed to render restored document: %w", err)
	}
	return doc.UpdateDisplayState(display)
}

// ConfigurationChange hands change to every cached document first, then to the
// current one.
func (c *Controller) ConfigurationChange(change domain.ConfigurationChange) {
	if c.backstack != nil {
		c.backstack.StoreConfigurationChange(change)
	}
	if current := c.Current(); current != nil {
		if err := current.ConfigurationChange(change); err != nil {
			c.logger.Warn("configuration change not applied", "token", current.Token(), "err", err)
		}
	}
}

// UpdateDisplayState tracks state and forwards it to the current document when it changes.
func (c *Controller) UpdateDisplayState(state domain.DisplayState) {
	c.mu.Lock()
	prev := c.display
	c.display = state
	current := c.current
	c.mu.Unlock()
	if current != nil && state != prev {
		if err := current.UpdateDisplayState(state); err != nil {
			c.logger.Warn("display state not applied", "token", current.Token(), "err", err)
		}
	}
}

func (c *Controller) DisplayState() domain.DisplayState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display
}

// PauseDocument pauses the current document and every document rendered until ResumeDocument.
func (c *Controller) PauseDocument() {
	c.mu.Lock()
	if c.paused {
		c.logger.Warn("pause requested while already paused")
	}
	c.paused = true
	current := c.current
	c.mu.Unlock()
	if current != nil {
		_ = current.Pause()
	}
}

func (c *Controller) ResumeDocument() {
	c.mu.Lock()
	if !c.paused {
		c.logger.Warn("resume requested while not paused")
	}
	c.paused = false
	current := c.current
	c.mu.Unlock()
	if current != nil {
		if err := current.Resume(); err != nil {
			c.logger.Debug("current document not resumed", "err", err)
		}
	}
}

func (c *Controller) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Destroy destroys the current document and releases the view.
func (c *Controller) Destroy() {
	c.swap.Lock()
	defer c.swap.Unlock()

	c.mu.Lock()
	current := c.current
	c.current = nil
	c.view = nil
	c.mu.Unlock()
	if current != nil {
		c.destroy(current)
	}
}

func (c *Controller) destroy(doc *document.Context) {
	if err := doc.Destroy(); err != nil && !errors.Is(err, domain.ErrContextDestroyed) {
		c.logger.Warn("failed to destroy document", "token", doc.Token(), "err", err)
	}
}
