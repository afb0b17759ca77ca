package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/aretw0/viewhost/pkg/domain"
	"github.com/aretw0/viewhost/pkg/ports"
)

// Context owns one document: its content, its renderer, its command queue and
// its listeners.
type Context struct {
	token   string
	quiet   bool
	content ports.Content
	config  domain.DocumentConfig
	host    Host
	logger  *slog.Logger
	created time.Time

	listenerSeq atomic.Int64

	mu        sync.Mutex
	renderer  ports.Renderer
	packages  ports.PackageLoader
	manager   *Manager
	state     domain.DocumentState
	destroyed bool
	saved     bool
	paused    bool
	draining  bool
	queue     []*pendingCommand
	listeners map[ListenerID]Listener
	preparing *prepareCall
	userData  map[string]any
}

type prepareCall struct {
	done chan struct{}
	err  error
}

// New creates a document context in the pending state.
func New(req Request, host Host) (*Context, error) {
	if len(req.Document) == 0 {
		return nil, domain.ErrDocumentRequired
	}
	if host.Engine == nil {
		return nil, errors.New("document engine is required")
	}
	if host.Scheduler == nil {
		return nil, errors.New("document scheduler is required")
	}
	if host.Logger == nil {
		host.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	token := req.Token
	if token == "" {
		token = uuid.NewString()
	}
	data := req.Data
	if len(data) == 0 {
		data = []byte("{}")
	}

	var base domain.DocumentConfig
	if host.Config != nil {
		base = host.Config()
	}
	config := base.WithEnvironment(req.Environment)
	config.FillMissingData = !req.Quiet

	c := &Context{
		token:     token,
		quiet:     req.Quiet,
		config:    config,
		host:      host,
		logger:    host.Logger.With("token", token),
		created:   time.Now(),
		packages:  host.Packages,
		state:     domain.StatePending,
		listeners: make(map[ListenerID]Listener),
		userData:  make(map[string]any),
	}
	if !req.Quiet {
		host.Hooks.EmitMilestone(token, domain.MilestoneReceived, 0)
		if host.Listener != nil {
			// Host-wide listeners take id 0 and get no replay.
			c.listeners[0] = host.Listener
		}
	}

	content, err := host.Engine.NewContent(req.Document, data, ports.ContentOptions{Config: config, Logger: c.logger})
	if err != nil {
		return nil, fmt.Errorf("failed to create content: %w", err)
	}
	c.content = content
	c.manager = newManager(host, req.EmbeddedFactory, c.logger)

	renderer, err := host.Engine.NewRenderer(ports.RendererOptions{
		Token:          token,
		Content:        content,
		Config:         config,
		Logger:         c.logger,
		OnStateUpdate:  c.onDocumentStateUpdate,
		OnEmbedRequest: c.onEmbedRequest,

		OnExtensionEvent: host.Extensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	c.renderer = renderer
	c.manager.bind(renderer)
	return c, nil
}

// Token returns the document's stable identifier.
func (c *Context) Token() string { return c.token }

// Content returns the parsed document source.
func (c *Context) Content() ports.Content { return c.content }

// Config returns the configuration snapshot the document was created with.
func (c *Context) Config() domain.DocumentConfig { return c.config }

// Handle returns a new revocable reference to this context.
func (c *Context) Handle() *Handle { return newHandle(c) }

func (c *Context) State() domain.DocumentState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Context) IsPending() bool  { return c.State() == domain.StatePending }
func (c *Context) IsReady() bool    { return c.State() == domain.StatePrepared }
func (c *Context) IsRendered() bool { return c.State().IsRendered() }

// IsDestroyed reports whether Destroy has been called.
func (c *Context) IsDestroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// Prepare resolves packages and brings the document to the prepared state.
// It is idempotent: a context that is already prepared or further along returns immediately.
func (c *Context) Prepare(ctx context.Context) (*Handle, error) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return nil, domain.ErrContextDestroyed
	}
	if c.state.IsTerminal() {
		state := c.state
		c.mu.Unlock()
		return nil, &domain.StateConflictError{Op: "prepare", State: state}
	}
	if c.state != domain.StatePending {
		c.mu.Unlock()
		return c.Handle(), nil
	}
	if call := c.preparing; call != nil {
		c.mu.Unlock()
		select {
		case <-call.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if call.err != nil {
			return nil, call.err
		}
		return c.Handle(), nil
	}
	call := &prepareCall{done: make(chan struct{})}
	c.preparing = call
	c.mu.Unlock()

	call.err = c.prepare(ctx)

	c.mu.Lock()
	c.preparing = nil
	c.mu.Unlock()
	close(call.done)

	if call.err != nil {
		return nil, call.err
	}
	return c.Handle(), nil
}

func (c *Context) prepare(ctx context.Context) error {
	start := time.Now()
	if err := c.resolvePackages(ctx); err != nil {
		return c.failPrepare(ctx, err)
	}

	renderer, err := c.liveRenderer("prepare")
	if err != nil {
		return err
	}
	if err := renderer.Prepare(ctx); err != nil {
		return c.failPrepare(ctx, err)
	}

	if c.IsPending() {
		c.onDocumentStateUpdate(domain.StatePrepared)
	}
	state := c.State()
	switch {
	case c.IsDestroyed():
		return domain.ErrContextDestroyed
	case state != domain.StatePrepared && !state.IsRendered():
		return fmt.Errorf("%w: document is %s", domain.ErrPrepareFailed, state)
	}

	c.logger.Debug("document prepared", "elapsed", time.Since(start))
	if !c.quiet {
		c.host.Hooks.EmitMilestone(c.token, domain.MilestonePrepared, time.Since(start))
	}
	return nil
}

// failPrepare moves the document to the error state unless the failure came from
// the caller giving up or from a concurrent destroy.
func (c *Context) failPrepare(ctx context.Context, cause error) error {
	if c.IsDestroyed() {
		return domain.ErrContextDestroyed
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	c.logger.Error("document failed to prepare", "err", cause)
	c.onDocumentStateUpdate(domain.StateError)
	return fmt.Errorf("%w: %w", domain.ErrPrepareFailed, cause)
}

// Render binds the document to view and inflates it. A document that was unbound
// after being rendered is restored without resolving packages again.
func (c *Context) Render(ctx context.Context, view ports.View) (*Handle, error) {
	if view == nil {
		return nil, domain.ErrNotBound
	}
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return nil, domain.ErrContextDestroyed
	}
	if c.state.IsTerminal() {
		state := c.state
		c.mu.Unlock()
		return nil, &domain.StateConflictError{Op: "render", State: state}
	}
	restoring := c.saved
	renderer := c.renderer
	c.mu.Unlock()

	start := time.Now()
	if !restoring {
		if err := c.resolvePackages(ctx); err != nil {
			return nil, c.failRender(ctx, err)
		}
	}

	if err := renderer.BindToView(view); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", view.Name(), err)
	}
	c.mu.Lock()
	c.saved = false
	c.mu.Unlock()

	if err := renderer.Init(ctx); err != nil {
		return nil, c.failRender(ctx, err)
	}
	if c.IsDestroyed() {
		return nil, domain.ErrContextDestroyed
	}
	if c.IsReady() {
		c.onDocumentStateUpdate(domain.StateInflated)
	}

	c.mu.Lock()
	paused := c.paused
	c.mu.Unlock()
	if paused {
		renderer.StopUpdate()
	}

	c.logger.Debug("document rendered", "view", view.Name(), "restored", restoring)
	if !c.quiet {
		c.host.Hooks.EmitMilestone(c.token, domain.MilestoneRendered, time.Since(start))
	}
	c.kickDrain()
	return c.Handle(), nil
}

func (c *Context) failRender(ctx context.Context, cause error) error {
	if c.IsDestroyed() {
		return domain.ErrContextDestroyed
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	c.logger.Error("document failed to render", "err", cause)
	c.onDocumentStateUpdate(domain.StateError)
	return fmt.Errorf("failed to render document: %w", cause)
}

// UnbindFromView detaches the renderer and marks the context as saved: commands
// queue until it is rendered again.
func (c *Context) UnbindFromView() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.saved = true
	renderer := c.renderer
	c.mu.Unlock()
	renderer.UnbindFromView()
}

// Pause stops renderer updates. The flag survives until Resume so that a later
// Render keeps the document paused.
func (c *Context) Pause() error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return domain.ErrContextDestroyed
	}
	c.paused = true
	renderer := c.renderer
	c.mu.Unlock()
	renderer.StopUpdate()
	return nil
}

// Resume restarts renderer updates on a displayed document.
func (c *Context) Resume() error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return domain.ErrContextDestroyed
	}
	c.paused = false
	state := c.state
	renderer := c.renderer
	c.mu.Unlock()
	if state != domain.StateDisplayed {
		return &domain.StateConflictError{Op: "resume", State: state}
	}
	renderer.ResumeUpdate()
	return nil
}

// IsPaused reports whether the document is held paused.
func (c *Context) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Destroy moves the document to finished, rejects queued commands, destroys
// embedded documents and releases the renderer. A second call is a state conflict.
func (c *Context) Destroy() error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return domain.ErrContextDestroyed
	}
	c.destroyed = true
	c.mu.Unlock()

	c.logger.Debug("destroying document")
	c.onDocumentStateUpdate(domain.StateFinished)

	c.mu.Lock()
	renderer := c.renderer
	manager := c.manager
	c.renderer = nil
	c.packages = nil
	c.mu.Unlock()

	manager.Destroy()
	if renderer != nil {
		renderer.Destroy()
	}
	return nil
}

// ConfigurationChange forwards a configuration delta to the renderer.
func (c *Context) ConfigurationChange(change domain.ConfigurationChange) error {
	renderer, err := c.liveRenderer("change configuration")
	if err != nil {
		return err
	}
	renderer.ConfigurationChange(change)
	return nil
}

// UpdateDisplayState forwards a display state to the renderer.
func (c *Context) UpdateDisplayState(state domain.DisplayState) error {
	renderer, err := c.liveRenderer("update display state")
	if err != nil {
		return err
	}
	renderer.DisplayStateChange(state)
	return nil
}

// VisualContext serializes the visible component tree.
func (c *Context) VisualContext(ctx context.Context) (string, error) {
	renderer, err := c.displayedRenderer("get visual context")
	if err != nil {
		return "", err
	}
	return renderer.VisualContext(ctx)
}

// DataSourceContext serializes the state of the document's dynamic data sources.
func (c *Context) DataSourceContext(ctx context.Context) (string, error) {
	renderer, err := c.displayedRenderer("get data source context")
	if err != nil {
		return "", err
	}
	return renderer.DataSourceContext(ctx)
}

// DefaultDataSourceKind is used by UpdateDataSource when no kind is given.
const DefaultDataSourceKind = "dynamicIndexList"

// UpdateDataSource applies a data source update payload.
func (c *Context) UpdateDataSource(ctx context.Context, payload, kind string) (bool, error) {
	renderer, err := c.displayedRenderer("update data source")
	if err != nil {
		return false, err
	}
	if kind == "" {
		kind = DefaultDataSourceKind
	}
	return renderer.UpdateDataSource(ctx, payload, kind)
}

// ExtensionSettings returns the settings the document declared for an extension.
func (c *Context) ExtensionSettings(uri string) (map[string]any, bool) {
	return c.content.ExtensionSettings(uri)
}

// EmbeddedDocuments returns the live children of this document.
func (c *Context) EmbeddedDocuments() []*Context {
	return c.manager.Children()
}

// SetUserData attaches an opaque value to the document.
func (c *Context) SetUserData(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return domain.ErrContextDestroyed
	}
	c.userData[key] = value
	return nil
}

// UserData returns a value stored with SetUserData.
func (c *Context) UserData(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.userData[key]
	return v, ok
}

// onDocumentStateUpdate applies a transition reported by the renderer, the
// context itself or a parent document. Terminal states are sticky.
func (c *Context) onDocumentStateUpdate(state domain.DocumentState) {
	c.mu.Lock()
	if c.state.IsTerminal() || c.state == state {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = state
	renderer := c.renderer
	manager := c.manager

	var rejected []*pendingCommand
	if state.IsTerminal() {
		rejected = c.queue
		c.queue = nil
	}
	drain := c.startDrainLocked()
	c.notifyLocked(state)
	c.mu.Unlock()

	c.logger.Debug("document state changed", "from", prev, "to", state)
	if renderer != nil && renderer.DocumentState() != state {
		renderer.UpdateDocumentState(state)
	}
	c.reject(rejected, state)
	if drain {
		go c.drain()
	}
	manager.UpdateDocumentState(state)
	c.host.Hooks.EmitState(c.token, prev, state)
}

func (c *Context) onEmbedRequest(requestID int, url string, headers []string) {
	c.manager.Request(context.Background(), requestID, url, headers)
}

func (c *Context) liveRenderer(op string) (ports.Renderer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed || c.renderer == nil {
		return nil, domain.ErrContextDestroyed
	}
	if c.state.IsTerminal() {
		return nil, &domain.StateConflictError{Op: op, State: c.state}
	}
	return c.renderer, nil
}

func (c *Context) displayedRenderer(op string) (ports.Renderer, error) {
	renderer, err := c.liveRenderer(op)
	if err != nil {
		return nil, err
	}
	if state := c.State(); state != domain.StateDisplayed {
		return nil, fmt.Errorf("%w: cannot %s while %s", domain.ErrNotRendered, op, state)
	}
	return renderer, nil
}

func (c *Context) snapshotListenersLocked() []registered {
	out := make([]registered, 0, len(c.listeners))
	for id, l := range c.listeners {
		out = append(out, registered{id: id, listener: l})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
