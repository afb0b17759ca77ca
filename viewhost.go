package viewhost

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/viewhost/internal/logging"
	"github.com/aretw0/viewhost/internal/runtime"
	"github.com/aretw0/viewhost/pkg/adapters/memory"
	"github.com/aretw0/viewhost/pkg/backstack"
	"github.com/aretw0/viewhost/pkg/config"
	"github.com/aretw0/viewhost/pkg/content"
	"github.com/aretw0/viewhost/pkg/dispatch"
	"github.com/aretw0/viewhost/pkg/document"
	"github.com/aretw0/viewhost/pkg/domain"
	"github.com/aretw0/viewhost/pkg/ports"
)

// Viewhost is the high-level entry point of the library. It owns one view
// surface, the document bound to it and the backstack of displaced documents.
type Viewhost struct {
	engine     ports.Engine
	loader     ports.PackageLoader
	scheduler  ports.Scheduler
	serial     *dispatch.Serial
	backstack  *backstack.Extension
	controller *runtime.Controller
	hooks      domain.LifecycleHooks
	listener   document.Listener
	factory    document.EmbeddedDocumentFactory
	extensions ports.ExtensionHandler
	logger     *slog.Logger

	mu     sync.Mutex
	config config.Config
}

// Option defines a functional option for configuring the Viewhost.
type Option func(*Viewhost)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Viewhost) {
		v.logger = logger
	}
}

// WithConfig sets the initial viewhost configuration.
func WithConfig(cfg config.Config) Option {
	return func(v *Viewhost) {
		v.config = cfg
	}
}

// WithBackstack injects a preconfigured backstack extension.
func WithBackstack(ext *backstack.Extension) Option {
	return func(v *Viewhost) {
		v.backstack = ext
	}
}

// WithPackageLoader replaces the default package loader.
func WithPackageLoader(loader ports.PackageLoader) Option {
	return func(v *Viewhost) {
		v.loader = loader
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(v *Viewhost) {
		v.hooks = hooks
	}
}

// WithScheduler sets where listener notifications run. The default is a
// dispatch.Serial owned and closed by the Viewhost.
func WithScheduler(s ports.Scheduler) Option {
	return func(v *Viewhost) {
		v.scheduler = s
	}
}

// WithStateListener observes every top-level document.
func WithStateListener(l document.Listener) Option {
	return func(v *Viewhost) {
		v.listener = l
	}
}

// WithEmbeddedFactory sets the default factory for documents that embed others.
func WithEmbeddedFactory(f document.EmbeddedDocumentFactory) Option {
	return func(v *Viewhost) {
		v.factory = f
	}
}

// WithExtensionHandler receives commands for extensions other than the backstack.
func WithExtensionHandler(h ports.ExtensionHandler) Option {
	return func(v *Viewhost) {
		v.extensions = h
	}
}

// New creates a Viewhost driving engine.
func New(engine ports.Engine, opts ...Option) (*Viewhost, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	v := &Viewhost{engine: engine, config: config.Default()}
	for _, opt := range opts {
		opt(v)
	}
	if err := v.config.Validate(); err != nil {
		return nil, err
	}
	if v.logger == nil {
		v.logger = logging.NewNop()
	}
	if v.scheduler == nil {
		v.serial = dispatch.NewSerial()
		v.scheduler = v.serial
	}
	if v.loader == nil {
		v.loader = defaultLoader(v.config, v.logger)
	}
	if v.backstack == nil {
		v.backstack = backstack.New(
			backstack.WithLogger(v.logger),
			backstack.WithLifecycleHooks(v.hooks),
			backstack.WithResponsibleForBackButton(v.config.Backstack.ResponsibleForBackButton),
		)
	}
	v.controller = runtime.NewController(
		runtime.WithLogger(v.logger),
		runtime.WithBackstack(v.backstack),
	)
	return v, nil
}

func defaultLoader(cfg config.Config, logger *slog.Logger) ports.PackageLoader {
	opts := []content.Option{
		content.WithLogger(logger),
		content.WithBaseURL(cfg.Packages.BaseURL),
		content.WithConcurrency(cfg.Packages.Concurrency),
		content.WithCache(memory.NewCache()),
	}
	if cfg.Packages.Dir != "" {
		opts = append(opts, content.WithOverride(content.DirOverride(cfg.Packages.Dir)))
	}
	return content.NewLoader(opts...)
}

// PrepareRequest describes a document to instantiate.
type PrepareRequest struct {
	Document    []byte
	Data        []byte
	Token       string
	Environment map[string]any

	// Listener, when set, is registered on the document and makes the call
	// asynchronous: it returns before preparation completes.
	Listener document.Listener

	// EmbeddedFactory overrides the viewhost factory for this document.
	EmbeddedFactory document.EmbeddedDocumentFactory
}

// RenderRequest renders a Prepared document, or instantiates one from the
// embedded PrepareRequest when Prepared is nil.
type RenderRequest struct {
	PrepareRequest
	Prepared *document.Prepared
}

func (v *Viewhost) host() document.Host {
	return document.Host{
		Engine:     v.engine,
		Packages:   v.loader,
		Scheduler:  v.scheduler,
		Config:     v.documentConfig,
		Extensions: v.onExtensionEvent,
		Listener:   v.listener,
		Hooks:      v.hooks,
		Logger:     v.logger,
	}
}

func (v *Viewhost) documentConfig() domain.DocumentConfig {
	v.mu.Lock()
	cfg := v.config.DocumentConfig()
	v.mu.Unlock()
	return cfg.WithEnvironment(map[string]any{
		"extension": map[string]any{backstack.URI: v.backstack.Environment()},
	})
}

func (v *Viewhost) onExtensionEvent(ctx context.Context, uri, name string, params map[string]any) error {
	if uri == backstack.URI {
		return v.backstack.OnExtensionEvent(ctx, uri, name, params)
	}
	if v.extensions != nil {
		return v.extensions(ctx, uri, name, params)
	}
	v.logger.Warn("no handler for extension command", "uri", uri, "command", name)
	return nil
}

func (v *Viewhost) newContext(req PrepareRequest) (*document.Context, error) {
	factory := req.EmbeddedFactory
	if factory == nil {
		factory = v.factory
	}
	doc, err := document.New(document.Request{
		Document:        req.Document,
		Data:            req.Data,
		Token:           req.Token,
		Environment:     req.Environment,
		EmbeddedFactory: factory,
	}, v.host())
	if err != nil {
		return nil, err
	}
	if req.Listener != nil {
		if _, err := doc.RegisterListener(req.Listener); err != nil {
			_ = doc.Destroy()
			return nil, err
		}
	}
	return doc, nil
}

// Prepare instantiates a document and resolves its packages ahead of rendering.
func (v *Viewhost) Prepare(ctx context.Context, req PrepareRequest) (*document.Prepared, error) {
	doc, err := v.newContext(req)
	if err != nil {
		return nil, err
	}
	prepared := document.NewPrepared(doc.Handle())

	if req.Listener != nil {
		go func() {
			if _, err := doc.Prepare(context.WithoutCancel(ctx)); err != nil {
				v.logger.Warn("failed to prepare document", "token", doc.Token(), "err", err)
			}
		}()
		return prepared, nil
	}

	if _, err := doc.Prepare(ctx); err != nil {
		prepared.Destroy()
		return nil, err
	}
	return prepared, nil
}

// Render makes a document current on the bound view. The outgoing document is
// cached in the backstack or destroyed.
func (v *Viewhost) Render(ctx context.Context, req RenderRequest) (*document.Handle, error) {
	if !v.controller.IsBound() {
		return nil, domain.ErrNotBound
	}

	var doc *document.Context
	if req.Prepared != nil {
		c, err := req.Prepared.Extract()
		if err != nil {
			return nil, err
		}
		if req.Listener != nil {
			if _, err := c.RegisterListener(req.Listener); err != nil {
				return nil, err
			}
		}
		doc = c
	} else {
		c, err := v.newContext(req.PrepareRequest)
		if err != nil {
			return nil, err
		}
		doc = c
	}

	if req.Listener != nil {
		go func() {
			if _, err := v.render(context.WithoutCancel(ctx), doc); err != nil {
				v.logger.Warn("failed to render document", "token", doc.Token(), "err", err)
			}
		}()
		return doc.Handle(), nil
	}
	return v.render(ctx, doc)
}

func (v *Viewhost) render(ctx context.Context, doc *document.Context) (*document.Handle, error) {
	h, err := v.controller.RenderDocument(ctx, doc)
	if err != nil && v.controller.Current() != doc {
		_ = doc.Destroy()
	}
	return h, err
}

// Bind attaches the view surface.
func (v *Viewhost) Bind(view ports.View) { v.controller.Bind(view) }

// Unbind detaches the view surface and pauses the current document.
func (v *Viewhost) Unbind() { v.controller.Unbind() }

func (v *Viewhost) IsBound() bool { return v.controller.IsBound() }

// Current returns a handle to the current document, or nil.
func (v *Viewhost) Current() *document.Handle {
	if doc := v.controller.Current(); doc != nil {
		return doc.Handle()
	}
	return nil
}

// Config returns a copy of the current configuration.
func (v *Viewhost) Config() config.Config {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.config
}

// ConfigurationChange updates the viewhost configuration and forwards change
// to the cached documents and the current one.
func (v *Viewhost) ConfigurationChange(change domain.ConfigurationChange) error {
	v.mu.Lock()
	err := v.config.Apply(change)
	v.mu.Unlock()
	if err != nil {
		return err
	}
	v.controller.ConfigurationChange(change)
	return nil
}

func (v *Viewhost) UpdateDisplayState(state domain.DisplayState) error {
	if !state.Valid() {
		return fmt.Errorf("invalid display state %q", state)
	}
	v.controller.UpdateDisplayState(state)
	return nil
}

func (v *Viewhost) DisplayState() domain.DisplayState { return v.controller.DisplayState() }

func (v *Viewhost) PauseDocument()  { v.controller.PauseDocument() }
func (v *Viewhost) ResumeDocument() { v.controller.ResumeDocument() }
func (v *Viewhost) IsPaused() bool  { return v.controller.IsPaused() }

// HandleBack performs a system back. It reports whether a document was restored.
func (v *Viewhost) HandleBack(ctx context.Context) (bool, error) {
	return v.backstack.HandleBack(ctx)
}

func (v *Viewhost) Backstack() *backstack.Extension { return v.backstack }

// Destroy destroys the current document and every cached one. The Viewhost is
// unusable afterwards.
func (v *Viewhost) Destroy() {
	v.controller.Destroy()
	v.backstack.Clear()
	if v.serial != nil {
		v.serial.Close()
	}
}
