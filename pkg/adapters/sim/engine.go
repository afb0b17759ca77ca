// Package sim provides an in-process layout engine. It understands a small
// JSON document format and is used by the CLI, the HTTP server and tests.
//
// Documents look like:
//
//	{
//	  "type": "APL",
//	  "import": [{"name": "base", "version": "1.0"}],
//	  "extensions": [{"name": "Back", "uri": "aplext:backstack:10"}],
//	  "settings": {"Back": {"backstackId": "home"}},
//	  "mainTemplate": {"items": [{"id": "title", "type": "Text", "text": "Hello"}]}
//	}
//
// Host components with a source raise embedded document requests.
package sim

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/viewhost/pkg/ports"
)

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLayoutDelay makes Init wait between inflated and displayed.
func WithLayoutDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.layoutDelay = d
	}
}

// Engine creates simulated content and renderers.
type Engine struct {
	logger      *slog.Logger
	layoutDelay time.Duration

	mu        sync.Mutex
	renderers map[string]*Renderer
	order     []string
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
		renderers: make(map[string]*Renderer),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) NewContent(document, data []byte, opts ports.ContentOptions) (ports.Content, error) {
	return ParseContent(document, data)
}

func (e *Engine) NewRenderer(opts ports.RendererOptions) (ports.Renderer, error) {
	content, ok := opts.Content.(*Content)
	if !ok {
		return nil, fmt.Errorf("unsupported content type %T", opts.Content)
	}
	logger := opts.Logger
	if logger == nil {
		logger = e.logger
	}
	r := newRenderer(opts, content, logger, e.layoutDelay)

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.renderers[opts.Token]; !exists {
		e.order = append(e.order, opts.Token)
	}
	e.renderers[opts.Token] = r
	return r, nil
}

// Renderer returns the renderer created for token.
func (e *Engine) Renderer(token string) (*Renderer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.renderers[token]
	return r, ok
}

// Renderers returns every renderer in creation order.
func (e *Engine) Renderers() []*Renderer {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Renderer, 0, len(e.order))
	for _, token := range e.order {
		out = append(out, e.renderers[token])
	}
	return out
}
