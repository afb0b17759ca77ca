package document_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/aretw0/viewhost/pkg/dispatch"
	"github.com/aretw0/viewhost/pkg/document"
	"github.com/aretw0/viewhost/pkg/domain"
	"github.com/aretw0/viewhost/pkg/ports"
)

type fakeEngine struct {
	mu        sync.Mutex
	imports   []domain.ImportRequest
	follow    map[string][]domain.ImportRequest
	renderers []*fakeRenderer
	prepErr   error
	// blocking renderers hold every command batch until CancelExecution.
	blocking bool
}

func (e *fakeEngine) NewContent(doc, data []byte, opts ports.ContentOptions) (ports.Content, error) {
	if string(doc) == "broken" {
		return nil, errors.New("unparseable")
	}
	return &fakeContent{pending: append([]domain.ImportRequest(nil), e.imports...), follow: e.follow, config: opts.Config}, nil
}

func (e *fakeEngine) NewRenderer(opts ports.RendererOptions) (ports.Renderer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := &fakeRenderer{opts: opts, prepErr: e.prepErr, blocking: e.blocking, cancel: make(chan struct{}, 1)}
	e.renderers = append(e.renderers, r)
	return r, nil
}

func (e *fakeEngine) last() *fakeRenderer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.renderers[len(e.renderers)-1]
}

type fakeContent struct {
	mu      sync.Mutex
	pending []domain.ImportRequest
	follow  map[string][]domain.ImportRequest
	added   []string
	failed  bool
	config  domain.DocumentConfig
}

func (c *fakeContent) IsWaiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.failed && len(c.pending) > 0
}

func (c *fakeContent) IsReady() bool { return !c.IsWaiting() && !c.IsError() }

func (c *fakeContent) IsError() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

func (c *fakeContent) RequestedPackages() []domain.ImportRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.ImportRequest(nil), c.pending...)
}

func (c *fakeContent) AddPackage(req domain.ImportRequest, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var rest []domain.ImportRequest
	for _, p := range c.pending {
		if p.Key() != req.Key() {
			rest = append(rest, p)
		}
	}
	c.pending = append(rest, c.follow[req.Key()]...)
	c.added = append(c.added, req.Key())
	return nil
}

func (c *fakeContent) PackageFailed(req domain.ImportRequest, reason string) {
	c.mu.Lock()
	c.failed = true
	c.mu.Unlock()
}

func (c *fakeContent) ExtensionSettings(uri string) (map[string]any, bool) {
	return nil, false
}

type fakeRenderer struct {
	opts    ports.RendererOptions
	prepErr error

	mu        sync.Mutex
	state     domain.DocumentState
	view      ports.View
	executed  []string
	stopped   int
	resumed   int
	changes   []domain.ConfigurationChange
	displays  []domain.DisplayState
	destroyed bool
	embedded  []ports.EmbeddedDocument
	failures  []string
	blocking  bool
	running   int
	cancel    chan struct{}
}

func (r *fakeRenderer) set(state domain.DocumentState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
	r.opts.OnStateUpdate(state)
}

func (r *fakeRenderer) Prepare(ctx context.Context) error {
	if r.prepErr != nil {
		return r.prepErr
	}
	r.set(domain.StatePrepared)
	return nil
}

func (r *fakeRenderer) BindToView(view ports.View) error {
	r.mu.Lock()
	r.view = view
	r.mu.Unlock()
	return nil
}

func (r *fakeRenderer) UnbindFromView() {
	r.mu.Lock()
	r.view = nil
	r.mu.Unlock()
}

func (r *fakeRenderer) Init(ctx context.Context) error {
	if r.DocumentState() == domain.StateDisplayed {
		return nil
	}
	r.set(domain.StateInflated)
	r.set(domain.StateDisplayed)
	return nil
}

func (r *fakeRenderer) ExecuteCommands(ctx context.Context, commands json.RawMessage) (bool, error) {
	r.mu.Lock()
	r.executed = append(r.executed, string(commands))
	blocking := r.blocking
	if blocking {
		r.running++
	}
	r.mu.Unlock()
	if !blocking {
		return true, nil
	}
	defer func() {
		r.mu.Lock()
		r.running--
		r.mu.Unlock()
	}()
	select {
	case <-r.cancel:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (r *fakeRenderer) CancelExecution() {
	select {
	case r.cancel <- struct{}{}:
	default:
	}
}

func (r *fakeRenderer) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *fakeRenderer) StopUpdate() {
	r.mu.Lock()
	r.stopped++
	r.mu.Unlock()
}

func (r *fakeRenderer) ResumeUpdate() {
	r.mu.Lock()
	r.resumed++
	r.mu.Unlock()
}

func (r *fakeRenderer) DocumentState() domain.DocumentState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *fakeRenderer) UpdateDocumentState(state domain.DocumentState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

func (r *fakeRenderer) ConfigurationChange(change domain.ConfigurationChange) {
	r.mu.Lock()
	r.changes = append(r.changes, change)
	r.mu.Unlock()
}

func (r *fakeRenderer) DisplayStateChange(state domain.DisplayState) {
	r.mu.Lock()
	r.displays = append(r.displays, state)
	r.mu.Unlock()
}

func (r *fakeRenderer) VisualContext(ctx context.Context) (string, error) {
	return `{"visual":true}`, nil
}

func (r *fakeRenderer) DataSourceContext(ctx context.Context) (string, error) {
	return "[]", nil
}

func (r *fakeRenderer) UpdateDataSource(ctx context.Context, payload, kind string) (bool, error) {
	return kind == document.DefaultDataSourceKind, nil
}

func (r *fakeRenderer) EmbedRequestSucceeded(requestID int, url string, doc ports.EmbeddedDocument) error {
	r.mu.Lock()
	r.embedded = append(r.embedded, doc)
	r.mu.Unlock()
	return nil
}

func (r *fakeRenderer) EmbedRequestFailed(requestID int, url, reason string) {
	r.mu.Lock()
	r.failures = append(r.failures, reason)
	r.mu.Unlock()
}

func (r *fakeRenderer) Destroy() {
	r.mu.Lock()
	r.destroyed = true
	r.mu.Unlock()
}

func (r *fakeRenderer) Executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.executed...)
}

func (r *fakeRenderer) Destroyed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroyed
}

type fakeLoader struct {
	mu      sync.Mutex
	calls   int
	missing map[string]bool
}

func (l *fakeLoader) Load(ctx context.Context, requests []domain.ImportRequest) []domain.PackageResult {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	out := make([]domain.PackageResult, len(requests))
	for i, req := range requests {
		out[i] = domain.PackageResult{Request: req, Data: []byte(`{}`)}
		if l.missing[req.Key()] {
			out[i].Err = domain.ErrPackageNotFound
		}
	}
	return out
}

func (l *fakeLoader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

type fakeView struct{ name string }

func (v fakeView) Name() string    { return v.name }
func (v fakeView) Connected() bool { return true }

type recorder struct {
	mu     sync.Mutex
	states []domain.DocumentState
}

func (r *recorder) OnStateUpdate(_ *document.Handle, state domain.DocumentState) {
	r.mu.Lock()
	r.states = append(r.states, state)
	r.mu.Unlock()
}

func (r *recorder) States() []domain.DocumentState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.DocumentState(nil), r.states...)
}

// slowFirstPost delays its first Post, widening the window between a listener
// registration and the replay it schedules.
type slowFirstPost struct {
	*dispatch.Manual
	once    sync.Once
	entered chan struct{}
	delay   time.Duration
}

func newSlowFirstPost(delay time.Duration) *slowFirstPost {
	return &slowFirstPost{Manual: dispatch.NewManual(), entered: make(chan struct{}), delay: delay}
}

func (s *slowFirstPost) Post(task func()) {
	s.once.Do(func() {
		close(s.entered)
		time.Sleep(s.delay)
	})
	s.Manual.Post(task)
}

func newHost(engine *fakeEngine, loader *fakeLoader) (document.Host, *dispatch.Manual) {
	sched := dispatch.NewManual()
	return document.Host{Engine: engine, Packages: loader, Scheduler: sched}, sched
}
