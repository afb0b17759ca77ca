package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/viewhost/pkg/domain"
	"github.com/aretw0/viewhost/pkg/ports"
)

var (
	errDestroyed    = errors.New("renderer destroyed")
	errNoView       = errors.New("renderer has no view")
	errDisconnected = errors.New("view is not connected")
)

// Renderer simulates layout and command execution for one document.
type Renderer struct {
	opts        ports.RendererOptions
	content     *Content
	logger      *slog.Logger
	layoutDelay time.Duration

	mu            sync.Mutex
	state         domain.DocumentState
	metrics       domain.Metrics
	view          ports.View
	paused        bool
	destroyed     bool
	embedsRaised  bool
	cancel        chan struct{}
	executed      int
	values        map[string]map[string]any
	events        []string
	changes       []domain.ConfigurationChange
	displays      []domain.DisplayState
	embedded      map[int]string
	embedFailures map[int]string
}

func newRenderer(opts ports.RendererOptions, content *Content, logger *slog.Logger, layoutDelay time.Duration) *Renderer {
	return &Renderer{
		opts:          opts,
		content:       content,
		logger:        logger,
		layoutDelay:   layoutDelay,
		metrics:       opts.Config.Metrics,
		values:        make(map[string]map[string]any),
		embedded:      make(map[int]string),
		embedFailures: make(map[int]string),
	}
}

func (r *Renderer) transition(state domain.DocumentState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
	if r.opts.OnStateUpdate != nil {
		r.opts.OnStateUpdate(state)
	}
}

func (r *Renderer) Prepare(ctx context.Context) error {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return errDestroyed
	}
	raise := !r.embedsRaised
	r.embedsRaised = true
	r.mu.Unlock()

	if !r.content.IsReady() {
		if err := r.content.Err(); err != nil {
			return err
		}
		return errors.New("content is waiting for packages")
	}
	if raise {
		r.raiseEmbedRequests()
	}
	r.transition(domain.StatePrepared)
	return nil
}

func (r *Renderer) raiseEmbedRequests() {
	if r.opts.OnEmbedRequest == nil {
		return
	}
	id := 0
	for _, c := range r.content.Components() {
		if c.Type != "Host" || c.Source == "" {
			continue
		}
		id++
		r.opts.OnEmbedRequest(id, c.Source, c.Headers)
	}
}

func (r *Renderer) BindToView(view ports.View) error {
	if !view.Connected() {
		return errDisconnected
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return errDestroyed
	}
	r.view = view
	return nil
}

func (r *Renderer) UnbindFromView() {
	r.mu.Lock()
	r.view = nil
	r.mu.Unlock()
}

func (r *Renderer) Init(ctx context.Context) error {
	r.mu.Lock()
	switch {
	case r.destroyed:
		r.mu.Unlock()
		return errDestroyed
	case r.view == nil:
		r.mu.Unlock()
		return errNoView
	case r.state == domain.StateDisplayed:
		// Rebinding a displayed document restores it as it was.
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	if !r.content.IsReady() {
		return errors.New("content is not ready")
	}
	r.transition(domain.StateInflated)
	if r.layoutDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.layoutDelay):
		}
	}
	r.transition(domain.StateDisplayed)
	return nil
}

// ExecuteCommands runs a batch. Supported commands are Idle (delay in ms),
// SetValue, SendEvent and extension commands addressed as "Name:Command".
func (r *Renderer) ExecuteCommands(ctx context.Context, raw json.RawMessage) (bool, error) {
	commands, err := decodeCommands(raw)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return false, errDestroyed
	}
	cancel := make(chan struct{})
	r.cancel = cancel
	r.mu.Unlock()

	for _, cmd := range commands {
		select {
		case <-cancel:
			return false, nil
		default:
		}
		completed, err := r.execute(ctx, cmd, cancel)
		if err != nil || !completed {
			return false, err
		}
	}

	r.mu.Lock()
	r.executed++
	if r.cancel == cancel {
		r.cancel = nil
	}
	r.mu.Unlock()
	return true, nil
}

func decodeCommands(raw json.RawMessage) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		trimmed = append(append([]byte{'['}, trimmed...), ']')
	}
	var commands []map[string]any
	if err := json.Unmarshal(trimmed, &commands); err != nil {
		return nil, fmt.Errorf("invalid commands: %w", err)
	}
	return commands, nil
}

type idleCommand struct {
	Delay int `mapstructure:"delay"`
}

type setValueCommand struct {
	ComponentID string `mapstructure:"componentId"`
	Property    string `mapstructure:"property"`
	Value       any    `mapstructure:"value"`
}

type sendEventCommand struct {
	Arguments []any `mapstructure:"arguments"`
}

func (r *Renderer) execute(ctx context.Context, cmd map[string]any, cancel chan struct{}) (bool, error) {
	kind, _ := cmd["type"].(string)
	switch kind {
	case "Idle":
		var idle idleCommand
		if err := mapstructure.WeakDecode(cmd, &idle); err != nil {
			return false, err
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-cancel:
			return false, nil
		case <-time.After(time.Duration(idle.Delay) * time.Millisecond):
		}
	case "SetValue":
		var set setValueCommand
		if err := mapstructure.WeakDecode(cmd, &set); err != nil {
			return false, err
		}
		r.mu.Lock()
		if r.values[set.ComponentID] == nil {
			r.values[set.ComponentID] = make(map[string]any)
		}
		r.values[set.ComponentID][set.Property] = set.Value
		r.mu.Unlock()
	case "SendEvent":
		var send sendEventCommand
		if err := mapstructure.WeakDecode(cmd, &send); err != nil {
			return false, err
		}
		r.mu.Lock()
		r.events = append(r.events, fmt.Sprint(send.Arguments...))
		r.mu.Unlock()
	default:
		name, command, ok := strings.Cut(kind, ":")
		if !ok {
			r.logger.Warn("ignoring unknown command", "command", kind)
			return true, nil
		}
		return true, r.extensionCommand(ctx, name, command, cmd)
	}
	return true, nil
}

func (r *Renderer) extensionCommand(ctx context.Context, name, command string, cmd map[string]any) error {
	uri, ok := r.content.extensionURI(name)
	if !ok || r.opts.OnExtensionEvent == nil {
		r.logger.Warn("ignoring command for unavailable extension", "extension", name, "command", command)
		return nil
	}
	params := maps.Clone(cmd)
	delete(params, "type")
	return r.opts.OnExtensionEvent(ctx, uri, command, params)
}

func (r *Renderer) CancelExecution() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		close(r.cancel)
		r.cancel = nil
	}
}

func (r *Renderer) StopUpdate() {
	r.mu.Lock()
	r.paused = true
	r.mu.Unlock()
}

func (r *Renderer) ResumeUpdate() {
	r.mu.Lock()
	r.paused = false
	r.mu.Unlock()
}

func (r *Renderer) DocumentState() domain.DocumentState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Renderer) UpdateDocumentState(state domain.DocumentState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

func (r *Renderer) ConfigurationChange(change domain.ConfigurationChange) {
	vp, err := change.Viewport()
	if err != nil {
		r.logger.Warn("ignoring configuration change", "err", err)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
	if vp.HasSize() {
		r.metrics.Width, r.metrics.Height = vp.Width, vp.Height
	}
	if vp.Theme != "" {
		r.metrics.Theme = vp.Theme
	}
	if vp.Mode != "" {
		r.metrics.Mode = vp.Mode
	}
}

func (r *Renderer) DisplayStateChange(state domain.DisplayState) {
	r.mu.Lock()
	r.displays = append(r.displays, state)
	r.mu.Unlock()
}

type visualComponent struct {
	ID     string         `json:"id,omitempty"`
	Type   string         `json:"type"`
	Text   string         `json:"text,omitempty"`
	Values map[string]any `json:"values,omitempty"`
	Child  string         `json:"embedded,omitempty"`
}

type visualContext struct {
	Token    string            `json:"token"`
	Width    float64           `json:"width"`
	Height   float64           `json:"height"`
	Theme    string            `json:"theme,omitempty"`
	Children []visualComponent `json:"children"`
}

func (r *Renderer) VisualContext(ctx context.Context) (string, error) {
	r.mu.Lock()
	vc := visualContext{Token: r.opts.Token, Width: r.metrics.Width, Height: r.metrics.Height, Theme: r.metrics.Theme}
	host := 0
	for _, c := range r.content.Components() {
		item := visualComponent{ID: c.ID, Type: c.Type, Text: c.Text, Values: maps.Clone(r.values[c.ID])}
		if c.Type == "Host" && c.Source != "" {
			host++
			item.Child = r.embedded[host]
		}
		vc.Children = append(vc.Children, item)
	}
	r.mu.Unlock()

	out, err := json.Marshal(vc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (r *Renderer) DataSourceContext(ctx context.Context) (string, error) {
	return "[]", nil
}

func (r *Renderer) UpdateDataSource(ctx context.Context, payload, kind string) (bool, error) {
	if !json.Valid([]byte(payload)) {
		return false, fmt.Errorf("invalid %s payload", kind)
	}
	return true, nil
}

func (r *Renderer) EmbedRequestSucceeded(requestID int, url string, doc ports.EmbeddedDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return errDestroyed
	}
	r.embedded[requestID] = doc.Token()
	return nil
}

func (r *Renderer) EmbedRequestFailed(requestID int, url, reason string) {
	r.mu.Lock()
	r.embedFailures[requestID] = reason
	r.mu.Unlock()
	r.logger.Warn("embedded document failed", "url", url, "reason", reason)
}

func (r *Renderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyed = true
	r.view = nil
	if r.cancel != nil {
		close(r.cancel)
		r.cancel = nil
	}
}

// Token returns the token of the document the renderer belongs to.
func (r *Renderer) Token() string { return r.opts.Token }

func (r *Renderer) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

func (r *Renderer) Destroyed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroyed
}

// View returns the bound view, or nil.
func (r *Renderer) View() ports.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

func (r *Renderer) Metrics() domain.Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics
}

// Executed returns how many batches completed.
func (r *Renderer) Executed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.executed
}

// Value returns a property set through SetValue.
func (r *Renderer) Value(componentID, property string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[componentID][property]
	return v, ok
}

func (r *Renderer) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *Renderer) ConfigurationChanges() []domain.ConfigurationChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ConfigurationChange(nil), r.changes...)
}

func (r *Renderer) DisplayStates() []domain.DisplayState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.DisplayState(nil), r.displays...)
}

// Embedded returns the child token for each satisfied embed request.
func (r *Renderer) Embedded() map[int]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.embedded)
}

func (r *Renderer) EmbedFailures() map[int]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.embedFailures)
}
