package backstack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/viewhost/pkg/document"
	"github.com/aretw0/viewhost/pkg/domain"
)

// URI identifies the backstack extension in document settings and commands.
const URI = "aplext:backstack:10"

// Extension command names.
const (
	CommandGoBack = "GoBack"
	CommandClear  = "Clear"
)

// GoBack addressing modes.
const (
	BackTypeCount = "count"
	BackTypeIndex = "index"
	BackTypeID    = "id"
)

// RestoreFunc installs a document popped off the backstack as the current one.
type RestoreFunc func(ctx context.Context, doc *document.Context) error

// Settings are the document-declared settings of the extension.
type Settings struct {
	BackstackID        string `mapstructure:"backstackId"`
	BackstackArrayName string `mapstructure:"backstackArrayName"`
}

// GoBackParams are the parameters of the GoBack command.
type GoBackParams struct {
	BackType  string `mapstructure:"backType" json:"backType"`
	BackValue any    `mapstructure:"backValue" json:"backValue"`
}

// Environment is what the extension reports to documents.
type Environment struct {
	ResponsibleForBackButton bool     `json:"responsibleForBackButton"`
	Backstack                []string `json:"backstack"`
}

// Option configures an Extension.
type Option func(*Extension)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Extension) {
		e.hooks = hooks
	}
}

// WithResponsibleForBackButton declares that documents draw their own back
// button, which disables system back.
func WithResponsibleForBackButton(responsible bool) Option {
	return func(e *Extension) {
		e.responsibleForBackButton = responsible
	}
}

// Extension caches displaced documents and restores them on GoBack.
type Extension struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks

	mu                       sync.Mutex
	stack                    Stack
	activeID                 string
	arrayName                string
	responsibleForBackButton bool
	restore                  RestoreFunc
}

func New(opts ...Option) *Extension {
	e := &Extension{
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extension) URI() string { return URI }

// SetRestoreFunc sets the callback that receives restored documents.
func (e *Extension) SetRestoreFunc(fn RestoreFunc) {
	e.mu.Lock()
	e.restore = fn
	e.mu.Unlock()
}

func (e *Extension) SetResponsibleForBackButton(responsible bool) {
	e.mu.Lock()
	e.responsibleForBackButton = responsible
	e.mu.Unlock()
}

// ApplySettings reads the settings of a document about to be rendered. The
// backstack id is only adopted when no id is already active; the array name is
// reset on every call.
func (e *Extension) ApplySettings(settings map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.arrayName = ""
	if settings == nil {
		return nil
	}
	var s Settings
	if err := mapstructure.WeakDecode(settings, &s); err != nil {
		return fmt.Errorf("invalid backstack settings: %w", err)
	}
	if s.BackstackID != "" && e.activeID == "" {
		e.activeID = s.BackstackID
	}
	e.arrayName = s.BackstackArrayName
	return nil
}

// ShouldCache reports whether a displaced document would be cached.
func (e *Extension) ShouldCache() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeID != ""
}

func (e *Extension) ActiveID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeID
}

func (e *Extension) ClearActiveID() {
	e.mu.Lock()
	e.activeID = ""
	e.mu.Unlock()
}

// Push caches doc under the active id and consumes the id. It reports false
// and leaves the stack untouched when no id is active.
func (e *Extension) Push(doc *document.Context) bool {
	e.mu.Lock()
	id := e.activeID
	e.mu.Unlock()
	if id == "" {
		e.logger.Error("backstack id missing", "token", doc.Token())
		return false
	}

	entry, err := NewEntry(id, doc)
	if err != nil {
		e.logger.Error("failed to cache document", "token", doc.Token(), "backstack_id", id, "err", err)
		return false
	}

	e.mu.Lock()
	e.stack.Push(entry)
	e.activeID = ""
	depth := e.stack.Len()
	e.mu.Unlock()

	e.logger.Info("document cached", "token", doc.Token(), "backstack_id", id, "depth", depth)
	e.hooks.EmitBackstack("push", id, depth)
	return true
}

// StoreConfigurationChange hands change to every cached entry.
func (e *Extension) StoreConfigurationChange(change domain.ConfigurationChange) {
	e.mu.Lock()
	entries := e.stack.Entries()
	e.mu.Unlock()
	for _, entry := range entries {
		entry.StoreConfigurationChange(change)
	}
}

// Environment reports the extension state to documents.
func (e *Extension) Environment() Environment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Environment{
		ResponsibleForBackButton: e.responsibleForBackButton,
		Backstack:                e.stack.IDs(),
	}
}

// LiveData exposes the backstack ids under the array name the current document
// asked for. It is empty when no name was set.
func (e *Extension) LiveData() map[string][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.arrayName == "" {
		return map[string][]string{}
	}
	return map[string][]string{e.arrayName: e.stack.IDs()}
}

func (e *Extension) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stack.Len()
}

func (e *Extension) IDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stack.IDs()
}

// OnExtensionEvent dispatches an extension command raised by a document.
// Commands for other extensions and unknown commands are ignored.
func (e *Extension) OnExtensionEvent(ctx context.Context, uri, name string, params map[string]any) error {
	if uri != URI {
		return nil
	}
	switch name {
	case CommandGoBack:
		p := GoBackParams{BackType: BackTypeCount, BackValue: 1}
		if err := mapstructure.Decode(params, &p); err != nil {
			return fmt.Errorf("invalid %s parameters: %w", CommandGoBack, err)
		}
		_, err := e.GoBack(ctx, p)
		return err
	case CommandClear:
		e.Clear()
		return nil
	default:
		e.logger.Warn("ignoring unknown backstack command", "command", name)
		return nil
	}
}

// HandleBack performs a system back. It reports whether the stack shrank, and
// is always false when documents are responsible for the back button.
func (e *Extension) HandleBack(ctx context.Context) (bool, error) {
	e.mu.Lock()
	responsible := e.responsibleForBackButton
	e.mu.Unlock()
	if responsible {
		return false, nil
	}
	return e.GoBack(ctx, GoBackParams{BackType: BackTypeCount, BackValue: 1})
}

// GoBack pops the addressed entry, destroys the entries above it and restores
// it. It reports false when nothing was addressed.
func (e *Extension) GoBack(ctx context.Context, p GoBackParams) (bool, error) {
	e.mu.Lock()
	restore := e.restore
	if restore == nil {
		e.mu.Unlock()
		e.logger.Warn("go back ignored: no restore callback")
		return false, nil
	}

	var target *Entry
	var discarded []*Entry
	switch p.BackType {
	case BackTypeCount, BackTypeIndex:
		var n int
		if err := mapstructure.WeakDecode(p.BackValue, &n); err != nil {
			e.mu.Unlock()
			return false, fmt.Errorf("invalid backValue %v: %w", p.BackValue, err)
		}
		if p.BackType == BackTypeCount {
			target, discarded = e.stack.GoBackCount(n)
		} else {
			target, discarded = e.stack.GoBackToIndex(n)
		}
	case BackTypeID:
		var id string
		if err := mapstructure.WeakDecode(p.BackValue, &id); err != nil {
			e.mu.Unlock()
			return false, fmt.Errorf("invalid backValue %v: %w", p.BackValue, err)
		}
		target, discarded = e.stack.GoBackToID(id)
	default:
		e.mu.Unlock()
		e.logger.Warn("cannot execute unknown backType", "back_type", p.BackType)
		return false, nil
	}
	if target != nil {
		e.activeID = target.ID()
	}
	depth := e.stack.Len()
	e.mu.Unlock()

	e.destroy(discarded)
	if target == nil {
		e.logger.Debug("go back ignored", "back_type", p.BackType, "back_value", p.BackValue)
		return false, nil
	}

	doc, err := target.Restore()
	if err != nil {
		_ = target.Destroy()
		return false, fmt.Errorf("failed to restore %s: %w", target.ID(), err)
	}
	e.logger.Info("restoring document", "backstack_id", target.ID(), "token", doc.Token(), "depth", depth)
	e.hooks.EmitBackstack("restore", target.ID(), depth)
	if err := restore(ctx, doc); err != nil {
		return false, err
	}
	return true, nil
}

// Clear destroys every cached document.
func (e *Extension) Clear() {
	e.mu.Lock()
	removed := e.stack.Clear()
	e.mu.Unlock()
	e.destroy(removed)
	e.hooks.EmitBackstack("clear", "", 0)
}

func (e *Extension) destroy(entries []*Entry) {
	for _, entry := range entries {
		if err := entry.Destroy(); err != nil && !errors.Is(err, domain.ErrContextDestroyed) {
			e.logger.Warn("failed to destroy cached document", "backstack_id", entry.ID(), "err", err)
		}
		e.hooks.EmitBackstack("discard", entry.ID(), e.Len())
	}
}
