package document

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aretw0/viewhost/pkg/domain"
)

// Handle is a revocable reference to a Context. Every call fails with
// domain.ErrHandleReleased once the handle is released.
type Handle struct {
	mu       sync.RWMutex
	delegate *Context
}

func newHandle(c *Context) *Handle {
	return &Handle{delegate: c}
}

// Release revokes the handle. It does not destroy the document.
func (h *Handle) Release() {
	h.mu.Lock()
	h.delegate = nil
	h.mu.Unlock()
}

// Context returns the referenced document context.
func (h *Handle) Context() (*Context, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.delegate == nil {
		return nil, domain.ErrHandleReleased
	}
	return h.delegate, nil
}

// HasDocument reports whether the handle still references a document.
func (h *Handle) HasDocument() bool {
	_, err := h.Context()
	return err == nil
}

// Token returns the document token, or "" once released.
func (h *Handle) Token() string {
	c, err := h.Context()
	if err != nil {
		return ""
	}
	return c.Token()
}

func (h *Handle) State() (domain.DocumentState, error) {
	c, err := h.Context()
	if err != nil {
		return 0, err
	}
	return c.State(), nil
}

// IsReady reports whether the referenced document is prepared.
func (h *Handle) IsReady() bool {
	c, err := h.Context()
	return err == nil && c.IsReady()
}

func (h *Handle) ExecuteCommands(ctx context.Context, commands json.RawMessage) (bool, error) {
	c, err := h.Context()
	if err != nil {
		return false, err
	}
	return c.ExecuteCommands(ctx, commands)
}

func (h *Handle) CancelExecution() error {
	c, err := h.Context()
	if err != nil {
		return err
	}
	return c.CancelExecution()
}

func (h *Handle) VisualContext(ctx context.Context) (string, error) {
	c, err := h.Context()
	if err != nil {
		return "", err
	}
	return c.VisualContext(ctx)
}

func (h *Handle) DataSourceContext(ctx context.Context) (string, error) {
	c, err := h.Context()
	if err != nil {
		return "", err
	}
	return c.DataSourceContext(ctx)
}

func (h *Handle) UpdateDataSource(ctx context.Context, payload, kind string) (bool, error) {
	c, err := h.Context()
	if err != nil {
		return false, err
	}
	return c.UpdateDataSource(ctx, payload, kind)
}

func (h *Handle) RegisterListener(l Listener) (ListenerID, error) {
	c, err := h.Context()
	if err != nil {
		return 0, err
	}
	return c.RegisterListener(l)
}

func (h *Handle) UnregisterListener(id ListenerID) error {
	c, err := h.Context()
	if err != nil {
		return err
	}
	return c.UnregisterListener(id)
}

func (h *Handle) SetUserData(key string, value any) error {
	c, err := h.Context()
	if err != nil {
		return err
	}
	return c.SetUserData(key, value)
}

func (h *Handle) UserData(key string) (any, bool) {
	c, err := h.Context()
	if err != nil {
		return nil, false
	}
	return c.UserData(key)
}

// Finish destroys the referenced document and releases the handle.
func (h *Handle) Finish() error {
	c, err := h.Context()
	if err != nil {
		return err
	}
	h.Release()
	return c.Destroy()
}
