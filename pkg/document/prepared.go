package document

import (
	"sync"

	"github.com/aretw0/viewhost/pkg/domain"
)

// Prepared owns a document that was prepared ahead of rendering. Ownership moves
// out with Extract; until then Destroy tears the document down.
type Prepared struct {
	mu     sync.Mutex
	handle *Handle
}

// NewPrepared takes ownership of the document behind h.
func NewPrepared(h *Handle) *Prepared {
	return &Prepared{handle: h}
}

// Handle returns the wrapped handle, or nil after extraction or destruction.
func (p *Prepared) Handle() *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle
}

// Token returns the document token, or "" after extraction or destruction.
func (p *Prepared) Token() string {
	if h := p.Handle(); h != nil {
		return h.Token()
	}
	return ""
}

// IsReady reports whether the document is still owned and prepared.
func (p *Prepared) IsReady() bool {
	h := p.Handle()
	return h != nil && h.IsReady()
}

// Extract transfers ownership of the context to the caller. It succeeds at most once.
func (p *Prepared) Extract() (*Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == nil {
		return nil, domain.ErrAlreadyExtracted
	}
	c, err := p.handle.Context()
	if err != nil {
		return nil, err
	}
	if !c.IsReady() {
		return nil, domain.ErrNotReady
	}
	p.handle = nil
	return c, nil
}

// Destroy tears the document down. It is a no-op after Extract.
func (p *Prepared) Destroy() {
	p.mu.Lock()
	h := p.handle
	p.handle = nil
	p.mu.Unlock()
	if h == nil {
		return
	}
	if c, err := h.Context(); err == nil {
		_ = c.Destroy()
	}
	h.Release()
}
