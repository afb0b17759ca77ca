package backstack

import (
	"sync"

	"github.com/aretw0/viewhost/pkg/document"
	"github.com/aretw0/viewhost/pkg/domain"
)

// Entry is a document suspended in the backstack together with the
// configuration changes it missed while cached.
type Entry struct {
	id  string
	doc *document.Context

	mu      sync.Mutex
	pending domain.ConfigurationChange
}

// NewEntry caches doc under id. The document stays paused while cached.
func NewEntry(id string, doc *document.Context) (*Entry, error) {
	if err := doc.Pause(); err != nil {
		return nil, err
	}
	return &Entry{id: id, doc: doc}, nil
}

func (e *Entry) ID() string { return e.id }

func (e *Entry) Document() *document.Context { return e.doc }

// StoreConfigurationChange accumulates change, later keys overriding earlier ones.
func (e *Entry) StoreConfigurationChange(change domain.ConfigurationChange) {
	e.mu.Lock()
	e.pending = e.pending.Merge(change)
	e.mu.Unlock()
}

// PendingChange returns the accumulated configuration change.
func (e *Entry) PendingChange() domain.ConfigurationChange {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending.Merge(nil)
}

// Restore applies the accumulated change once and hands the document back.
func (e *Entry) Restore() (*document.Context, error) {
	e.mu.Lock()
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()

	if !pending.IsEmpty() {
		if err := e.doc.ConfigurationChange(pending); err != nil {
			return nil, err
		}
	}
	return e.doc, nil
}

// Destroy destroys the cached document.
func (e *Entry) Destroy() error {
	return e.doc.Destroy()
}
