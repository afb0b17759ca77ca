package document

import (
	"log/slog"

	"github.com/aretw0/viewhost/pkg/domain"
	"github.com/aretw0/viewhost/pkg/ports"
)

// Listener receives document lifecycle transitions.
type Listener interface {
	OnStateUpdate(handle *Handle, state domain.DocumentState)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(handle *Handle, state domain.DocumentState)

func (f ListenerFunc) OnStateUpdate(handle *Handle, state domain.DocumentState) {
	f(handle, state)
}

// ListenerID identifies a registered listener within one Context.
type ListenerID int64

// Request describes the document to instantiate.
type Request struct {
	Document    []byte
	Data        []byte
	Token       string
	Environment map[string]any

	EmbeddedFactory EmbeddedDocumentFactory

	// Quiet skips side effects that only make sense for top-level documents:
	// host-wide listeners, milestones and missing-data filling.
	Quiet bool
}

// Host bundles the collaborators shared by every Context created by one viewhost.
type Host struct {
	Engine    ports.Engine
	Packages  ports.PackageLoader
	Scheduler ports.Scheduler

	// Config returns the current viewhost-level document configuration.
	Config func() domain.DocumentConfig

	// Extensions receives extension commands raised by any document.
	Extensions ports.ExtensionHandler

	// Listener, when set, observes every top-level document.
	Listener Listener
	Hooks    domain.LifecycleHooks
	Logger   *slog.Logger
}
