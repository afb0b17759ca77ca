package ports

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aretw0/viewhost/pkg/domain"
)

// View is the physical surface a renderer draws on.
type View interface {
	// Name identifies the surface in logs.
	Name() string
	// Connected reports whether the surface is still attached to the host window.
	Connected() bool
}

// Content is the parsed document source as understood by the engine.
type Content interface {
	// IsWaiting reports whether the content still needs packages before it can be built.
	IsWaiting() bool
	IsReady() bool
	IsError() bool

	// RequestedPackages returns the import requests not yet satisfied.
	RequestedPackages() []domain.ImportRequest
	AddPackage(req domain.ImportRequest, data []byte) error
	// PackageFailed records that an import request could not be satisfied.
	PackageFailed(req domain.ImportRequest, reason string)

	// ExtensionSettings returns the settings a document declared for an extension URI.
	// ok is false when the document does not request the extension.
	ExtensionSettings(uri string) (settings map[string]any, ok bool)
}

// EmbeddedDocument is what a renderer receives when an embed request succeeds.
type EmbeddedDocument interface {
	Token() string
	Content() Content
}

// ExtensionHandler receives extension commands raised by a document.
type ExtensionHandler func(ctx context.Context, uri, name string, params map[string]any) error

// RendererOptions are handed to the engine when a renderer is created.
type RendererOptions struct {
	Token   string
	Content Content
	Config  domain.DocumentConfig
	Logger  *slog.Logger

	// OnStateUpdate is invoked by the renderer on its own lifecycle transitions.
	OnStateUpdate func(domain.DocumentState)
	// OnEmbedRequest is invoked when the document asks for a nested document.
	OnEmbedRequest func(requestID int, url string, headers []string)
	// OnExtensionEvent, when set, receives extension commands.
	OnExtensionEvent ExtensionHandler
}

// Renderer is the native layout/inflation engine bound to one document.
// The core never inspects its internals beyond these calls.
type Renderer interface {
	Prepare(ctx context.Context) error
	BindToView(view View) error
	UnbindFromView()
	// Init inflates the document on the bound view. A renderer that was unbound
	// while displayed restores its previous state instead of inflating again.
	Init(ctx context.Context) error

	// ExecuteCommands runs a command batch and reports whether it completed (true)
	// or was terminated early (false).
	ExecuteCommands(ctx context.Context, commands json.RawMessage) (bool, error)
	CancelExecution()

	StopUpdate()
	ResumeUpdate()

	DocumentState() domain.DocumentState
	// UpdateDocumentState forces the renderer's state, used to sync embedded documents.
	UpdateDocumentState(state domain.DocumentState)

	ConfigurationChange(change domain.ConfigurationChange)
	DisplayStateChange(state domain.DisplayState)

	VisualContext(ctx context.Context) (string, error)
	DataSourceContext(ctx context.Context) (string, error)
	UpdateDataSource(ctx context.Context, payload, kind string) (bool, error)

	EmbedRequestSucceeded(requestID int, url string, doc EmbeddedDocument) error
	EmbedRequestFailed(requestID int, url, reason string)

	Destroy()
}

// ContentOptions tune how the engine parses a document.
type ContentOptions struct {
	Config domain.DocumentConfig
	Logger *slog.Logger
}

// Engine is the factory for engine-side objects.
type Engine interface {
	NewContent(document, data []byte, opts ContentOptions) (Content, error)
	NewRenderer(opts RendererOptions) (Renderer, error)
}
