package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/viewhost"
	"github.com/aretw0/viewhost/internal/logging"
	"github.com/aretw0/viewhost/pkg/backstack"
	"github.com/aretw0/viewhost/pkg/document"
)

const currentURI = "viewhost://documents/current"

// Viewhost is the part of *viewhost.Viewhost exposed as tools.
type Viewhost interface {
	Render(ctx context.Context, req viewhost.RenderRequest) (*document.Handle, error)
	Current() *document.Handle
	HandleBack(ctx context.Context) (bool, error)
	Backstack() *backstack.Extension
}

// DocumentResult describes a document, matching the HTTP DocumentResponse.
type DocumentResult struct {
	Token string `json:"token" jsonschema_description:"Token of the document"`
	State string `json:"state" jsonschema_description:"Lifecycle state of the document"`
}

type CommandsResult struct {
	Completed bool `json:"completed" jsonschema_description:"False when the commands were cancelled"`
}

type BackResult struct {
	Restored bool `json:"restored" jsonschema_description:"Whether a cached document was restored"`
}

type BackstackResult struct {
	IDs      []string `json:"ids" jsonschema_description:"Cached backstack ids, oldest first"`
	ActiveID string   `json:"activeId,omitempty" jsonschema_description:"Backstack id of the current document"`
}

type renderArgs struct {
	Document json.RawMessage `json:"document"`
	Data     json.RawMessage `json:"data,omitempty"`
	Token    string          `json:"token,omitempty"`
}

type commandsArgs struct {
	Token    string          `json:"token"`
	Commands json.RawMessage `json:"commands"`
}

type backArgs struct {
	BackType  string `json:"back_type,omitempty"`
	BackValue string `json:"back_value,omitempty"`
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server exposes a hosted viewhost as an MCP server.
type Server struct {
	vh        Viewhost
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(vh Viewhost, opts ...Option) *Server {
	s := &Server{
		vh:        vh,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("viewhost-mcp", strings.TrimSpace(viewhost.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "addr", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("render_document",
		mcp.WithDescription("Prepare a document and render it into the bound view. It becomes the current document."),
		mcp.WithObject("document", mcp.Required(), mcp.Description("The document JSON")),
		mcp.WithObject("data", mcp.Description("Data sources bound to the document parameters")),
		mcp.WithString("token", mcp.Description("Token to assign (generated when omitted)")),
		mcp.WithOutputSchema[DocumentResult](),
	), mcp.NewStructuredToolHandler(s.handleRender))

	s.mcpServer.AddTool(mcp.NewTool("current_document",
		mcp.WithDescription("Describe the current document."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOutputSchema[DocumentResult](),
	), mcp.NewStructuredToolHandler(s.handleCurrent))

	s.mcpServer.AddTool(mcp.NewTool("execute_commands",
		mcp.WithDescription("Execute commands on the current document and wait for them to resolve."),
		mcp.WithString("token", mcp.Required(), mcp.Description("Token of the current document")),
		mcp.WithArray("commands", mcp.Required(),
			mcp.Description("Commands to run in order"),
			mcp.Items(map[string]any{"type": "object"}),
		),
		mcp.WithOutputSchema[CommandsResult](),
	), mcp.NewStructuredToolHandler(s.handleExecute))

	s.mcpServer.AddTool(mcp.NewTool("go_back",
		mcp.WithDescription("Restore a cached document. Without arguments this is a system back of one entry."),
		mcp.WithString("back_type", mcp.Enum(backstack.BackTypeCount, backstack.BackTypeIndex, backstack.BackTypeID),
			mcp.Description("How back_value addresses the backstack")),
		mcp.WithString("back_value", mcp.Description("A count, an index or a backstack id")),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithOutputSchema[BackResult](),
	), mcp.NewStructuredToolHandler(s.handleBack))

	s.mcpServer.AddTool(mcp.NewTool("get_backstack",
		mcp.WithDescription("List the cached backstack ids."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOutputSchema[BackstackResult](),
	), mcp.NewStructuredToolHandler(s.handleBackstack))
}

func (s *Server) handleRender(ctx context.Context, _ mcp.CallToolRequest, args renderArgs) (DocumentResult, error) {
	h, err := s.vh.Render(ctx, viewhost.RenderRequest{
		PrepareRequest: viewhost.PrepareRequest{
			Document: args.Document,
			Data:     args.Data,
			Token:    args.Token,
		},
	})
	if err != nil {
		s.logger.Warn("MCP render failed", "err", err)
		return DocumentResult{}, fmt.Errorf("render failed: %w", err)
	}
	return describe(h), nil
}

func (s *Server) handleCurrent(_ context.Context, _ mcp.CallToolRequest, _ struct{}) (DocumentResult, error) {
	h := s.vh.Current()
	if h == nil {
		return DocumentResult{}, errors.New("no current document")
	}
	return describe(h), nil
}

func (s *Server) handleExecute(ctx context.Context, _ mcp.CallToolRequest, args commandsArgs) (CommandsResult, error) {
	h := s.vh.Current()
	if h == nil || h.Token() != args.Token {
		return CommandsResult{}, fmt.Errorf("document %q not found", args.Token)
	}
	completed, err := h.ExecuteCommands(ctx, args.Commands)
	if err != nil {
		return CommandsResult{}, fmt.Errorf("execute commands: %w", err)
	}
	return CommandsResult{Completed: completed}, nil
}

func (s *Server) handleBack(ctx context.Context, _ mcp.CallToolRequest, args backArgs) (BackResult, error) {
	var restored bool
	var err error
	if args.BackType == "" && args.BackValue == "" {
		restored, err = s.vh.HandleBack(ctx)
	} else {
		p := backstack.GoBackParams{BackType: args.BackType, BackValue: args.BackValue}
		if p.BackType == "" {
			p.BackType = backstack.BackTypeCount
		}
		if args.BackValue == "" {
			p.BackValue = 1
		}
		restored, err = s.vh.Backstack().GoBack(ctx, p)
	}
	if err != nil {
		return BackResult{}, fmt.Errorf("go back: %w", err)
	}
	return BackResult{Restored: restored}, nil
}

func (s *Server) handleBackstack(_ context.Context, _ mcp.CallToolRequest, _ struct{}) (BackstackResult, error) {
	bs := s.vh.Backstack()
	return BackstackResult{IDs: bs.IDs(), ActiveID: bs.ActiveID()}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(currentURI, "Current document",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		h := s.vh.Current()
		if h == nil {
			return nil, errors.New("no current document")
		}
		jsonBytes, _ := json.Marshal(describe(h))
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      currentURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func describe(h *document.Handle) DocumentResult {
	state, _ := h.State()
	return DocumentResult{Token: h.Token(), State: state.String()}
}
