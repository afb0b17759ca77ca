package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/viewhost"
	"github.com/aretw0/viewhost/internal/logging"
	"github.com/aretw0/viewhost/pkg/backstack"
	"github.com/aretw0/viewhost/pkg/document"
	"github.com/aretw0/viewhost/pkg/domain"
)

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go ../../../api/openapi.yaml

const maxBodySize = 4 << 20

// Viewhost is the part of *viewhost.Viewhost the server drives.
type Viewhost interface {
	Render(ctx context.Context, req viewhost.RenderRequest) (*document.Handle, error)
	Current() *document.Handle
	HandleBack(ctx context.Context) (bool, error)
	Backstack() *backstack.Extension
	ConfigurationChange(change domain.ConfigurationChange) error
	UpdateDisplayState(state domain.DisplayState) error
	PauseDocument()
	ResumeDocument()
}

// Option configures the handler.
type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStreams serves GET /events from sm. sm should also be registered as the
// viewhost state listener.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.streams = sm
	}
}

// Server implements the generated ServerInterface.
type Server struct {
	Viewhost Viewhost
	streams  *StreamManager
	logger   *slog.Logger
}

var _ ServerInterface = (*Server)(nil)

// NewHandler creates the HTTP handler for vh. Requests to API routes are
// validated against the embedded OpenAPI document before they reach s.
func NewHandler(vh Viewhost, opts ...Option) http.Handler {
	s := &Server{Viewhost: vh, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			s.logger.Error("failed to load OpenAPI spec", "err", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	options := ChiServerOptions{BaseRouter: r}
	if validate, err := NewRequestValidator(s.logger); err != nil {
		s.logger.Error("request validation disabled", "err", err)
	} else {
		options.Middlewares = append(options.Middlewares, validate)
	}
	return enableCORS(HandlerWithOptions(s, options))
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Viewhost API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.json',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Health{Status: "ok"})
}

// RenderDocument handles POST /documents.
func (s *Server) RenderDocument(w http.ResponseWriter, r *http.Request) {
	var body RenderDocumentJSONRequestBody
	if !s.decode(w, r, &body) {
		return
	}
	h, err := s.Viewhost.Render(r.Context(), viewhost.RenderRequest{
		PrepareRequest: viewhost.PrepareRequest{
			Document:    body.Document,
			Data:        body.Data,
			Token:       body.Token,
			Environment: body.Environment,
		},
	})
	if err != nil {
		s.fail(w, "render document", err)
		return
	}
	writeJSON(w, http.StatusCreated, describe(h))
}

// GetCurrentDocument handles GET /documents/current.
func (s *Server) GetCurrentDocument(w http.ResponseWriter, r *http.Request) {
	h := s.Viewhost.Current()
	if h == nil {
		http.Error(w, "no current document", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, describe(h))
}

// ExecuteCommands handles POST /documents/{token}/commands.
func (s *Server) ExecuteCommands(w http.ResponseWriter, r *http.Request, token Token) {
	h, ok := s.lookup(w, token)
	if !ok {
		return
	}
	var commands ExecuteCommandsJSONRequestBody
	if !s.decode(w, r, &commands) {
		return
	}
	completed, err := h.ExecuteCommands(r.Context(), commands)
	if err != nil {
		s.fail(w, "execute commands", err)
		return
	}
	writeJSON(w, http.StatusOK, CommandsResult{Completed: completed})
}

// FinishDocument handles POST /documents/{token}/finish.
func (s *Server) FinishDocument(w http.ResponseWriter, r *http.Request, token Token) {
	h, ok := s.lookup(w, token)
	if !ok {
		return
	}
	if err := h.Finish(); err != nil {
		s.fail(w, "finish document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetBackstack(w http.ResponseWriter, r *http.Request) {
	bs := s.Viewhost.Backstack()
	env := bs.Environment()
	writeJSON(w, http.StatusOK, BackstackResponse{
		Ids:      bs.IDs(),
		ActiveId: bs.ActiveID(),
		Environment: BackstackEnvironment{
			Backstack:                env.Backstack,
			ResponsibleForBackButton: env.ResponsibleForBackButton,
		},
	})
}

// GoBack handles POST /backstack/back. An empty body performs a system back;
// otherwise the body holds GoBack parameters. The body is read rather than
// trusting Content-Length so chunked requests are honoured.
func (s *Server) GoBack(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var restored bool
	if len(bytes.TrimSpace(raw)) == 0 {
		restored, err = s.Viewhost.HandleBack(r.Context())
	} else {
		var body GoBackJSONRequestBody
		if err := json.Unmarshal(raw, &body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
			return
		}
		params := backstack.GoBackParams{BackType: string(body.BackType), BackValue: body.BackValue}
		if params.BackType == "" {
			params.BackType = backstack.BackTypeCount
		}
		if params.BackValue == nil {
			params.BackValue = 1
		}
		restored, err = s.Viewhost.Backstack().GoBack(r.Context(), params)
	}
	if err != nil {
		s.fail(w, "go back", err)
		return
	}
	writeJSON(w, http.StatusOK, BackResult{Restored: restored})
}

func (s *Server) ClearBackstack(w http.ResponseWriter, r *http.Request) {
	s.Viewhost.Backstack().Clear()
	w.WriteHeader(http.StatusNoContent)
}

// ConfigurationChange handles POST /configuration.
func (s *Server) ConfigurationChange(w http.ResponseWriter, r *http.Request) {
	var change ConfigurationChangeJSONRequestBody
	if !s.decode(w, r, &change) {
		return
	}
	if err := s.Viewhost.ConfigurationChange(change); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateDisplayState handles POST /display-state.
func (s *Server) UpdateDisplayState(w http.ResponseWriter, r *http.Request) {
	var body UpdateDisplayStateJSONRequestBody
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.Viewhost.UpdateDisplayState(domain.DisplayState(body.State)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) PauseDocument(w http.ResponseWriter, r *http.Request) {
	s.Viewhost.PauseDocument()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ResumeDocument(w http.ResponseWriter, r *http.Request) {
	s.Viewhost.ResumeDocument()
	w.WriteHeader(http.StatusNoContent)
}

// lookup resolves token to the current document. Only the current document
// is addressable.
func (s *Server) lookup(w http.ResponseWriter, token string) (*document.Handle, bool) {
	h := s.Viewhost.Current()
	if h == nil || h.Token() != token {
		http.Error(w, fmt.Sprintf("document %q not found", token), http.StatusNotFound)
		return nil, false
	}
	return h, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotBound), errors.Is(err, domain.ErrStateConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrDocumentRequired), errors.Is(err, domain.ErrMalformedCommand):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrPrepareFailed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrHandleReleased):
		status = http.StatusGone
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	}
	http.Error(w, fmt.Sprintf("%s: %v", op, err), status)
}

func describe(h *document.Handle) DocumentResponse {
	state, _ := h.State()
	return DocumentResponse{Token: h.Token(), State: state.String()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

// StreamManager fans document state transitions out to SSE subscribers.
// It implements document.Listener.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // token ("" for all) -> set of channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a subscriber for token, or for every document when token is "".
func (sm *StreamManager) Subscribe(token string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[token]; !ok {
		sm.subscribers[token] = make(map[chan<- string]struct{})
	}
	sm.subscribers[token][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[token]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, token)
			}
		}
	}
}

// OnStateUpdate broadcasts a transition as {"token":...,"state":...}.
func (sm *StreamManager) OnStateUpdate(h *document.Handle, state domain.DocumentState) {
	token := h.Token()
	msg, err := json.Marshal(DocumentResponse{Token: token, State: state.String()})
	if err != nil {
		return
	}
	sm.broadcast(token, string(msg))
	sm.broadcast("", string(msg))
}

func (sm *StreamManager) broadcast(key, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers[key] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			slog.Warn("SSE: client buffer full, dropping message", "token", key)
		}
	}
}

// SubscribeEvents handles GET /events (SSE), optionally filtered by ?token=.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, params SubscribeEventsParams) {
	if s.streams == nil {
		http.Error(w, "event streaming is not enabled", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var token string
	if params.Token != nil {
		token = *params.Token
	}
	ch, cancel := s.streams.Subscribe(token)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
