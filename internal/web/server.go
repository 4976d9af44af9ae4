// Package web serves the conversation to browsers.
//
// Every request runs one render pass. POSTs answer with a 303 redirect to the
// index so the browser re-renders with a plain GET. A failed turn's error is
// kept for that GET and shown once.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Veraticus/ragassist/internal/identity"
	"github.com/Veraticus/ragassist/internal/render"
)

const (
	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	readHeaderTimeout = 10 * time.Second
	maxFormBytes      = 64 << 10
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Renderer runs a render pass.
type Renderer interface {
	Pass(ctx context.Context, sessionID, userEmail string, action render.Action) (*render.Page, error)
}

// Server is the browser surface.
type Server struct {
	renderer        Renderer
	resolver        identity.Resolver
	stats           func() map[string]int
	logger          *slog.Logger
	markdown        *Markdown
	flashes         *flashes
	page            *template.Template
	shutdownTimeout time.Duration
}

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResolver sets how the user's email is found. Defaults to the
// forwarded-email header.
func WithResolver(resolver identity.Resolver) Option {
	return func(s *Server) {
		if resolver != nil {
			s.resolver = resolver
		}
	}
}

// WithSessionStats reports session counts on the health endpoint.
func WithSessionStats(stats func() map[string]int) Option {
	return func(s *Server) {
		s.stats = stats
	}
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// NewServer creates the browser surface around renderer.
func NewServer(renderer Renderer, opts ...Option) (*Server, error) {
	if renderer == nil {
		return nil, fmt.Errorf("server creation failed: renderer is required")
	}

	s := &Server{
		renderer:        renderer,
		resolver:        identity.HeaderResolver{},
		logger:          slog.Default().With(slog.String("component", "web")),
		markdown:        NewMarkdown(),
		flashes:         newFlashes(),
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	page, err := template.New("page.html").
		Funcs(template.FuncMap{"markdown": s.markdown.Render}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	s.page = page

	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // embedded directory always exists
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("POST /questions/{index}", s.handleStage)
	mux.HandleFunc("POST /staged/confirm", s.action(render.ConfirmStaged))
	mux.HandleFunc("POST /staged/discard", s.action(render.DiscardStaged))
	mux.HandleFunc("POST /history/toggle", s.action(render.ToggleHistory))
	mux.HandleFunc("POST /reset", s.action(render.Reset))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	return mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "HTTP server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.InfoContext(shutdownCtx, "Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.pass(w, r, render.None())
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	s.pass(w, r, render.Submit(r.PostForm.Get("prompt")))
}

func (s *Server) handleStage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "Invalid question index", http.StatusBadRequest)
		return
	}
	s.pass(w, r, render.Stage(index))
}

func (s *Server) action(build func() render.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.pass(w, r, build())
	}
}

func (s *Server) pass(w http.ResponseWriter, r *http.Request, action render.Action) {
	ctx := r.Context()
	id := sessionID(w, r)
	email := identity.Lookup(ctx, s.resolver, r.Header, s.logger)

	page, err := s.renderer.Pass(ctx, id, email, action)
	switch {
	case errors.Is(err, render.ErrUnknownQuestion):
		http.Error(w, "Unknown question", http.StatusNotFound)
		return
	case err != nil:
		s.logger.ErrorContext(ctx, "Render pass failed",
			slog.String("session_id", id),
			slog.Any("error", err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if r.Method == http.MethodPost {
		if page.Error != nil {
			s.flashes.set(id, page.Error)
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if turnErr := s.flashes.pop(id); turnErr != nil {
		page.Error = turnErr
	}

	s.renderPage(w, r, page)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, page *render.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.page.Execute(w, page); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to render page", slog.Any("error", err))
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Active   int    `json:"active"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.stats != nil {
		stats := s.stats()
		resp.Sessions = stats["total"]
		resp.Active = stats["active"]
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
