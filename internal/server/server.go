// Package server provides the HTTP REST API for the hackathon judge.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonathan/hackathon-judge/internal/config"
	"github.com/jonathan/hackathon-judge/internal/observability"
	"github.com/jonathan/hackathon-judge/internal/projectsearch"
	"github.com/jonathan/hackathon-judge/internal/server/middleware"
	"github.com/jonathan/hackathon-judge/internal/server/ratelimit"
	"github.com/jonathan/hackathon-judge/internal/types"
)

// Store is the part of the project store the HTTP surface reads and writes directly.
type Store interface {
	GetProject(ctx context.Context, id string) (*types.Project, error)
	ListProjects(ctx context.Context) ([]types.Project, error)
	SetReviewed(ctx context.Context, id string, reviewed bool) (bool, error)
	SaveHackathon(ctx context.Context, h *types.Hackathon) error
	Ping(ctx context.Context) error
}

// Submitter persists a project and schedules its analysis.
type Submitter interface {
	Submit(ctx context.Context, req types.CreateProjectRequest) (string, error)
}

// Searcher ranks projects against a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]projectsearch.Result, error)
}

// ChatAgent answers judge questions about a project.
type ChatAgent interface {
	Ask(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	store       Store
	submitter   Submitter
	searcher    Searcher
	chat        ChatAgent
	auth        *config.AuthConfig
	jwtService  *JWTService
	rateLimiter *ratelimit.Limiter
	corsOrigins []string
	onShutdown  []func(context.Context)
}

// Config holds server configuration
type Config struct {
	Port        int
	CORSOrigins string             // Comma separated, "*" allows any origin
	RateLimit   *ratelimit.Config  // nil loads the limits from the environment
	Auth        *config.AuthConfig // nil disables the admin routes
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Store     Store
	Submitter Submitter
	Searcher  Searcher
	Chat      ChatAgent
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		store:       deps.Store,
		submitter:   deps.Submitter,
		searcher:    deps.Searcher,
		chat:        deps.Chat,
		auth:        cfg.Auth,
		corsOrigins: splitOrigins(cfg.CORSOrigins),
	}

	rlConfig := cfg.RateLimit
	if rlConfig == nil {
		rlConfig = ratelimit.LoadConfig()
	}
	s.rateLimiter = ratelimit.NewLimiter(rlConfig)

	if cfg.Auth != nil {
		s.jwtService = NewJWTService(cfg.Auth)
	}

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("POST /create-project", s.handleCreateProject)
	mux.HandleFunc("GET /get-project/{id}", s.handleGetProject)
	mux.HandleFunc("GET /get-all", s.handleGetAll)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /chat", s.handleChat)

	// Admin endpoints
	mux.HandleFunc("POST /admin/login", s.handleAdminLogin)
	mux.Handle("PUT /hackathon", s.requireAdmin(http.HandlerFunc(s.handleSetHackathon)))
	mux.Handle("POST /update-review", s.requireAdmin(http.HandlerFunc(s.handleUpdateReview)))

	// Health endpoints, one per agent
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /crud-agent", s.statusHandler("Crud Agent service is running"))
	mux.HandleFunc("GET /market-agent", s.statusHandler("Hello from Market Agent"))
	mux.HandleFunc("GET /code-agent", s.statusHandler("Hello from Code Agent"))
	mux.HandleFunc("GET /chat-agent", s.statusHandler("Hello from Chat Agent"))

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRequestID(s.withRateLimit(s.withLogging(s.withCORS(mux)))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Search and chat wait on model calls
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// OnShutdown registers fn to run after the HTTP server has drained.
func (s *Server) OnShutdown(fn func(context.Context)) {
	s.onShutdown = append(s.onShutdown, fn)
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM.
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-stop:
	case err := <-errCh:
		s.rateLimiter.Stop()
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	s.rateLimiter.Stop()

	for _, fn := range s.onShutdown {
		fn(ctx)
	}
	log.Println("Server stopped")
	return nil
}

// Close stops background goroutines without serving. Used by tests.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+observability.RequestIDHeader)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	for _, allowed := range s.corsOrigins {
		if allowed == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

func splitOrigins(list string) []string {
	if strings.TrimSpace(list) == "" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// withRequestID propagates or assigns a request ID
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(observability.RequestIDHeader)
		if id == "" {
			id = observability.NewRequestID()
		}
		w.Header().Set(observability.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(observability.WithRequestID(r.Context(), id)))
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract client identifier (IP address)
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := observability.RequestID(r.Context())
		log.Printf("[%s] %s %s request_id=%s", r.Method, r.URL.Path, r.RemoteAddr, rid)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[%s] %s completed status=%d in %v request_id=%s", r.Method, r.URL.Path, rec.status, time.Since(start), rid)
	})
}

// requireAdmin wraps next with JWT authentication.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	if s.jwtService == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			s.writeError(w, &ErrAdminDisabled{})
		})
	}
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(next)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to a status code and writes it.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.errorResponse(w, HTTPStatus(err), err.Error())
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; forwarded headers are not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
