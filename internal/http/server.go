// Package http serves the expense dashboard, its HTMX partials and a JSON API.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"spendlog/internal/analytics"
	"spendlog/internal/core"
	"spendlog/internal/log"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/middleware/security"
	"spendlog/internal/middleware/trace"
	"spendlog/internal/utils"
	appweb "spendlog/web"
)

// ExpenseService is what the handlers need from the service layer.
type ExpenseService interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	UpdateExpense(ctx context.Context, id string, patch core.Patch) (core.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	GetExpense(id string) (core.Expense, error)
	Summary(f core.Filter) analytics.View
	Stats() core.Stats
	ImportExpenses(ctx context.Context, records []core.Expense) (int, error)
}

// Options tune the server; zero values pick defaults.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	// Clock dates the add form; share it with the service so "today" and
	// "this month" agree.
	Clock utils.Clock
	// Templates overrides the embedded templates, mainly for tests.
	Templates fs.FS
}

type Server struct {
	http.Server
	templates   *template.Template
	svc         ExpenseService
	rateLimiter *ratelimit.Limiter
	clientIP    *security.ClientIP
	clock       utils.Clock
}

// NewServer builds the router and wraps it in the middleware chain:
// context logger, tracing, security headers, then rate limiting of
// mutating requests.
func NewServer(addr string, svc ExpenseService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		svc:         svc,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		clientIP:    security.NewClientIP(),
		clock:       opts.Clock,
	}
	if s.clock == nil {
		s.clock = utils.SystemClock{}
	}

	tfs := opts.Templates
	if tfs == nil {
		tfs = appweb.TemplatesFS
	}
	t, err := template.ParseFS(tfs, "templates/*.html")
	if err != nil {
		logger.WithComponent(log.ComponentTemplate).Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	r := mux.NewRouter()
	s.registerRoutes(r)

	var h http.Handler = r
	h = s.rateLimiter.Middleware(s.clientIP.Extract, s.onRateLimit)(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = trace.NewMiddleware(s.clientIP.Extract).Middleware(h)
	h = log.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(r *mux.Router) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.PathPrefix("/static/").Handler(security.StaticAssetMiddleware(3600)(static)).Methods(http.MethodGet)
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	// Pages and partials
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/ui/expenses", s.handleExpenseList).Methods(http.MethodGet)
	r.HandleFunc("/ui/summary", s.handleSummary).Methods(http.MethodGet)

	// Mutations, form or JSON bodies
	r.HandleFunc("/expenses", s.handleCreateExpense).Methods(http.MethodPost)
	r.HandleFunc("/expenses/{id}", s.handleUpdateExpense).Methods(http.MethodPost, http.MethodPut)
	r.HandleFunc("/expenses/{id}", s.handleDeleteExpense).Methods(http.MethodDelete)
	r.HandleFunc("/expenses/{id}/delete", s.handleDeleteExpense).Methods(http.MethodPost)

	// JSON API
	r.HandleFunc("/api/expenses", s.handleAPIListExpenses).Methods(http.MethodGet)
	r.HandleFunc("/api/expenses/{id}", s.handleAPIGetExpense).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.handleAPIStats).Methods(http.MethodGet)
	r.HandleFunc("/api/import", s.handleAPIImport).Methods(http.MethodPost)
}

// Shutdown stops the rate limiter and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "Too many changes, please wait a moment.").Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
