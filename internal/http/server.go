package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"propcrm/internal/auth"
	"propcrm/internal/core"
	applog "propcrm/internal/log"
	"propcrm/internal/middleware/ratelimit"
	"propcrm/internal/middleware/security"
	"propcrm/internal/middleware/trace"
	"propcrm/internal/objectstore"
	"propcrm/internal/services"
)

// Deps are the collaborators the API server routes requests to.
type Deps struct {
	Listings *services.ListingService
	Income   *services.IncomeService
	Export   *services.ExportService
	Objects  objectstore.Store

	// Ping reports backend readiness. Nil means always ready.
	Ping func(ctx context.Context) error
	// Auth guards /api routes. Nil or disabled lets every request through.
	Auth *auth.Authenticator

	CORSOrigins []string
	RateLimit   ratelimit.Config
	Logger      *applog.Logger
}

type Server struct {
	http.Server
	deps Deps

	router   *mux.Router
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

const apiPrefix = "/api"

// Paths reachable without credentials.
var publicPrefixes = []string{"/healthz", "/readyz", "/metrics", "/storage/"}

func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	if deps.RateLimit.Requests == 0 {
		deps.RateLimit = ratelimit.DefaultConfig()
	}

	s := &Server{
		deps:     deps,
		router:   mux.NewRouter(),
		limiter:  ratelimit.NewLimiter(deps.RateLimit),
		detector: security.NewDetector(),
		started:  time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)
	s.routes()

	headersCfg := security.DefaultHeadersConfig()
	headersCfg.SharedPrefixes = []string{"/storage/"}
	headers := security.NewHeadersMiddleware(headersCfg)

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key", trace.HeaderRequestID},
		ExposedHeaders: []string{"Content-Disposition", trace.HeaderRequestID},
		MaxAge:         600,
	})

	var h http.Handler = s.router
	if deps.Auth != nil {
		h = deps.Auth.Middleware(publicPrefixes...)(h)
	}
	h = s.limiter.Middleware(s.detector.ExtractClientIP)(h)
	h = s.detector.Middleware(h)
	h = headers.Middleware(h)
	h = applog.Middleware(deps.Logger, trace.GetRequestID)(h)
	h = s.tracer.Middleware(h)
	h = c.Handler(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	// API routes sit on the root router so a known path with the wrong
	// method resolves to 405 instead of falling through to 404.
	api := func(path string, h http.HandlerFunc, method string) {
		r.HandleFunc(apiPrefix+path, h).Methods(method)
	}
	api("/listings", s.handleWorkQueue, http.MethodGet)
	api("/listings", s.handleCreateListing, http.MethodPost)
	api("/listings/quick", s.handleQuickCapture, http.MethodPost)
	api("/listings/{id}", s.handleGetListing, http.MethodGet)
	api("/listings/{id}", s.handleUpdateListing, http.MethodPatch)
	api("/listings/{id}", s.handleDeleteListing, http.MethodDelete)
	api("/listings/{id}/processed", s.handleMarkProcessed, http.MethodPost)
	api("/listings/{id}/tenant-text", s.handleTenantText, http.MethodGet)
	api("/listings/{id}/deal", s.handleUpsertDeal, http.MethodPut)
	api("/listings/{id}/photos", s.handleUploadPhoto, http.MethodPost)

	api("/income", s.handleMonthIncome, http.MethodGet)
	api("/dashboard", s.handleDashboard, http.MethodGet)
	api("/deals", s.handleDealsBetween, http.MethodGet)
	api("/export/listings", s.handleExportListings, http.MethodGet)

	r.Handle(core.PublicObjectPrefix+"{bucket}/{path:.+}",
		security.CacheControl(3600)(http.HandlerFunc(s.handleStorageObject))).
		Methods(http.MethodGet, http.MethodHead)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such route").Write(w)
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notAllowed
}

// Shutdown stops the rate limiter sweeper and drains the HTTP server. It is
// safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
