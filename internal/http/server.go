// Package http exposes the répartition API: case records, rule-based
// distributions, fund and chief configuration, statistics and document
// exports.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"repartition/internal/cache"
	"repartition/internal/log"
	"repartition/internal/middleware/ratelimit"
	"repartition/internal/middleware/security"
	"repartition/internal/services"
	"repartition/internal/storage"
)

type Server struct {
	http.Server

	service     *services.CaseService
	logger      *log.Logger
	structured  *log.StructuredLogger
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector

	// Read caches, flushed on every write.
	listCache  *cache.LRUCache[[]services.AffaireDetail]
	statsCache *cache.LRUCache[storage.Stats]

	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.CaseService, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	httpLogger := logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      nil, // set below once middleware is chained
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		service:     svc,
		logger:      httpLogger,
		structured:  log.NewStructuredLogger(httpLogger),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:    security.NewDetector(),
		listCache:   cache.NewLRUCache[[]services.AffaireDetail](100, 2*time.Minute),
		statsCache:  cache.NewLRUCache[storage.Stats](50, 2*time.Minute),
	}

	s.cacheManager = cache.NewManager(logger)
	s.cacheManager.Register(s.listCache)
	s.cacheManager.Register(s.statsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/affaires", s.handleCreateAffaire)
	mux.HandleFunc("GET /api/affaires", s.handleListAffaires)
	mux.HandleFunc("GET /api/affaires/by-numero", s.handleGetAffaireByNumero)
	mux.HandleFunc("GET /api/affaires/{id}", s.handleGetAffaire)
	mux.HandleFunc("PUT /api/affaires/{id}", s.handleUpdateAffaire)
	mux.HandleFunc("DELETE /api/affaires/{id}", s.handleDeleteAffaire)

	mux.HandleFunc("POST /api/affaires/{id}/repartition", s.handleRepartir)
	mux.HandleFunc("PUT /api/affaires/{id}/beneficiaires", s.handleSaveBeneficiaires)
	mux.HandleFunc("POST /api/repartition/preview", s.handlePreview)
	mux.HandleFunc("GET /api/affaires/{id}/export", s.handleExportAffaire)

	mux.HandleFunc("GET /api/fonds", s.handleListFonds)
	mux.HandleFunc("POST /api/fonds", s.handleCreateFond)
	mux.HandleFunc("PUT /api/fonds/{id}", s.handleUpdateFond)
	mux.HandleFunc("DELETE /api/fonds/{id}", s.handleDeleteFond)

	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("GET /api/chefs", s.handleListChefs)
	mux.HandleFunc("POST /api/chefs", s.handleCreateChef)
	mux.HandleFunc("PUT /api/chefs/{id}", s.handleUpdateChef)
	mux.HandleFunc("DELETE /api/chefs/{id}", s.handleDeleteChef)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = s.withRateLimit(handler)
	handler = s.withRequestLog(handler)
	handler = headers.Middleware(handler)
	handler = log.RequestIDMiddleware(func(*http.Request) string { return generateRequestID() })(handler)
	handler = log.Middleware(httpLogger)(handler)
	s.Server.Handler = handler

	return s
}

// withRequestLog logs request start and completion with status and duration.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := s.detector.ExtractClientIP(r)

		if s.detector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request detected",
				log.FieldClientIP, ip, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		}

		s.structured.LogHTTPStart(r.Context(), r, ip)

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.structured.LogHTTPEnd(r.Context(), r, rw.status, time.Since(start).Milliseconds(), ip)
	})
}

// withRateLimit throttles mutating requests per client IP. Reads are
// unlimited; the caches absorb them.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			ip := s.detector.ExtractClientIP(r)
			if !s.rateLimiter.Allow(ip) {
				s.logger.WarnContext(r.Context(), "Rate limit exceeded",
					log.FieldClientIP, ip, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "trop de requêtes, réessayez plus tard")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// invalidateReadCaches flushes the list and stats caches. Called after
// every successful write; entries are keyed by arbitrary date ranges so
// targeted invalidation is not practical.
func (s *Server) invalidateReadCaches() {
	s.listCache.Purge()
	s.statsCache.Purge()
}

// Shutdown stops background routines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
