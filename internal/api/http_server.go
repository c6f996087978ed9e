package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"islandstay/internal/config"
	"islandstay/internal/domain"
	"islandstay/internal/logging"
	"islandstay/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Services groups everything the HTTP handlers call into.
type Services struct {
	Bookings domain.BookingService
	Listings domain.ListingService
	Business domain.BusinessService
	Sessions domain.SessionService
	Accounts domain.AccountService
	Remote   interface{ Ping(ctx context.Context) error }
}

// HTTPServer exposes the marketplace JSON API.
type HTTPServer struct {
	cfg      config.APIConfig
	session  config.SessionConfig
	bookings domain.BookingService
	listings domain.ListingService
	business domain.BusinessService
	sessions domain.SessionService
	accounts domain.AccountService
	remote   interface{ Ping(ctx context.Context) error }
	limiter  *rateLimiter
	router   chi.Router
	server   *http.Server
	log      *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, session config.SessionConfig, svc Services, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		cfg:      cfg,
		session:  session,
		bookings: svc.Bookings,
		listings: svc.Listings,
		business: svc.Business,
		sessions: svc.Sessions,
		accounts: svc.Accounts,
		remote:   svc.Remote,
		limiter:  newRateLimiter(cfg.RateLimit),
		log:      logging.Component(logger, "http"),
	}
	s.router = s.routes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func (s *HTTPServer) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestLogger, s.recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.loadSession, s.rateLimit)

		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/register-business", s.handleRegisterBusiness)
		r.Post("/auth/forgot-password", s.handleForgotPassword)
		r.With(requireSession).Get("/auth/me", s.handleMe)

		r.Get("/business-types", s.handleBusinessTypes)

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", s.handleListings)
			r.Get("/search", s.handleSearchListings)
			r.Get("/{id}", s.handleListing)
			r.Get("/{id}/details", s.handleListingDetails)
			r.Get("/{id}/services", s.handleListingServices)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(requireSession)
			r.Get("/", s.handleUserBookings)
			r.Post("/", s.handleCreateBooking)
			r.Get("/{id}", s.handleGetBooking)
			r.Post("/{id}/confirm", s.handleConfirmBooking)
			r.Post("/{id}/cancel", s.handleCancelBooking)
		})

		r.Route("/business", func(r chi.Router) {
			r.Use(requireRole(models.RoleBusiness))
			r.Get("/listings", s.handleBusinessListings)
			r.Get("/listings/{id}", s.handleBusinessListing)
			r.Post("/listings/{kind}", s.handleCreateListing)
			r.Patch("/listings/{id}", s.handleUpdateListing)
			r.Delete("/listings/{id}", s.handleDeleteListing)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Handler exposes the router, mostly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.remote == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := s.remote.Ping(ctx); err != nil {
		logging.FromContext(r.Context(), s.log).Warn().Err(err).Msg("readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
