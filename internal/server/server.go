package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"eventhub/internal/config"
	"eventhub/internal/database"
	"eventhub/internal/handlers"
	"eventhub/internal/middleware"
	"eventhub/internal/repositories"
	"eventhub/internal/services"
	"eventhub/internal/utils"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Server wires repositories, services and handlers behind one HTTP router
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	router  chi.Router
	limiter *middleware.LoginRateLimiter
}

// Option customizes a Server
type Option func(*options)

type options struct {
	notifier services.Notifier
	retry    services.RetryPolicy
	storage  services.StorageService
}

// WithNotifier replaces the notifier chosen from the email configuration
func WithNotifier(n services.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithRetryPolicy replaces the default write retry policy
func WithRetryPolicy(p services.RetryPolicy) Option {
	return func(o *options) { o.retry = p }
}

// WithStorage replaces the image storage chosen from the storage configuration
func WithStorage(st services.StorageService) Option {
	return func(o *options) { o.storage = st }
}

// New builds the application on top of an open, migrated database
func New(cfg *config.Config, db *database.DB, logger *slog.Logger, opts ...Option) (*Server, error) {
	o := options{retry: services.DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.notifier == nil {
		o.notifier = newNotifier(cfg, logger)
	}

	var uploads *services.LocalStorageService
	if o.storage == nil {
		var err error
		o.storage, uploads, err = services.NewStorageService(context.Background(), cfg.Storage, cfg.Storage.PublicURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create image storage: %w", err)
		}
	}

	tokens, err := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db.DB)
	eventRepo := repositories.NewEventRepository(db.DB)
	bookingRepo := repositories.NewBookingRepository(db.DB)
	analyticsRepo := repositories.NewAnalyticsRepository(db.DB)
	auditRepo := repositories.NewAuditLogRepository(db.DB)

	// Services
	hasher := utils.NewPasswordHasher(cfg.Auth.PasswordParams())
	authService := services.NewAuthService(userRepo, tokens, hasher, o.notifier, cfg.Auth.PasswordResetTTL, logger)
	auditService := services.NewAuditService(auditRepo, logger)
	moderationService := services.NewEventModerationService(eventRepo, auditService, logger)
	eventService := services.NewEventService(eventRepo, moderationService, auditService, logger)
	bookingService := services.NewBookingService(bookingRepo, eventRepo, o.notifier, o.retry, logger)
	analyticsService := services.NewAnalyticsService(analyticsRepo, eventRepo)
	userService := services.NewUserService(userRepo, auditService, logger)
	imageService := services.NewImageService(o.storage, eventRepo, int64(cfg.Storage.MaxImageBytes), logger)
	eventService.SetImageCleaner(imageService)

	// HTTP
	sessions := middleware.NewSessionManager(cfg.Session.Secret, cfg.Session.Name, cfg.IsProduction(), cfg.Auth.TokenTTL)
	authMiddleware := middleware.NewAuthMiddleware(authService, sessions, logger)
	limiter := middleware.NewLoginRateLimiter(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow)

	authHandler := handlers.NewAuthHandler(authService, sessions, logger)
	eventHandler := handlers.NewEventHandler(eventService, bookingService, analyticsService, imageService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, logger)
	adminHandler := handlers.NewAdminHandler(moderationService, userService, auditService, logger)
	healthHandler := handlers.NewHealthHandler(db, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeadersMiddleware)
	r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig(cfg.CORS.AllowedOrigins)))
	r.Use(middleware.RequestMeta)

	r.NotFound(middleware.NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", healthHandler.Health)
	if uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", handlers.FileServer(uploads.BasePath())))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.LoadUser)

		r.Route("/auth", func(r chi.Router) {
			authHandler.Routes(r, middleware.LoginRateLimit(limiter))
		})

		r.Route("/users/me", func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Get("/", authHandler.Me)
			r.Put("/", authHandler.UpdateMe)
		})

		r.Route("/events", eventHandler.Routes)

		r.Route("/bookings", func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			bookingHandler.Routes(r)
		})

		r.With(authMiddleware.RequireAuth).Get("/analytics", analyticsHandler.Report)

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			adminHandler.Routes(r)
		})
	})

	return &Server{
		config:  cfg,
		logger:  logger,
		router:  r,
		limiter: limiter,
	}, nil
}

func newNotifier(cfg *config.Config, logger *slog.Logger) services.Notifier {
	if cfg.Email.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, emails will be logged instead of sent")
		return services.NewLogEmailService(logger)
	}
	return services.NewEmailService(services.EmailConfig{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUser,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromEmail:    cfg.Email.FromEmail,
		BaseURL:      cfg.Email.BaseURL,
		ResetTTL:     cfg.Auth.PasswordResetTTL,
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until ctx is canceled, then drains in-flight requests for
// up to the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(s.config.Server.Host, s.config.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go s.limiter.Run(ctx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", srv.Addr, "env", s.config.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server", "timeout", s.config.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
