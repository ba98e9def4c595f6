package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/klarwerk/zielbord/internal/api/handlers"
	"github.com/klarwerk/zielbord/internal/api/middleware"
	"github.com/klarwerk/zielbord/internal/auth"
	"github.com/klarwerk/zielbord/internal/database/models"
	"github.com/klarwerk/zielbord/internal/learning"
	"github.com/klarwerk/zielbord/internal/storage"
	"github.com/klarwerk/zielbord/internal/suggest"
	"github.com/klarwerk/zielbord/pkg/config"
	"github.com/klarwerk/zielbord/pkg/crypto"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	Config         *config.Config
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	Google         *auth.GoogleProvider
	Learning       *learning.Service
	Suggest        *suggest.Service
	Store          storage.ObjectStore
	Encryptor      *crypto.Encryptor
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis, cfg.Config)
	versionHandler := handlers.NewVersionHandler(cfg.Config.Build, cfg.Config.Server.Env)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.Google)
	okrHandler := handlers.NewOKRHandler(cfg.DB)
	suggestHandler := handlers.NewSuggestHandler(cfg.Suggest)
	courseHandler := handlers.NewCourseHandler(cfg.DB, cfg.Learning)
	enrollmentHandler := handlers.NewEnrollmentHandler(cfg.DB, cfg.Learning, cfg.Store, cfg.Encryptor, cfg.Logger)
	orgHandler := handlers.NewOrgHandler(cfg.DB)
	teamHandler := handlers.NewTeamHandler(cfg.DB)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/version", versionHandler.Version)

		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/google", authHandler.GoogleLogin)
		r.Get("/auth/google/callback", authHandler.GoogleCallback)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Get("/auth/me", authHandler.Me)

			// OKR endpoints
			r.Route("/okrs", func(r chi.Router) {
				r.Get("/", okrHandler.List)
				r.Post("/", okrHandler.Create)
				r.Get("/trash", okrHandler.Trash)
				r.Post("/suggestions", suggestHandler.Suggest)
				r.Get("/{id}", okrHandler.Get)
				r.Patch("/{id}", okrHandler.Update)
				r.Delete("/{id}", okrHandler.Archive)
				r.Post("/{id}/restore", okrHandler.Restore)
				r.Post("/{id}/checkin", okrHandler.Checkin)
				r.Post("/{id}/key-results", okrHandler.CreateKeyResult)
			})
			r.Patch("/key-results/{id}", okrHandler.UpdateKeyResult)

			// Course endpoints
			r.Route("/courses", func(r chi.Router) {
				r.Get("/", courseHandler.List)
				r.Get("/{id}", courseHandler.Get)
				r.Post("/{id}/enroll", courseHandler.Enroll)
				r.Post("/{id}/modules/{moduleID}/complete", courseHandler.ToggleModule)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
					r.Post("/", courseHandler.Create)
					r.Post("/{id}/modules", courseHandler.CreateModule)
				})
			})

			// Enrollment endpoints
			r.Route("/enrollments", func(r chi.Router) {
				r.Get("/", enrollmentHandler.List)
				r.Post("/{id}/certificate", enrollmentHandler.UploadCertificate)
				r.Get("/{id}/certificate", enrollmentHandler.DownloadCertificate)
			})

			// Organization endpoints
			r.Route("/organization", func(r chi.Router) {
				r.Get("/", orgHandler.Get)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleHR, models.RoleAdmin, models.RoleSuperAdmin))
					r.Get("/members", orgHandler.Members)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
					r.Patch("/", orgHandler.Update)
					r.Patch("/members/{id}/role", orgHandler.UpdateMemberRole)
					r.Patch("/members/{id}/status", orgHandler.UpdateMemberStatus)
				})
			})

			// Team endpoints
			r.Route("/team", func(r chi.Router) {
				r.Use(middleware.RequireRole(
					models.RoleManager, models.RoleHR, models.RoleAdmin, models.RoleSuperAdmin,
				))
				r.Get("/", teamHandler.Overview)
				r.Get("/learnings", teamHandler.Learnings)
			})
		})
	})

	return &Router{r}
}
