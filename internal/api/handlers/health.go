package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/klarwerk/zielbord/pkg/config"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// healthBudget bounds the whole composite check so the probe answers
// before typical load balancer timeouts.
const healthBudget = 4500 * time.Millisecond

type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
	cfg   *config.Config
}

func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, cfg: cfg}
}

type healthCheck struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Health handles GET /health: required config, database ping and Redis
// ping, all inside one deadline. Any failure turns the response 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthBudget)
	defer cancel()

	checks := map[string]healthCheck{
		"config":   h.checkConfig(),
		"database": h.checkDatabase(ctx),
		"redis":    h.checkRedis(ctx),
	}

	status := http.StatusOK
	overall := "ok"
	for _, c := range checks {
		if c.Status != "ok" {
			status = http.StatusServiceUnavailable
			overall = "degraded"
			break
		}
	}

	writeJSON(w, status, map[string]interface{}{
		"status": overall,
		"checks": checks,
	})
}

// Ready handles GET /ready; it only needs the database.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthBudget)
	defer cancel()

	if c := h.checkDatabase(ctx); c.Status != "ok" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *HealthHandler) checkConfig() healthCheck {
	if h.cfg.JWT.Secret == "" || (h.cfg.JWT.Secret == "change-me-in-production" && !h.cfg.Server.IsDevelopment()) {
		return healthCheck{Status: "error", Error: "JWT_SECRET not configured"}
	}
	if h.cfg.Database.Host == "" {
		return healthCheck{Status: "error", Error: "DATABASE_HOST not configured"}
	}
	return healthCheck{Status: "ok"}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) healthCheck {
	sqlDB, err := h.db.DB()
	if err != nil {
		return healthCheck{Status: "error", Error: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return healthCheck{Status: "error", Error: err.Error()}
	}
	return healthCheck{Status: "ok"}
}

func (h *HealthHandler) checkRedis(ctx context.Context) healthCheck {
	if h.redis == nil {
		return healthCheck{Status: "ok"}
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return healthCheck{Status: "error", Error: err.Error()}
	}
	return healthCheck{Status: "ok"}
}
