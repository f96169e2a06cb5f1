package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/makeasinger/studio/pkg/response"
)

const healthTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// CreditsSource reports the remaining account balance of the generation API
type CreditsSource interface {
	IsConfigured() bool
	GetCredits(ctx context.Context) (float64, error)
}

type activityCounter interface {
	ActiveCount() int
}

type clientCounter interface {
	Len() int
}

type HealthHandler struct {
	db      Pinger
	redis   *redis.Client
	suno    CreditsSource
	pollers activityCounter
	clients clientCounter
}

// NewHealthHandler builds the health and credits endpoints. redisClient may be nil.
func NewHealthHandler(db Pinger, redisClient *redis.Client, suno CreditsSource, pollers activityCounter, clients clientCounter) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   redisClient,
		suno:    suno,
		pollers: pollers,
		clients: clients,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	status := "ok"
	code := fiber.StatusOK
	checks := fiber.Map{}

	if err := h.db.Ping(ctx); err != nil {
		status = "unavailable"
		code = fiber.StatusServiceUnavailable
		checks["database"] = err.Error()
	} else {
		checks["database"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			if status == "ok" {
				status = "degraded"
			}
			checks["redis"] = err.Error()
		} else {
			checks["redis"] = "ok"
		}
	}

	if h.suno.IsConfigured() {
		checks["suno"] = "configured"
	} else {
		checks["suno"] = "not configured"
	}

	return c.Status(code).JSON(fiber.Map{
		"status":        status,
		"checks":        checks,
		"activePollers": h.pollers.ActiveCount(),
		"clients":       h.clients.Len(),
	})
}

// Credits handles GET /api/credits
func (h *HealthHandler) Credits(c *fiber.Ctx) error {
	if !h.suno.IsConfigured() {
		return response.NotConfigured(c, "Suno API key is not configured")
	}

	credits, err := h.suno.GetCredits(c.UserContext())
	if err != nil {
		return response.UpstreamError(c, err.Error())
	}
	return response.OK(c, fiber.Map{"credits": credits})
}
