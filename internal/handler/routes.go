package handler

import (
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Projects    *ProjectHandler
	Generations *GenerationHandler
	Stems       *StemHandler
	Annotations *AnnotationHandler
	Events      *EventsHandler
	Health      *HealthHandler
}

// RouteOptions carries the middleware placed in front of the API.
// Nil handlers are skipped.
type RouteOptions struct {
	Auth          fiber.Handler
	GenerateLimit fiber.Handler
	StemsLimit    fiber.Handler
}

func passthrough(c *fiber.Ctx) error {
	return c.Next()
}

func orPassthrough(h fiber.Handler) fiber.Handler {
	if h == nil {
		return passthrough
	}
	return h
}

// Register mounts every route on app
func Register(app *fiber.App, h *Handlers, opts RouteOptions) {
	auth := orPassthrough(opts.Auth)
	generateLimit := orPassthrough(opts.GenerateLimit)
	stemsLimit := orPassthrough(opts.StemsLimit)

	app.Get("/health", h.Health.Health)

	// Event channel. EventSource and WebSocket pass the token as a query param.
	app.Use("/ws", h.Events.Upgrade)
	app.Get("/ws/events", auth, h.Events.Websocket())

	api := app.Group("/api", auth)

	api.Get("/events", h.Events.Stream)
	api.Get("/credits", h.Health.Credits)

	projects := api.Group("/projects")
	projects.Post("/", h.Projects.Create)
	projects.Get("/", h.Projects.List)
	projects.Get("/:id", h.Projects.Get)
	projects.Put("/:id", h.Projects.Update)
	projects.Delete("/:id", h.Projects.Delete)

	generations := api.Group("/generations")
	generations.Post("/", generateLimit, h.Generations.Create)
	generations.Get("/", h.Generations.List)
	generations.Get("/:id", h.Generations.Get)
	generations.Delete("/:id", h.Generations.Delete)
	generations.Get("/:id/archives", h.Generations.Archives)

	generations.Post("/:id/stems", stemsLimit, h.Stems.Create)
	generations.Get("/:id/stems", h.Stems.List)

	generations.Get("/:id/annotations", h.Annotations.List)
	generations.Get("/:id/annotations/:audioId", h.Annotations.Get)
	generations.Put("/:id/annotations/:audioId", h.Annotations.Put)

	stems := api.Group("/stems")
	stems.Get("/:id", h.Stems.Get)
	stems.Delete("/:id", h.Stems.Delete)
}
