package handler

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/makeasinger/studio/internal/broadcast"
)

type EventsHandler struct {
	hub *broadcast.Hub
}

func NewEventsHandler(hub *broadcast.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream handles GET /api/events as a server-sent event stream
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(h.hub.StreamSSE))
	return nil
}

// Upgrade rejects plain HTTP requests on the websocket route
func (h *EventsHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Websocket handles GET /ws/events
func (h *EventsHandler) Websocket() fiber.Handler {
	return websocket.New(h.hub.HandleWebsocket)
}
