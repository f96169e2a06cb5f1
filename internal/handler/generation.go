package handler

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/makeasinger/studio/internal/model"
	"github.com/makeasinger/studio/internal/service"
	"github.com/makeasinger/studio/pkg/response"
)

type GenerationHandler struct {
	service   *service.GenerationService
	validator *validator.Validate
}

func NewGenerationHandler(svc *service.GenerationService, v *validator.Validate) *GenerationHandler {
	return &GenerationHandler{
		service:   svc,
		validator: v,
	}
}

// Create handles POST /api/generations. The job is polled in the background;
// progress arrives on the event stream.
func (h *GenerationHandler) Create(c *fiber.Ctx) error {
	var req model.CreateGenerationRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	g, err := h.service.Create(c.UserContext(), &req)
	if err != nil {
		if g != nil && g.Status == model.GenerationError {
			message := err.Error()
			if g.ErrorMessage != nil {
				message = *g.ErrorMessage
			}
			return response.JobFailed(c, message, g)
		}
		return serviceError(c, err)
	}

	return response.Accepted(c, g)
}

// List handles GET /api/generations?project_id=
func (h *GenerationHandler) List(c *fiber.Ctx) error {
	var projectID *int64
	if raw := c.Query("project_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return response.ValidationError(c, "Invalid project_id", nil)
		}
		projectID = &id
	}

	gens, err := h.service.List(c.UserContext(), projectID)
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, gens)
}

// Get handles GET /api/generations/:id
func (h *GenerationHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "generation id")
	}

	g, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, g)
}

// Delete handles DELETE /api/generations/:id. Any active poller stops.
func (h *GenerationHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "generation id")
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return serviceError(c, err)
	}
	return response.NoContent(c)
}

// Archives handles GET /api/generations/:id/archives
func (h *GenerationHandler) Archives(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "generation id")
	}

	list, err := h.service.Archives(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, list)
}
