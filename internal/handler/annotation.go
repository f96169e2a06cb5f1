package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/makeasinger/studio/internal/model"
	"github.com/makeasinger/studio/internal/service"
	"github.com/makeasinger/studio/pkg/response"
)

type AnnotationHandler struct {
	service   *service.AnnotationService
	validator *validator.Validate
}

func NewAnnotationHandler(svc *service.AnnotationService, v *validator.Validate) *AnnotationHandler {
	return &AnnotationHandler{
		service:   svc,
		validator: v,
	}
}

// Put handles PUT /api/generations/:id/annotations/:audioId
func (h *AnnotationHandler) Put(c *fiber.Ctx) error {
	generationID, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "generation id")
	}
	audioID := c.Params("audioId")

	var req model.AnnotationRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	a, err := h.service.Upsert(c.UserContext(), generationID, audioID, &req)
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, a)
}

// Get handles GET /api/generations/:id/annotations/:audioId
func (h *AnnotationHandler) Get(c *fiber.Ctx) error {
	generationID, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "generation id")
	}

	a, err := h.service.Get(c.UserContext(), generationID, c.Params("audioId"))
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, a)
}

// List handles GET /api/generations/:id/annotations
func (h *AnnotationHandler) List(c *fiber.Ctx) error {
	generationID, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "generation id")
	}

	list, err := h.service.List(c.UserContext(), generationID)
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, list)
}
