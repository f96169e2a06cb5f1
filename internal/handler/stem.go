package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/makeasinger/studio/internal/model"
	"github.com/makeasinger/studio/internal/service"
	"github.com/makeasinger/studio/pkg/response"
)

type StemHandler struct {
	service   *service.StemService
	validator *validator.Validate
}

func NewStemHandler(svc *service.StemService, v *validator.Validate) *StemHandler {
	return &StemHandler{
		service:   svc,
		validator: v,
	}
}

// Create handles POST /api/generations/:id/stems
func (h *StemHandler) Create(c *fiber.Ctx) error {
	generationID, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "generation id")
	}

	var req model.CreateStemSeparationRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	stem, err := h.service.Create(c.UserContext(), generationID, &req)
	if err != nil {
		if stem != nil && stem.Status == model.StemError {
			message := err.Error()
			if stem.ErrorMessage != nil {
				message = *stem.ErrorMessage
			}
			return response.JobFailed(c, message, stem)
		}
		return serviceError(c, err)
	}

	return response.Accepted(c, stem)
}

// List handles GET /api/generations/:id/stems
func (h *StemHandler) List(c *fiber.Ctx) error {
	generationID, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "generation id")
	}

	stems, err := h.service.ListByGeneration(c.UserContext(), generationID)
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, stems)
}

// Get handles GET /api/stems/:id
func (h *StemHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "stem separation id")
	}

	stem, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, stem)
}

// Delete handles DELETE /api/stems/:id
func (h *StemHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "stem separation id")
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return serviceError(c, err)
	}
	return response.NoContent(c)
}
