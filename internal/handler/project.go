package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/makeasinger/studio/internal/model"
	"github.com/makeasinger/studio/internal/service"
	"github.com/makeasinger/studio/pkg/response"
)

type ProjectHandler struct {
	service   *service.ProjectService
	validator *validator.Validate
}

func NewProjectHandler(svc *service.ProjectService, v *validator.Validate) *ProjectHandler {
	return &ProjectHandler{
		service:   svc,
		validator: v,
	}
}

func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req model.ProjectRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	p, err := h.service.Create(c.UserContext(), &req)
	if err != nil {
		return serviceError(c, err)
	}
	return response.Created(c, p)
}

func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.service.List(c.UserContext())
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, projects)
}

func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "project id")
	}

	p, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, p)
}

func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "project id")
	}

	var req model.ProjectRequest
	if ok, err := bind(c, h.validator, &req); !ok {
		return err
	}

	p, err := h.service.Update(c.UserContext(), id, &req)
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, p)
}

func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c, "project id")
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return serviceError(c, err)
	}
	return response.NoContent(c)
}
