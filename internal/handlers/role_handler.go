package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/linkfro/linkfro-backend/internal/dto"
	"github.com/linkfro/linkfro-backend/internal/middleware"
	"github.com/linkfro/linkfro-backend/internal/models"
	"github.com/linkfro/linkfro-backend/internal/services"
)

type RoleHandler struct {
	roleService *services.RoleService
}

func NewRoleHandler(roleService *services.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

// Me reports the caller's id and resolved role.
func (h *RoleHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	return c.JSON(dto.MeResponse{UserID: userID, Role: string(middleware.GetRole(c))})
}

func (h *RoleHandler) List(c *fiber.Ctx) error {
	assignments, err := h.roleService.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"roles": assignments})
}

func (h *RoleHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRoleRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	assignment, err := h.roleService.Create(c.UserContext(), req.Email, models.AssignedRole(req.Role))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(assignment)
}

func (h *RoleHandler) SetActive(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid role assignment ID")
	}
	var req dto.SetRoleActiveRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	assignment, err := h.roleService.SetActive(c.UserContext(), id, *req.Active)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(assignment)
}

func (h *RoleHandler) Delete(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid role assignment ID")
	}
	if err := h.roleService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Role assignment deleted"})
}

// DeleteByRole removes the oldest holder of ?role=.
func (h *RoleHandler) DeleteByRole(c *fiber.Ctx) error {
	role := c.Query("role")
	if role == "" {
		return badRequest(c, "role query parameter is required")
	}
	assignment, err := h.roleService.DeleteByRole(c.UserContext(), models.AssignedRole(role))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Role assignment deleted", "deleted": assignment})
}
