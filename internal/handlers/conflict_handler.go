package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/linkfro/linkfro-backend/internal/dto"
	"github.com/linkfro/linkfro-backend/internal/services"
)

type ConflictHandler struct {
	conflictService *services.ConflictService
}

func NewConflictHandler(conflictService *services.ConflictService) *ConflictHandler {
	return &ConflictHandler{conflictService: conflictService}
}

func (h *ConflictHandler) List(c *fiber.Ctx) error {
	groups, err := h.conflictService.ListConflicts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"conflicts": groups})
}

// Resolve approves the selected listing of a conflict group and rejects the
// rest. Sibling rejections that failed are listed in the response.
func (h *ConflictHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ResolveConflictRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.conflictService.ResolveConflict(c.UserContext(), c.Params("group"), req.SelectedID, req.Reason, req.ExtraPriceCents)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
