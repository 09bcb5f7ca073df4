package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/linkfro/linkfro-backend/internal/dto"
	"github.com/linkfro/linkfro-backend/internal/middleware"
	"github.com/linkfro/linkfro-backend/internal/models"
	"github.com/linkfro/linkfro-backend/internal/services"
)

type WebsiteHandler struct {
	websiteService *services.WebsiteService
}

func NewWebsiteHandler(websiteService *services.WebsiteService) *WebsiteHandler {
	return &WebsiteHandler{websiteService: websiteService}
}

func (h *WebsiteHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req dto.CreateWebsiteRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	website, err := h.websiteService.Create(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(website)
}

func (h *WebsiteHandler) ListMine(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	websites, err := h.websiteService.ListMine(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"websites": websites})
}

// ListMarketplace is the public catalogue of approved, available listings.
func (h *WebsiteHandler) ListMarketplace(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	websites, total, err := h.websiteService.ListMarketplace(c.UserContext(), c.Query("category"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"websites": websites,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// Get shows a listing to its owner and moderators, and to everyone else
// only while it is on the marketplace.
func (h *WebsiteHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid website ID")
	}

	website, err := h.websiteService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	role := middleware.GetRole(c)
	visible := website.UserID == userID ||
		role == services.RoleSuperAdmin || role == services.RoleWebsites ||
		(website.Status == models.WebsiteStatusApproved && website.Available)
	if !visible {
		return respondError(c, services.ErrNotFound)
	}
	return c.JSON(website)
}

func (h *WebsiteHandler) Update(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid website ID")
	}
	var req dto.UpdateWebsiteRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	website, err := h.websiteService.Update(c.UserContext(), userID, id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(website)
}

func (h *WebsiteHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid website ID")
	}

	if err := h.websiteService.Delete(c.UserContext(), userID, middleware.GetRole(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Website deleted"})
}

func (h *WebsiteHandler) ListForReview(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	websites, total, err := h.websiteService.ListForReview(c.UserContext(), c.Query("status"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"websites": websites,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *WebsiteHandler) Approve(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid website ID")
	}
	var req dto.ApproveWebsiteRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return badRequest(c, err.Error())
		}
	}

	website, err := h.websiteService.Approve(c.UserContext(), id, req.Reason, req.ExtraPriceCents)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(website)
}

func (h *WebsiteHandler) Reject(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid website ID")
	}
	var req dto.RejectWebsiteRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return badRequest(c, err.Error())
		}
	}

	website, err := h.websiteService.Reject(c.UserContext(), id, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(website)
}
