package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/linkfro/linkfro-backend/internal/dto"
	"github.com/linkfro/linkfro-backend/internal/middleware"
	"github.com/linkfro/linkfro-backend/internal/models"
	"github.com/linkfro/linkfro-backend/internal/services"
)

type PurchaseHandler struct {
	purchaseService *services.PurchaseService
}

func NewPurchaseHandler(purchaseService *services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	buyerID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req dto.CreatePurchaseRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	purchase, err := h.purchaseService.Create(c.UserContext(), buyerID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(purchase)
}

func (h *PurchaseHandler) ListMine(c *fiber.Ctx) error {
	buyerID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	purchases, err := h.purchaseService.ListMine(c.UserContext(), buyerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"purchases": purchases})
}

func (h *PurchaseHandler) ListAll(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	purchases, total, err := h.purchaseService.ListAll(c.UserContext(), c.Query("status"), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"purchases": purchases,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *PurchaseHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "Invalid purchase ID")
	}
	var req dto.UpdatePurchaseStatusRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	purchase, err := h.purchaseService.UpdateStatus(c.UserContext(), id, models.PurchaseStatus(req.Status), req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(purchase)
}
