package dto

import "github.com/google/uuid"

type CreatePurchaseRequest struct {
	WebsiteID  uuid.UUID `json:"website_id" validate:"required"`
	ContentURL string    `json:"content_url" validate:"omitempty,url,max=2048"`
	Notes      string    `json:"notes" validate:"max=5000"`
}

type UpdatePurchaseStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ongoing pendingPayment approved rejected"`
	Reason string `json:"reason" validate:"max=1000"`
}
