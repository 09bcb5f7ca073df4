package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseStatus string

const (
	PurchaseStatusPending        PurchaseStatus = "pending"
	PurchaseStatusOngoing        PurchaseStatus = "ongoing"
	PurchaseStatusPendingPayment PurchaseStatus = "pendingPayment"
	PurchaseStatusApproved       PurchaseStatus = "approved"
	PurchaseStatusRejected       PurchaseStatus = "rejected"
)

// Purchase is an advertiser's order for a placement on a website listing.
type Purchase struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BuyerID         string         `gorm:"size:255;not null;index" json:"buyer_id"`
	WebsiteID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"website_id"`
	AmountCents     int64          `gorm:"not null" json:"amount_cents"`
	ContentURL      string         `gorm:"size:2048" json:"content_url,omitempty"`
	Notes           string         `gorm:"type:text" json:"notes,omitempty"`
	Status          PurchaseStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	RejectionReason string         `gorm:"size:1000" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Purchase) TableName() string {
	return "purchases"
}
