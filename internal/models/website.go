package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WebsiteStatus string

const (
	WebsiteStatusPending       WebsiteStatus = "pending"
	WebsiteStatusApproved      WebsiteStatus = "approved"
	WebsiteStatusRejected      WebsiteStatus = "rejected"
	WebsiteStatusPriceConflict WebsiteStatus = "priceConflict"
)

// Website is a publisher's listing offered to advertisers.
//
// PriceCents is authoritative. OriginalPriceCents is the publisher's baseline
// and AdminExtraPriceCents the administrator markup layered on top of it.
type Website struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string    `gorm:"size:255;not null;index" json:"user_id"`
	URL           string    `gorm:"size:2048;not null" json:"url"`
	NormalizedURL string    `gorm:"size:2048;not null;index" json:"-"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`

	Price                float64 `json:"price"`
	PriceCents           int64   `gorm:"not null;default:0" json:"price_cents"`
	OriginalPriceCents   *int64  `json:"original_price_cents,omitempty"`
	AdminExtraPriceCents int64   `gorm:"not null;default:0" json:"admin_extra_price_cents"`

	Status        WebsiteStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ConflictGroup *string       `gorm:"size:64;index" json:"conflict_group,omitempty"`
	IsOriginal    bool          `gorm:"not null;default:false" json:"is_original"`
	Available     bool          `gorm:"not null" json:"available"`

	DomainAuthority int                         `json:"domain_authority"`
	PageAuthority   int                         `json:"page_authority"`
	DomainRating    int                         `json:"domain_rating"`
	SpamScore       int                         `json:"spam_score"`
	OrganicTraffic  int64                       `json:"organic_traffic"`
	Category        string                      `gorm:"size:100" json:"category"`
	Language        string                      `gorm:"size:50" json:"language"`
	LinkType        string                      `gorm:"size:20" json:"link_type"`
	Countries       datatypes.JSONSlice[string] `json:"countries"`

	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `gorm:"size:1000" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (w *Website) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

func (Website) TableName() string {
	return "websites"
}
