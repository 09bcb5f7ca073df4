package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// CountryList accepts either a JSON array or a comma-separated string.
type CountryList []string

func (l *CountryList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	var raw []string
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.Split(s, ",")
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("countries must be a list or a comma-separated string")
	}

	out := make(CountryList, 0, len(raw))
	for _, c := range raw {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	*l = out
	return nil
}

type CreateWebsiteRequest struct {
	URL             string       `json:"url" validate:"required,max=2048"`
	Title           string       `json:"title" validate:"required,max=255"`
	Description     string       `json:"description" validate:"max=10000"`
	Price           *json.Number `json:"price"`
	PriceCents      *int64       `json:"price_cents" validate:"omitempty,min=0"`
	DomainAuthority int          `json:"domain_authority" validate:"min=0,max=100"`
	PageAuthority   int          `json:"page_authority" validate:"min=0,max=100"`
	DomainRating    int          `json:"domain_rating" validate:"min=0,max=100"`
	SpamScore       int          `json:"spam_score" validate:"min=0,max=100"`
	OrganicTraffic  int64        `json:"organic_traffic" validate:"min=0"`
	Category        string       `json:"category" validate:"max=100"`
	Language        string       `json:"language" validate:"max=50"`
	LinkType        string       `json:"link_type" validate:"omitempty,oneof=dofollow nofollow sponsored"`
	Countries       CountryList  `json:"countries"`
}

// UpdateWebsiteRequest is a publisher's partial edit. Admin-owned pricing
// fields have no place here, so clients sending them are ignored.
type UpdateWebsiteRequest struct {
	URL             *string      `json:"url" validate:"omitempty,max=2048"`
	Title           *string      `json:"title" validate:"omitempty,max=255"`
	Description     *string      `json:"description" validate:"omitempty,max=10000"`
	Price           *json.Number `json:"price"`
	PriceCents      *int64       `json:"price_cents" validate:"omitempty,min=0"`
	Available       *bool        `json:"available"`
	DomainAuthority *int         `json:"domain_authority" validate:"omitempty,min=0,max=100"`
	PageAuthority   *int         `json:"page_authority" validate:"omitempty,min=0,max=100"`
	DomainRating    *int         `json:"domain_rating" validate:"omitempty,min=0,max=100"`
	SpamScore       *int         `json:"spam_score" validate:"omitempty,min=0,max=100"`
	OrganicTraffic  *int64       `json:"organic_traffic" validate:"omitempty,min=0"`
	Category        *string      `json:"category" validate:"omitempty,max=100"`
	Language        *string      `json:"language" validate:"omitempty,max=50"`
	LinkType        *string      `json:"link_type" validate:"omitempty,oneof=dofollow nofollow sponsored"`
	Countries       *CountryList `json:"countries"`
}

type ApproveWebsiteRequest struct {
	Reason          string `json:"reason" validate:"max=1000"`
	ExtraPriceCents *int64 `json:"extra_price_cents" validate:"omitempty,min=0"`
}

type RejectWebsiteRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type ResolveConflictRequest struct {
	SelectedID      uuid.UUID `json:"selected_id" validate:"required"`
	Reason          string    `json:"reason" validate:"max=1000"`
	ExtraPriceCents *int64    `json:"extra_price_cents" validate:"omitempty,min=0"`
}
