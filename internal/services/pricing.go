package services

import (
	"encoding/json"
	"fmt"

	"github.com/linkfro/linkfro-backend/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DollarsToCents converts a dollar amount such as "12.5" or 12.50 into integer
// cents, rounding half away from zero at the cent.
func DollarsToCents(raw json.Number) (int64, error) {
	d, err := decimal.NewFromString(raw.String())
	if err != nil {
		return 0, fmt.Errorf("%w: price must be numeric", ErrValidation)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

// CentsToDollars renders cents as the display price.
func CentsToDollars(cents int64) float64 {
	f, _ := decimal.New(cents, -2).Float64()
	return f
}

// baselineCents is the publisher price an admin markup is layered on. Listings
// created before cents were tracked only carry the legacy dollar field.
func baselineCents(w *models.Website) int64 {
	if w.OriginalPriceCents != nil {
		return *w.OriginalPriceCents
	}
	if w.PriceCents > 0 {
		return w.PriceCents
	}
	return decimal.NewFromFloat(w.Price).Mul(hundred).Round(0).IntPart()
}

// applyAdminExtra captures the baseline once and accumulates extra on top of it.
func applyAdminExtra(w *models.Website, extra int64) {
	original := baselineCents(w)
	w.OriginalPriceCents = &original
	w.AdminExtraPriceCents += extra
	w.PriceCents = original + w.AdminExtraPriceCents
	w.Price = CentsToDollars(w.PriceCents)
}

// applyPublisherPrice replaces the baseline while keeping the admin markup.
func applyPublisherPrice(w *models.Website, cents int64) {
	w.OriginalPriceCents = &cents
	w.PriceCents = cents + w.AdminExtraPriceCents
	w.Price = CentsToDollars(w.PriceCents)
}
