package services

import (
	"fmt"

	"github.com/linkfro/linkfro-backend/internal/models"
)

// Event is something that moves a website listing between statuses.
type Event string

const (
	EventApprove       Event = "approve"
	EventReject        Event = "reject"
	EventFlagConflict  Event = "flagConflict"
	EventResolveWin    Event = "resolveWin"
	EventResolveLose   Event = "resolveLose"
	EventPublisherEdit Event = "publisherEdit"
)

// websiteTransitions maps an event to the statuses it may fire from and the
// status it lands in.
var websiteTransitions = map[Event]map[models.WebsiteStatus]models.WebsiteStatus{
	EventApprove: {
		models.WebsiteStatusPending:  models.WebsiteStatusApproved,
		models.WebsiteStatusApproved: models.WebsiteStatusApproved,
		models.WebsiteStatusRejected: models.WebsiteStatusApproved,
	},
	EventReject: {
		models.WebsiteStatusPending:  models.WebsiteStatusRejected,
		models.WebsiteStatusApproved: models.WebsiteStatusRejected,
		models.WebsiteStatusRejected: models.WebsiteStatusRejected,
	},
	// Approved listings are never pulled back into arbitration.
	EventFlagConflict: {
		models.WebsiteStatusPending: models.WebsiteStatusPriceConflict,
	},
	EventResolveWin: {
		models.WebsiteStatusPriceConflict: models.WebsiteStatusApproved,
	},
	EventResolveLose: {
		models.WebsiteStatusPriceConflict: models.WebsiteStatusRejected,
	},
	// Publisher edits send listings back to review, but never out of
	// arbitration.
	EventPublisherEdit: {
		models.WebsiteStatusPending:       models.WebsiteStatusPending,
		models.WebsiteStatusApproved:      models.WebsiteStatusPending,
		models.WebsiteStatusRejected:      models.WebsiteStatusPending,
		models.WebsiteStatusPriceConflict: models.WebsiteStatusPriceConflict,
	},
}

// Transition returns the status a listing in from moves to on event.
func Transition(from models.WebsiteStatus, event Event) (models.WebsiteStatus, error) {
	targets, ok := websiteTransitions[event]
	if !ok {
		return from, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, event)
	}
	to, ok := targets[from]
	if !ok {
		return from, fmt.Errorf("%w: cannot %s a %s listing", ErrInvalidTransition, event, from)
	}
	return to, nil
}

var purchaseTransitions = map[models.PurchaseStatus][]models.PurchaseStatus{
	models.PurchaseStatusPending:        {models.PurchaseStatusOngoing, models.PurchaseStatusRejected},
	models.PurchaseStatusOngoing:        {models.PurchaseStatusPendingPayment, models.PurchaseStatusRejected},
	models.PurchaseStatusPendingPayment: {models.PurchaseStatusApproved, models.PurchaseStatusRejected},
}

// CanTransitionPurchase reports whether a purchase may move from one status to another.
func CanTransitionPurchase(from, to models.PurchaseStatus) bool {
	for _, next := range purchaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
