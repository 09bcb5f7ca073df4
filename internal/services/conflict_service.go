package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/linkfro/linkfro-backend/internal/locker"
	"github.com/linkfro/linkfro-backend/internal/metrics"
	"github.com/linkfro/linkfro-backend/internal/models"
	"gorm.io/gorm"
)

const conflictLockTTL = 30 * time.Second

// ConflictGroup is one set of listings competing for the same URL.
type ConflictGroup struct {
	Group         string           `json:"conflict_group"`
	Listings      []models.Website `json:"listings"`
	OriginalPrice *float64         `json:"original_price"`
	NewPrice      *float64         `json:"new_price"`
}

type RejectFailure struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
}

// ConflictResolution reports every sibling outcome; the batch is not atomic.
type ConflictResolution struct {
	Approved uuid.UUID       `json:"approved"`
	Rejected []uuid.UUID     `json:"rejected"`
	Failed   []RejectFailure `json:"failed,omitempty"`
}

type ConflictService struct {
	db       *gorm.DB
	websites *WebsiteService
	locks    locker.Locker
}

func NewConflictService(db *gorm.DB, websites *WebsiteService, locks locker.Locker) *ConflictService {
	return &ConflictService{db: db, websites: websites, locks: locks}
}

// ListConflicts groups every priceConflict listing by conflict group. Inside
// a group the original listing comes first, then the rest by creation time.
func (s *ConflictService) ListConflicts(ctx context.Context) ([]ConflictGroup, error) {
	var listings []models.Website
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.WebsiteStatusPriceConflict).
		Order("created_at ASC").
		Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}

	var order []string
	byGroup := make(map[string][]models.Website)
	for _, l := range listings {
		if l.ConflictGroup == nil {
			continue
		}
		g := *l.ConflictGroup
		if _, seen := byGroup[g]; !seen {
			order = append(order, g)
		}
		byGroup[g] = append(byGroup[g], l)
	}

	groups := make([]ConflictGroup, 0, len(order))
	for _, g := range order {
		members := byGroup[g]
		sortConflictMembers(members)

		cg := ConflictGroup{Group: g, Listings: members}
		for i := range members {
			price := members[i].Price
			if members[i].IsOriginal {
				if cg.OriginalPrice == nil {
					cg.OriginalPrice = &price
				}
			} else if cg.NewPrice == nil {
				cg.NewPrice = &price
			}
		}
		groups = append(groups, cg)
	}
	return groups, nil
}

func sortConflictMembers(members []models.Website) {
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].IsOriginal != members[j].IsOriginal {
			return members[i].IsOriginal
		}
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})
}

// ResolveConflict approves selectedID and rejects every other listing in the
// group. Only one resolution per group runs at a time.
func (s *ConflictService) ResolveConflict(ctx context.Context, group string, selectedID uuid.UUID, reason string, extraPriceCents *int64) (*ConflictResolution, error) {
	if group == "" {
		return nil, fmt.Errorf("%w: conflict group is required", ErrValidation)
	}
	if extraPriceCents != nil && *extraPriceCents < 0 {
		return nil, fmt.Errorf("%w: extra price must not be negative", ErrValidation)
	}

	release, err := s.locks.TryLock(ctx, "conflict:"+group, conflictLockTTL)
	if err != nil {
		if errors.Is(err, locker.ErrLocked) {
			return nil, fmt.Errorf("%w: conflict group %s is already being resolved", ErrConflict, group)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer release()

	var members []models.Website
	if err := s.db.WithContext(ctx).
		Where("conflict_group = ? AND status = ?", group, models.WebsiteStatusPriceConflict).
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("load conflict group: %w", err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: no listings in conflict group %s", ErrNotFound, group)
	}

	var winner *models.Website
	siblings := make([]*models.Website, 0, len(members)-1)
	for i := range members {
		if members[i].ID == selectedID {
			winner = &members[i]
		} else {
			siblings = append(siblings, &members[i])
		}
	}
	if winner == nil {
		return nil, fmt.Errorf("%w: listing %s is not in conflict group %s", ErrNotFound, selectedID, group)
	}

	if _, err := s.websites.approve(ctx, winner, EventResolveWin, reason, extraPriceCents); err != nil {
		metrics.ConflictResolutions.WithLabelValues("failed").Inc()
		return nil, err
	}

	// Siblings get the same reason the Reject operation would store.
	errs := make([]error, len(siblings))
	var wg sync.WaitGroup
	for i, sib := range siblings {
		wg.Add(1)
		go func(i int, sib *models.Website) {
			defer wg.Done()
			_, errs[i] = s.websites.reject(ctx, sib, EventResolveLose, reason)
		}(i, sib)
	}
	wg.Wait()

	result := &ConflictResolution{Approved: winner.ID, Rejected: make([]uuid.UUID, 0, len(siblings))}
	for i, sib := range siblings {
		if errs[i] != nil {
			slog.Error("failed to reject conflicting listing", "conflict_group", group, "website_id", sib.ID, "error", errs[i])
			result.Failed = append(result.Failed, RejectFailure{ID: sib.ID, Error: errs[i].Error()})
			continue
		}
		result.Rejected = append(result.Rejected, sib.ID)
	}

	outcome := "resolved"
	if len(result.Failed) > 0 {
		outcome = "partial"
	}
	metrics.ConflictResolutions.WithLabelValues(outcome).Inc()
	slog.Info("price conflict resolved", "conflict_group", group, "approved", winner.ID, "rejected", len(result.Rejected), "failed", len(result.Failed))
	return result, nil
}
