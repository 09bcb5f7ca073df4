package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linkfro/linkfro-backend/internal/dto"
	"github.com/linkfro/linkfro-backend/internal/metrics"
	"github.com/linkfro/linkfro-backend/internal/models"
	"github.com/segmentio/ksuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultRejectionReason = "Your website did not meet our listing requirements"

// Statuses that still hold a URL; rejected listings do not.
var liveStatuses = []models.WebsiteStatus{
	models.WebsiteStatusPending,
	models.WebsiteStatusApproved,
	models.WebsiteStatusPriceConflict,
}

type WebsiteService struct {
	db       *gorm.DB
	screener *ContentScreener
}

func NewWebsiteService(db *gorm.DB, screener *ContentScreener) *WebsiteService {
	return &WebsiteService{db: db, screener: screener}
}

// Create stores a publisher's new listing as pending. A URL another publisher
// has pending puts every such listing into one price conflict group.
func (s *WebsiteService) Create(ctx context.Context, ownerID string, req *dto.CreateWebsiteRequest) (*models.Website, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	normalized, err := NormalizeURL(req.URL)
	if err != nil {
		return nil, err
	}
	cents, ok, err := resolveCents(req.Price, req.PriceCents)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: price is required", ErrValidation)
	}
	if err := s.screener.screen(
		screenedField{"title", title},
		screenedField{"description", req.Description},
	); err != nil {
		return nil, err
	}

	website := models.Website{
		UserID:          ownerID,
		URL:             strings.TrimSpace(req.URL),
		NormalizedURL:   normalized,
		Title:           title,
		Description:     req.Description,
		Status:          models.WebsiteStatusPending,
		Available:       true,
		DomainAuthority: req.DomainAuthority,
		PageAuthority:   req.PageAuthority,
		DomainRating:    req.DomainRating,
		SpamScore:       req.SpamScore,
		OrganicTraffic:  req.OrganicTraffic,
		Category:        req.Category,
		Language:        req.Language,
		LinkType:        req.LinkType,
		Countries:       datatypes.JSONSlice[string](req.Countries),
	}
	applyPublisherPrice(&website, cents)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := claimURL(tx, ownerID, uuid.Nil, normalized)
		if err != nil {
			return err
		}
		if group != "" {
			to, err := Transition(website.Status, EventFlagConflict)
			if err != nil {
				return err
			}
			website.Status = to
			website.ConflictGroup = &group
		}
		return tx.Create(&website).Error
	})
	if err != nil {
		return nil, err
	}

	if website.ConflictGroup != nil {
		metrics.ListingTransitions.WithLabelValues(string(EventFlagConflict), string(website.Status)).Inc()
		slog.Info("listing flagged into price conflict", "website_id", website.ID, "conflict_group", *website.ConflictGroup)
	}
	return &website, nil
}

// claimURL checks that ownerID may list normalized and returns the conflict
// group the listing joins, or "" when nobody else lists the URL. A URL the
// owner already lists, or one already on the marketplace, is refused.
// Competing pending listings are flagged into the group. exclude skips the
// listing being edited.
func claimURL(tx *gorm.DB, ownerID string, exclude uuid.UUID, normalized string) (string, error) {
	var dupes []models.Website
	query := tx.Where("normalized_url = ? AND status IN ?", normalized, liveStatuses)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	if err := query.Order("created_at ASC").Find(&dupes).Error; err != nil {
		return "", fmt.Errorf("find duplicate listings: %w", err)
	}
	for _, d := range dupes {
		if d.UserID == ownerID {
			return "", fmt.Errorf("%w: you have already listed this website", ErrConflict)
		}
	}
	for _, d := range dupes {
		if d.Status == models.WebsiteStatusApproved {
			return "", fmt.Errorf("%w: this website is already listed on the marketplace", ErrConflict)
		}
	}
	if len(dupes) == 0 {
		return "", nil
	}
	return flagConflict(tx, dupes)
}

// flagConflict moves pending listings for a URL into one conflict group and
// returns its id. The oldest listing is the original unless the group already has one.
func flagConflict(tx *gorm.DB, dupes []models.Website) (string, error) {
	group := ""
	hasOriginal := false
	for _, d := range dupes {
		if d.ConflictGroup != nil && group == "" {
			group = *d.ConflictGroup
		}
		if d.IsOriginal {
			hasOriginal = true
		}
	}
	if group == "" {
		group = ksuid.New().String()
	}

	for i, d := range dupes {
		updates := map[string]any{"conflict_group": group}
		if d.Status != models.WebsiteStatusPriceConflict {
			to, err := Transition(d.Status, EventFlagConflict)
			if err != nil {
				return "", err
			}
			updates["status"] = to
		}
		if !hasOriginal && i == 0 {
			updates["is_original"] = true
		}
		result := tx.Model(&models.Website{}).Where("id = ? AND status = ?", d.ID, d.Status).Updates(updates)
		if result.Error != nil {
			return "", fmt.Errorf("flag listing %s: %w", d.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return "", fmt.Errorf("%w: website %s", ErrConcurrentUpdate, d.ID)
		}
	}
	return group, nil
}

func (s *WebsiteService) Get(ctx context.Context, id uuid.UUID) (*models.Website, error) {
	var website models.Website
	if err := s.db.WithContext(ctx).First(&website, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: website", ErrNotFound)
		}
		return nil, fmt.Errorf("find website: %w", err)
	}
	return &website, nil
}

func (s *WebsiteService) ListMine(ctx context.Context, ownerID string) ([]models.Website, error) {
	var websites []models.Website
	err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Order("created_at DESC").Find(&websites).Error
	if err != nil {
		return nil, fmt.Errorf("list websites: %w", err)
	}
	return websites, nil
}

// ListMarketplace returns approved, available listings visible to buyers.
func (s *WebsiteService) ListMarketplace(ctx context.Context, category string, limit, offset int) ([]models.Website, int64, error) {
	var websites []models.Website
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Website{}).
		Where("status = ? AND available = ?", models.WebsiteStatusApproved, true)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count websites: %w", err)
	}
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&websites).Error; err != nil {
		return nil, 0, fmt.Errorf("list websites: %w", err)
	}
	return websites, total, nil
}

// ListForReview returns listings for moderators, optionally filtered by status.
func (s *WebsiteService) ListForReview(ctx context.Context, status string, limit, offset int) ([]models.Website, int64, error) {
	var websites []models.Website
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Website{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count websites: %w", err)
	}
	if err := query.Order("created_at ASC").Limit(limit).Offset(offset).Find(&websites).Error; err != nil {
		return nil, 0, fmt.Errorf("list websites: %w", err)
	}
	return websites, total, nil
}

// Approve publishes a listing. A non-nil extraPriceCents is added to the
// admin markup on top of the publisher baseline, which is captured only once.
func (s *WebsiteService) Approve(ctx context.Context, id uuid.UUID, reason string, extraPriceCents *int64) (*models.Website, error) {
	website, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.approve(ctx, website, EventApprove, reason, extraPriceCents)
}

func (s *WebsiteService) approve(ctx context.Context, website *models.Website, event Event, reason string, extraPriceCents *int64) (*models.Website, error) {
	if extraPriceCents != nil && *extraPriceCents < 0 {
		return nil, fmt.Errorf("%w: extra price must not be negative", ErrValidation)
	}
	to, err := Transition(website.Status, event)
	if err != nil {
		return nil, err
	}

	from, readExtra := website.Status, website.AdminExtraPriceCents
	now := time.Now().UTC()
	updates := map[string]any{
		"status":           to,
		"available":        true,
		"rejection_reason": "",
		"approved_at":      now,
	}
	if extraPriceCents != nil {
		applyAdminExtra(website, *extraPriceCents)
		updates["original_price_cents"] = *website.OriginalPriceCents
		updates["admin_extra_price_cents"] = website.AdminExtraPriceCents
		updates["price_cents"] = website.PriceCents
		updates["price"] = website.Price
	}
	if err := guardedUpdate(s.db.WithContext(ctx), website.ID, from, readExtra, updates); err != nil {
		return nil, err
	}

	website.Status = to
	website.Available = true
	website.RejectionReason = ""
	website.ApprovedAt = &now
	metrics.ListingTransitions.WithLabelValues(string(event), string(to)).Inc()
	slog.Info("listing approved", "website_id", website.ID, "event", event, "note", reason, "price_cents", website.PriceCents)
	return website, nil
}

// Reject takes a listing off the marketplace with a reason shown to the publisher.
func (s *WebsiteService) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Website, error) {
	website, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.reject(ctx, website, EventReject, reason)
}

func (s *WebsiteService) reject(ctx context.Context, website *models.Website, event Event, reason string) (*models.Website, error) {
	to, err := Transition(website.Status, event)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		reason = DefaultRejectionReason
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":           to,
		"rejected_at":      now,
		"rejection_reason": reason,
	}
	if err := guardedUpdate(s.db.WithContext(ctx), website.ID, website.Status, website.AdminExtraPriceCents, updates); err != nil {
		return nil, err
	}

	website.Status = to
	website.RejectedAt = &now
	website.RejectionReason = reason
	metrics.ListingTransitions.WithLabelValues(string(event), string(to)).Inc()
	return website, nil
}

// Update applies a publisher's edit. Content changes send the listing back to
// review; toggling availability alone does not.
func (s *WebsiteService) Update(ctx context.Context, ownerID string, id uuid.UUID, req *dto.UpdateWebsiteRequest) (*models.Website, error) {
	website, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if website.UserID != ownerID {
		return nil, fmt.Errorf("%w: only the owner can edit this website", ErrForbidden)
	}

	from, readExtra := website.Status, website.AdminExtraPriceCents
	updates := map[string]any{}
	contentChanged := false
	set := func(column string, value any) {
		updates[column] = value
		contentChanged = true
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		website.Title = title
		set("title", title)
	}
	if req.Description != nil {
		website.Description = *req.Description
		set("description", *req.Description)
	}
	if req.Title != nil || req.Description != nil {
		if err := s.screener.screen(
			screenedField{"title", website.Title},
			screenedField{"description", website.Description},
		); err != nil {
			return nil, err
		}
	}
	urlMoved := false
	if req.URL != nil {
		normalized, err := NormalizeURL(*req.URL)
		if err != nil {
			return nil, err
		}
		if normalized != website.NormalizedURL {
			if from == models.WebsiteStatusPriceConflict {
				return nil, fmt.Errorf("%w: the URL cannot change while the listing is in a price conflict", ErrConflict)
			}
			urlMoved = true
		}
		website.URL = strings.TrimSpace(*req.URL)
		website.NormalizedURL = normalized
		set("url", website.URL)
		set("normalized_url", normalized)
	}

	cents, ok, err := resolveCents(req.Price, req.PriceCents)
	if err != nil {
		return nil, err
	}
	if ok {
		applyPublisherPrice(website, cents)
		set("original_price_cents", *website.OriginalPriceCents)
		set("price_cents", website.PriceCents)
		set("price", website.Price)
	}

	if req.DomainAuthority != nil {
		website.DomainAuthority = *req.DomainAuthority
		set("domain_authority", *req.DomainAuthority)
	}
	if req.PageAuthority != nil {
		website.PageAuthority = *req.PageAuthority
		set("page_authority", *req.PageAuthority)
	}
	if req.DomainRating != nil {
		website.DomainRating = *req.DomainRating
		set("domain_rating", *req.DomainRating)
	}
	if req.SpamScore != nil {
		website.SpamScore = *req.SpamScore
		set("spam_score", *req.SpamScore)
	}
	if req.OrganicTraffic != nil {
		website.OrganicTraffic = *req.OrganicTraffic
		set("organic_traffic", *req.OrganicTraffic)
	}
	if req.Category != nil {
		website.Category = *req.Category
		set("category", *req.Category)
	}
	if req.Language != nil {
		website.Language = *req.Language
		set("language", *req.Language)
	}
	if req.LinkType != nil {
		website.LinkType = *req.LinkType
		set("link_type", *req.LinkType)
	}
	if req.Countries != nil {
		website.Countries = datatypes.JSONSlice[string](*req.Countries)
		set("countries", website.Countries)
	}

	if req.Available != nil {
		website.Available = *req.Available
		updates["available"] = *req.Available
	}

	if len(updates) == 0 {
		return website, nil
	}
	if contentChanged {
		to, err := Transition(from, EventPublisherEdit)
		if err != nil {
			return nil, err
		}
		updates["status"] = to
		website.Status = to
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if urlMoved {
			group, err := claimURL(tx, ownerID, website.ID, website.NormalizedURL)
			if err != nil {
				return err
			}
			if group != "" {
				to, err := Transition(website.Status, EventFlagConflict)
				if err != nil {
					return err
				}
				updates["status"] = to
				updates["conflict_group"] = group
				updates["is_original"] = false
				website.Status = to
				website.ConflictGroup = &group
				website.IsOriginal = false
			}
		}
		return guardedUpdate(tx, website.ID, from, readExtra, updates)
	})
	if err != nil {
		return nil, err
	}
	if website.Status != from {
		event := EventPublisherEdit
		if website.Status == models.WebsiteStatusPriceConflict {
			event = EventFlagConflict
		}
		metrics.ListingTransitions.WithLabelValues(string(event), string(website.Status)).Inc()
	}
	return website, nil
}

// Delete removes a listing. Only its owner or a super-admin may do so, and
// not while purchases on it are still in progress.
func (s *WebsiteService) Delete(ctx context.Context, callerID string, callerRole Role, id uuid.UUID) error {
	website, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if website.UserID != callerID && callerRole != RoleSuperAdmin {
		return fmt.Errorf("%w: only the owner can delete this website", ErrForbidden)
	}

	db := s.db.WithContext(ctx)
	var open int64
	if err := db.Model(&models.Purchase{}).
		Where("website_id = ? AND status IN ?", id, openPurchaseStatuses).
		Count(&open).Error; err != nil {
		return fmt.Errorf("count open purchases: %w", err)
	}
	if open > 0 {
		return fmt.Errorf("%w: website has %d purchases in progress", ErrConflict, open)
	}

	if err := db.Delete(&models.Website{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete website: %w", err)
	}
	return nil
}

// guardedUpdate writes updates only if the row still has the status and
// markup it was read with.
func guardedUpdate(db *gorm.DB, id uuid.UUID, from models.WebsiteStatus, readExtra int64, updates map[string]any) error {
	result := db.Model(&models.Website{}).
		Where("id = ? AND status = ? AND admin_extra_price_cents = ?", id, from, readExtra).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("update website: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: website %s", ErrConcurrentUpdate, id)
	}
	return nil
}

// resolveCents picks the publisher price from either field, preferring cents.
func resolveCents(price *json.Number, priceCents *int64) (int64, bool, error) {
	if priceCents != nil {
		if *priceCents < 0 {
			return 0, false, fmt.Errorf("%w: price must not be negative", ErrValidation)
		}
		return *priceCents, true, nil
	}
	if price != nil && price.String() != "" {
		cents, err := DollarsToCents(*price)
		if err != nil {
			return 0, false, err
		}
		return cents, true, nil
	}
	return 0, false, nil
}

// NormalizeURL reduces a listing URL to lowercase host and path so the same
// site submitted with or without scheme, www. or trailing slash compares equal.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: url is required", ErrValidation)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" || !strings.Contains(u.Hostname(), ".") {
		return "", fmt.Errorf("%w: url is not a valid website address", ErrValidation)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.TrimRight(strings.ToLower(u.EscapedPath()), "/")
	return host + path, nil
}
