package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/linkfro/linkfro-backend/internal/dto"
	"github.com/linkfro/linkfro-backend/internal/metrics"
	"github.com/linkfro/linkfro-backend/internal/models"
	"gorm.io/gorm"
)

var openPurchaseStatuses = []models.PurchaseStatus{
	models.PurchaseStatusPending,
	models.PurchaseStatusOngoing,
	models.PurchaseStatusPendingPayment,
}

type PurchaseService struct {
	db *gorm.DB
}

func NewPurchaseService(db *gorm.DB) *PurchaseService {
	return &PurchaseService{db: db}
}

// Create places an order on an approved, available listing at its current price.
func (s *PurchaseService) Create(ctx context.Context, buyerID string, req *dto.CreatePurchaseRequest) (*models.Purchase, error) {
	db := s.db.WithContext(ctx)

	var website models.Website
	if err := db.First(&website, "id = ?", req.WebsiteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: website", ErrNotFound)
		}
		return nil, fmt.Errorf("find website: %w", err)
	}
	if website.Status != models.WebsiteStatusApproved || !website.Available {
		return nil, fmt.Errorf("%w: website is not available for purchase", ErrValidation)
	}
	if website.UserID == buyerID {
		return nil, fmt.Errorf("%w: you cannot buy a placement on your own website", ErrValidation)
	}

	purchase := models.Purchase{
		BuyerID:     buyerID,
		WebsiteID:   website.ID,
		AmountCents: website.PriceCents,
		ContentURL:  strings.TrimSpace(req.ContentURL),
		Notes:       req.Notes,
		Status:      models.PurchaseStatusPending,
	}
	if err := db.Create(&purchase).Error; err != nil {
		return nil, fmt.Errorf("create purchase: %w", err)
	}
	metrics.PurchaseTransitions.WithLabelValues(string(purchase.Status)).Inc()
	return &purchase, nil
}

func (s *PurchaseService) ListMine(ctx context.Context, buyerID string) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := s.db.WithContext(ctx).Where("buyer_id = ?", buyerID).Order("created_at DESC").Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return purchases, nil
}

func (s *PurchaseService) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Purchase, int64, error) {
	var purchases []models.Purchase
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Purchase{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count purchases: %w", err)
	}
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&purchases).Error; err != nil {
		return nil, 0, fmt.Errorf("list purchases: %w", err)
	}
	return purchases, total, nil
}

// UpdateStatus moves a purchase along its workflow.
func (s *PurchaseService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PurchaseStatus, reason string) (*models.Purchase, error) {
	db := s.db.WithContext(ctx)

	var purchase models.Purchase
	if err := db.First(&purchase, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: purchase", ErrNotFound)
		}
		return nil, fmt.Errorf("find purchase: %w", err)
	}
	if !CanTransitionPurchase(purchase.Status, status) {
		return nil, fmt.Errorf("%w: cannot move purchase from %s to %s", ErrInvalidTransition, purchase.Status, status)
	}

	updates := map[string]any{"status": status}
	if status == models.PurchaseStatusRejected {
		if strings.TrimSpace(reason) == "" {
			reason = "The publisher could not fulfil this request"
		}
		updates["rejection_reason"] = reason
		purchase.RejectionReason = reason
	}

	result := db.Model(&models.Purchase{}).Where("id = ? AND status = ?", id, purchase.Status).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("update purchase: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: purchase %s", ErrConcurrentUpdate, id)
	}

	purchase.Status = status
	metrics.PurchaseTransitions.WithLabelValues(string(status)).Inc()
	return &purchase, nil
}
