package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/linkfro/linkfro-backend/internal/models"
	"github.com/linkfro/linkfro-backend/internal/validation"
	"gorm.io/gorm"
)

// RoleService manages the role_assignments table.
type RoleService struct {
	db *gorm.DB
}

func NewRoleService(db *gorm.DB) *RoleService {
	return &RoleService{db: db}
}

func (s *RoleService) List(ctx context.Context) ([]models.RoleAssignment, error) {
	var assignments []models.RoleAssignment
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}
	return assignments, nil
}

// Create assigns role to email. Re-creating an existing pair reactivates it,
// and a singleton role is handed over to the new email instead of duplicated.
func (s *RoleService) Create(ctx context.Context, email string, role models.AssignedRole) (*models.RoleAssignment, error) {
	email = NormalizeEmail(email)
	if err := validation.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role must be one of websites, requests, super", ErrValidation)
	}

	db := s.db.WithContext(ctx)

	var existing models.RoleAssignment
	err := db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		if existing.Role != role {
			return nil, fmt.Errorf("%w: %s already has the %s role", ErrConflict, email, existing.Role)
		}
		if !existing.Active {
			if err := db.Model(&existing).Update("active", true).Error; err != nil {
				return nil, fmt.Errorf("reactivate role assignment: %w", err)
			}
			existing.Active = true
		}
		return &existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("find role assignment: %w", err)
	}

	if role.Singleton() {
		var current models.RoleAssignment
		err := db.Where("role = ?", role).Order("created_at ASC").First(&current).Error
		if err == nil {
			if err := db.Model(&current).Updates(map[string]any{"email": email, "active": true}).Error; err != nil {
				return nil, fmt.Errorf("reassign %s role: %w", role, err)
			}
			current.Email = email
			current.Active = true
			return &current, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("find %s assignment: %w", role, err)
		}
	}

	assignment := models.RoleAssignment{Email: email, Role: role, Active: true}
	if err := db.Create(&assignment).Error; err != nil {
		return nil, fmt.Errorf("create role assignment: %w", err)
	}
	return &assignment, nil
}

// SetActive pauses or resumes an assignment without deleting it.
func (s *RoleService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.RoleAssignment, error) {
	db := s.db.WithContext(ctx)
	var assignment models.RoleAssignment
	if err := db.First(&assignment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: role assignment", ErrNotFound)
		}
		return nil, fmt.Errorf("find role assignment: %w", err)
	}
	if err := db.Model(&assignment).Update("active", active).Error; err != nil {
		return nil, fmt.Errorf("update role assignment: %w", err)
	}
	assignment.Active = active
	return &assignment, nil
}

func (s *RoleService) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.RoleAssignment{})
	if result.Error != nil {
		return fmt.Errorf("delete role assignment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: role assignment", ErrNotFound)
	}
	return nil
}

// DeleteByRole removes the oldest assignment holding role. Only one row is
// removed even for the multi-holder super role.
func (s *RoleService) DeleteByRole(ctx context.Context, role models.AssignedRole) (*models.RoleAssignment, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role must be one of websites, requests, super", ErrValidation)
	}
	db := s.db.WithContext(ctx)
	var assignment models.RoleAssignment
	if err := db.Where("role = ?", role).Order("created_at ASC").First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no %s assignment", ErrNotFound, role)
		}
		return nil, fmt.Errorf("find %s assignment: %w", role, err)
	}
	if err := db.Delete(&assignment).Error; err != nil {
		return nil, fmt.Errorf("delete role assignment: %w", err)
	}
	return &assignment, nil
}
