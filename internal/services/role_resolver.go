package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/linkfro/linkfro-backend/internal/metrics"
	"github.com/linkfro/linkfro-backend/internal/models"
	"gorm.io/gorm"
)

// Role is a caller's effective permission level.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleWebsites   Role = "websites"
	RoleRequests   Role = "requests"
	RoleConsumer   Role = "consumer"
)

// EmailLookup resolves a user id to its primary email via the identity provider.
type EmailLookup interface {
	PrimaryEmail(ctx context.Context, userID string) (string, error)
}

type RoleResolverConfig struct {
	SuperAdminUserIDs []string
	SuperAdminEmails  []string
}

// RoleResolver decides a caller's role from the static super-admin
// allow-lists first and the role_assignments table second.
type RoleResolver struct {
	db          *gorm.DB
	emails      EmailLookup
	superIDs    map[string]struct{}
	superEmails map[string]struct{}
}

func NewRoleResolver(db *gorm.DB, emails EmailLookup, cfg RoleResolverConfig) *RoleResolver {
	r := &RoleResolver{
		db:          db,
		emails:      emails,
		superIDs:    make(map[string]struct{}, len(cfg.SuperAdminUserIDs)),
		superEmails: make(map[string]struct{}, len(cfg.SuperAdminEmails)),
	}
	for _, id := range cfg.SuperAdminUserIDs {
		if id = strings.TrimSpace(id); id != "" {
			r.superIDs[id] = struct{}{}
		}
	}
	for _, email := range cfg.SuperAdminEmails {
		if email = NormalizeEmail(email); email != "" {
			r.superEmails[email] = struct{}{}
		}
	}
	return r
}

// Resolve never fails: any lookup error degrades to RoleConsumer.
func (r *RoleResolver) Resolve(ctx context.Context, userID string) Role {
	role := r.resolve(ctx, userID)
	metrics.RoleResolutions.WithLabelValues(string(role)).Inc()
	return role
}

func (r *RoleResolver) resolve(ctx context.Context, userID string) Role {
	if userID == "" {
		return RoleConsumer
	}
	if _, ok := r.superIDs[userID]; ok {
		return RoleSuperAdmin
	}

	email := r.lookupEmail(ctx, userID)
	if email == "" {
		return RoleConsumer
	}
	if _, ok := r.superEmails[email]; ok {
		return RoleSuperAdmin
	}

	var assignment models.RoleAssignment
	err := r.db.WithContext(ctx).
		Where("email = ? AND active = ?", email, true).
		First(&assignment).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Error("role assignment lookup failed", "user_id", userID, "error", err)
		}
		return RoleConsumer
	}

	switch assignment.Role {
	case models.AssignedRoleSuper:
		return RoleSuperAdmin
	case models.AssignedRoleWebsites:
		return RoleWebsites
	case models.AssignedRoleRequests:
		return RoleRequests
	}
	return RoleConsumer
}

func (r *RoleResolver) lookupEmail(ctx context.Context, userID string) string {
	if r.emails == nil {
		return ""
	}
	email, err := r.emails.PrimaryEmail(ctx, userID)
	if err != nil {
		metrics.IdentityLookupFailures.Inc()
		slog.Warn("identity lookup failed, degrading to consumer", "user_id", userID, "error", err)
		return ""
	}
	return NormalizeEmail(email)
}

// NormalizeEmail trims and lowercases an address for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
