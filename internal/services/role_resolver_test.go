package services

import (
	"context"
	"errors"
	"testing"

	"github.com/linkfro/linkfro-backend/internal/models"
	"github.com/linkfro/linkfro-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeEmails struct {
	byUser map[string]string
	err    error
	calls  int
}

func (f *fakeEmails) PrimaryEmail(_ context.Context, userID string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	email, ok := f.byUser[userID]
	if !ok {
		return "", errors.New("user not found")
	}
	return email, nil
}

func seedAssignment(t *testing.T, db *gorm.DB, email string, role models.AssignedRole, active bool) {
	t.Helper()
	a := models.RoleAssignment{Email: email, Role: role, Active: active}
	require.NoError(t, db.Create(&a).Error)
}

func TestRoleResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	cfg := RoleResolverConfig{
		SuperAdminUserIDs: []string{"user_root"},
		SuperAdminEmails:  []string{" Boss@Linkfro.com "},
	}

	t.Run("Should grant superadmin to allow-listed ids without any lookup", func(t *testing.T) {
		db := testutil.NewDB(t)
		emails := &fakeEmails{byUser: map[string]string{"user_root": "analyst@linkfro.com"}}
		seedAssignment(t, db, "analyst@linkfro.com", models.AssignedRoleWebsites, true)

		r := NewRoleResolver(db, emails, cfg)
		assert.Equal(t, RoleSuperAdmin, r.Resolve(ctx, "user_root"))
		assert.Equal(t, 0, emails.calls)
	})

	t.Run("Should grant superadmin to the configured email ignoring stored roles", func(t *testing.T) {
		db := testutil.NewDB(t)
		seedAssignment(t, db, "boss@linkfro.com", models.AssignedRoleRequests, true)
		emails := &fakeEmails{byUser: map[string]string{"user_boss": "BOSS@linkfro.com"}}

		r := NewRoleResolver(db, emails, cfg)
		assert.Equal(t, RoleSuperAdmin, r.Resolve(ctx, "user_boss"))
	})

	t.Run("Should map active assignments to roles", func(t *testing.T) {
		db := testutil.NewDB(t)
		seedAssignment(t, db, "super@linkfro.com", models.AssignedRoleSuper, true)
		seedAssignment(t, db, "sites@linkfro.com", models.AssignedRoleWebsites, true)
		seedAssignment(t, db, "reqs@linkfro.com", models.AssignedRoleRequests, true)
		emails := &fakeEmails{byUser: map[string]string{
			"u_super": "Super@Linkfro.com",
			"u_sites": "sites@linkfro.com",
			"u_reqs":  "reqs@linkfro.com",
			"u_buyer": "buyer@example.com",
		}}

		r := NewRoleResolver(db, emails, cfg)
		assert.Equal(t, RoleSuperAdmin, r.Resolve(ctx, "u_super"))
		assert.Equal(t, RoleWebsites, r.Resolve(ctx, "u_sites"))
		assert.Equal(t, RoleRequests, r.Resolve(ctx, "u_reqs"))
		assert.Equal(t, RoleConsumer, r.Resolve(ctx, "u_buyer"))
	})

	t.Run("Should not grant paused assignments", func(t *testing.T) {
		db := testutil.NewDB(t)
		seedAssignment(t, db, "paused@linkfro.com", models.AssignedRoleSuper, false)
		emails := &fakeEmails{byUser: map[string]string{"u_paused": "paused@linkfro.com"}}

		r := NewRoleResolver(db, emails, cfg)
		assert.Equal(t, RoleConsumer, r.Resolve(ctx, "u_paused"))
	})

	t.Run("Should degrade to consumer when the identity provider fails", func(t *testing.T) {
		db := testutil.NewDB(t)
		r := NewRoleResolver(db, &fakeEmails{err: errors.New("timeout")}, cfg)
		assert.Equal(t, RoleConsumer, r.Resolve(ctx, "u_any"))
	})

	t.Run("Should degrade to consumer without an identity provider or user", func(t *testing.T) {
		db := testutil.NewDB(t)
		r := NewRoleResolver(db, nil, cfg)
		assert.Equal(t, RoleConsumer, r.Resolve(ctx, "u_any"))
		assert.Equal(t, RoleConsumer, r.Resolve(ctx, ""))
	})

	t.Run("Should be read-only and repeatable", func(t *testing.T) {
		db := testutil.NewDB(t)
		seedAssignment(t, db, "sites@linkfro.com", models.AssignedRoleWebsites, true)
		emails := &fakeEmails{byUser: map[string]string{"u_sites": "sites@linkfro.com"}}
		r := NewRoleResolver(db, emails, cfg)

		assert.Equal(t, r.Resolve(ctx, "u_sites"), r.Resolve(ctx, "u_sites"))
		var count int64
		require.NoError(t, db.Model(&models.RoleAssignment{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}
