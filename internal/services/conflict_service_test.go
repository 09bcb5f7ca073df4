package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linkfro/linkfro-backend/internal/locker"
	"github.com/linkfro/linkfro-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newConflictService(t *testing.T) (*ConflictService, *WebsiteService, *locker.LocalLocker, *gorm.DB) {
	t.Helper()
	websites, db := newWebsiteService(t)
	locks := locker.NewLocalLocker()
	return NewConflictService(db, websites, locks), websites, locks, db
}

func seedConflict(t *testing.T, db *gorm.DB, group, owner string, cents int64, original bool, createdAt time.Time) models.Website {
	t.Helper()
	w := models.Website{
		UserID:        owner,
		URL:           "example.com",
		NormalizedURL: "example.com",
		Title:         "Listing by " + owner,
		PriceCents:    cents,
		Price:         CentsToDollars(cents),
		Status:        models.WebsiteStatusPriceConflict,
		ConflictGroup: &group,
		IsOriginal:    original,
		Available:     true,
		CreatedAt:     createdAt,
	}
	require.NoError(t, db.Create(&w).Error)
	return w
}

func TestConflictService_ResolveConflict(t *testing.T) {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	t.Run("Should approve the selected listing with markup and reject the original", func(t *testing.T) {
		svc, _, _, db := newConflictService(t)
		a := seedConflict(t, db, "g1", "pub_a", 1000, true, base)
		b := seedConflict(t, db, "g1", "pub_b", 1200, false, base.Add(time.Minute))

		res, err := svc.ResolveConflict(ctx, "g1", b.ID, "", ptr[int64](200))
		require.NoError(t, err)
		assert.Equal(t, b.ID, res.Approved)
		assert.Equal(t, []uuid.UUID{a.ID}, res.Rejected)
		assert.Empty(t, res.Failed)

		winner := reload(t, db, b.ID)
		assert.Equal(t, models.WebsiteStatusApproved, winner.Status)
		require.NotNil(t, winner.OriginalPriceCents)
		assert.Equal(t, int64(1200), *winner.OriginalPriceCents)
		assert.Equal(t, int64(200), winner.AdminExtraPriceCents)
		assert.Equal(t, int64(1400), winner.PriceCents)
		assert.Equal(t, 14.0, winner.Price)

		loser := reload(t, db, a.ID)
		assert.Equal(t, models.WebsiteStatusRejected, loser.Status)
		assert.Equal(t, DefaultRejectionReason, loser.RejectionReason)
	})

	t.Run("Should leave exactly one approved listing per group", func(t *testing.T) {
		svc, _, _, db := newConflictService(t)
		var ids []uuid.UUID
		for i := 0; i < 5; i++ {
			w := seedConflict(t, db, "g2", uuid.NewString(), int64(1000+i), i == 0, base.Add(time.Duration(i)*time.Minute))
			ids = append(ids, w.ID)
		}
		other := seedConflict(t, db, "other", "pub_x", 500, true, base)

		res, err := svc.ResolveConflict(ctx, "g2", ids[2], "duplicate listing", nil)
		require.NoError(t, err)
		assert.Len(t, res.Rejected, 4)

		var approved, rejected int64
		db.Model(&models.Website{}).Where("conflict_group = ? AND status = ?", "g2", models.WebsiteStatusApproved).Count(&approved)
		db.Model(&models.Website{}).Where("conflict_group = ? AND status = ?", "g2", models.WebsiteStatusRejected).Count(&rejected)
		assert.Equal(t, int64(1), approved)
		assert.Equal(t, int64(4), rejected)
		assert.Equal(t, "duplicate listing", reload(t, db, ids[0]).RejectionReason)

		assert.Equal(t, models.WebsiteStatusPriceConflict, reload(t, db, other.ID).Status)
		winner := reload(t, db, ids[2])
		assert.Equal(t, int64(1002), winner.PriceCents)
		assert.Nil(t, winner.OriginalPriceCents)
	})

	t.Run("Should resolve groups flagged on creation", func(t *testing.T) {
		svc, websites, _, db := newConflictService(t)
		a := createListing(t, websites, "pub_a", "example.com", "10.00")
		b := createListing(t, websites, "pub_b", "example.com/", "12.00")
		group := *reload(t, db, b.ID).ConflictGroup

		_, err := svc.ResolveConflict(ctx, group, a.ID, "", nil)
		require.NoError(t, err)
		assert.Equal(t, models.WebsiteStatusApproved, reload(t, db, a.ID).Status)
		assert.Equal(t, models.WebsiteStatusRejected, reload(t, db, b.ID).Status)

		groups, err := svc.ListConflicts(ctx)
		require.NoError(t, err)
		assert.Empty(t, groups)
	})

	t.Run("Should report unknown groups and outsiders as not found", func(t *testing.T) {
		svc, _, _, db := newConflictService(t)
		seedConflict(t, db, "g3", "pub_a", 1000, true, base)
		outsider := seedConflict(t, db, "g4", "pub_b", 1000, true, base)

		_, err := svc.ResolveConflict(ctx, "missing", outsider.ID, "", nil)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = svc.ResolveConflict(ctx, "g3", outsider.ID, "", nil)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, models.WebsiteStatusPriceConflict, reload(t, db, outsider.ID).Status)
	})

	t.Run("Should refuse a second resolution while one is running", func(t *testing.T) {
		svc, _, locks, db := newConflictService(t)
		a := seedConflict(t, db, "g5", "pub_a", 1000, true, base)
		seedConflict(t, db, "g5", "pub_b", 1100, false, base.Add(time.Minute))

		release, err := locks.TryLock(ctx, "conflict:g5", time.Minute)
		require.NoError(t, err)

		_, err = svc.ResolveConflict(ctx, "g5", a.ID, "", nil)
		assert.ErrorIs(t, err, ErrConflict)

		release()
		_, err = svc.ResolveConflict(ctx, "g5", a.ID, "", nil)
		require.NoError(t, err)
	})

	t.Run("Should reject negative markup before touching anything", func(t *testing.T) {
		svc, _, _, db := newConflictService(t)
		a := seedConflict(t, db, "g6", "pub_a", 1000, true, base)
		_, err := svc.ResolveConflict(ctx, "g6", a.ID, "", ptr[int64](-100))
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, models.WebsiteStatusPriceConflict, reload(t, db, a.ID).Status)
	})
}

func TestConflictService_ListConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _, _, db := newConflictService(t)
	base := time.Now().Add(-time.Hour)

	newer := seedConflict(t, db, "g1", "pub_c", 1500, false, base.Add(2*time.Minute))
	original := seedConflict(t, db, "g1", "pub_a", 1000, true, base.Add(time.Minute))
	second := seedConflict(t, db, "g1", "pub_b", 1200, false, base)
	seedConflict(t, db, "g2", "pub_d", 700, true, base.Add(3*time.Minute))

	groups, err := svc.ListConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	g1 := groups[0]
	assert.Equal(t, "g1", g1.Group)
	require.Len(t, g1.Listings, 3)
	assert.Equal(t, original.ID, g1.Listings[0].ID)
	assert.Equal(t, second.ID, g1.Listings[1].ID)
	assert.Equal(t, newer.ID, g1.Listings[2].ID)
	require.NotNil(t, g1.OriginalPrice)
	require.NotNil(t, g1.NewPrice)
	assert.Equal(t, 10.0, *g1.OriginalPrice)
	assert.Equal(t, 12.0, *g1.NewPrice)

	g2 := groups[1]
	assert.Equal(t, "g2", g2.Group)
	assert.Nil(t, g2.NewPrice)
}
