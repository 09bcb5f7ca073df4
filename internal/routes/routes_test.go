package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/linkfro/linkfro-backend/internal/config"
	"github.com/linkfro/linkfro-backend/internal/handlers"
	"github.com/linkfro/linkfro-backend/internal/locker"
	"github.com/linkfro/linkfro-backend/internal/services"
	"github.com/linkfro/linkfro-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type staticEmails map[string]string

func (s staticEmails) PrimaryEmail(_ context.Context, userID string) (string, error) {
	if email, ok := s[userID]; ok {
		return email, nil
	}
	return "", errors.New("user not found")
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{AuthJWTSecret: testSecret}

	resolver := services.NewRoleResolver(db, staticEmails{
		"mod_1":   "mod@linkfro.com",
		"req_1":   "requests@linkfro.com",
		"buyer_1": "buyer@example.com",
	}, services.RoleResolverConfig{SuperAdminUserIDs: []string{"admin_1"}})
	websites := services.NewWebsiteService(db, services.NewContentScreener(services.BannedWords))

	app := fiber.New()
	Setup(app, cfg, resolver, Handlers{
		Health:   handlers.NewHealthHandler(func() error { return nil }),
		Roles:    handlers.NewRoleHandler(services.NewRoleService(db)),
		Websites: handlers.NewWebsiteHandler(websites),
		Conflict: handlers.NewConflictHandler(services.NewConflictService(db, websites, locker.NewLocalLocker())),
		Purchase: handlers.NewPurchaseHandler(services.NewPurchaseService(db)),
	})
	return app
}

func token(t *testing.T, sub string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func call(t *testing.T, app *fiber.App, method, path, sub string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sub != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, sub))
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestPublicRoutes(t *testing.T) {
	app := newTestApp(t)

	t.Run("Should report health without a token", func(t *testing.T) {
		status, body := call(t, app, http.MethodGet, "/api/health", "", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok", body["db"])
	})

	t.Run("Should expose prometheus metrics", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(raw), "go_goroutines")
	})

	t.Run("Should refuse protected routes without a valid token", func(t *testing.T) {
		status, body := call(t, app, http.MethodGet, "/api/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, true, body["error"])

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRoleAdministration(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, http.MethodGet, "/api/me", "mod_1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "consumer", body["role"])

	status, _ = call(t, app, http.MethodPost, "/api/admin/roles", "mod_1", map[string]string{"email": "mod@linkfro.com", "role": "websites"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = call(t, app, http.MethodPost, "/api/admin/roles", "admin_1", map[string]string{"email": "Mod@Linkfro.com", "role": "websites"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "mod@linkfro.com", body["email"])
	assignmentID := body["id"].(string)

	_, body = call(t, app, http.MethodGet, "/api/me", "mod_1", nil)
	assert.Equal(t, "websites", body["role"])

	status, body = call(t, app, http.MethodPost, "/api/admin/roles", "admin_1", map[string]string{"email": "mod@linkfro.com", "role": "requests"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["message"], "already has")

	status, _ = call(t, app, http.MethodPost, "/api/admin/roles", "admin_1", map[string]string{"email": "x@linkfro.com", "role": "owner"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = call(t, app, http.MethodPatch, "/api/admin/roles/"+assignmentID, "admin_1", map[string]bool{"active": false})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["active"])
	_, body = call(t, app, http.MethodGet, "/api/me", "mod_1", nil)
	assert.Equal(t, "consumer", body["role"])

	status, _ = call(t, app, http.MethodDelete, "/api/admin/roles?role=websites", "admin_1", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodDelete, "/api/admin/roles?role=websites", "admin_1", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, app, http.MethodDelete, "/api/admin/roles/not-a-uuid", "admin_1", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListingModeration(t *testing.T) {
	app := newTestApp(t)
	status, _ := call(t, app, http.MethodPost, "/api/admin/roles", "admin_1", map[string]string{"email": "mod@linkfro.com", "role": "websites"})
	require.Equal(t, http.StatusCreated, status)

	status, body := call(t, app, http.MethodPost, "/api/websites", "pub_1", map[string]any{
		"url": "example.com", "title": "Example", "price": 10, "countries": "US,CA",
	})
	require.Equal(t, http.StatusCreated, status)
	id := body["id"].(string)
	assert.Equal(t, "pending", body["status"])

	status, _ = call(t, app, http.MethodPost, "/api/websites", "pub_1", map[string]any{"url": "example.com", "price": 10})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, app, http.MethodGet, "/api/websites/"+id, "buyer_1", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, app, http.MethodPost, "/api/admin/websites/"+id+"/approve", "pub_1", map[string]any{})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = call(t, app, http.MethodPost, "/api/admin/websites/"+id+"/approve", "mod_1", map[string]any{"extra_price_cents": 300})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "approved", body["status"])
	assert.EqualValues(t, 1300, body["price_cents"])

	t.Run("Should ignore admin pricing sent by the publisher", func(t *testing.T) {
		status, body := call(t, app, http.MethodPatch, "/api/websites/"+id, "pub_1", map[string]any{
			"available": false, "admin_extra_price_cents": 999, "original_price_cents": 1,
		})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "approved", body["status"])
		assert.EqualValues(t, 300, body["admin_extra_price_cents"])
		assert.EqualValues(t, 1000, body["original_price_cents"])
		assert.Equal(t, false, body["available"])
	})

	t.Run("Should only let the owner edit", func(t *testing.T) {
		status, _ := call(t, app, http.MethodPatch, "/api/websites/"+id, "buyer_1", map[string]any{"title": "mine now"})
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("Should list rejected listings for review", func(t *testing.T) {
		status, _ := call(t, app, http.MethodPost, "/api/admin/websites/"+id+"/reject", "mod_1", map[string]any{"reason": "spam"})
		require.Equal(t, http.StatusOK, status)
		status, body := call(t, app, http.MethodGet, "/api/admin/websites?status=rejected", "mod_1", nil)
		require.Equal(t, http.StatusOK, status)
		assert.EqualValues(t, 1, body["total"])
	})

	status, _ = call(t, app, http.MethodPost, "/api/admin/websites/00000000-0000-0000-0000-000000000001/approve", "mod_1", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestConflictResolution(t *testing.T) {
	app := newTestApp(t)

	_, a := call(t, app, http.MethodPost, "/api/websites", "pub_a", map[string]any{"url": "https://example.com", "title": "A", "price": "10.00"})
	_, b := call(t, app, http.MethodPost, "/api/websites", "pub_b", map[string]any{"url": "www.example.com/", "title": "B", "price": "12.00"})
	require.Equal(t, "priceConflict", b["status"])

	status, _ := call(t, app, http.MethodPost, "/api/admin/websites/"+a["id"].(string)+"/approve", "admin_1", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, body := call(t, app, http.MethodGet, "/api/admin/conflicts", "admin_1", nil)
	require.Equal(t, http.StatusOK, status)
	conflicts := body["conflicts"].([]any)
	require.Len(t, conflicts, 1)
	group := conflicts[0].(map[string]any)
	assert.EqualValues(t, 10, group["original_price"])
	assert.EqualValues(t, 12, group["new_price"])
	groupID := group["conflict_group"].(string)

	status, _ = call(t, app, http.MethodPost, "/api/admin/conflicts/"+groupID+"/resolve", "admin_1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = call(t, app, http.MethodPost, "/api/admin/conflicts/"+groupID+"/resolve", "admin_1", map[string]any{
		"selected_id": b["id"], "extra_price_cents": 200,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, b["id"], body["approved"])
	assert.Equal(t, []any{a["id"]}, body["rejected"])

	_, body = call(t, app, http.MethodGet, "/api/marketplace/websites", "", nil)
	listed := body["websites"].([]any)
	require.Len(t, listed, 1)
	winner := listed[0].(map[string]any)
	assert.EqualValues(t, 1400, winner["price_cents"])
	assert.EqualValues(t, 1200, winner["original_price_cents"])
	assert.EqualValues(t, 14, winner["price"])

	status, _ = call(t, app, http.MethodPost, "/api/websites", "pub_c", map[string]any{"url": "example.com", "title": "C", "price": "9.00"})
	assert.Equal(t, http.StatusBadRequest, status)
	_, body = call(t, app, http.MethodGet, "/api/marketplace/websites", "", nil)
	listed = body["websites"].([]any)
	require.Len(t, listed, 1)
	assert.Equal(t, "approved", listed[0].(map[string]any)["status"])
}

func TestPurchaseFlow(t *testing.T) {
	app := newTestApp(t)
	status, _ := call(t, app, http.MethodPost, "/api/admin/roles", "admin_1", map[string]string{"email": "requests@linkfro.com", "role": "requests"})
	require.Equal(t, http.StatusCreated, status)

	_, w := call(t, app, http.MethodPost, "/api/websites", "pub_1", map[string]any{"url": "example.com", "title": "Example", "price_cents": 2500})
	status, _ = call(t, app, http.MethodPost, "/api/purchases", "buyer_1", map[string]any{"website_id": w["id"]})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, app, http.MethodPost, "/api/admin/websites/"+w["id"].(string)+"/approve", "admin_1", nil)
	require.Equal(t, http.StatusOK, status)

	status, p := call(t, app, http.MethodPost, "/api/purchases", "buyer_1", map[string]any{"website_id": w["id"], "content_url": "https://blog.example.org/post"})
	require.Equal(t, http.StatusCreated, status)
	assert.EqualValues(t, 2500, p["amount_cents"])
	path := "/api/admin/purchases/" + p["id"].(string) + "/status"

	status, _ = call(t, app, http.MethodPut, path, "mod_1", map[string]any{"status": "ongoing"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body := call(t, app, http.MethodPut, path, "req_1", map[string]any{"status": "ongoing"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ongoing", body["status"])

	status, _ = call(t, app, http.MethodPut, path, "req_1", map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = call(t, app, http.MethodPut, path, "req_1", map[string]any{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, status)

	_, body = call(t, app, http.MethodGet, "/api/purchases/mine", "buyer_1", nil)
	assert.Len(t, body["purchases"], 1)

	status, _ = call(t, app, http.MethodDelete, "/api/websites/"+w["id"].(string), "pub_1", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
