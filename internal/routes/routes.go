package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/linkfro/linkfro-backend/internal/config"
	"github.com/linkfro/linkfro-backend/internal/handlers"
	"github.com/linkfro/linkfro-backend/internal/metrics"
	"github.com/linkfro/linkfro-backend/internal/middleware"
	"github.com/linkfro/linkfro-backend/internal/services"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	Roles    *handlers.RoleHandler
	Websites *handlers.WebsiteHandler
	Conflict *handlers.ConflictHandler
	Purchase *handlers.PurchaseHandler
}

func Setup(app *fiber.App, cfg *config.Config, resolver middleware.RoleResolver, h Handlers) {
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)
	api.Get("/marketplace/websites", h.Websites.ListMarketplace)

	// Everything below needs a verified session and a resolved role.
	authed := []fiber.Handler{middleware.JWTProtected(cfg), middleware.ResolveRole(resolver)}

	api.Get("/me", append(authed, h.Roles.Me)...)

	websites := api.Group("/websites", authed...)
	websites.Get("/", h.Websites.ListMine)
	websites.Post("/", h.Websites.Create)
	websites.Get("/mine", h.Websites.ListMine)
	websites.Get("/:id", h.Websites.Get)
	websites.Patch("/:id", h.Websites.Update)
	websites.Delete("/:id", h.Websites.Delete)

	purchases := api.Group("/purchases", authed...)
	purchases.Post("/", h.Purchase.Create)
	purchases.Get("/mine", h.Purchase.ListMine)

	// Admin actions: stricter limit, 30 req/min per IP
	admin := api.Group("/admin", authed...)
	admin.Use(limiter.New(limiter.Config{
		Max:               30,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	moderators := middleware.RequireRoles(services.RoleSuperAdmin, services.RoleWebsites)
	admin.Get("/websites", moderators, h.Websites.ListForReview)
	admin.Post("/websites/:id/approve", moderators, h.Websites.Approve)
	admin.Post("/websites/:id/reject", moderators, h.Websites.Reject)
	admin.Get("/conflicts", moderators, h.Conflict.List)
	admin.Post("/conflicts/:group/resolve", moderators, h.Conflict.Resolve)

	contentManagers := middleware.RequireRoles(services.RoleSuperAdmin, services.RoleRequests)
	admin.Get("/purchases", contentManagers, h.Purchase.ListAll)
	admin.Put("/purchases/:id/status", contentManagers, h.Purchase.UpdateStatus)

	superAdmins := middleware.RequireRoles(services.RoleSuperAdmin)
	admin.Get("/roles", superAdmins, h.Roles.List)
	admin.Post("/roles", superAdmins, h.Roles.Create)
	admin.Patch("/roles/:id", superAdmins, h.Roles.SetActive)
	admin.Delete("/roles/:id", superAdmins, h.Roles.Delete)
	admin.Delete("/roles", superAdmins, h.Roles.DeleteByRole)
}
