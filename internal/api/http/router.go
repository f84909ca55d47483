package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gift-portal/internal/api/http/handlers"
	"github.com/spec-kit/gift-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health           *handlers.HealthHandler
	Auth             *handlers.AuthHandler
	Pages            *handlers.PagesHandler
	Submissions      *handlers.SubmissionsHandler
	AdminSubmissions *handlers.AdminSubmissionsHandler
	Gate             *auth.RouteGate
}

// RegisterRoutes wires HTTP routes behind the route gate.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Gate.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Get(auth.UserHomePath, cfg.Pages.Home)
	app.Get("/my-submissions", cfg.Pages.MySubmissions)
	app.Get(auth.AccessDeniedPath, cfg.Pages.AccessDenied)
	app.Get(auth.AdminLoginPath, cfg.Pages.AdminLogin)
	app.Get(auth.AdminDashboardPath, cfg.Pages.AdminDashboard)
	app.Get(auth.AdminAccessDeniedPath, cfg.Pages.AdminAccessDenied)

	api := app.Group("/api")
	api.Post("/auth/login", cfg.Auth.Login)
	api.Post("/auth/logout", cfg.Auth.Logout)
	api.Post("/user/login", cfg.Auth.UserLogin)
	api.Post("/admin/login", cfg.Auth.AdminLogin)
	api.Post("/admin/authenticate", cfg.Auth.AdminAuthenticate)
	api.Get("/exchange-token", cfg.Auth.Exchange)
	api.Get("/session", cfg.Auth.Session)
	api.Get("/admin/session", cfg.Auth.AdminSession)

	anyCaller := auth.RequireAnyKind(auth.PrincipalUser, auth.PrincipalAdmin, auth.PrincipalService)
	api.Get("/submissions", anyCaller, cfg.Submissions.List)
	api.Post("/submissions", auth.RequireUser(), cfg.Submissions.Create)
	api.Put("/submissions/:id", auth.RequireUser(), cfg.Submissions.Update)
	api.Delete("/submissions/:id", auth.RequireUser(), cfg.Submissions.Delete)

	adminOrService := auth.RequireAnyKind(auth.PrincipalAdmin, auth.PrincipalService)
	api.Get("/admin/submissions", adminOrService, cfg.AdminSubmissions.List)
	api.Get("/admin/submissions/stats", adminOrService, cfg.AdminSubmissions.Stats)
	api.Get("/admin/submissions/:id/history", adminOrService, cfg.AdminSubmissions.History)
	api.Patch("/admin/submissions/:id", auth.RequireAdmin(), cfg.AdminSubmissions.UpdateStatus)
}
