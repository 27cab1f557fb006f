package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumapress/panel-service/internal/authz"
	"github.com/lumapress/panel-service/internal/handler/middleware"
	"github.com/lumapress/panel-service/internal/service"
)

func SetupRoutes(
	app *fiber.App,
	registrationHandler *RegistrationHandler,
	authHandler *AuthHandler,
	accountHandler *AccountHandler,
	roleHandler *RoleHandler,
	planHandler *PlanHandler,
	healthHandler *HealthHandler,
	authzService *service.AuthzService,
	authMiddleware fiber.Handler,
	registrationMiddleware fiber.Handler,
) {
	// Health checks (public)
	app.Get("/health", healthHandler.Health)
	app.Get("/ready", healthHandler.Ready)

	// API v1
	api := app.Group("/api/v1")

	// Plan catalog (public, consumed by the plan-selection step)
	api.Get("/plans", planHandler.GetPlans)

	// Staged signup. The form is public; every later step presents the
	// registration token it returned.
	signup := api.Group("/signup")
	signup.Post("/", registrationHandler.Start)

	steps := signup.Group("", registrationMiddleware)
	steps.Get("/status", registrationHandler.Status)
	steps.Post("/otp", registrationHandler.IssueOTP)
	steps.Post("/otp/verify", registrationHandler.VerifyOTP)
	steps.Post("/account", registrationHandler.SetupAccount)
	steps.Post("/interview", registrationHandler.Interview)
	steps.Post("/plan", registrationHandler.SelectPlan)
	steps.Post("/payment", registrationHandler.ConfirmPayment)
	steps.Post("/finalize", registrationHandler.Finalize)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authMiddleware, authHandler.Logout)
	auth.Post("/password", authMiddleware, authHandler.ChangePassword)

	// Account-scoped routes, each guarded by its module permission
	accounts := api.Group("/accounts/:accountId", authMiddleware)
	accounts.Get("/",
		middleware.RequirePermission(authzService, authz.ModuleSettings, authz.CapabilityView),
		accountHandler.GetAccount)
	accounts.Get("/visibility", accountHandler.GetVisibility)
	accounts.Get("/members",
		middleware.RequirePermission(authzService, authz.ModuleMembers, authz.CapabilityView),
		accountHandler.GetMembers)
	accounts.Get("/subscription",
		middleware.RequirePermission(authzService, authz.ModuleBilling, authz.CapabilityView),
		accountHandler.GetSubscription)

	// Role management
	roles := accounts.Group("/roles")
	roles.Post("/",
		middleware.RequirePermission(authzService, authz.ModuleRoles, authz.CapabilityCreate),
		roleHandler.CreateRole)
	roles.Get("/",
		middleware.RequirePermission(authzService, authz.ModuleRoles, authz.CapabilityView),
		roleHandler.GetRoles)
	roles.Get("/:roleId",
		middleware.RequirePermission(authzService, authz.ModuleRoles, authz.CapabilityView),
		roleHandler.GetRole)
	roles.Put("/:roleId",
		middleware.RequirePermission(authzService, authz.ModuleRoles, authz.CapabilityEdit),
		roleHandler.UpdateRole)
	roles.Delete("/:roleId",
		middleware.RequirePermission(authzService, authz.ModuleRoles, authz.CapabilityDelete),
		roleHandler.DeleteRole)

	// Member role assignment
	accounts.Put("/members/:userId/role/:roleId",
		middleware.RequirePermission(authzService, authz.ModuleMembers, authz.CapabilityEdit),
		roleHandler.AssignRole)
}
