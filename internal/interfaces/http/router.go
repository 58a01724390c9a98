package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ulule/limiter/v3"

	"github.com/jhoicas/kpi-tracker/internal/application/auth"
	"github.com/jhoicas/kpi-tracker/internal/application/usecase"
	"github.com/jhoicas/kpi-tracker/internal/domain/policy"
	"github.com/jhoicas/kpi-tracker/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	Resolver    *auth.IdentityResolver
	KpiUC       *usecase.KpiUseCase
	ReportUC    *usecase.ReportUseCase
	UserUC      *usecase.UserUseCase
	AuthLimiter *limiter.Limiter // nil = sin límite
	Log         *logger.Logger
}

// Router registra las rutas de la API.
// Las rutas estáticas van antes que las de parámetro (/kpis/active antes de /kpis/:id).
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api")

	// Auth (público, con rate limit)
	authGroup := api.Group("/auth")
	if deps.AuthLimiter != nil {
		authGroup.Use(RateLimit(deps.AuthLimiter, log.Named("ratelimit")))
	}
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.Resolver))
	can := func(op policy.Operation) fiber.Handler {
		return RequireRole(policy.RolesFor(op)...)
	}

	// KPIs
	kpis := protected.Group("/kpis")
	kpiHandler := NewKpiHandler(deps.KpiUC)
	kpis.Get("/", can(policy.OpListKpis), kpiHandler.List)
	kpis.Get("/active", can(policy.OpListKpis), kpiHandler.ListActive)
	kpis.Get("/exceeding-threshold", can(policy.OpListKpis), kpiHandler.ListExceedingThreshold)
	kpis.Get("/by-name-prefix/:prefix", can(policy.OpListKpis), kpiHandler.ListByNamePrefix)
	kpis.Get("/filter", can(policy.OpListKpis), kpiHandler.Filter)
	kpis.Get("/my-using", can(policy.OpViewKpi), kpiHandler.ListMine)
	kpis.Get("/user/:userId", can(policy.OpViewKpi), kpiHandler.FindByUserID)
	kpis.Get("/:id", can(policy.OpViewKpi), kpiHandler.GetByID)
	kpis.Post("/", can(policy.OpCreateKpi), kpiHandler.Create)
	kpis.Put("/:id/activate", can(policy.OpChangeKpiState), kpiHandler.Activate)
	kpis.Put("/:id/deactivate", can(policy.OpChangeKpiState), kpiHandler.Deactivate)
	kpis.Put("/:id", can(policy.OpUpdateKpi), kpiHandler.Update)
	kpis.Delete("/:id", can(policy.OpDeleteKpi), kpiHandler.Delete)

	// Reports
	reports := protected.Group("/reports")
	reportHandler := NewReportHandler(deps.ReportUC)
	reports.Get("/recent", can(policy.OpListReports), reportHandler.ListRecent)
	reports.Get("/by-role", can(policy.OpListReports), reportHandler.ListByRole)
	reports.Get("/my-report", can(policy.OpListOwnReports), reportHandler.ListMine)
	reports.Put("/add-kpi", can(policy.OpModifyReport), reportHandler.AddKpi)
	reports.Put("/remove-kpi", can(policy.OpModifyReport), reportHandler.RemoveKpi)
	reports.Post("/", can(policy.OpCreateReport), reportHandler.Create)
	reports.Get("/:id/pdf", can(policy.OpExportReport), reportHandler.ExportPDF)
	reports.Get("/:id", can(policy.OpViewReport), reportHandler.GetByID)
	reports.Delete("/:id", can(policy.OpDeleteReport), reportHandler.Delete)

	// Users
	users := protected.Group("/users")
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/profile", can(policy.OpViewProfile), userHandler.Profile)
	users.Get("/", can(policy.OpManageUsers), userHandler.List)
	users.Post("/", can(policy.OpManageUsers), userHandler.Create)
	users.Get("/:id", can(policy.OpManageUsers), userHandler.GetByID)
	users.Put("/:id", can(policy.OpManageUsers), userHandler.Update)
	users.Delete("/:id", can(policy.OpManageUsers), userHandler.Delete)

	// Roles
	roles := protected.Group("/roles")
	roles.Put("/add-role/:userId", can(policy.OpManageRoles), userHandler.AddRole)
	roles.Put("/remove-role/:userId", can(policy.OpManageRoles), userHandler.RemoveRole)
}
