package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/kpi-tracker/docs"
	"github.com/jhoicas/kpi-tracker/internal/application/auth"
	"github.com/jhoicas/kpi-tracker/internal/application/usecase"
	infrapdf "github.com/jhoicas/kpi-tracker/internal/infrastructure/pdf"
	"github.com/jhoicas/kpi-tracker/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/kpi-tracker/internal/interfaces/http"
	"github.com/jhoicas/kpi-tracker/pkg/config"
	"github.com/jhoicas/kpi-tracker/pkg/logger"
)

// @title           KPI Tracker API
// @version         1.0
// @description     KPIs, reportes y usuarios con control de acceso por rol.
// @BasePath        /
// @securityDefinitions.apikey Bearer
// @in              header
// @name            Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.Migrations.Enabled {
		applied, err := postgres.RunMigrations(cfg.DB.ConnectionString(), cfg.Migrations.Path)
		if err != nil {
			log.Fatal().Err(err).Str("source", cfg.Migrations.Path).Msg("migraciones")
		}
		log.Info().Bool("applied", applied).Msg("migraciones al día")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	kpiRepo := postgres.NewKpiRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	pdfGenerator := infrapdf.NewMarotoPDFGenerator()

	kpiUC := usecase.NewKpiUseCase(kpiRepo, txRunner, log)
	reportUC := usecase.NewReportUseCase(reportRepo, userRepo, txRunner, pdfGenerator, log)
	userUC := usecase.NewUserUseCase(userRepo, log)
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log).WithSelfAssignedRoles(cfg.Register.AllowSelfAssignedRoles)
	if cfg.Register.AllowSelfAssignedRoles {
		log.Warn().Msg("registro público con roles propios habilitado")
	}

	authLimiter, err := httpRouter.NewMemoryLimiter(cfg.RateLimit.Auth)
	if err != nil {
		log.Fatal().Err(err).Str("rate", cfg.RateLimit.Auth).Msg("AUTH_RATE_LIMIT inválido")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Named("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath:    "/",
		FileContent: docs.SwaggerJSON(),
		Path:        "docs",
		Title:       "KPI Tracker API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		Resolver:    auth.NewIdentityResolver(cfg.JWT.Secret),
		KpiUC:       kpiUC,
		ReportUC:    reportUC,
		UserUC:      userUC,
		AuthLimiter: authLimiter,
		Log:         log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
