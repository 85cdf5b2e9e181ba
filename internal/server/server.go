package server

import (
	"log"
	"path/filepath"
	"strings"

	"academic-auth-be/internal/bootstrap"
	"academic-auth-be/internal/config"
	"academic-auth-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// ClientRoutes are the paths the client application renders itself.
var ClientRoutes = []string{
	"/",
	"/document-upload",
	"/verification-results",
	"/institution-portal",
	"/student-dashboard",
	"/user-profile",
}

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	limit := cfg.App.BodyLimitMB
	if limit <= 0 {
		limit = 50
	}
	app := fiber.New(fiber.Config{
		BodyLimit:    limit * 1024 * 1024,
		ErrorHandler: serverutils.ErrorHandlerMiddleware,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))

	// traces all HTTP requests; a no-op unless a tracer provider is installed
	app.Use(otelfiber.Middleware())

	registerRoutes(app, container)
	RegisterClient(app, cfg.App.StaticDir)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.AuthController.RegisterRoutes(api)
	c.UserController.RegisterRoutes(api)

	c.SubmissionController.RegisterRoutes(api)
	c.VerificationController.RegisterRoutes(api)
	c.DashboardController.RegisterRoutes(api)
	c.InstitutionController.RegisterRoutes(api)

	c.NotificationHandler.RegisterRoutes(api)

	api.All("/*", func(ctx *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Route not found")
	})
}

// RegisterClient serves the client build. Known client paths render
// index.html; every other path that is not a static asset gets index.html
// with status 404 so the client shows its not-found page.
func RegisterClient(app *fiber.App, dir string) {
	index := filepath.Join(dir, "index.html")

	for _, path := range ClientRoutes {
		app.Get(path, func(ctx *fiber.Ctx) error {
			return ctx.SendFile(index)
		})
	}

	app.Static("/", dir)

	app.Use(func(ctx *fiber.Ctx) error {
		if strings.HasPrefix(ctx.Path(), "/api/") {
			return fiber.NewError(fiber.StatusNotFound, "Route not found")
		}
		return ctx.Status(fiber.StatusNotFound).SendFile(index)
	})
}
