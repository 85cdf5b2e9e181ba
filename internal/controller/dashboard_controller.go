package controller

import (
	"academic-auth-be/internal/pkg/serverutils"
	"academic-auth-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDashboardController interface {
	RegisterRoutes(r fiber.Router)
	Overview(ctx *fiber.Ctx) error
}

type dashboardController struct {
	service   service.IDashboardService
	jwtSecret string
}

func NewDashboardController(service service.IDashboardService, jwtSecret string) IDashboardController {
	return &dashboardController{service: service, jwtSecret: jwtSecret}
}

func (c *dashboardController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/dashboard")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get("", c.Overview)
}

func (c *dashboardController) Overview(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	res, err := c.service.Overview(ctx.UserContext(), userId)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Dashboard", res))
}
