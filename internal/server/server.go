// Package server exposes the summarize and transcribe runs over HTTP for the
// browser client.
package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-brief/internal/config"
	"github.com/Nephrolytics-ai/polyglot-brief/internal/service"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/logging"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app *fiber.App
	cfg *config.Config
}

func New(cfg *config.Config, svc service.Service) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.Server.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Server.CORSOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, OPTIONS",
	}))

	app.Use(func(ctx *fiber.Ctx) error {
		ctx.SetUserContext(logging.WithFields(ctx.UserContext(), map[string]any{
			"method": ctx.Method(),
			"route":  ctx.Path(),
		}))
		return ctx.Next()
	})

	api := app.Group("/api")
	api.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(successResponse("ok", nil))
	})
	NewBriefController(svc).RegisterRoutes(api)

	return &Server{app: app, cfg: cfg}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	logging.NewLogger(context.Background()).Infof("server listening on http://localhost%s", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
