// Package main provides the Flowedit API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/flowedit/pkg/eventbus"
	"github.com/dukex/flowedit/pkg/services"
	"github.com/dukex/flowedit/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger *slog.Logger
	editor *services.Editor
	feed   *eventbus.Feed
}

func NewAPI(
	logger *slog.Logger,
	editor *services.Editor,
	feed *eventbus.Feed,
) *API {
	return &API{
		logger: logger,
		editor: editor,
		feed:   feed,
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.editor, a.feed, a.editor.Validator().Structs())

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowedit API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	a.logger.Info("Listening", "port", port)

	return app.Listen(":" + strconv.Itoa(port))
}
