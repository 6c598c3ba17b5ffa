package router

import (
	"fmt"
	"regexp"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	handler "github.com/krishkalaria12/card-images/handlers"
	"github.com/krishkalaria12/card-images/middleware"
)

type Options struct {
	Images   *handler.ImageHandler
	Health   *handler.HealthHandler
	Verifier middleware.TokenVerifier

	CORSOriginPattern string
	BodyLimit         int
	AccessLog         bool
}

// New builds the fiber application with all routes registered.
func New(opts Options) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler,
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New())
	}

	if opts.CORSOriginPattern != "" {
		// The whole origin has to match, not just a substring of it.
		origins, err := regexp.Compile("^(?:" + opts.CORSOriginPattern + ")$")
		if err != nil {
			return nil, fmt.Errorf("invalid CORS origin pattern: %w", err)
		}
		app.Use(cors.New(cors.Config{
			AllowOriginsFunc: origins.MatchString,
			AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
			AllowCredentials: true,
		}))
	}

	SetupRoutes(app, opts)
	return app, nil
}

func SetupRoutes(app *fiber.App, opts Options) {
	health := app.Group("/health")
	health.Get("/live", opts.Health.Live)
	health.Get("/ready", opts.Health.Ready)

	auth := middleware.AuthMiddleware(opts.Verifier)

	// Older clients use the /v1 prefix.
	for _, prefix := range []string{"/card-images", "/v1/card-images"} {
		images := app.Group(prefix, auth)
		images.Get("/", opts.Images.ListImages)
		images.Get("/any", opts.Images.AnyImage)
		images.Get("/:id", opts.Images.GetImage)
		images.Post("/", opts.Images.UploadImage)
		images.Delete("/:id", opts.Images.DeleteImage)
	}
}
