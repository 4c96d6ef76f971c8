package system

import (
	"strings"
	"time"

	"github.com/botdeck/botdeck-backend/apps/minify"
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
	"github.com/getevo/restify"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// Request limits
const (
	RateLimitRequests = 100 // requests per minute per IP
)

var StartupTime = time.Now()

var widgetController *minify.Controller

type App struct {
}

func (a App) Register() error {
	var logLevel = settings.Get("APP.LOG_LEVEL", "info").String()
	switch strings.ToLower(logLevel) {
	case "debug", "dev", "development":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn", "warning":
		log.SetLevel(log.WarningLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.WarningLevel)
	}

	var app = evo.GetFiber()

	if settings.Get("APP.LOG_REQUESTS").Bool() {
		app.Use(logger.New())
	}

	// Process-local rate limiting in front of everything; the chat endpoint
	// additionally has its own Redis-backed per-session limiter
	if settings.Get("APP.RATE_LIMIT", true).Bool() {
		app.Use(limiter.New(limiter.Config{
			Max:        RateLimitRequests,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(429).JSON(fiber.Map{
					"error": "Too many requests. Please try again later.",
				})
			},
		}))
		log.Info("Rate limiting enabled: %d requests per minute", RateLimitRequests)
	}

	restify.SetPrefix("/api/restify")

	return nil
}

func (a App) Router() error {
	var controller Controller
	evo.Get("/health", controller.HealthHandler)
	evo.Get("/uptime", controller.UptimeHandler)

	// Settings APIs (admin only)
	adminMiddleware := func(req *evo.Request) error {
		if resp := controller.AdminMiddleware(req); resp != nil {
			if err, ok := resp.(error); ok {
				return err
			}
			req.WriteResponse(resp)
		}
		return nil
	}
	evo.Use("/api/settings", adminMiddleware)
	evo.Get("/api/settings", controller.GetSettings)
	evo.Put("/api/settings", controller.UpdateSettings)
	evo.Get("/api/settings/:key", controller.GetSetting)
	evo.Put("/api/settings/:key", controller.SetSetting)
	evo.Delete("/api/settings/:key", controller.DeleteSetting)

	evo.Use("/api/restify", adminMiddleware)

	// Serve minified widget JS (must be before the static handler)
	widgetController = minify.NewController("./static/widget")
	evo.GetFiber().Get("/widget/*", widgetController.ServeMinifiedJS)

	// Serve static files
	evo.Static("/static", "./static")

	return nil
}

func (a App) WhenReady() error {
	if widgetController != nil {
		widgetController.ClearCache()
	}
	return nil
}

func (a App) Name() string {
	return "system"
}
