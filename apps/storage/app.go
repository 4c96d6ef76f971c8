package storage

import (
	"context"
	"time"

	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/gofiber/fiber/v2"
)

type App struct{}

func (app App) Register() error {
	if err := Initialize(); err != nil {
		log.Warning("Failed to initialize S3 storage: %v", err)
	}

	// Media proxy for deployments without a public bucket URL
	router := evo.GetFiber()
	router.Get("/media/*", MediaProxyHandler)

	return nil
}

func (app App) Router() error {
	return nil
}

func (app App) WhenReady() error {
	return nil
}

func (app App) Name() string {
	return "storage"
}

// MediaProxyHandler streams stored objects through the API server
func MediaProxyHandler(c *fiber.Ctx) error {
	key := c.Params("*")
	if key == "" {
		return c.Status(fiber.StatusNotFound).SendString("not found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, contentType, err := Download(ctx, key)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("not found")
	}

	if contentType != "" {
		c.Set("Content-Type", contentType)
	}
	c.Set("Cache-Control", "public, max-age=86400")
	return c.Send(data)
}
