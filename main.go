package main

import (
	"github.com/botdeck/botdeck-backend/apps/agents"
	"github.com/botdeck/botdeck-backend/apps/ai"
	"github.com/botdeck/botdeck-backend/apps/auth"
	"github.com/botdeck/botdeck-backend/apps/billing"
	"github.com/botdeck/botdeck-backend/apps/models"
	"github.com/botdeck/botdeck-backend/apps/nats"
	"github.com/botdeck/botdeck-backend/apps/plugins"
	"github.com/botdeck/botdeck-backend/apps/redis"
	"github.com/botdeck/botdeck-backend/apps/storage"
	"github.com/botdeck/botdeck-backend/apps/system"
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/application"
)

func main() {
	evo.Setup()

	var apps = application.GetInstance()
	apps.Register(system.App{}, auth.App{}, models.App{}, redis.App{}, nats.App{}, storage.App{}, agents.App{}, plugins.App{}, ai.App{}, billing.App{})

	evo.Run()
}
