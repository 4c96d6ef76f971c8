package ai

import (
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/log"
)

type App struct {
}

func (a App) Register() error {
	return nil
}

func (a App) Router() error {
	var controller Controller

	evo.Post("/api/chat", controller.Chat)

	return nil
}

func (a App) WhenReady() error {
	// Database settings are only readable once migrations ran
	if err := InitClient(); err != nil {
		log.Warning("AI client unavailable: %v", err)
	}
	return nil
}

func (a App) Name() string {
	return "ai"
}
