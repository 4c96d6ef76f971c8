package agents

import (
	"github.com/getevo/evo/v2"
)

type App struct {
}

func (a App) Register() error {
	return nil
}

func (a App) Router() error {
	var controller Controller

	evo.Get("/api/agents", controller.ListAgents)
	evo.Post("/api/agents", controller.CreateAgent)
	evo.Get("/api/agents/:id", controller.GetAgent)
	evo.Put("/api/agents/:id", controller.UpdateAgent)
	evo.Delete("/api/agents/:id", controller.DeleteAgent)
	evo.Post("/api/agents/:id/avatar", controller.UploadAvatar)

	return nil
}

func (a App) WhenReady() error {
	return nil
}

func (a App) Name() string {
	return "agents"
}
