package plugins

import (
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers"
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers/discord"
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers/htmlembed"
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers/instagram"
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers/messenger"
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers/telegram"
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers/whatsapp"
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers/wordpress"
	"github.com/getevo/evo/v2"
)

// registry holds the process-wide driver set, populated by RegisterDrivers
// during app registration.
var registry = drivers.NewRegistry()

// factories builds fresh driver instances keyed by driver id. Webhook traffic
// runs on per-configuration instances built from these, so two accounts on
// the same platform never share driver state.
var factories = map[string]func() drivers.Driver{}

// Drivers returns the active driver registry.
func Drivers() *drivers.Registry {
	return registry
}

// RegisterDrivers installs every built-in driver. Registration happens here,
// explicitly, rather than in driver package init functions, so the full
// driver set is visible in one place. Registration order is webhook dispatch
// order.
func RegisterDrivers(r *drivers.Registry) {
	install := func(id string, factory func() drivers.Driver) {
		factories[id] = factory
		r.Register(factory())
	}
	install(whatsapp.DriverID, func() drivers.Driver { return whatsapp.New() })
	install(messenger.DriverID, func() drivers.Driver { return messenger.New() })
	install(instagram.DriverID, func() drivers.Driver { return instagram.New() })
	install(telegram.DriverID, func() drivers.Driver { return telegram.New() })
	install(discord.DriverID, func() drivers.Driver { return discord.New() })
	install(wordpress.DriverID, func() drivers.Driver { return wordpress.New() })
	install(htmlembed.DriverID, func() drivers.Driver { return htmlembed.New() })
}

type App struct {
}

func (a App) Register() error {
	RegisterDrivers(registry)
	return nil
}

func (a App) Router() error {
	var controller Controller
	var webhooks WebhookController

	// Plugin discovery and configuration API
	evo.Get("/api/plugins", controller.ListPlugins)
	evo.Get("/api/plugins/configs", controller.ListConfigs)
	evo.Get("/api/plugins/:id/config", controller.GetConfig)
	evo.Post("/api/plugins/:id/config", controller.SaveConfig)
	evo.Put("/api/plugins/:id/config", controller.SaveConfig)
	evo.Delete("/api/plugins/:id/config", controller.DeleteConfig)
	evo.Post("/api/plugins/:id/test", controller.TestPlugin)

	// Public widget bootstrap config
	evo.Get("/api/widget/:agent/settings", controller.WidgetSettings)

	// Platform webhook ingress
	evo.Get("/webhooks/:platform", webhooks.Verify)
	evo.Post("/webhooks/:platform", webhooks.Receive)

	return nil
}

func (a App) WhenReady() error {
	return nil
}

func (a App) Name() string {
	return "plugins"
}
