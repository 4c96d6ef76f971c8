package billing

import (
	"github.com/getevo/evo/v2"
)

type App struct {
}

func (a App) Register() error {
	InitStripe()
	return nil
}

func (a App) Router() error {
	var controller Controller

	evo.Get("/api/billing/subscription", controller.GetSubscription)
	evo.Post("/api/billing/checkout", controller.CreateCheckout)
	evo.Post("/api/billing/portal", controller.CreatePortal)

	// Stripe events (signature-verified, no session auth)
	evo.Post("/api/billing/webhook", controller.Webhook)

	return nil
}

func (a App) WhenReady() error {
	return nil
}

func (a App) Name() string {
	return "billing"
}
