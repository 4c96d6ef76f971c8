package auth

import (
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/db"
)

type App struct {
}

func (a App) Register() error {
	// Register auth models with GORM
	db.UseModel(Account{})
	db.UseModel(AccountLoginHistory{})

	// Set user interface for Evo framework
	evo.SetUserInterface(&Account{})

	// Initialize JWT secret after settings are loaded
	InitializeJWTSecret()

	return nil
}

func (a App) Router() error {
	var controller Controller

	// Auth0 login flow (real or mock, depending on AUTH0.MOCK)
	evo.Get("/api/auth/login", controller.Login)
	evo.Get("/api/auth/callback", controller.Callback)
	evo.Get("/api/auth/logout", controller.Logout)

	// Local credential login for development environments
	evo.Post("/api/auth/dev-login", controller.DevLogin)

	// Profile endpoint
	evo.Get("/api/auth/profile", controller.GetProfile)

	return nil
}

func (a App) WhenReady() error {
	InitOAuthConfig()
	return nil
}

func (a App) Name() string {
	return "auth"
}
