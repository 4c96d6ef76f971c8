package redis

type App struct{}

func (App) Register() error {
	return nil
}

func (App) Router() error {
	return nil
}

func (App) WhenReady() error {
	return Initialize()
}

func (App) Name() string {
	return "redis"
}

func (App) Shutdown() error {
	return Close()
}
