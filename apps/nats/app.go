package nats

import (
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
)

type App struct{}

func (App) Register() error {
	return nil
}

func (App) Router() error {
	return nil
}

// WhenReady connects to the message bus. A missing broker is tolerated;
// webhook ingress keeps working and event publication becomes a no-op error.
func (App) WhenReady() error {
	url := settings.Get("NATS.URL").String()
	if url == "" {
		log.Info("NATS not configured, message events disabled")
		return nil
	}

	reconnectWait, _ := settings.Get("NATS.RECONNECT_WAIT", "2s").Duration()
	pingInterval, _ := settings.Get("NATS.PING_INTERVAL", "20s").Duration()

	config := Config{
		URL:           url,
		MaxReconnects: int(settings.Get("NATS.MAX_RECONNECTS", 60).Int64()),
		ReconnectWait: reconnectWait,
		PingInterval:  pingInterval,
	}

	if err := Connect(config); err != nil {
		log.Warning("NATS unavailable: %v", err)
	}
	return nil
}

func (App) Name() string {
	return "nats"
}

func (App) Shutdown() error {
	return Close()
}
