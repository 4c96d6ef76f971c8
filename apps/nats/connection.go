// Package nats maintains the message bus connection. Every accepted inbound
// chat message is published as an event so downstream consumers (analytics,
// workflow engines) can react without coupling to the webhook path.
package nats

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/getevo/evo/v2/lib/log"
	"github.com/nats-io/nats.go"
)

var (
	nc *nats.Conn
	mu sync.RWMutex
)

// Config holds NATS connection configuration
type Config struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
	PingInterval  time.Duration
}

// Connect establishes a fault-tolerant connection to NATS
func Connect(config Config) error {
	opts := []nats.Option{
		nats.Name("botdeck-backend"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.PingInterval(config.PingInterval),
		nats.DisconnectErrHandler(func(c *nats.Conn, err error) {
			log.Warning("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS reconnected to %s", c.ConnectedUrl())
		}),
		nats.ClosedHandler(func(c *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", config.URL, err)
	}

	mu.Lock()
	nc = conn
	mu.Unlock()

	log.Info("Connected to NATS at %s", conn.ConnectedUrl())
	return nil
}

// Connection returns the active NATS connection, nil when disconnected
func Connection() *nats.Conn {
	mu.RLock()
	defer mu.RUnlock()
	return nc
}

// IsConnected checks if NATS is connected
func IsConnected() bool {
	conn := Connection()
	return conn != nil && conn.IsConnected()
}

// Publish serializes an event as JSON and publishes it on a subject. Without
// a connection it returns an error; callers treat bus publication as best
// effort.
func Publish(subject string, event any) error {
	conn := Connection()
	if conn == nil || !conn.IsConnected() {
		return fmt.Errorf("NATS not connected")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	return conn.Publish(subject, data)
}

// Subscribe creates a subscription to a subject
func Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	conn := Connection()
	if conn == nil || !conn.IsConnected() {
		return nil, fmt.Errorf("NATS not connected")
	}
	return conn.Subscribe(subject, handler)
}

// Close drains and closes the NATS connection
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if nc == nil {
		return nil
	}
	if err := nc.Drain(); err != nil {
		log.Warning("error draining NATS connection: %v", err)
		nc.Close()
		return err
	}
	return nil
}
