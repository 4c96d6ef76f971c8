// Package redis wraps the shared Redis connection and the chat rate limiter.
// The platform runs fine without Redis; rate limiting simply turns off.
package redis

import (
	"context"
	"strings"
	"time"

	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
	"github.com/redis/go-redis/v9"
)

var (
	// Client is the universal Redis client, nil when Redis is not configured
	Client redis.UniversalClient
	ctx    = context.Background()
)

// Initialize creates the Redis universal client. Single node, cluster and
// sentinel are all driven by the same config keys:
//
//	REDIS:
//	  ADDRESSES: "localhost:6379"      # comma-separated for cluster
//	  PASSWORD: ""
//	  DB: 0
//	  MASTER_NAME: ""                  # set for sentinel mode
func Initialize() error {
	addresses := parseAddresses(settings.Get("REDIS.ADDRESSES").String())
	if len(addresses) == 0 {
		addresses = parseAddresses(settings.Get("REDIS.ADDRESS").String())
	}
	if len(addresses) == 0 {
		log.Info("Redis not configured, rate limiting disabled")
		return nil
	}

	Client = redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        addresses,
		Password:     settings.Get("REDIS.PASSWORD").String(),
		DB:           settings.Get("REDIS.DB").Int(),
		MasterName:   settings.Get("REDIS.MASTER_NAME").String(),
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := Client.Ping(pingCtx).Err(); err != nil {
		log.Warning("Redis connection failed: %v, rate limiting disabled", err)
		Client = nil
		return nil
	}

	log.Info("Redis connected (%d node(s))", len(addresses))
	return nil
}

func parseAddresses(raw string) []string {
	var out []string
	for _, addr := range strings.Split(raw, ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// IsAvailable reports whether the Redis client is connected
func IsAvailable() bool {
	return Client != nil && Client.Ping(ctx).Err() == nil
}

// Close shuts down the Redis connection
func Close() error {
	if Client != nil {
		return Client.Close()
	}
	return nil
}
