package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/botdeck/botdeck-backend/lib/response"
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/log"
)

// Allow implements a fixed-window counter: the first hit on a key starts the
// window, and hits beyond limit within it are rejected. Without Redis (or on
// Redis errors) requests are allowed so a cache outage never blocks chat.
func Allow(key string, limit int, window time.Duration) bool {
	if Client == nil {
		return true
	}

	opCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	redisKey := "rate_limit:" + key
	count, err := Client.Incr(opCtx, redisKey).Result()
	if err != nil {
		log.Warning("rate limiter redis error: %v", err)
		return true
	}
	if count == 1 {
		Client.Expire(opCtx, redisKey, window)
	}

	return int(count) <= limit
}

// Middleware is an evo middleware rejecting clients beyond limit requests per
// window, keyed by client IP.
func Middleware(name string, limit int, window time.Duration) func(*evo.Request) error {
	return func(req *evo.Request) error {
		if !IsAvailable() {
			return req.Next()
		}

		clientIP := req.IP()
		if forwarded := req.Header("X-Forwarded-For"); forwarded != "" {
			clientIP = forwarded
		}

		if !Allow(fmt.Sprintf("%s:%s", name, clientIP), limit, window) {
			return response.NewError("too_many_requests", "Too many requests. Please try again later.", 429)
		}
		return req.Next()
	}
}
