package plugins

import (
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers"
	"github.com/getevo/evo/v2/lib/log"
)

// Dispatch offers a webhook payload to every driver registered for the
// platform, in registration order. The first driver that parses the payload
// into a message wins and later drivers are not consulted. A driver that
// panics is skipped so one broken integration cannot take down webhook
// ingress.
func Dispatch(registry *drivers.Registry, platform string, payload []byte) (drivers.Driver, *drivers.ChatMessage) {
	for _, driver := range registry.ByPlatform(platform) {
		if msg := tryHandle(driver, payload); msg != nil {
			return driver, msg
		}
	}
	return nil, nil
}

// dispatchTenants offers a payload to per-configuration driver instances in
// row order. A driver that can tie payload identity to its configuration
// (drivers.ConfigMatcher) only wins for the owning configuration, so two
// accounts running the same driver never receive each other's traffic.
// Drivers whose payloads carry no identity win on first parse.
func dispatchTenants(tenants []tenantDriver, payload []byte) (*tenantDriver, *drivers.ChatMessage) {
	for i := range tenants {
		tenant := &tenants[i]
		msg := tryHandle(tenant.driver, payload)
		if msg == nil {
			continue
		}
		if matcher, ok := tenant.driver.(drivers.ConfigMatcher); ok {
			if !matcher.MatchesConfig(msg, tenant.config) {
				continue
			}
		}
		return tenant, msg
	}
	return nil, nil
}

func tryHandle(driver drivers.Driver, payload []byte) (msg *drivers.ChatMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("driver %s: webhook handler panicked: %v", driver.ID(), r)
			msg = nil
		}
	}()
	return driver.HandleWebhook(payload)
}

// VerifyChallenge offers a verification handshake to every driver registered
// for the platform. The first driver that recognizes the token answers.
func VerifyChallenge(registry *drivers.Registry, platform, mode, token, challenge string) (string, bool) {
	for _, driver := range registry.ByPlatform(platform) {
		if body, ok := tryVerify(driver, mode, token, challenge); ok {
			return body, true
		}
	}
	return "", false
}

func tryVerify(driver drivers.Driver, mode, token, challenge string) (body string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("driver %s: webhook verification panicked: %v", driver.ID(), r)
			body, ok = "", false
		}
	}()
	return driver.VerifyWebhook(mode, token, challenge)
}
