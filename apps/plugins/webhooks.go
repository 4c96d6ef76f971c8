package plugins

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/botdeck/botdeck-backend/apps/ai"
	"github.com/botdeck/botdeck-backend/apps/models"
	"github.com/botdeck/botdeck-backend/apps/nats"
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers"
	"github.com/botdeck/botdeck-backend/lib/response"
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/outcome"
)

// WebhookController is the ingress for platform callbacks. Responses are
// always 2xx once the platform is known, even when no driver claims the
// payload, so upstream platforms never retry storms over application-level
// mismatches.
type WebhookController struct {
}

// MessageEvent is the normalized event published to the message bus for every
// accepted inbound message.
type MessageEvent struct {
	AgentID   string               `json:"agent_id"`
	Driver    string               `json:"driver"`
	Platform  string               `json:"platform"`
	Language  string               `json:"language,omitempty"`
	Message   *drivers.ChatMessage `json:"message"`
	Timestamp time.Time            `json:"timestamp"`
}

// tenantDriver pairs a dedicated driver instance with the stored
// configuration row it was initialized from.
type tenantDriver struct {
	driver drivers.Driver
	row    *models.PluginConfig
	config map[string]any
}

// Receive accepts a platform webhook POST and dispatches it to the first
// driver configuration that owns the payload.
func (c WebhookController) Receive(req *evo.Request) any {
	platform := req.Param("platform").String()
	if len(registry.ByPlatform(platform)) == 0 {
		return response.Error(response.ErrPluginNotFound)
	}

	var driver drivers.Driver
	tenant, msg := dispatchTenants(c.tenantDrivers(platform), []byte(req.Body()))
	if tenant != nil {
		driver = tenant.driver
	} else {
		// No configured tenant claimed the payload. Parse with the
		// registered prototypes so handshakes still get acknowledged.
		driver, msg = Dispatch(registry, platform, []byte(req.Body()))
	}
	if msg == nil {
		return response.OK(map[string]string{"status": "no handler found"})
	}

	if body, ok := handshakeResponse(msg); ok {
		data, err := json.Marshal(body)
		if err != nil {
			return response.Error(response.ErrInternalError)
		}
		return outcome.Response{
			StatusCode:  http.StatusOK,
			ContentType: "application/json",
			Data:        data,
		}
	}

	language := ai.DetectLanguage(msg.Content)
	if msg.Metadata == nil {
		msg.Metadata = map[string]any{}
	}
	msg.Metadata["language"] = language

	agentID := ""
	if tenant != nil {
		agentID = tenant.row.AgentID
		msg.AgentID = agentID
	}

	event := MessageEvent{
		AgentID:   agentID,
		Driver:    driver.ID(),
		Platform:  platform,
		Language:  language,
		Message:   msg,
		Timestamp: time.Now(),
	}
	if err := nats.Publish("chat.message."+platform, event); err != nil {
		log.Warning("failed to publish message event: %v", err)
	}

	if tenant != nil && agentID != "" {
		go c.reply(tenant.driver, agentID, msg, language)
	}

	return response.OK(map[string]string{"status": "processed", "driver": driver.ID()})
}

// handshakeResponse extracts the immediate acknowledgement body a driver
// attached to a handshake interaction (the Discord type-1 ping). Handshakes
// are answered in the webhook response and never enter the message pipeline.
func handshakeResponse(msg *drivers.ChatMessage) (any, bool) {
	if msg.MessageType != drivers.MessageTypeCustom || msg.Metadata == nil {
		return nil, false
	}
	body, ok := msg.Metadata["response"]
	return body, ok
}

// Verify answers platform verification handshakes (GET with hub.mode,
// hub.verify_token and hub.challenge for the Meta family).
func (c WebhookController) Verify(req *evo.Request) any {
	platform := req.Param("platform").String()
	if len(registry.ByPlatform(platform)) == 0 {
		return response.Error(response.ErrPluginNotFound)
	}

	mode := req.Query("hub.mode").String()
	token := req.Query("hub.verify_token").String()
	challenge := req.Query("hub.challenge").String()

	for _, tenant := range c.tenantDrivers(platform) {
		if body, ok := tryVerify(tenant.driver, mode, token, challenge); ok {
			return outcome.Response{
				StatusCode:  http.StatusOK,
				ContentType: "text/plain",
				Data:        []byte(body),
			}
		}
	}

	// A freshly saved but not yet enabled integration may still hold its
	// verify token on the registry prototype.
	if body, ok := VerifyChallenge(registry, platform, mode, token, challenge); ok {
		return outcome.Response{
			StatusCode:  http.StatusOK,
			ContentType: "text/plain",
			Data:        []byte(body),
		}
	}

	return response.BadRequest("no verification handler")
}

// tenantDrivers builds an initialized driver instance for every enabled
// configuration row of the platform. Instances are request-scoped, so
// concurrent webhooks for different accounts cannot clobber each other's
// credentials. Corrupt rows are logged and skipped; webhook ingress keeps
// serving the healthy ones.
func (c WebhookController) tenantDrivers(platform string) []tenantDriver {
	rows, err := models.GetEnabledConfigsForPlatform(platform)
	if err != nil {
		log.Error("failed to load %s plugin configs: %v", platform, err)
		return nil
	}

	var tenants []tenantDriver
	for i := range rows {
		row := &rows[i]
		factory, ok := factories[row.PluginID]
		if !ok {
			continue
		}

		config, err := DecryptConfig(row.Config)
		if err != nil {
			log.Error("plugin %s config for agent %s is corrupt: %v", row.PluginID, row.AgentID, err)
			continue
		}

		instance := factory()
		if instance.Initialize(config) {
			tenants = append(tenants, tenantDriver{driver: instance, row: row, config: config})
		}
	}
	return tenants
}

// reply generates the agent answer and pushes it back through the driver that
// received the message.
func (c WebhookController) reply(driver drivers.Driver, agentID string, msg *drivers.ChatMessage, language string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("reply pipeline panicked: %v", r)
		}
	}()

	agent, err := models.GetAgent(agentID)
	if err != nil {
		log.Warning("agent %s not found for inbound message", agentID)
		return
	}
	if !agent.IsActive {
		return
	}

	answer, err := ai.ReplyForAgent(agent, msg.Content, language)
	if err != nil {
		log.Error("reply generation for agent %s failed: %v", agentID, err)
		return
	}

	out := &drivers.ChatMessage{
		AgentID:     agentID,
		Platform:    msg.Platform,
		Direction:   drivers.DirectionOutgoing,
		MessageType: drivers.MessageTypeText,
		Content:     answer,
		Metadata:    msg.Metadata,
		Timestamp:   time.Now(),
		UserID:      msg.UserID,
	}
	if !driver.SendMessage(out) {
		log.Warning("driver %s: outbound delivery failed for agent %s", driver.ID(), agentID)
	}
}
