// Package htmlembed provides the generic HTML/CSS embed widget driver. The
// widget script (served minified by the minify app) POSTs visitor messages
// to the generic webhook endpoint with a per-session id.
package htmlembed

import (
	"encoding/json"
	"strings"

	"github.com/botdeck/botdeck-backend/apps/plugins/drivers"
	"github.com/getevo/evo/v2/lib/log"
)

const (
	DriverID    = "html-embed"
	PlatformKey = "html"
)

// Driver implements the chatbot driver contract for the embeddable widget.
type Driver struct {
	*drivers.Base
}

// New creates the HTML embed driver instance.
func New() *Driver {
	d := &Driver{}
	d.Base = drivers.NewBase(DriverID, "HTML/CSS Embed", PlatformKey, "1.0.0",
		[]drivers.ConfigField{
			{Key: "widget_title", Label: "Widget Title", Type: drivers.FieldTypeString, Required: true},
			{Key: "widget_color", Label: "Widget Color", Type: drivers.FieldTypeString, Required: false, Default: "#1f2937"},
			{Key: "position", Label: "Position", Type: drivers.FieldTypeSelect, Required: false, Default: "bottom-right", Options: []string{"bottom-right", "bottom-left"}},
			{Key: "greeting", Label: "Greeting Message", Type: drivers.FieldTypeString, Required: false},
			{Key: "allowed_origins", Label: "Allowed Origins", Type: drivers.FieldTypeString, Required: false},
		},
		drivers.Hooks{
			OnSend: d.send,
		})
	return d
}

// HandleWebhook parses a widget message into a normalized message. Messages
// from origins outside allowed_origins are swallowed.
func (d *Driver) HandleWebhook(payload []byte) *drivers.ChatMessage {
	var body widgetMessage
	if err := json.Unmarshal(payload, &body); err != nil {
		log.Debug("htmlembed: unparseable widget payload: %v", err)
		return nil
	}
	if body.SessionID == "" || body.Message == "" {
		return nil
	}
	if !d.originAllowed(body.Origin) {
		log.Warning("htmlembed: rejected widget message from origin %s", body.Origin)
		return nil
	}

	return d.NewIncomingMessage(body.SessionID, body.VisitorName, body.Message, map[string]any{
		"origin":   body.Origin,
		"page_url": body.PageURL,
	})
}

// WidgetSettings returns the public widget configuration the embed script
// bootstraps itself with.
func (d *Driver) WidgetSettings() map[string]any {
	config := d.Config()
	settings := map[string]any{
		"title":    config["widget_title"],
		"color":    "#1f2937",
		"position": "bottom-right",
	}
	if color, ok := config["widget_color"].(string); ok && color != "" {
		settings["color"] = color
	}
	if position, ok := config["position"].(string); ok && position != "" {
		settings["position"] = position
	}
	if greeting, ok := config["greeting"].(string); ok && greeting != "" {
		settings["greeting"] = greeting
	}
	return settings
}

func (d *Driver) originAllowed(origin string) bool {
	allowed, _ := d.Config()["allowed_origins"].(string)
	if allowed == "" || allowed == "*" {
		return true
	}
	for _, candidate := range strings.Split(allowed, ",") {
		if strings.EqualFold(strings.TrimSpace(candidate), origin) {
			return true
		}
	}
	return false
}

// send is a test double: widget replies travel back on the chat HTTP
// response, so there is no push channel to call.
func (d *Driver) send(config map[string]any, msg *drivers.ChatMessage) error {
	log.Info("htmlembed: reply for session %s: %s", msg.UserID, msg.Content)
	return nil
}

// Widget message shape.
type widgetMessage struct {
	SessionID   string `json:"session_id"`
	Message     string `json:"message"`
	VisitorName string `json:"visitor_name,omitempty"`
	Origin      string `json:"origin,omitempty"`
	PageURL     string `json:"page_url,omitempty"`
}
