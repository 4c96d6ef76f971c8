// Package wordpress provides the WordPress chat plugin driver. A companion
// WordPress plugin POSTs visitor messages from the site to the generic
// webhook endpoint, authenticated by a shared API key.
package wordpress

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/botdeck/botdeck-backend/apps/plugins/drivers"
	"github.com/getevo/evo/v2/lib/log"
)

const (
	DriverID    = "wordpress-chat"
	PlatformKey = "wordpress"
)

// Driver implements the chatbot driver contract for WordPress sites.
type Driver struct {
	*drivers.Base
}

// New creates the WordPress driver instance.
func New() *Driver {
	d := &Driver{}
	d.Base = drivers.NewBase(DriverID, "WordPress Chat", PlatformKey, "1.0.0",
		[]drivers.ConfigField{
			{Key: "site_url", Label: "Site URL", Type: drivers.FieldTypeString, Required: true},
			{Key: "api_key", Label: "API Key", Type: drivers.FieldTypePassword, Required: true},
			{Key: "auto_reply", Label: "Auto Reply", Type: drivers.FieldTypeBoolean, Required: false, Default: true},
		},
		drivers.Hooks{
			OnValidate: validateSiteURL,
			OnSend:     d.send,
		})
	return d
}

// HandleWebhook parses a WordPress plugin callback into a normalized
// message. The API key in the payload must match the configured one; a
// mismatch is swallowed (nil) so the site only ever sees a 2xx.
func (d *Driver) HandleWebhook(payload []byte) *drivers.ChatMessage {
	var body callback
	if err := json.Unmarshal(payload, &body); err != nil {
		log.Debug("wordpress: unparseable webhook payload: %v", err)
		return nil
	}
	if body.Message == "" || body.VisitorID == "" {
		return nil
	}

	apiKey, _ := d.Config()["api_key"].(string)
	if apiKey != "" && body.APIKey != apiKey {
		log.Warning("wordpress: callback with wrong api key from %s", body.SiteURL)
		return nil
	}

	return d.NewIncomingMessage(body.VisitorID, body.VisitorName, body.Message, map[string]any{
		"site_url": body.SiteURL,
		"post_id":  body.PostID,
		"page":     body.Page,
	})
}

// send is a test double: replies are fetched by the WordPress plugin via
// polling, so the push is logged only.
func (d *Driver) send(config map[string]any, msg *drivers.ChatMessage) error {
	siteURL, _ := config["site_url"].(string)
	log.Info("wordpress: queue reply for %s on %s: %s", msg.UserID, siteURL, msg.Content)
	return nil
}

func validateSiteURL(config map[string]any) map[string]string {
	raw, _ := config["site_url"].(string)
	if raw == "" {
		return nil // required-field check reports this one
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return map[string]string{"site_url": fmt.Sprintf("%q is not a valid URL", raw)}
	}
	return nil
}

// Companion plugin callback shape.
type callback struct {
	APIKey      string `json:"api_key"`
	SiteURL     string `json:"site_url"`
	VisitorID   string `json:"visitor_id"`
	VisitorName string `json:"visitor_name,omitempty"`
	Message     string `json:"message"`
	PostID      int    `json:"post_id,omitempty"`
	Page        string `json:"page,omitempty"`
}
