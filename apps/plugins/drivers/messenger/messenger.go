// Package messenger provides the Facebook Messenger platform driver.
package messenger

import (
	"encoding/json"

	"github.com/botdeck/botdeck-backend/apps/plugins/drivers"
	"github.com/getevo/evo/v2/lib/log"
)

const (
	DriverID    = "facebook-messenger"
	PlatformKey = "messenger"
)

// Driver implements the chatbot driver contract for Messenger.
type Driver struct {
	*drivers.Base
}

// New creates the Messenger driver instance.
func New() *Driver {
	d := &Driver{}
	d.Base = drivers.NewBase(DriverID, "Facebook Messenger", PlatformKey, "1.0.0",
		[]drivers.ConfigField{
			{Key: "page_id", Label: "Page ID", Type: drivers.FieldTypeString, Required: true},
			{Key: "access_token", Label: "Page Access Token", Type: drivers.FieldTypePassword, Required: true},
			{Key: "app_secret", Label: "App Secret", Type: drivers.FieldTypePassword, Required: false},
			{Key: "webhook_verify_token", Label: "Webhook Verify Token", Type: drivers.FieldTypeString, Required: true},
		},
		drivers.Hooks{
			OnSend: d.send,
		})
	return d
}

// VerifyWebhook answers the Meta hub challenge handshake.
func (d *Driver) VerifyWebhook(mode, token, challenge string) (string, bool) {
	verifyToken, _ := d.Config()["webhook_verify_token"].(string)
	if mode == "subscribe" && verifyToken != "" && token == verifyToken {
		return challenge, true
	}
	return "", false
}

// HandleWebhook parses a page messaging event into a normalized message.
func (d *Driver) HandleWebhook(payload []byte) *drivers.ChatMessage {
	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		log.Debug("messenger: unparseable webhook payload: %v", err)
		return nil
	}
	if body.Object != "page" {
		return nil
	}

	for _, entry := range body.Entry {
		for _, event := range entry.Messaging {
			if event.Message == nil || event.Message.Text == "" || event.Message.IsEcho {
				continue
			}
			return d.NewIncomingMessage(event.Sender.ID, "", event.Message.Text, map[string]any{
				"message_id":   event.Message.MID,
				"page_id":      entry.ID,
				"recipient_id": event.Recipient.ID,
			})
		}
	}
	return nil
}

// MatchesConfig reports whether the messaging event was delivered to this
// configuration's page.
func (d *Driver) MatchesConfig(msg *drivers.ChatMessage, config map[string]any) bool {
	want, _ := config["page_id"].(string)
	got, _ := msg.Metadata["page_id"].(string)
	return want != "" && want == got
}

// send is a test double: the Send API call is logged, not performed.
func (d *Driver) send(config map[string]any, msg *drivers.ChatMessage) error {
	pageID, _ := config["page_id"].(string)
	log.Info("messenger: send from page %s to %s: %s", pageID, msg.UserID, msg.Content)
	return nil
}

// Messenger webhook payload structures.
type webhookPayload struct {
	Object string  `json:"object"`
	Entry  []entry `json:"entry"`
}

type entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []messagingEvent `json:"messaging"`
}

type messagingEvent struct {
	Sender    participant `json:"sender"`
	Recipient participant `json:"recipient"`
	Timestamp int64       `json:"timestamp"`
	Message   *struct {
		MID    string `json:"mid"`
		Text   string `json:"text"`
		IsEcho bool   `json:"is_echo,omitempty"`
	} `json:"message,omitempty"`
}

type participant struct {
	ID string `json:"id"`
}
