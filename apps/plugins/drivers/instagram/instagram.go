// Package instagram provides the Instagram Messaging platform driver.
package instagram

import (
	"encoding/json"

	"github.com/botdeck/botdeck-backend/apps/plugins/drivers"
	"github.com/getevo/evo/v2/lib/log"
)

const (
	DriverID    = "instagram-messaging"
	PlatformKey = "instagram"
)

// Driver implements the chatbot driver contract for Instagram DMs. The
// webhook shape mirrors Messenger (same Meta messaging infrastructure) with
// object "instagram".
type Driver struct {
	*drivers.Base
}

// New creates the Instagram driver instance.
func New() *Driver {
	d := &Driver{}
	d.Base = drivers.NewBase(DriverID, "Instagram Messaging", PlatformKey, "1.0.0",
		[]drivers.ConfigField{
			{Key: "instagram_account_id", Label: "Instagram Account ID", Type: drivers.FieldTypeString, Required: true},
			{Key: "access_token", Label: "Access Token", Type: drivers.FieldTypePassword, Required: true},
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

// HandleWebhook parses an Instagram messaging event into a normalized
// message.
func (d *Driver) HandleWebhook(payload []byte) *drivers.ChatMessage {
	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		log.Debug("instagram: unparseable webhook payload: %v", err)
		return nil
	}
	if body.Object != "instagram" {
		return nil
	}

	for _, entry := range body.Entry {
		for _, event := range entry.Messaging {
			if event.Message == nil || event.Message.Text == "" {
				continue
			}
			return d.NewIncomingMessage(event.Sender.ID, "", event.Message.Text, map[string]any{
				"message_id": event.Message.MID,
				"account_id": entry.ID,
			})
		}
	}
	return nil
}

// MatchesConfig reports whether the messaging event was delivered to this
// configuration's Instagram account.
func (d *Driver) MatchesConfig(msg *drivers.ChatMessage, config map[string]any) bool {
	want, _ := config["instagram_account_id"].(string)
	got, _ := msg.Metadata["account_id"].(string)
	return want != "" && want == got
}

// send is a test double: the Graph API call is logged, not performed.
func (d *Driver) send(config map[string]any, msg *drivers.ChatMessage) error {
	accountID, _ := config["instagram_account_id"].(string)
	log.Info("instagram: send from account %s to %s: %s", accountID, msg.UserID, msg.Content)
	return nil
}

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
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Message *struct {
		MID  string `json:"mid"`
		Text string `json:"text"`
	} `json:"message,omitempty"`
}
