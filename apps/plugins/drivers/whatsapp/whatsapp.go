// Package whatsapp provides the WhatsApp Business Cloud API driver.
package whatsapp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/botdeck/botdeck-backend/apps/plugins/drivers"
	"github.com/getevo/evo/v2/lib/log"
)

const (
	// DriverID is the unique identifier for this driver.
	DriverID = "whatsapp-business"
	// PlatformKey is the webhook routing key.
	PlatformKey = "whatsapp"

	graphBaseURL = "https://graph.facebook.com/v18.0"
)

// Driver implements the chatbot driver contract for WhatsApp Business.
type Driver struct {
	*drivers.Base
}

// New creates the WhatsApp driver instance.
func New() *Driver {
	d := &Driver{}
	d.Base = drivers.NewBase(DriverID, "WhatsApp Business", PlatformKey, "1.0.0",
		[]drivers.ConfigField{
			{Key: "phone_number_id", Label: "Phone Number ID", Type: drivers.FieldTypeString, Required: true},
			{Key: "business_id", Label: "Business ID", Type: drivers.FieldTypeString, Required: false},
			{Key: "access_token", Label: "Access Token", Type: drivers.FieldTypePassword, Required: true},
			{Key: "webhook_verify_token", Label: "Webhook Verify Token", Type: drivers.FieldTypeString, Required: true},
		},
		drivers.Hooks{
			OnSend:   d.send,
			OnStatus: d.status,
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

// HandleWebhook parses a Cloud API message notification into a normalized
// message. Payloads without a text message (statuses, unsupported types,
// malformed bodies) yield nil.
func (d *Driver) HandleWebhook(payload []byte) *drivers.ChatMessage {
	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		log.Debug("whatsapp: unparseable webhook payload: %v", err)
		return nil
	}

	for _, entry := range body.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			value := change.Value
			for _, msg := range value.Messages {
				if msg.Type != "text" || msg.Text == nil {
					continue
				}
				var contactName string
				for _, contact := range value.Contacts {
					if contact.WaID == msg.From {
						contactName = contact.Profile.Name
						break
					}
				}
				out := d.NewIncomingMessage(msg.From, contactName, msg.Text.Body, map[string]any{
					"message_id":      msg.ID,
					"phone_number_id": value.Metadata.PhoneNumberID,
					"wa_id":           msg.From,
				})
				return out
			}
		}
	}
	return nil
}

// MatchesConfig reports whether the notification was delivered to this
// configuration's phone number.
func (d *Driver) MatchesConfig(msg *drivers.ChatMessage, config map[string]any) bool {
	want, _ := config["phone_number_id"].(string)
	got, _ := msg.Metadata["phone_number_id"].(string)
	return want != "" && want == got
}

// send is a test double: the Cloud API call is logged, not performed.
func (d *Driver) send(config map[string]any, msg *drivers.ChatMessage) error {
	phoneNumberID, _ := config["phone_number_id"].(string)
	log.Info("whatsapp: send via %s to %s: %s", phoneNumberID, msg.UserID, msg.Content)
	return nil
}

// status checks the phone number resource against the Graph API.
func (d *Driver) status(config map[string]any) drivers.ConnectionStatus {
	phoneNumberID, _ := config["phone_number_id"].(string)
	accessToken, _ := config["access_token"].(string)

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/%s", graphBaseURL, phoneNumberID), nil)
	if err != nil {
		return drivers.ConnectionStatus{Connected: false, Error: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return drivers.ConnectionStatus{Connected: false, Error: "failed to reach WhatsApp Business API", Details: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return drivers.ConnectionStatus{Connected: false, Error: "WhatsApp API authentication failed", Details: string(body)}
	}

	var result map[string]any
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &result); err != nil {
		return drivers.ConnectionStatus{Connected: false, Error: "invalid response from WhatsApp", Details: err.Error()}
	}

	displayNumber, _ := result["display_phone_number"].(string)
	return drivers.ConnectionStatus{Connected: true, Details: displayNumber}
}

// Cloud API webhook payload structures.
type webhookPayload struct {
	Object string  `json:"object"`
	Entry  []entry `json:"entry"`
}

type entry struct {
	ID      string   `json:"id"`
	Changes []change `json:"changes"`
}

type change struct {
	Field string      `json:"field"`
	Value changeValue `json:"value"`
}

type changeValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         metadata  `json:"metadata"`
	Contacts         []contact `json:"contacts,omitempty"`
	Messages         []message `json:"messages,omitempty"`
}

type metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type message struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
}
