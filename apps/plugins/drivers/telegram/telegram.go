// Package telegram provides the Telegram Bot API driver.
package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/botdeck/botdeck-backend/apps/plugins/drivers"
	"github.com/getevo/evo/v2/lib/log"
)

const (
	DriverID    = "telegram-bot"
	PlatformKey = "telegram"

	apiBaseURL = "https://api.telegram.org"
)

// Driver implements the chatbot driver contract for Telegram bots. Unlike
// the Meta-family drivers its outbound send performs the real Bot API call.
type Driver struct {
	*drivers.Base
}

// New creates the Telegram driver instance.
func New() *Driver {
	d := &Driver{}
	d.Base = drivers.NewBase(DriverID, "Telegram Bot", PlatformKey, "1.0.0",
		[]drivers.ConfigField{
			{Key: "bot_token", Label: "Bot Token", Type: drivers.FieldTypePassword, Required: true},
			{Key: "webhook_url", Label: "Webhook URL", Type: drivers.FieldTypeString, Required: false},
		},
		drivers.Hooks{
			OnSend:   d.send,
			OnStatus: d.status,
		})
	return d
}

// HandleWebhook parses a Telegram update into a normalized message.
func (d *Driver) HandleWebhook(payload []byte) *drivers.ChatMessage {
	var update update
	if err := json.Unmarshal(payload, &update); err != nil {
		log.Debug("telegram: unparseable webhook payload: %v", err)
		return nil
	}
	if update.Message == nil || update.Message.Text == "" || update.Message.From.IsBot {
		return nil
	}

	msg := update.Message
	userName := msg.From.FirstName
	if msg.From.LastName != "" {
		userName += " " + msg.From.LastName
	}
	if userName == "" {
		userName = msg.From.Username
	}

	return d.NewIncomingMessage(strconv.FormatInt(msg.From.ID, 10), userName, msg.Text, map[string]any{
		"chat_id":    strconv.FormatInt(msg.Chat.ID, 10),
		"message_id": strconv.Itoa(msg.MessageID),
		"username":   msg.From.Username,
	})
}

// send delivers through the Bot API sendMessage endpoint. The chat id comes
// from message metadata when present, falling back to the user id.
func (d *Driver) send(config map[string]any, msg *drivers.ChatMessage) error {
	botToken, _ := config["bot_token"].(string)
	if botToken == "" {
		return fmt.Errorf("telegram bot token not configured")
	}

	chatID := msg.UserID
	if id, ok := msg.Metadata["chat_id"].(string); ok && id != "" {
		chatID = id
	}

	payload, err := json.Marshal(map[string]any{
		"chat_id":    chatID,
		"text":       msg.Content,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/bot%s/sendMessage", apiBaseURL, botToken), "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// status checks the bot token against the getMe endpoint.
func (d *Driver) status(config map[string]any) drivers.ConnectionStatus {
	botToken, _ := config["bot_token"].(string)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(fmt.Sprintf("%s/bot%s/getMe", apiBaseURL, botToken))
	if err != nil {
		return drivers.ConnectionStatus{Connected: false, Error: "failed to reach Telegram API", Details: err.Error()}
	}
	defer resp.Body.Close()

	var result struct {
		OK     bool `json:"ok"`
		Result struct {
			Username string `json:"username"`
		} `json:"result"`
	}
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &result); err != nil || !result.OK {
		return drivers.ConnectionStatus{Connected: false, Error: "telegram bot token rejected", Details: string(body)}
	}
	return drivers.ConnectionStatus{Connected: true, Details: "@" + result.Result.Username}
}

// Telegram update structures.
type update struct {
	UpdateID int        `json:"update_id"`
	Message  *tgMessage `json:"message,omitempty"`
}

type tgMessage struct {
	MessageID int    `json:"message_id"`
	From      tgUser `json:"from"`
	Chat      tgChat `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text"`
}

type tgUser struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type tgChat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}
