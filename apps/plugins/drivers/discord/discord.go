// Package discord provides the Discord interactions driver.
package discord

import (
	"encoding/json"

	"github.com/botdeck/botdeck-backend/apps/plugins/drivers"
	"github.com/getevo/evo/v2/lib/log"
)

const (
	DriverID    = "discord-bot"
	PlatformKey = "discord"
)

// Discord interaction types.
const (
	interactionPing               = 1
	interactionApplicationCommand = 2
)

// Driver implements the chatbot driver contract for Discord interaction
// webhooks.
type Driver struct {
	*drivers.Base
}

// New creates the Discord driver instance.
func New() *Driver {
	d := &Driver{}
	d.Base = drivers.NewBase(DriverID, "Discord Bot", PlatformKey, "1.0.0",
		[]drivers.ConfigField{
			{Key: "application_id", Label: "Application ID", Type: drivers.FieldTypeString, Required: true},
			{Key: "bot_token", Label: "Bot Token", Type: drivers.FieldTypePassword, Required: true},
			{Key: "public_key", Label: "Interactions Public Key", Type: drivers.FieldTypePassword, Required: false},
		},
		drivers.Hooks{
			OnSend: d.send,
		})
	return d
}

// HandleWebhook parses a Discord interaction. A ping (type 1) yields a
// normalized custom message whose metadata carries the pong acknowledgement;
// an application command (type 2) yields a text message built from the
// command name and options.
func (d *Driver) HandleWebhook(payload []byte) *drivers.ChatMessage {
	var interaction interaction
	if err := json.Unmarshal(payload, &interaction); err != nil {
		log.Debug("discord: unparseable webhook payload: %v", err)
		return nil
	}

	switch interaction.Type {
	case interactionPing:
		msg := d.NewIncomingMessage("", "", "", map[string]any{"response": map[string]int{"type": 1}})
		msg.MessageType = drivers.MessageTypeCustom
		return msg
	case interactionApplicationCommand:
		if interaction.Data == nil {
			return nil
		}
		content := interaction.Data.Name
		for _, opt := range interaction.Data.Options {
			content += " " + opt.Value
		}
		userID, userName := interaction.user()
		return d.NewIncomingMessage(userID, userName, content, map[string]any{
			"interaction_id": interaction.ID,
			"channel_id":     interaction.ChannelID,
			"guild_id":       interaction.GuildID,
		})
	default:
		return nil
	}
}

// send is a test double: the channel message call is logged, not performed.
func (d *Driver) send(config map[string]any, msg *drivers.ChatMessage) error {
	applicationID, _ := config["application_id"].(string)
	log.Info("discord: send as application %s to %s: %s", applicationID, msg.UserID, msg.Content)
	return nil
}

// Discord interaction payload structures.
type interaction struct {
	ID        string `json:"id"`
	Type      int    `json:"type"`
	ChannelID string `json:"channel_id,omitempty"`
	GuildID   string `json:"guild_id,omitempty"`
	Data      *struct {
		Name    string `json:"name"`
		Options []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"options,omitempty"`
	} `json:"data,omitempty"`
	Member *struct {
		User discordUser `json:"user"`
	} `json:"member,omitempty"`
	User *discordUser `json:"user,omitempty"`
}

type discordUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
}

func (i interaction) user() (id, name string) {
	switch {
	case i.Member != nil:
		return i.Member.User.ID, i.Member.User.Username
	case i.User != nil:
		return i.User.ID, i.User.Username
	}
	return "", ""
}
