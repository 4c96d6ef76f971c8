package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const updatePayload = `{
	"update_id": 10001,
	"message": {
		"message_id": 42,
		"from": {"id": 98765, "is_bot": false, "first_name": "Bob", "last_name": "Smith", "username": "bobsmith"},
		"chat": {"id": 98765, "type": "private"},
		"date": 1700000000,
		"text": "hi bot"
	}
}`

func TestHandleWebhook_TextUpdate(t *testing.T) {
	d := New()

	msg := d.HandleWebhook([]byte(updatePayload))
	assert.NotNil(t, msg)
	assert.Equal(t, PlatformKey, msg.Platform)
	assert.Equal(t, "98765", msg.UserID)
	assert.Equal(t, "Bob Smith", msg.UserName)
	assert.Equal(t, "hi bot", msg.Content)
	assert.Equal(t, "98765", msg.Metadata["chat_id"])
	assert.Equal(t, "42", msg.Metadata["message_id"])
}

func TestHandleWebhook_BotMessageIgnored(t *testing.T) {
	d := New()

	payload := `{"update_id": 1, "message": {"message_id": 2, "from": {"id": 3, "is_bot": true, "first_name": "OtherBot"}, "chat": {"id": 3, "type": "private"}, "text": "loop"}}`
	assert.Nil(t, d.HandleWebhook([]byte(payload)))
}

func TestHandleWebhook_NonTextUpdateIgnored(t *testing.T) {
	d := New()

	assert.Nil(t, d.HandleWebhook([]byte(`{"update_id": 1}`)))
	assert.Nil(t, d.HandleWebhook([]byte(`{"update_id": 1, "message": {"message_id": 2, "from": {"id": 3}, "chat": {"id": 3}, "text": ""}}`)))
	assert.Nil(t, d.HandleWebhook([]byte(`garbage`)))
}

func TestHandleWebhook_UsernameFallback(t *testing.T) {
	d := New()

	payload := `{"update_id": 1, "message": {"message_id": 2, "from": {"id": 3, "username": "ghost"}, "chat": {"id": 3, "type": "private"}, "text": "hello"}}`
	msg := d.HandleWebhook([]byte(payload))
	assert.NotNil(t, msg)
	assert.Equal(t, "ghost", msg.UserName)
}

func TestValidateConfig_RequiresBotToken(t *testing.T) {
	d := New()

	result := d.ValidateConfig(map[string]any{})
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "bot_token")

	result = d.ValidateConfig(map[string]any{"bot_token": "123:abc"})
	assert.True(t, result.Valid)
}
