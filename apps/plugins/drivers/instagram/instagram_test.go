package instagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const messagingPayload = `{
	"object": "instagram",
	"entry": [{
		"id": "ig-1",
		"time": 1700000000,
		"messaging": [{
			"sender": {"id": "igsid-1"},
			"message": {"mid": "mid.1", "text": "hi from a dm"}
		}]
	}]
}`

func TestHandleWebhook_DirectMessage(t *testing.T) {
	d := New()

	msg := d.HandleWebhook([]byte(messagingPayload))
	assert.NotNil(t, msg)
	assert.Equal(t, PlatformKey, msg.Platform)
	assert.Equal(t, "igsid-1", msg.UserID)
	assert.Equal(t, "hi from a dm", msg.Content)
	assert.Equal(t, "ig-1", msg.Metadata["account_id"])
}

func TestHandleWebhook_WrongObject(t *testing.T) {
	d := New()

	assert.Nil(t, d.HandleWebhook([]byte(`{"object":"page","entry":[]}`)))
	assert.Nil(t, d.HandleWebhook([]byte(`junk`)))
}

func TestMatchesConfig_AccountIdentity(t *testing.T) {
	d := New()

	msg := d.HandleWebhook([]byte(messagingPayload))
	assert.NotNil(t, msg)

	assert.True(t, d.MatchesConfig(msg, map[string]any{"instagram_account_id": "ig-1"}))
	assert.False(t, d.MatchesConfig(msg, map[string]any{"instagram_account_id": "ig-2"}))
	assert.False(t, d.MatchesConfig(msg, map[string]any{}))
}
