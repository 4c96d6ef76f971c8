package wordpress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleWebhook_VisitorMessage(t *testing.T) {
	d := New()
	d.Initialize(map[string]any{"site_url": "https://blog.example.com", "api_key": "key-1"})

	payload := `{"api_key":"key-1","site_url":"https://blog.example.com","visitor_id":"v-1","visitor_name":"Alice","message":"help","post_id":7,"page":"/pricing"}`
	msg := d.HandleWebhook([]byte(payload))
	assert.NotNil(t, msg)
	assert.Equal(t, "v-1", msg.UserID)
	assert.Equal(t, "Alice", msg.UserName)
	assert.Equal(t, "help", msg.Content)
	assert.Equal(t, "/pricing", msg.Metadata["page"])
}

func TestHandleWebhook_WrongAPIKey(t *testing.T) {
	d := New()
	d.Initialize(map[string]any{"site_url": "https://blog.example.com", "api_key": "key-1"})

	payload := `{"api_key":"wrong","visitor_id":"v-1","message":"help"}`
	assert.Nil(t, d.HandleWebhook([]byte(payload)))
}

func TestHandleWebhook_MissingFields(t *testing.T) {
	d := New()

	assert.Nil(t, d.HandleWebhook([]byte(`{"visitor_id":"v-1"}`)))
	assert.Nil(t, d.HandleWebhook([]byte(`{"message":"help"}`)))
	assert.Nil(t, d.HandleWebhook([]byte(`not json`)))
}

func TestValidateConfig_SiteURL(t *testing.T) {
	d := New()

	result := d.ValidateConfig(map[string]any{"site_url": "not a url", "api_key": "k"})
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "site_url")

	result = d.ValidateConfig(map[string]any{"site_url": "https://blog.example.com", "api_key": "k"})
	assert.True(t, result.Valid)
}
