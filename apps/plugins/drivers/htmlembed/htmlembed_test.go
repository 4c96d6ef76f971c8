package htmlembed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func enabledDriver(config map[string]any) *Driver {
	d := New()
	if config == nil {
		config = map[string]any{}
	}
	if _, ok := config["widget_title"]; !ok {
		config["widget_title"] = "Support"
	}
	d.Initialize(config)
	return d
}

func TestHandleWebhook_WidgetMessage(t *testing.T) {
	d := enabledDriver(nil)

	msg := d.HandleWebhook([]byte(`{"session_id":"sess-1","message":"hi","visitor_name":"Alice","origin":"https://shop.example.com","page_url":"https://shop.example.com/pricing"}`))
	assert.NotNil(t, msg)
	assert.Equal(t, PlatformKey, msg.Platform)
	assert.Equal(t, "sess-1", msg.UserID)
	assert.Equal(t, "Alice", msg.UserName)
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, "https://shop.example.com/pricing", msg.Metadata["page_url"])
}

func TestHandleWebhook_MissingFields(t *testing.T) {
	d := enabledDriver(nil)

	assert.Nil(t, d.HandleWebhook([]byte(`{"message":"hi"}`)))
	assert.Nil(t, d.HandleWebhook([]byte(`{"session_id":"sess-1"}`)))
	assert.Nil(t, d.HandleWebhook([]byte(`broken`)))
}

func TestHandleWebhook_OriginFilter(t *testing.T) {
	d := enabledDriver(map[string]any{
		"allowed_origins": "https://a.example.com, https://b.example.com",
	})

	allowed := d.HandleWebhook([]byte(`{"session_id":"s","message":"m","origin":"https://b.example.com"}`))
	assert.NotNil(t, allowed)

	rejected := d.HandleWebhook([]byte(`{"session_id":"s","message":"m","origin":"https://evil.example.com"}`))
	assert.Nil(t, rejected)
}

func TestHandleWebhook_WildcardOrigin(t *testing.T) {
	d := enabledDriver(map[string]any{"allowed_origins": "*"})

	msg := d.HandleWebhook([]byte(`{"session_id":"s","message":"m","origin":"https://anything.example.com"}`))
	assert.NotNil(t, msg)
}

func TestWidgetSettings_Defaults(t *testing.T) {
	d := enabledDriver(nil)

	settings := d.WidgetSettings()
	assert.Equal(t, "Support", settings["title"])
	assert.Equal(t, "#1f2937", settings["color"])
	assert.Equal(t, "bottom-right", settings["position"])
	assert.NotContains(t, settings, "greeting")
}

func TestWidgetSettings_Overrides(t *testing.T) {
	d := enabledDriver(map[string]any{
		"widget_title": "Ask us",
		"widget_color": "#ff0000",
		"position":     "bottom-left",
		"greeting":     "Hi! How can we help?",
	})

	settings := d.WidgetSettings()
	assert.Equal(t, "Ask us", settings["title"])
	assert.Equal(t, "#ff0000", settings["color"])
	assert.Equal(t, "bottom-left", settings["position"])
	assert.Equal(t, "Hi! How can we help?", settings["greeting"])
}
