package plugins

import (
	"fmt"
	"testing"

	"github.com/botdeck/botdeck-backend/apps/models"
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers"
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers/discord"
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers/whatsapp"
	"github.com/stretchr/testify/assert"
)

func whatsappTenant(t *testing.T, phoneNumberID, agentID string) tenantDriver {
	t.Helper()
	d := whatsapp.New()
	config := map[string]any{
		"phone_number_id":      phoneNumberID,
		"access_token":         "tok_" + phoneNumberID,
		"webhook_verify_token": "verify-" + phoneNumberID,
	}
	assert.True(t, d.Initialize(config))
	return tenantDriver{
		driver: d,
		row:    &models.PluginConfig{PluginID: whatsapp.DriverID, AgentID: agentID, Platform: whatsapp.PlatformKey},
		config: config,
	}
}

func whatsappTextPayload(phoneNumberID string) []byte {
	return []byte(fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "biz-1",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"metadata": {"display_phone_number": "15550001111", "phone_number_id": %q},
					"contacts": [{"wa_id": "15557772222", "profile": {"name": "Alice"}}],
					"messages": [{"id": "wamid.abc", "from": "15557772222", "type": "text", "text": {"body": "hello there"}}]
				}
			}]
		}]
	}`, phoneNumberID))
}

func TestDispatchTenants_RoutesToOwningPhoneNumber(t *testing.T) {
	tenants := []tenantDriver{
		whatsappTenant(t, "phone-1", "agent-1"),
		whatsappTenant(t, "phone-2", "agent-2"),
	}

	tenant, msg := dispatchTenants(tenants, whatsappTextPayload("phone-2"))
	assert.NotNil(t, tenant)
	assert.NotNil(t, msg)
	assert.Equal(t, "agent-2", tenant.row.AgentID)
	assert.Equal(t, "hello there", msg.Content)
}

func TestDispatchTenants_UnknownIdentityMatchesNoTenant(t *testing.T) {
	tenants := []tenantDriver{
		whatsappTenant(t, "phone-1", "agent-1"),
		whatsappTenant(t, "phone-2", "agent-2"),
	}

	tenant, msg := dispatchTenants(tenants, whatsappTextPayload("phone-9"))
	assert.Nil(t, tenant)
	assert.Nil(t, msg)
}

func TestDispatchTenants_FirstParseWinsWithoutIdentity(t *testing.T) {
	first := newStub("first", "test")
	first.handle = func(payload []byte) *drivers.ChatMessage {
		return &drivers.ChatMessage{Content: "from first"}
	}
	second := newStub("second", "test")
	second.handle = func(payload []byte) *drivers.ChatMessage {
		return &drivers.ChatMessage{Content: "from second"}
	}

	tenants := []tenantDriver{
		{driver: first, row: &models.PluginConfig{AgentID: "agent-1"}},
		{driver: second, row: &models.PluginConfig{AgentID: "agent-2"}},
	}

	tenant, msg := dispatchTenants(tenants, []byte(`{}`))
	assert.Equal(t, "agent-1", tenant.row.AgentID)
	assert.Equal(t, "from first", msg.Content)
}

func TestHandshakeResponse_DiscordPing(t *testing.T) {
	d := discord.New()
	msg := d.HandleWebhook([]byte(`{"id": "i-1", "type": 1}`))
	assert.NotNil(t, msg)

	body, ok := handshakeResponse(msg)
	assert.True(t, ok)
	assert.Equal(t, map[string]int{"type": 1}, body)
}

func TestHandshakeResponse_TextMessageIsNotAHandshake(t *testing.T) {
	d := whatsapp.New()
	assert.True(t, d.Initialize(map[string]any{
		"phone_number_id":      "phone-1",
		"access_token":         "tok_1",
		"webhook_verify_token": "verify-1",
	}))

	msg := d.HandleWebhook(whatsappTextPayload("phone-1"))
	assert.NotNil(t, msg)

	_, ok := handshakeResponse(msg)
	assert.False(t, ok)
}
