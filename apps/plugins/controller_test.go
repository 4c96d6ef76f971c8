package plugins

import (
	"net/http"
	"testing"

	"github.com/botdeck/botdeck-backend/apps/models"
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers/whatsapp"
	"github.com/stretchr/testify/assert"
)

func TestAuthorizeAgentMutation_ForeignAccountDenied(t *testing.T) {
	agent := &models.Agent{ID: "agent-1", UserID: "acct_owner"}

	appErr := authorizeAgentMutation(agent, "acct_intruder")
	assert.NotNil(t, appErr)
	assert.Equal(t, http.StatusForbidden, appErr.StatusCode)
}

func TestAuthorizeAgentMutation_Owner(t *testing.T) {
	agent := &models.Agent{ID: "agent-1", UserID: "acct_owner"}

	assert.Nil(t, authorizeAgentMutation(agent, "acct_owner"))
}

func TestApplyInitialization_FailureDisablesRow(t *testing.T) {
	row := &models.PluginConfig{}

	applyInitialization(row, whatsapp.New(), map[string]any{}, true)
	assert.False(t, row.Enabled, "a config the driver rejects must not stay enabled")
	assert.NotEmpty(t, row.LastError)
}

func TestApplyInitialization_Success(t *testing.T) {
	row := &models.PluginConfig{}

	applyInitialization(row, whatsapp.New(), map[string]any{
		"phone_number_id":      "phone-1",
		"access_token":         "tok_1",
		"webhook_verify_token": "verify-1",
	}, true)
	assert.True(t, row.Enabled)
	assert.Empty(t, row.LastError)
}

func TestApplyInitialization_DisabledSkipsDriver(t *testing.T) {
	row := &models.PluginConfig{}

	applyInitialization(row, whatsapp.New(), map[string]any{}, false)
	assert.False(t, row.Enabled)
	assert.Empty(t, row.LastError)
}
