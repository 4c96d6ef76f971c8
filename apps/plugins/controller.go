package plugins

import (
	"time"

	"github.com/botdeck/botdeck-backend/apps/auth"
	"github.com/botdeck/botdeck-backend/apps/models"
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers"
	"github.com/botdeck/botdeck-backend/apps/plugins/drivers/htmlembed"
	"github.com/botdeck/botdeck-backend/lib/response"
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/log"
)

type Controller struct {
}

// PluginInfo is the discovery descriptor for one driver
type PluginInfo struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Platform     string                `json:"platform"`
	Version      string                `json:"version"`
	ConfigFields []drivers.ConfigField `json:"config_fields"`
}

// ConfigResponse is a stored plugin configuration with sensitive values
// masked
type ConfigResponse struct {
	ID        string         `json:"id"`
	PluginID  string         `json:"pluginId"`
	AgentID   string         `json:"agentId"`
	Platform  string         `json:"platform"`
	Enabled   bool           `json:"enabled"`
	Config    map[string]any `json:"config"`
	LastError string         `json:"last_error,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SaveConfigRequest is the configuration upsert payload
type SaveConfigRequest struct {
	AgentID string         `json:"agent_id" validate:"required"`
	Config  map[string]any `json:"config" validate:"required"`
	Enabled bool           `json:"enabled"`
}

// TestRequest carries an optional candidate config to test instead of the
// stored one
type TestRequest struct {
	AgentID string         `json:"agent_id"`
	Config  map[string]any `json:"config"`
}

// ListPlugins returns every registered driver with its configuration schema
func (c Controller) ListPlugins(req *evo.Request) any {
	var plugins []PluginInfo
	for _, driver := range registry.All() {
		plugins = append(plugins, PluginInfo{
			ID:           driver.ID(),
			Name:         driver.Name(),
			Platform:     driver.Platform(),
			Version:      driver.Version(),
			ConfigFields: driver.ConfigFields(),
		})
	}
	return response.List(plugins, len(plugins))
}

// ListConfigs returns the caller's plugin configurations, optionally filtered
// by agent
func (c Controller) ListConfigs(req *evo.Request) any {
	account, ok := requireAccount(req)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}

	rows, err := models.GetPluginConfigsForUser(account.AccountID, req.Query("agent_id").String())
	if err != nil {
		return response.Error(response.ErrDatabaseError)
	}

	items := make([]ConfigResponse, 0, len(rows))
	for i := range rows {
		item, appErr := c.toResponse(&rows[i])
		if appErr != nil {
			return response.Error(*appErr)
		}
		items = append(items, *item)
	}
	return response.List(items, len(items))
}

// GetConfig returns one plugin configuration with masked credentials
func (c Controller) GetConfig(req *evo.Request) any {
	account, ok := requireAccount(req)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}

	pluginID := req.Param("id").String()
	if _, found := registry.Get(pluginID); !found {
		return response.Error(response.ErrPluginNotFound)
	}

	agentID := req.Query("agent_id").String()
	if agentID == "" {
		return response.BadRequest("agent_id is required")
	}

	row, err := models.GetPluginConfigFor(pluginID, account.AccountID, agentID)
	if err != nil {
		return response.Error(response.ErrConfigNotFound)
	}

	item, appErr := c.toResponse(row)
	if appErr != nil {
		return response.Error(*appErr)
	}
	return response.OK(item)
}

// SaveConfig validates and stores a plugin configuration for an agent.
// Masked sensitive values in the submission keep their stored counterparts.
func (c Controller) SaveConfig(req *evo.Request) any {
	account, ok := requireAccount(req)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}

	pluginID := req.Param("id").String()
	driver, found := registry.Get(pluginID)
	if !found {
		return response.Error(response.ErrPluginNotFound)
	}

	var params SaveConfigRequest
	if err := req.BodyParser(&params); err != nil {
		return response.Error(response.ErrInvalidInput)
	}
	if params.AgentID == "" || params.Config == nil {
		return response.BadRequest("agent_id and config are required")
	}

	agent, err := models.GetAgent(params.AgentID)
	if err != nil {
		return response.Error(response.ErrAgentNotFound)
	}
	if appErr := authorizeAgentMutation(agent, account.AccountID); appErr != nil {
		return response.Error(*appErr)
	}

	config := params.Config
	existing, err := models.GetPluginConfigFor(pluginID, account.AccountID, params.AgentID)
	if err == nil {
		stored, decErr := DecryptConfig(existing.Config)
		if decErr != nil {
			log.Error("plugin %s config for agent %s is corrupt: %v", pluginID, params.AgentID, decErr)
			return response.Error(response.ErrCorruptConfig)
		}
		config = MergeConfigWithExisting(params.Config, stored)
	}

	if result := driver.ValidateConfig(config); !result.Valid {
		return response.Error(response.ErrConfigValidation(result.Errors))
	}

	encrypted, err := EncryptConfig(config)
	if err != nil {
		log.Error("failed to encrypt plugin config: %v", err)
		return response.Error(response.ErrInternalError)
	}

	row := &models.PluginConfig{
		PluginID: pluginID,
		UserID:   account.AccountID,
		AgentID:  params.AgentID,
		Platform: driver.Platform(),
		Config:   encrypted,
	}
	applyInitialization(row, driver, config, params.Enabled)

	if err := models.UpsertPluginConfig(row); err != nil {
		return response.Error(response.ErrDatabaseError)
	}

	return response.OKWithMessage(ConfigResponse{
		ID:        row.ID,
		PluginID:  row.PluginID,
		AgentID:   row.AgentID,
		Platform:  row.Platform,
		Enabled:   row.Enabled,
		Config:    MaskConfig(config),
		LastError: row.LastError,
		UpdatedAt: row.UpdatedAt,
	}, "Plugin configuration saved")
}

// DeleteConfig removes a plugin configuration
func (c Controller) DeleteConfig(req *evo.Request) any {
	account, ok := requireAccount(req)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}

	pluginID := req.Param("id").String()
	agentID := req.Query("agent_id").String()
	if agentID == "" {
		return response.BadRequest("agent_id is required")
	}

	if agent, err := models.GetAgent(agentID); err == nil {
		if appErr := authorizeAgentMutation(agent, account.AccountID); appErr != nil {
			return response.Error(*appErr)
		}
	}

	row, err := models.GetPluginConfigFor(pluginID, account.AccountID, agentID)
	if err != nil {
		return response.Error(response.ErrConfigNotFound)
	}

	if err := models.DeletePluginConfig(row.ID); err != nil {
		return response.Error(response.ErrDatabaseError)
	}
	return response.Message("Plugin configuration deleted")
}

// TestPlugin initializes a driver with the candidate (or stored) config and
// reports the resulting connection status
func (c Controller) TestPlugin(req *evo.Request) any {
	account, ok := requireAccount(req)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}

	pluginID := req.Param("id").String()
	driver, found := registry.Get(pluginID)
	if !found {
		return response.Error(response.ErrPluginNotFound)
	}

	var params TestRequest
	if err := req.BodyParser(&params); err != nil {
		return response.Error(response.ErrInvalidInput)
	}

	config := params.Config
	if params.AgentID != "" {
		row, err := models.GetPluginConfigFor(pluginID, account.AccountID, params.AgentID)
		if err == nil {
			stored, decErr := DecryptConfig(row.Config)
			if decErr != nil {
				return response.Error(response.ErrCorruptConfig)
			}
			if config == nil {
				config = stored
			} else {
				config = MergeConfigWithExisting(config, stored)
			}
		}
	}
	if config == nil {
		return response.BadRequest("config is required")
	}

	if result := driver.ValidateConfig(config); !result.Valid {
		return response.Error(response.ErrConfigValidation(result.Errors))
	}

	success := driver.Initialize(config)
	status := driver.ConnectionStatus()

	return response.OK(map[string]any{
		"success": success,
		"status":  status,
	})
}

// WidgetSettings is the public bootstrap endpoint the embed script calls. It
// returns the widget appearance for an agent without exposing credentials.
func (c Controller) WidgetSettings(req *evo.Request) any {
	agentID := req.Param("agent").String()

	agent, err := models.GetAgent(agentID)
	if err != nil {
		return response.Error(response.ErrAgentNotFound)
	}

	widget := htmlembed.New()
	if row, err := models.GetPluginConfigForAgent(htmlembed.DriverID, agentID); err == nil {
		config, decErr := DecryptConfig(row.Config)
		if decErr != nil {
			return response.Error(response.ErrCorruptConfig)
		}
		widget.Initialize(config)
	}

	settings := widget.WidgetSettings()
	settings["agent"] = map[string]any{
		"id":          agent.ID,
		"chatbotName": agent.ChatbotName,
		"colors":      agent.Colors,
		"avatarUrl":   agent.AvatarURL,
	}
	return response.OK(settings)
}

// authorizeAgentMutation gates configuration writes to the agent's owner.
func authorizeAgentMutation(agent *models.Agent, accountID string) *response.AppError {
	if agent.UserID != accountID {
		appErr := response.ErrAccessDenied
		return &appErr
	}
	return nil
}

// applyInitialization enables the row only when the driver accepted its
// config. A failed initialization is stored disabled with the error noted,
// so webhook hydration does not retry a known-bad config on every delivery.
func applyInitialization(row *models.PluginConfig, driver drivers.Driver, config map[string]any, wantEnabled bool) {
	if !wantEnabled {
		row.Enabled = false
		return
	}
	if driver.Initialize(config) {
		row.Enabled = true
		return
	}
	row.Enabled = false
	row.LastError = "driver initialization failed"
}

// requireAccount resolves the authenticated account from the request
func requireAccount(req *evo.Request) (*auth.Account, bool) {
	account, ok := req.User().(*auth.Account)
	if !ok || account.Anonymous() {
		return nil, false
	}
	return account, true
}

// toResponse decrypts and masks a stored row. A row that cannot be decrypted
// surfaces as a corrupt-config error rather than an empty object.
func (c Controller) toResponse(row *models.PluginConfig) (*ConfigResponse, *response.AppError) {
	config, err := DecryptConfig(row.Config)
	if err != nil {
		log.Error("plugin %s config for agent %s is corrupt: %v", row.PluginID, row.AgentID, err)
		appErr := response.ErrCorruptConfig
		return nil, &appErr
	}
	return &ConfigResponse{
		ID:        row.ID,
		PluginID:  row.PluginID,
		AgentID:   row.AgentID,
		Platform:  row.Platform,
		Enabled:   row.Enabled,
		Config:    MaskConfig(config),
		LastError: row.LastError,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
