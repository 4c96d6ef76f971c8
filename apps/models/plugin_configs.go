package models

import (
	"time"

	"github.com/getevo/evo/v2/lib/db"
	"github.com/getevo/restify"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PluginConfig stores a per-account, per-agent plugin configuration. The
// Config column holds encrypted JSON and is never serialized to the API;
// callers receive a masked copy instead.
type PluginConfig struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	PluginID  string    `gorm:"size:100;not null;uniqueIndex:idx_plugin_user_agent" json:"pluginId"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_plugin_user_agent" json:"userId"`
	AgentID   string    `gorm:"type:char(36);not null;uniqueIndex:idx_plugin_user_agent;index" json:"agentId"`
	Platform  string    `gorm:"size:50;not null;index" json:"platform"`
	Config    string    `gorm:"type:text" json:"-"`
	Enabled   bool      `gorm:"default:false" json:"enabled"`
	LastError string    `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	restify.API `json:"-"`
}

// TableName returns the table name for the PluginConfig model
func (PluginConfig) TableName() string {
	return "plugin_configs"
}

// BeforeCreate assigns a UUID primary key
func (p *PluginConfig) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// GetPluginConfig retrieves a configuration by id
func GetPluginConfig(id string) (*PluginConfig, error) {
	var config PluginConfig
	err := db.Where("id = ?", id).First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// GetPluginConfigFor retrieves the configuration of one plugin for an
// account/agent pair
func GetPluginConfigFor(pluginID, userID, agentID string) (*PluginConfig, error) {
	var config PluginConfig
	err := db.Where("plugin_id = ? AND user_id = ? AND agent_id = ?", pluginID, userID, agentID).First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// GetPluginConfigForAgent retrieves the configuration of one plugin for an
// agent regardless of owner, for public surfaces like the widget bootstrap
func GetPluginConfigForAgent(pluginID, agentID string) (*PluginConfig, error) {
	var config PluginConfig
	err := db.Where("plugin_id = ? AND agent_id = ?", pluginID, agentID).First(&config).Error
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// GetPluginConfigsForUser retrieves all configurations owned by an account,
// optionally filtered by agent
func GetPluginConfigsForUser(userID, agentID string) ([]PluginConfig, error) {
	var configs []PluginConfig
	query := db.Where("user_id = ?", userID)
	if agentID != "" {
		query = query.Where("agent_id = ?", agentID)
	}
	err := query.Order("plugin_id ASC").Find(&configs).Error
	return configs, err
}

// GetEnabledConfigsForPlatform retrieves every enabled configuration for a
// platform, used by the webhook dispatcher to initialize drivers
func GetEnabledConfigsForPlatform(platform string) ([]PluginConfig, error) {
	var configs []PluginConfig
	err := db.Where("platform = ? AND enabled = ?", platform, true).Find(&configs).Error
	return configs, err
}

// UpsertPluginConfig creates or updates the configuration row for the
// (plugin, user, agent) key
func UpsertPluginConfig(config *PluginConfig) error {
	var existing PluginConfig
	err := db.Where("plugin_id = ? AND user_id = ? AND agent_id = ?",
		config.PluginID, config.UserID, config.AgentID).First(&existing).Error
	if err != nil {
		return db.Create(config).Error
	}
	config.ID = existing.ID
	config.CreatedAt = existing.CreatedAt
	return db.Save(config).Error
}

// DeletePluginConfig removes a configuration row
func DeletePluginConfig(id string) error {
	return db.Where("id = ?", id).Delete(&PluginConfig{}).Error
}
