package models

import (
	"time"

	"github.com/getevo/evo/v2/lib/db"
	"github.com/getevo/restify"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Agent statuses
const (
	AgentStatusActive   = "active"
	AgentStatusInactive = "inactive"
)

// Default appearance and behavior for agents created without explicit values
const (
	DefaultTopColor     = "#1f2937"
	DefaultAccentColor  = "#3b82f6"
	DefaultTemperature  = 0.7
	DefaultSystemPrompt = "You are a helpful AI assistant. Answer the visitor's questions accurately and concisely, and admit when you do not know something."
)

// Agent represents a configured chatbot owned by an account
type Agent struct {
	ID           string         `gorm:"type:char(36);primaryKey" json:"id"`
	UserID       string         `gorm:"size:64;not null;index" json:"userId"`
	Name         string         `gorm:"size:255;not null" json:"name"`
	Description  string         `gorm:"type:text" json:"description,omitempty"`
	Status       string         `gorm:"size:50;not null;default:'active'" json:"status"` // active, inactive
	ChatbotName  string         `gorm:"size:255" json:"chatbotName"`
	SystemPrompt string         `gorm:"type:text" json:"systemPrompt"`
	Model        string         `gorm:"size:100" json:"model,omitempty"`
	Temperature  float64        `gorm:"default:0.7" json:"temperature"`
	Colors       datatypes.JSON `gorm:"type:json" json:"colors"`
	AvatarURL    string         `gorm:"size:512" json:"avatarUrl,omitempty"`
	WorkflowID   string         `gorm:"size:64" json:"workflowId,omitempty"`
	IsActive     bool           `gorm:"default:true" json:"isActive"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`

	restify.API `json:"-"`
}

// TableName returns the table name for the Agent model
func (Agent) TableName() string {
	return "agents"
}

// BeforeCreate assigns a UUID primary key
func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// AgentColors is the shape of the Colors JSON column
type AgentColors struct {
	TopColor        string `json:"topColor"`
	AccentColor     string `json:"accentColor"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
}

// ApplyDefaults fills missing fields on a newly created agent so every agent
// renders and answers sensibly without any customization.
func (a *Agent) ApplyDefaults() {
	if a.Status == "" {
		a.Status = AgentStatusActive
	}
	if a.ChatbotName == "" {
		a.ChatbotName = a.Name
	}
	if a.SystemPrompt == "" {
		a.SystemPrompt = DefaultSystemPrompt
	}
	if a.Temperature <= 0 {
		a.Temperature = DefaultTemperature
	}
	if len(a.Colors) == 0 {
		a.Colors = datatypes.JSON([]byte(`{"topColor":"` + DefaultTopColor + `","accentColor":"` + DefaultAccentColor + `"}`))
	}
}

// GetAgent retrieves an agent by id
func GetAgent(id string) (*Agent, error) {
	var agent Agent
	err := db.Where("id = ?", id).First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// GetAgentForUser retrieves an agent by id scoped to its owner
func GetAgentForUser(id, userID string) (*Agent, error) {
	var agent Agent
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&agent).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// GetAgentsForUser retrieves all agents owned by an account
func GetAgentsForUser(userID string) ([]Agent, error) {
	var agents []Agent
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&agents).Error
	return agents, err
}

// CountAgentsForUser returns how many agents an account owns
func CountAgentsForUser(userID string) (int64, error) {
	var count int64
	err := db.Model(&Agent{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// DeleteAgent removes an agent and its plugin configurations
func DeleteAgent(id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("agent_id = ?", id).Delete(&PluginConfig{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Agent{}).Error
	})
}
