package agents

import (
	"encoding/json"

	"github.com/botdeck/botdeck-backend/apps/auth"
	"github.com/botdeck/botdeck-backend/apps/models"
	"github.com/botdeck/botdeck-backend/apps/storage"
	"github.com/botdeck/botdeck-backend/lib/response"
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/db"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/pagination"
	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

type Controller struct {
}

var validate = validator.New()

// CreateAgentRequest is the agent creation payload
type CreateAgentRequest struct {
	Name         string            `json:"name" validate:"required,min=1,max=255"`
	Description  string            `json:"description" validate:"max=2000"`
	ChatbotName  string            `json:"chatbotName" validate:"max=255"`
	SystemPrompt string            `json:"systemPrompt"`
	Model        string            `json:"model" validate:"max=100"`
	Temperature  float64           `json:"temperature" validate:"gte=0,lte=2"`
	Colors       map[string]string `json:"colors"`
	WorkflowID   string            `json:"workflowId" validate:"max=64"`
}

// UpdateAgentRequest is the partial update payload; nil fields are untouched
type UpdateAgentRequest struct {
	Name         *string            `json:"name" validate:"omitempty,min=1,max=255"`
	Description  *string            `json:"description" validate:"omitempty,max=2000"`
	Status       *string            `json:"status" validate:"omitempty,oneof=active inactive"`
	ChatbotName  *string            `json:"chatbotName" validate:"omitempty,max=255"`
	SystemPrompt *string            `json:"systemPrompt"`
	Model        *string            `json:"model" validate:"omitempty,max=100"`
	Temperature  *float64           `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	Colors       *map[string]string `json:"colors"`
	WorkflowID   *string            `json:"workflowId" validate:"omitempty,max=64"`
	IsActive     *bool              `json:"isActive"`
}

// AvatarRequest carries a base64 data-URI image
type AvatarRequest struct {
	Image string `json:"image" validate:"required"`
}

// ListAgents returns the caller's agents, paginated
func (c Controller) ListAgents(req *evo.Request) any {
	account, ok := requireAccount(req)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}

	var agents []models.Agent
	query := db.Model(&models.Agent{}).
		Where("user_id = ?", account.AccountID).
		Order("created_at DESC")

	p, err := pagination.New(query, req, &agents, pagination.Options{MaxSize: 100})
	if err != nil {
		return response.Error(response.ErrInternalError)
	}

	return response.OKWithMeta(agents, &response.Meta{
		Page:       p.CurrentPage,
		Limit:      p.Size,
		Total:      int64(p.Records),
		TotalPages: p.Pages,
	})
}

// CreateAgent creates an agent for the caller, applying defaults and the
// subscription's agent limit
func (c Controller) CreateAgent(req *evo.Request) any {
	account, ok := requireAccount(req)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}

	var params CreateAgentRequest
	if err := req.BodyParser(&params); err != nil {
		return response.Error(response.ErrInvalidInput)
	}
	if err := validate.Struct(params); err != nil {
		return response.BadRequest(err.Error())
	}

	subscription, err := models.GetSubscription(account.AccountID)
	if err != nil {
		return response.Error(response.ErrDatabaseError)
	}
	count, err := models.CountAgentsForUser(account.AccountID)
	if err != nil {
		return response.Error(response.ErrDatabaseError)
	}
	limits := subscription.Limits()
	if count >= int64(limits.MaxAgents) {
		return response.Forbidden("Agent limit reached for the " + limits.Plan + " plan")
	}

	agent := models.Agent{
		UserID:       account.AccountID,
		Name:         params.Name,
		Description:  params.Description,
		ChatbotName:  params.ChatbotName,
		SystemPrompt: params.SystemPrompt,
		Model:        params.Model,
		Temperature:  params.Temperature,
		WorkflowID:   params.WorkflowID,
		IsActive:     true,
	}
	if len(params.Colors) > 0 {
		data, _ := json.Marshal(params.Colors)
		agent.Colors = datatypes.JSON(data)
	}
	agent.ApplyDefaults()

	if err := db.Create(&agent).Error; err != nil {
		log.Error("failed to create agent: %v", err)
		return response.Error(response.ErrDatabaseError)
	}

	return response.Created(agent)
}

// GetAgent returns one of the caller's agents
func (c Controller) GetAgent(req *evo.Request) any {
	account, ok := requireAccount(req)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}

	agent, err := models.GetAgentForUser(req.Param("id").String(), account.AccountID)
	if err != nil {
		return response.Error(response.ErrAgentNotFound)
	}
	return response.OK(agent)
}

// UpdateAgent applies a partial update to one of the caller's agents
func (c Controller) UpdateAgent(req *evo.Request) any {
	account, ok := requireAccount(req)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}

	agent, err := models.GetAgentForUser(req.Param("id").String(), account.AccountID)
	if err != nil {
		return response.Error(response.ErrAgentNotFound)
	}

	var params UpdateAgentRequest
	if err := req.BodyParser(&params); err != nil {
		return response.Error(response.ErrInvalidInput)
	}
	if err := validate.Struct(params); err != nil {
		return response.BadRequest(err.Error())
	}

	if params.Name != nil {
		agent.Name = *params.Name
	}
	if params.Description != nil {
		agent.Description = *params.Description
	}
	if params.Status != nil {
		agent.Status = *params.Status
	}
	if params.ChatbotName != nil {
		agent.ChatbotName = *params.ChatbotName
	}
	if params.SystemPrompt != nil {
		agent.SystemPrompt = *params.SystemPrompt
	}
	if params.Model != nil {
		agent.Model = *params.Model
	}
	if params.Temperature != nil {
		agent.Temperature = *params.Temperature
	}
	if params.Colors != nil {
		data, _ := json.Marshal(*params.Colors)
		agent.Colors = datatypes.JSON(data)
	}
	if params.WorkflowID != nil {
		agent.WorkflowID = *params.WorkflowID
	}
	if params.IsActive != nil {
		agent.IsActive = *params.IsActive
	}

	if err := db.Save(agent).Error; err != nil {
		log.Error("failed to update agent %s: %v", agent.ID, err)
		return response.Error(response.ErrDatabaseError)
	}

	return response.OKWithMessage(agent, "Agent updated")
}

// DeleteAgent removes one of the caller's agents along with its plugin
// configurations
func (c Controller) DeleteAgent(req *evo.Request) any {
	account, ok := requireAccount(req)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}

	agent, err := models.GetAgentForUser(req.Param("id").String(), account.AccountID)
	if err != nil {
		return response.Error(response.ErrAgentNotFound)
	}

	if err := models.DeleteAgent(agent.ID); err != nil {
		log.Error("failed to delete agent %s: %v", agent.ID, err)
		return response.Error(response.ErrDatabaseError)
	}

	return response.Message("Agent deleted")
}

// UploadAvatar stores a new avatar for the agent and updates its URL
func (c Controller) UploadAvatar(req *evo.Request) any {
	account, ok := requireAccount(req)
	if !ok {
		return response.Error(response.ErrUnauthorized)
	}

	agent, err := models.GetAgentForUser(req.Param("id").String(), account.AccountID)
	if err != nil {
		return response.Error(response.ErrAgentNotFound)
	}

	var params AvatarRequest
	if err := req.BodyParser(&params); err != nil {
		return response.Error(response.ErrInvalidInput)
	}
	if params.Image == "" {
		return response.BadRequest("image is required")
	}

	url, err := storage.UploadAvatar(agent.ID, params.Image)
	if err != nil {
		log.Error("avatar upload for agent %s failed: %v", agent.ID, err)
		return response.BadRequest("Could not process avatar image")
	}

	agent.AvatarURL = url
	if err := db.Save(agent).Error; err != nil {
		return response.Error(response.ErrDatabaseError)
	}

	return response.OKWithMessage(map[string]string{"avatarUrl": url}, "Avatar updated")
}

func requireAccount(req *evo.Request) (*auth.Account, bool) {
	account, ok := req.User().(*auth.Account)
	if !ok || account.Anonymous() {
		return nil, false
	}
	return account, true
}
