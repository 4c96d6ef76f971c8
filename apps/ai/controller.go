package ai

import (
	"time"

	"github.com/botdeck/botdeck-backend/apps/models"
	redisapp "github.com/botdeck/botdeck-backend/apps/redis"
	"github.com/botdeck/botdeck-backend/lib/response"
	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/settings"
)

type Controller struct {
}

// ChatRequest is the widget chat payload
type ChatRequest struct {
	AgentID   string    `json:"agent_id" validate:"required"`
	SessionID string    `json:"session_id"`
	Message   string    `json:"message" validate:"required"`
	History   []Message `json:"history,omitempty"`
}

// ChatResponse carries the agent answer back to the widget
type ChatResponse struct {
	Reply     string `json:"reply"`
	Language  string `json:"language,omitempty"`
	AgentID   string `json:"agent_id"`
	Timestamp int64  `json:"timestamp"`
}

// Chat answers a visitor message. The endpoint is public (the widget calls
// it) and rate limited per session. Provider failures degrade to the canned
// fallback reply with a 200, never to an error page inside the widget.
func (c Controller) Chat(req *evo.Request) any {
	var params ChatRequest
	if err := req.BodyParser(&params); err != nil {
		return response.Error(response.ErrInvalidInput)
	}
	if params.AgentID == "" || params.Message == "" {
		return response.BadRequest("agent_id and message are required")
	}

	key := params.SessionID
	if key == "" {
		key = req.IP()
	}
	limit := settings.Get("CHAT.RATE_LIMIT", 20).Int()
	if !redisapp.Allow("chat:"+params.AgentID+":"+key, limit, time.Minute) {
		return response.Error(response.NewError(response.ErrorCodeInvalidInput, "Too many messages, slow down", 429))
	}

	agent, err := models.GetAgent(params.AgentID)
	if err != nil {
		return response.Error(response.ErrAgentNotFound)
	}
	if !agent.IsActive {
		return response.Forbidden("This agent is disabled")
	}

	language := DetectLanguage(params.Message)

	reply, err := ReplyForAgentWithHistory(agent, params.History, params.Message, language)
	if err != nil {
		return response.Error(response.ErrInternalError)
	}

	return response.OK(ChatResponse{
		Reply:     reply,
		Language:  language,
		AgentID:   agent.ID,
		Timestamp: time.Now().Unix(),
	})
}
