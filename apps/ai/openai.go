package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/botdeck/botdeck-backend/apps/models"
	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
)

// FallbackReply is returned to the visitor when the LLM provider stays
// unreachable after all retries. Chat never surfaces provider errors to end
// users.
const FallbackReply = "I'm having trouble connecting right now. Please try again in a moment."

// Client is an OpenAI-compatible chat completion client. It works against
// OpenAI, OpenRouter and any other provider speaking the same API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Message is a chat turn sent to the provider
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// CompletionRequest is the chat completion request payload
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// CompletionResponse is the chat completion response payload
type CompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

var (
	client     *Client
	clientLock sync.RWMutex
)

// InitClient initializes the LLM client. Database settings win over the
// config file so operators can rotate keys without a restart.
func InitClient() error {
	clientLock.Lock()
	defer clientLock.Unlock()

	apiKey := models.GetSettingValue("ai.api_key", "")
	baseURL := models.GetSettingValue("ai.endpoint", "")
	model := models.GetSettingValue("ai.model", "")

	if apiKey == "" {
		apiKey = settings.Get("AI.API_KEY").String()
		baseURL = settings.Get("AI.ENDPOINT").String()
		model = settings.Get("AI.MODEL").String()
	}

	if apiKey == "" {
		log.Warning("AI API key is not configured")
		return fmt.Errorf("AI API key is not configured")
	}
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if model == "" {
		model = "openai/gpt-4o-mini"
	}

	client = &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	log.Info("AI client initialized with endpoint: %s, model: %s", baseURL, model)
	return nil
}

// ReloadSettings reloads AI settings from database
func ReloadSettings() {
	if err := InitClient(); err != nil {
		log.Error("Failed to reload AI settings: %v", err)
	}
}

// GetClient returns the active LLM client, or nil before InitClient succeeds
func GetClient() *Client {
	clientLock.RLock()
	defer clientLock.RUnlock()
	return client
}

// Completion sends one chat completion request
func (c *Client) Completion(messages []Message, model string, maxTokens int, temperature float64) (*CompletionResponse, error) {
	if model == "" {
		model = c.model
	}
	if maxTokens == 0 {
		maxTokens = 2000
	}
	if temperature == 0 {
		temperature = 0.7
	}

	payload := CompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequest("POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result CompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("LLM API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	return &result, nil
}

// CompletionWithRetry retries transient provider failures with exponential
// backoff (1s, 2s, 4s) before giving up.
func (c *Client) CompletionWithRetry(messages []Message, model string, maxTokens int, temperature float64) (*CompletionResponse, error) {
	var lastErr error
	backoff := time.Second
	for attempt := 1; attempt <= 3; attempt++ {
		result, err := c.Completion(messages, model, maxTokens, temperature)
		if err == nil {
			return result, nil
		}
		lastErr = err
		log.Warning("LLM request attempt %d/3 failed: %v", attempt, err)
		if attempt < 3 {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return nil, lastErr
}

// ReplyForAgent generates the agent's answer to a user message. Provider
// failures after retries degrade to the canned fallback reply, never to an
// error the chat surface would turn into a non-200.
func ReplyForAgent(agent *models.Agent, userMessage, language string) (string, error) {
	return ReplyForAgentWithHistory(agent, nil, userMessage, language)
}

// ReplyForAgentWithHistory is ReplyForAgent with prior conversation turns
// prepended between the system prompt and the new user message. History roles
// other than "user" and "assistant" are dropped.
func ReplyForAgentWithHistory(agent *models.Agent, history []Message, userMessage, language string) (string, error) {
	c := GetClient()
	if c == nil {
		log.Warning("AI client not initialized, serving fallback reply")
		return FallbackReply, nil
	}

	systemPrompt, err := RenderAgentPrompt(agent, language)
	if err != nil {
		log.Error("prompt rendering for agent %s failed: %v", agent.ID, err)
		systemPrompt = agent.SystemPrompt
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	for _, turn := range history {
		if (turn.Role == "user" || turn.Role == "assistant") && turn.Content != "" {
			messages = append(messages, turn)
		}
	}
	messages = append(messages, Message{Role: "user", Content: userMessage})

	result, err := c.CompletionWithRetry(messages, agent.Model, 0, agent.Temperature)
	if err != nil {
		log.Error("LLM request for agent %s exhausted retries: %v", agent.ID, err)
		return FallbackReply, nil
	}

	return result.Choices[0].Message.Content, nil
}
