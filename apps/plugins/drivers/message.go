package drivers

import "time"

// Message directions.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// Message types.
const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeFile   = "file"
	MessageTypeButton = "button"
	MessageTypeCard   = "card"
	MessageTypeCustom = "custom"
)

// Attachment describes a file or media item attached to a message.
type Attachment struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// ChatMessage is the normalized message record produced by webhook parsing
// and consumed by outbound senders. It is transient: published to the event
// bus and logged, never persisted by this service.
type ChatMessage struct {
	AgentID     string         `json:"agent_id,omitempty"`
	Platform    string         `json:"platform"`
	Direction   string         `json:"direction"` // incoming, outgoing
	MessageType string         `json:"message_type"`
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	UserID      string         `json:"user_id"`
	UserName    string         `json:"user_name,omitempty"`
	Attachments []Attachment   `json:"attachments,omitempty"`
}
