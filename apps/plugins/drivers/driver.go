// Package drivers provides the chatbot platform driver contract, the shared
// base implementation and the driver registry.
package drivers

// Field types accepted in a driver configuration schema.
const (
	FieldTypeString   = "string"
	FieldTypeNumber   = "number"
	FieldTypeBoolean  = "boolean"
	FieldTypeSelect   = "select"
	FieldTypePassword = "password"
)

// ConfigField describes one field of a driver's configuration schema.
type ConfigField struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Type     string   `json:"type"` // string, number, boolean, select, password
	Required bool     `json:"required"`
	Default  any      `json:"default,omitempty"`
	Options  []string `json:"options,omitempty"` // for select type
}

// ValidationResult carries the outcome of a configuration validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ConnectionStatus reports whether a driver considers itself connected.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
	Details   string `json:"details,omitempty"`
}

// Driver is the contract every chatbot platform integration must satisfy.
//
// Initialize, SendMessage and HandleWebhook never panic and never return
// errors to the caller: failures translate to a false/nil result so that
// webhook ingress can always acknowledge the upstream platform with 2xx.
type Driver interface {
	// ID returns the unique driver identifier (e.g. "whatsapp-business").
	ID() string

	// Name returns the human readable driver name.
	Name() string

	// Platform returns the platform key used for webhook routing
	// (e.g. "whatsapp"). Several drivers may claim the same platform.
	Platform() string

	// Version returns the driver version string.
	Version() string

	// ConfigFields returns the configuration schema in display order.
	ConfigFields() []ConfigField

	// Initialize validates config, stores it and runs the platform
	// connection hook. Returns false and leaves the driver disabled on any
	// validation or hook failure. Calling it again re-validates and re-runs
	// the hook.
	Initialize(config map[string]any) bool

	// Enabled reports whether the driver passed Initialize.
	Enabled() bool

	// Disable gates the driver off without clearing its config.
	Disable()

	// ValidateConfig merges generic required-field errors with
	// platform-specific errors.
	ValidateConfig(config map[string]any) ValidationResult

	// SendMessage attempts outbound delivery, returns success.
	SendMessage(msg *ChatMessage) bool

	// HandleWebhook parses a platform payload into a normalized message.
	// Returns nil when the payload does not match the expected shape.
	HandleWebhook(payload []byte) *ChatMessage

	// VerifyWebhook answers the platform verification handshake
	// (hub.mode / hub.verify_token / hub.challenge for the Meta family).
	// Returns the response body and whether this driver handled it.
	VerifyWebhook(mode, token, challenge string) (string, bool)

	// ConnectionStatus reports driver health. Before a successful
	// Initialize it always reports not connected.
	ConnectionStatus() ConnectionStatus
}

// ConfigMatcher is implemented by drivers whose webhook payloads identify the
// receiving integration (the WhatsApp phone number id, the Messenger page
// id). The dispatcher uses it to pick the owning configuration when several
// accounts run the same driver on one platform.
type ConfigMatcher interface {
	// MatchesConfig reports whether the parsed message was delivered to the
	// integration described by config.
	MatchesConfig(msg *ChatMessage, config map[string]any) bool
}

// SensitiveFields contains configuration keys masked in API responses.
var SensitiveFields = map[string]bool{
	"access_token":   true,
	"bot_token":      true,
	"api_key":        true,
	"app_secret":     true,
	"client_secret":  true,
	"signing_secret": true,
	"public_key":     true,
	"password":       true,
	"refresh_token":  true,
}
