package drivers

import (
	"fmt"
	"sync"
	"time"

	"github.com/getevo/evo/v2/lib/log"
)

// Hooks are the platform-specific extension points a concrete driver plugs
// into the shared Base. Any nil hook is a no-op that succeeds.
type Hooks struct {
	// OnValidate returns platform-specific validation errors keyed by field.
	OnValidate func(config map[string]any) map[string]string
	// OnInitialize establishes the platform connection. An error leaves the
	// driver disabled.
	OnInitialize func(config map[string]any) error
	// OnSend performs the outbound delivery attempt.
	OnSend func(config map[string]any, msg *ChatMessage) error
	// OnStatus checks platform connectivity for an enabled driver.
	OnStatus func(config map[string]any) ConnectionStatus
}

// Base carries the behavior shared by every driver: schema-driven required
// field validation, the enable/disable lifecycle gate and message
// construction helpers. Concrete drivers embed it and supply Hooks.
type Base struct {
	id       string
	name     string
	platform string
	version  string
	fields   []ConfigField
	hooks    Hooks

	mu      sync.RWMutex
	config  map[string]any
	enabled bool
}

// NewBase builds the shared driver core.
func NewBase(id, name, platform, version string, fields []ConfigField, hooks Hooks) *Base {
	return &Base{
		id:       id,
		name:     name,
		platform: platform,
		version:  version,
		fields:   fields,
		hooks:    hooks,
	}
}

func (b *Base) ID() string                  { return b.id }
func (b *Base) Name() string                { return b.name }
func (b *Base) Platform() string            { return b.platform }
func (b *Base) Version() string             { return b.version }
func (b *Base) ConfigFields() []ConfigField { return b.fields }

// Enabled reports whether the driver passed Initialize.
func (b *Base) Enabled() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.enabled
}

// Disable gates the driver off. The stored config is kept so a later
// Initialize can re-enable it.
func (b *Base) Disable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = false
}

// Config returns a copy of the active configuration.
func (b *Base) Config() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]any, len(b.config))
	for k, v := range b.config {
		out[k] = v
	}
	return out
}

// ValidateConfig merges generic required-field errors with the
// platform-specific OnValidate errors.
func (b *Base) ValidateConfig(config map[string]any) ValidationResult {
	errors := map[string]string{}
	for _, field := range b.fields {
		if !field.Required {
			continue
		}
		value, ok := config[field.Key]
		if !ok || value == nil || value == "" {
			errors[field.Key] = fmt.Sprintf("%s is required", field.Label)
		}
	}
	if b.hooks.OnValidate != nil {
		for key, msg := range b.hooks.OnValidate(config) {
			errors[key] = msg
		}
	}
	if len(errors) > 0 {
		return ValidationResult{Valid: false, Errors: errors}
	}
	return ValidationResult{Valid: true}
}

// Initialize validates config, stores it and runs the connection hook.
// Returns false and leaves the driver disabled on any failure; never panics
// to the caller. Re-initialization is idempotent.
func (b *Base) Initialize(config map[string]any) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("driver %s: initialize panicked: %v", b.id, r)
			b.Disable()
			ok = false
		}
	}()

	if result := b.ValidateConfig(config); !result.Valid {
		log.Warning("driver %s: config validation failed: %v", b.id, result.Errors)
		b.Disable()
		return false
	}

	if b.hooks.OnInitialize != nil {
		if err := b.hooks.OnInitialize(config); err != nil {
			log.Warning("driver %s: initialize hook failed: %v", b.id, err)
			b.Disable()
			return false
		}
	}

	b.mu.Lock()
	b.config = config
	b.enabled = true
	b.mu.Unlock()
	return true
}

// SendMessage attempts outbound delivery through the OnSend hook. A disabled
// driver always fails; hook errors are logged, not propagated.
func (b *Base) SendMessage(msg *ChatMessage) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("driver %s: send panicked: %v", b.id, r)
			ok = false
		}
	}()

	if !b.Enabled() {
		log.Warning("driver %s: send rejected, driver not enabled", b.id)
		return false
	}
	if b.hooks.OnSend == nil {
		return true
	}
	if err := b.hooks.OnSend(b.Config(), msg); err != nil {
		log.Error("driver %s: send failed: %v", b.id, err)
		return false
	}
	return true
}

// ConnectionStatus reports not-connected until Initialize succeeds, then
// delegates to the OnStatus hook.
func (b *Base) ConnectionStatus() ConnectionStatus {
	if !b.Enabled() {
		return ConnectionStatus{Connected: false, Error: "plugin is not enabled"}
	}
	if b.hooks.OnStatus == nil {
		return ConnectionStatus{Connected: true}
	}
	return b.hooks.OnStatus(b.Config())
}

// HandleWebhook is a default that claims nothing; concrete drivers override.
func (b *Base) HandleWebhook(payload []byte) *ChatMessage { return nil }

// VerifyWebhook is a default that answers no handshake; concrete drivers for
// platforms with a verification flow override it.
func (b *Base) VerifyWebhook(mode, token, challenge string) (string, bool) {
	return "", false
}

// NewIncomingMessage builds a normalized inbound message for this driver's
// platform.
func (b *Base) NewIncomingMessage(userID, userName, content string, metadata map[string]any) *ChatMessage {
	return &ChatMessage{
		Platform:    b.platform,
		Direction:   DirectionIncoming,
		MessageType: MessageTypeText,
		Content:     content,
		Metadata:    metadata,
		Timestamp:   time.Now(),
		UserID:      userID,
		UserName:    userName,
	}
}

// NewOutgoingMessage builds a normalized outbound message for this driver's
// platform.
func (b *Base) NewOutgoingMessage(userID, content string, metadata map[string]any) *ChatMessage {
	return &ChatMessage{
		Platform:    b.platform,
		Direction:   DirectionOutgoing,
		MessageType: MessageTypeText,
		Content:     content,
		Metadata:    metadata,
		Timestamp:   time.Now(),
		UserID:      userID,
	}
}
