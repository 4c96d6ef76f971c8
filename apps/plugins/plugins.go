// Package plugins hosts the chatbot platform plugin subsystem: the driver
// bootstrap, the configuration store facade and the webhook dispatcher.
package plugins

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/botdeck/botdeck-backend/apps/plugins/drivers"
	"github.com/botdeck/botdeck-backend/lib/crypto"
)

// EncryptConfig serializes a plugin configuration and encrypts it for
// storage.
func EncryptConfig(config map[string]any) (string, error) {
	data, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to serialize config: %w", err)
	}
	return crypto.EncryptAES256GCM(string(data))
}

// DecryptConfig decrypts and parses a stored plugin configuration. A stored
// value that cannot be decrypted or parsed is reported as an error, never
// silently degraded to an empty configuration. Plaintext JSON rows written
// before encryption was introduced are still readable.
func DecryptConfig(stored string) (map[string]any, error) {
	if stored == "" {
		return map[string]any{}, nil
	}

	raw := stored
	if crypto.IsEncrypted(stored) {
		plaintext, err := crypto.DecryptAES256GCM(stored)
		if err != nil {
			return nil, fmt.Errorf("stored config is corrupt: %w", err)
		}
		raw = plaintext
	}

	var config map[string]any
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		return nil, fmt.Errorf("stored config is corrupt: %w", err)
	}
	return config, nil
}

// MaskConfig returns a copy of config with sensitive values masked for API
// responses.
func MaskConfig(config map[string]any) map[string]any {
	masked := make(map[string]any, len(config))
	for key, value := range config {
		if drivers.SensitiveFields[key] {
			if str, ok := value.(string); ok && str != "" {
				masked[key] = maskValue(str)
				continue
			}
		}
		masked[key] = value
	}
	return masked
}

// maskValue keeps the first and last four characters so the owner can
// recognize which credential is stored.
func maskValue(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:4] + "..." + value[len(value)-4:]
}

// IsMaskedValue reports whether a submitted value looks like a mask produced
// by MaskConfig rather than a real credential.
func IsMaskedValue(value string) bool {
	if value == "***" {
		return true
	}
	return len(value) > 8 && strings.Contains(value, "...")
}

// MergeConfigWithExisting combines a submitted configuration with the stored
// one: masked sensitive values in the submission are placeholders meaning
// "keep what is stored", everything else is taken from the submission.
func MergeConfigWithExisting(incoming, existing map[string]any) map[string]any {
	merged := make(map[string]any, len(incoming))
	for key, value := range incoming {
		merged[key] = value
		if !drivers.SensitiveFields[key] {
			continue
		}
		str, ok := value.(string)
		if !ok || !IsMaskedValue(str) {
			continue
		}
		if existingValue, found := existing[key]; found {
			merged[key] = existingValue
		}
	}
	return merged
}
