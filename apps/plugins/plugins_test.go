package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef"

func TestEncryptDecryptConfig_RoundTrip(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", testEncryptionKey)

	config := map[string]any{
		"access_token":    "tok_super_secret_value",
		"phone_number_id": "phone-1",
		"auto_reply":      true,
	}

	stored, err := EncryptConfig(config)
	assert.NoError(t, err)
	assert.NotContains(t, stored, "tok_super_secret_value", "ciphertext must not leak plaintext")

	decrypted, err := DecryptConfig(stored)
	assert.NoError(t, err)
	assert.Equal(t, "tok_super_secret_value", decrypted["access_token"])
	assert.Equal(t, "phone-1", decrypted["phone_number_id"])
	assert.Equal(t, true, decrypted["auto_reply"])
}

func TestDecryptConfig_EmptyStored(t *testing.T) {
	config, err := DecryptConfig("")
	assert.NoError(t, err)
	assert.Empty(t, config)
}

func TestDecryptConfig_CorruptCiphertext(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", testEncryptionKey)

	stored, err := EncryptConfig(map[string]any{"api_key": "secret"})
	assert.NoError(t, err)

	// Flip a character in the middle of the base64 payload.
	tampered := []byte(stored)
	mid := len(tampered) / 2
	if tampered[mid] == 'A' {
		tampered[mid] = 'B'
	} else {
		tampered[mid] = 'A'
	}

	_, err = DecryptConfig(string(tampered))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt")
}

func TestDecryptConfig_LegacyPlaintextJSON(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", testEncryptionKey)

	config, err := DecryptConfig(`{"bot_token":"123:abc"}`)
	assert.NoError(t, err)
	assert.Equal(t, "123:abc", config["bot_token"])
}

func TestMaskConfig_SensitiveFields(t *testing.T) {
	masked := MaskConfig(map[string]any{
		"access_token":    "tok_1234567890abcd",
		"api_key":         "short",
		"phone_number_id": "phone-1",
		"auto_reply":      true,
	})

	assert.Equal(t, "tok_...abcd", masked["access_token"])
	assert.Equal(t, "***", masked["api_key"], "short secrets are fully masked")
	assert.Equal(t, "phone-1", masked["phone_number_id"], "non-sensitive values pass through")
	assert.Equal(t, true, masked["auto_reply"])
}

func TestIsMaskedValue(t *testing.T) {
	assert.True(t, IsMaskedValue("***"))
	assert.True(t, IsMaskedValue("tok_...abcd"))
	assert.False(t, IsMaskedValue("tok_1234567890abcd"))
	assert.False(t, IsMaskedValue("a...b"), "short values containing dots are not masks")
	assert.False(t, IsMaskedValue(""))
}

func TestMergeConfigWithExisting_KeepsStoredSecrets(t *testing.T) {
	existing := map[string]any{
		"access_token":    "tok_1234567890abcd",
		"phone_number_id": "phone-1",
	}
	incoming := map[string]any{
		"access_token":    "tok_...abcd", // untouched mask from the UI
		"phone_number_id": "phone-2",
	}

	merged := MergeConfigWithExisting(incoming, existing)
	assert.Equal(t, "tok_1234567890abcd", merged["access_token"])
	assert.Equal(t, "phone-2", merged["phone_number_id"])
}

func TestMergeConfigWithExisting_NewSecretReplaces(t *testing.T) {
	existing := map[string]any{"access_token": "tok_old_secret_value"}
	incoming := map[string]any{"access_token": "tok_new_secret_value"}

	merged := MergeConfigWithExisting(incoming, existing)
	assert.Equal(t, "tok_new_secret_value", merged["access_token"])
}

func TestMergeConfigWithExisting_MaskWithoutStoredValue(t *testing.T) {
	merged := MergeConfigWithExisting(map[string]any{"access_token": "***"}, map[string]any{})
	assert.Equal(t, "***", merged["access_token"], "nothing stored to restore, placeholder stays")
}
