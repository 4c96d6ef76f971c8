package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", testKey)

	plaintext := `{"access_token":"secret-value"}`
	ciphertext, err := EncryptAES256GCM(plaintext)
	assert.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := DecryptAES256GCM(ciphertext)
	assert.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncrypt_NonDeterministicNonce(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", testKey)

	a, err := EncryptAES256GCM("same input")
	assert.NoError(t, err)
	b, err := EncryptAES256GCM("same input")
	assert.NoError(t, err)
	assert.NotEqual(t, a, b, "each encryption must use a fresh nonce")
}

func TestEncrypt_MissingKey(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "")

	_, err := EncryptAES256GCM("data")
	assert.Error(t, err)
}

func TestEncrypt_WrongKeyLength(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "too-short")

	_, err := EncryptAES256GCM("data")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestDecrypt_TamperedCiphertextFailsAuth(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", testKey)

	ciphertext, err := EncryptAES256GCM("authentic data")
	assert.NoError(t, err)

	tampered := []byte(ciphertext)
	mid := len(tampered) / 2
	if tampered[mid] == 'A' {
		tampered[mid] = 'B'
	} else {
		tampered[mid] = 'A'
	}

	_, err = DecryptAES256GCM(string(tampered))
	assert.Error(t, err)
}

func TestDecrypt_TruncatedInput(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", testKey)

	_, err := DecryptAES256GCM("QQ==") // decodes to a single byte
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestDecrypt_InvalidBase64(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", testKey)

	_, err := DecryptAES256GCM("!!! not base64 !!!")
	assert.Error(t, err)
}

func TestIsEncrypted(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", testKey)

	ciphertext, err := EncryptAES256GCM("data")
	assert.NoError(t, err)
	assert.True(t, IsEncrypted(ciphertext))

	assert.False(t, IsEncrypted(""))
	assert.False(t, IsEncrypted(`{"plain":"json"}`))
	assert.False(t, IsEncrypted("QQ=="))
}
