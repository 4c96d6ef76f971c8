// Package crypto provides encryption utilities for securing sensitive data
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
)

func key() ([]byte, error) {
	k := []byte(os.Getenv("ENCRYPTION_KEY"))
	if len(k) == 0 {
		return nil, fmt.Errorf("ENCRYPTION_KEY environment variable not set")
	}
	if len(k) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be 32 bytes for AES-256, got %d bytes", len(k))
	}
	return k, nil
}

// EncryptAES256GCM encrypts plaintext using AES-256-GCM and returns
// base64-encoded ciphertext. The key is read from the ENCRYPTION_KEY
// environment variable (must be 32 bytes).
func EncryptAES256GCM(plaintext string) (string, error) {
	k, err := key()
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(k)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptAES256GCM decrypts base64-encoded ciphertext produced by
// EncryptAES256GCM. Tampered or truncated input fails authentication.
func DecryptAES256GCM(ciphertext string) (string, error) {
	k, err := key()
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 ciphertext: %w", err)
	}

	block, err := aes.NewCipher(k)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short: expected at least %d bytes, got %d", nonceSize, len(data))
	}

	nonce, encryptedData := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, encryptedData, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}

// IsEncrypted checks if a string appears to be encrypted (base64 with valid
// GCM length). Used for backward compatibility when transitioning plaintext
// rows to encrypted storage.
func IsEncrypted(data string) bool {
	if len(data) == 0 {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return false
	}
	return len(decoded) >= 13
}
