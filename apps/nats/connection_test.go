package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublish_NotConnected(t *testing.T) {
	err := Publish("chat.message.whatsapp", map[string]string{"agent_id": "a-1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestSubscribe_NotConnected(t *testing.T) {
	_, err := Subscribe("chat.message.*", nil)
	assert.Error(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	assert.NoError(t, Close())
	assert.NoError(t, Close())
}

func TestIsConnected_Default(t *testing.T) {
	assert.False(t, IsConnected())
}
