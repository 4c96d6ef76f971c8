package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow_WithoutRedis(t *testing.T) {
	Client = nil
	assert.True(t, Allow("chat:agent-1:sess-1", 1, time.Minute), "requests pass when Redis is unavailable")
	assert.True(t, Allow("chat:agent-1:sess-1", 1, time.Minute))
}

func TestIsAvailable_WithoutRedis(t *testing.T) {
	Client = nil
	assert.False(t, IsAvailable())
}

func TestParseAddresses(t *testing.T) {
	assert.Nil(t, parseAddresses(""))
	assert.Equal(t, []string{"localhost:6379"}, parseAddresses("localhost:6379"))
	assert.Equal(t, []string{"n1:6379", "n2:6379"}, parseAddresses(" n1:6379 , n2:6379 ,"))
}
