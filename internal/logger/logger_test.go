package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{"user_id", "u1", "telegram_token", "123:abc", "database_url", "postgres://x", "dangling"})
	assert.Equal(t, []interface{}{"user_id", "u1", "telegram_token", "[REDACTED]", "database_url", "[REDACTED]", "dangling"}, out)
}

func TestNopLoggerIsUsable(t *testing.T) {
	log := Nop().With("component", "test")
	log.Info("hello", "k", "v")
	log.Sync()
}
