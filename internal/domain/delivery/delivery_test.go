package delivery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenCheck(t *testing.T) {
	now := time.Now()
	tok := &Token{ExpiresAt: now.Add(time.Minute)}
	assert.NoError(t, tok.Check(now))
	assert.True(t, tok.Usable(now))

	assert.ErrorIs(t, tok.Check(now.Add(time.Minute)), ErrTokenExpired)

	used := now
	tok.UsedAt = &used
	assert.ErrorIs(t, tok.Check(now), ErrTokenUsed)
	assert.False(t, tok.Usable(now))
}
