package failure

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errDemo = New("DEMO", "demo: failed")

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "OK", CodeOf(nil))
	assert.Equal(t, "DEMO", CodeOf(fmt.Errorf("wrapped: %w", errDemo)))
	assert.Equal(t, "TRANSIENT", CodeOf(context.DeadlineExceeded))
	assert.Equal(t, "INTERNAL", CodeOf(errors.New("boom")))
	assert.Equal(t, "INVALID_INPUT", CodeOf(Invalid("user id is required")))
}

func TestTransientKeepsExistingClassification(t *testing.T) {
	assert.Nil(t, Transient(nil))

	raw := errors.New("database is locked")
	wrapped := Transient(raw)
	assert.True(t, IsTransient(wrapped))
	assert.ErrorIs(t, wrapped, raw)

	assert.Same(t, errDemo, Transient(errDemo))
	assert.False(t, IsTransient(Transient(errDemo)))
}
