package logging

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	logger.Info("added provider %s", "work")
	logger.Warn("something odd")
	logger.Error("failed")
	logger.Debug("hidden unless debug")

	out := buf.String()
	assert.Contains(t, out, "✓ added provider work")
	assert.Contains(t, out, "⚠ something odd")
	assert.Contains(t, out, "✗ failed")
	assert.NotContains(t, out, "hidden unless debug")
}

func TestLoggerDebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, true, true)

	logger.Debug("resolver matched %d projects", 3)

	assert.Contains(t, buf.String(), "[DEBUG] resolver matched 3 projects")
}

func TestSecretNeverFormats(t *testing.T) {
	token := Secret("0.abcdef-machine-token")

	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", token))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", token))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", token))
	assert.NotContains(t, fmt.Sprintf("token is %s", token), "abcdef")
}

func TestRedact(t *testing.T) {
	msg := "calling bws --access-token 0.secret-token secret list"

	redacted := Redact(msg, []string{"0.secret-token", "ab"})
	assert.NotContains(t, redacted, "0.secret-token")
	assert.Contains(t, redacted, "[REDACTED]")
	// Short values are never redacted.
	assert.Contains(t, redacted, "bws")
}
