package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedact(t *testing.T) {
	in := []interface{}{"user_id", 5, "bot_token", "123:abc", "Password", "x", "dangling"}
	out := redact(in)

	assert.Equal(t, []interface{}{"user_id", 5, "bot_token", "[REDACTED]", "Password", "[REDACTED]", "dangling"}, out)
	assert.Equal(t, "123:abc", in[3], "input must not be modified")
}

func TestLoggerWritesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "test").Info("reviewed", "topic_id", 7, "token", "t")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "reviewed", entries[0].Message)
		assert.Equal(t, "test", fields["component"])
		assert.EqualValues(t, 7, fields["topic_id"])
		assert.Equal(t, "[REDACTED]", fields["token"])
	}
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error("ignored", "k", "v")
	})
}
