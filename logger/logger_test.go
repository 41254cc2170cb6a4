package logger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHelpersWriteThroughGlobalLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Info("[Register] created", String("email", "a@b.c"), Int64("id", 7))
	Error("[Register] failed", ErrorField(errors.New("boom")))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "[Register] created", entries[0].Message)
	assert.Equal(t, "a@b.c", entries[0].ContextMap()["email"])
	assert.Equal(t, int64(7), entries[0].ContextMap()["id"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	SetLogger(nil)
	assert.NotPanics(t, func() {
		Info("nothing configured")
		Sync()
	})
}

func TestInitLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, InitLogger(Config{Level: WarnLevel, OutputPath: path, MaxSize: 1}))
	t.Cleanup(func() { SetLogger(nil) })

	assert.False(t, L().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, L().Core().Enabled(zapcore.WarnLevel))
	assert.DirExists(t, filepath.Dir(path))
}
