package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerFallsBackToGlobal(t *testing.T) {
	entry := G(context.Background())
	assert.Equal(t, L.Logger, entry.Logger)
}

func TestWithLoggerRoundTrip(t *testing.T) {
	custom := logrus.NewEntry(logrus.New()).WithField("component", "watcher")
	ctx := WithLogger(context.Background(), custom)

	got := G(ctx)
	assert.Equal(t, "watcher", got.Data["component"])
}

func TestSetLogFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	prevOut := L.Logger.Out
	prevFormatter := L.Logger.Formatter
	t.Cleanup(func() {
		L.Logger.SetOutput(prevOut)
		L.Logger.Formatter = prevFormatter
	})

	SetLogOutput(&buf)
	SetLogFormat("json")
	L.WithField("path", "notes/a.md").Info("renamed")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "renamed", decoded["message"])
	assert.Equal(t, "notes/a.md", decoded["path"])
}

func TestSetLogLevelRejectsUnknown(t *testing.T) {
	assert.Error(t, SetLogLevel("chatty"))
}
