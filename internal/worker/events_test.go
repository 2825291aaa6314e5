package worker

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rizesync/internal/amqp"
)

func TestNoteEventPrinter_Handle(t *testing.T) {
	var out bytes.Buffer
	p := NewNoteEventPrinter(&out)

	err := p.Handle(context.Background(), &amqp.NoteSyncedMessage{
		RunID:        "run-1",
		Kind:         "weekly",
		Key:          "2026-W42",
		Path:         "/vault/Weekly/2026-W42.md",
		DaysWithData: 5,
		WorkSeconds:  5400,
		FocusSeconds: 3600,
		Timestamp:    time.Date(2026, 10, 18, 14, 5, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	line := out.String()
	assert.Contains(t, line, "weekly")
	assert.Contains(t, line, "2026-W42")
	assert.Contains(t, line, "work 1h 30m")
	assert.Contains(t, line, "focus 1h 0m")
	assert.Contains(t, line, "days 5")
	assert.Contains(t, line, "/vault/Weekly/2026-W42.md\n")
}
