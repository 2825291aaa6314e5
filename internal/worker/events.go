package worker

import (
	"context"
	"fmt"
	"io"
	"time"

	"rizesync/internal/amqp"
	"rizesync/internal/log"
	"rizesync/internal/report"
)

// NoteEventPrinter handles note.synced events from AMQP by printing one
// line per event.
type NoteEventPrinter struct {
	out io.Writer
	log *log.Logger
}

func NewNoteEventPrinter(out io.Writer) *NoteEventPrinter {
	return &NoteEventPrinter{out: out, log: log.Default(log.ComponentEvents)}
}

// Handle processes a single note.synced message.
func (p *NoteEventPrinter) Handle(ctx context.Context, msg *amqp.NoteSyncedMessage) error {
	p.log.DebugContext(ctx, "Processing note event",
		log.FieldRunID, msg.RunID,
		log.FieldKind, msg.Kind,
		log.FieldNote, msg.Key)

	_, err := fmt.Fprintf(p.out, "%s  %-6s %-10s work %-8s focus %-8s days %d  %s\n",
		msg.Timestamp.Local().Format(time.DateTime),
		msg.Kind,
		msg.Key,
		report.FormatTime(msg.WorkSeconds),
		report.FormatTime(msg.FocusSeconds),
		msg.DaysWithData,
		msg.Path)
	if err != nil {
		return fmt.Errorf("print note event: %w", err)
	}
	return nil
}
