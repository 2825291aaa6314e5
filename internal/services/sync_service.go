package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rizesync/internal/amqp"
	"rizesync/internal/core"
	"rizesync/internal/log"
	"rizesync/internal/report"
	"rizesync/internal/sheets"
	"rizesync/internal/source"
	"rizesync/internal/storage"
	"rizesync/internal/vault"
)

// ErrEmptyWindow is returned when no day of a weekly window returned data.
var ErrEmptyWindow = errors.New("no day in window returned data")

// RunRecorder persists run and note outcomes. Implemented by
// storage.SQLiteRepository.
type RunRecorder interface {
	StartRun(ctx context.Context, id, mode string, startedAt time.Time) error
	RecordNote(ctx context.Context, n storage.NoteSync) (int64, error)
	FinishRun(ctx context.Context, id string, finishedAt time.Time, written, skipped, failed int) error
}

// EventPublisher announces written notes. Implemented by amqp.Client.
type EventPublisher interface {
	PublishNoteSynced(ctx context.Context, msg *amqp.NoteSyncedMessage) error
}

// SyncDeps wires a SyncService. Source and Store are required; the other
// sinks are optional and a failure in any of them never fails a note.
type SyncDeps struct {
	Source   source.Source
	Store    *vault.Store
	Ledger   RunRecorder
	Events   EventPublisher
	Exporter sheets.MetricsExporter
	Now      func() time.Time
}

// SyncRequest selects what one pass writes.
type SyncRequest struct {
	Mode     string
	Date     time.Time // zero means "use Lookback"
	Lookback int
}

// NoteResult is the outcome of one target.
type NoteResult struct {
	Target   Target
	Path     string
	Status   string // storage.StatusWritten, StatusSkipped or StatusFailed
	Window   Window
	SyncedAt time.Time
	Err      error
}

// RunSummary is the outcome of a whole pass.
type RunSummary struct {
	RunID       string
	Mode        string
	Notes       []NoteResult
	Written     int
	Skipped     int
	Failed      int
	FutureDates []time.Time
}

// HasFailures reports whether any note could not be written.
func (s RunSummary) HasFailures() bool {
	return s.Failed > 0
}

func (s *RunSummary) add(r NoteResult) {
	s.Notes = append(s.Notes, r)
	switch r.Status {
	case storage.StatusWritten:
		s.Written++
	case storage.StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// SyncService runs sync passes: plan targets, fetch and aggregate, render,
// merge into the vault and notify the optional sinks.
type SyncService struct {
	agg      *Aggregator
	store    *vault.Store
	ledger   RunRecorder
	events   EventPublisher
	exporter sheets.MetricsExporter
	now      func() time.Time
	log      *log.Logger
}

// NewSyncService creates a new sync service
func NewSyncService(deps SyncDeps) *SyncService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &SyncService{
		agg:      NewAggregator(deps.Source, now),
		store:    deps.Store,
		ledger:   deps.Ledger,
		events:   deps.Events,
		exporter: deps.Exporter,
		now:      now,
		log:      log.Default(log.ComponentSync),
	}
}

// Run executes one pass. Per-note problems are reported in the summary;
// the returned error is only set for an unknown mode or cancellation.
func (s *SyncService) Run(ctx context.Context, req SyncRequest) (RunSummary, error) {
	planners, err := GetPlanners(req.Mode)
	if err != nil {
		return RunSummary{}, err
	}

	started := s.now()
	summary := RunSummary{RunID: uuid.NewString(), Mode: req.Mode}
	logger := s.log.With(log.FieldRunID, summary.RunID)
	ctx = log.NewContext(ctx, logger)

	dates, future := SelectDates(Selection{Date: req.Date, Lookback: req.Lookback}, started)
	for _, d := range future {
		logger.WarnContext(ctx, "Skipping date in the future", log.FieldDate, core.DayKey(d))
	}
	summary.FutureDates = future

	var targets []Target
	for _, p := range planners {
		targets = append(targets, p.Plan(dates)...)
	}

	s.startRun(ctx, logger, summary.RunID, req.Mode, started)
	logger.InfoContext(ctx, "Sync started",
		log.FieldMode, req.Mode,
		"targets", len(targets))

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			s.finishRun(ctx, logger, summary)
			return summary, err
		}
		res := s.syncTarget(ctx, logger, t)
		summary.add(res)
		s.notify(ctx, logger, summary.RunID, res)
	}

	s.finishRun(ctx, logger, summary)
	logger.InfoContext(ctx, "Sync finished",
		"written", summary.Written,
		"skipped", summary.Skipped,
		log.FieldFailed, summary.Failed,
		log.FieldDuration, s.now().Sub(started).Milliseconds())
	return summary, nil
}

func (s *SyncService) syncTarget(ctx context.Context, logger *log.Logger, t Target) NoteResult {
	res := NoteResult{Target: t, Path: s.path(t)}
	noteLog := logger.With(log.FieldKind, string(t.Kind), log.FieldNote, t.Key)

	w, err := s.fetch(ctx, t)
	if err != nil {
		noteLog.WarnContext(ctx, "No data for note, skipping",
			log.FieldOperation, log.OpFetch,
			log.FieldError, err)
		res.Status, res.Err = storage.StatusSkipped, err
		return res
	}
	res.Window = w
	res.SyncedAt = s.now()

	rendered := s.render(t, w, res.SyncedAt)
	if err := s.write(ctx, res.Path, s.header(t), rendered); err != nil {
		res.Err = err
		if errors.Is(err, vault.ErrMalformedDocument) {
			noteLog.WarnContext(ctx, "Malformed note left untouched",
				log.FieldPath, res.Path,
				log.FieldError, err)
			res.Status = storage.StatusSkipped
			return res
		}
		noteLog.ErrorContext(ctx, "Failed to write note",
			log.FieldOperation, log.OpWrite,
			log.FieldPath, res.Path,
			log.FieldError, err)
		res.Status = storage.StatusFailed
		return res
	}

	noteLog.InfoContext(ctx, "Note synced",
		log.FieldPath, res.Path,
		log.FieldStart, core.DayKey(t.Start),
		log.FieldEnd, core.DayKey(t.End),
		log.FieldDays, w.DaysFetched)
	res.Status = storage.StatusWritten
	return res
}

func (s *SyncService) fetch(ctx context.Context, t Target) (Window, error) {
	if t.Kind == report.KindDaily {
		return s.agg.Day(ctx, t.Start)
	}
	w, err := s.agg.Range(ctx, t.Start, t.End)
	if err != nil {
		return Window{}, err
	}
	if w.DaysFetched == 0 {
		return Window{}, fmt.Errorf("week %s: %w", t.Key, ErrEmptyWindow)
	}
	return w, nil
}

func (s *SyncService) render(t Target, w Window, syncedAt time.Time) report.Rendered {
	in := report.Input{Metrics: w.Metrics, Projects: w.Projects, SyncedAt: syncedAt}
	if t.Kind == report.KindWeekly {
		return report.RenderWeekly(in, t.Start, t.End, w.DaysFetched)
	}
	return report.RenderDaily(in)
}

func (s *SyncService) path(t Target) string {
	if t.Kind == report.KindWeekly {
		return s.store.WeeklyPath(t.Start)
	}
	return s.store.DailyPath(t.Start)
}

func (s *SyncService) header(t Target) string {
	if t.Kind == report.KindWeekly {
		return vault.WeeklyHeader(t.Start)
	}
	return vault.DailyHeader(t.Start)
}

func (s *SyncService) write(ctx context.Context, path, header string, r report.Rendered) error {
	created, err := vault.EnsureExists(path, header)
	if err != nil {
		return err
	}
	if created {
		s.log.WithComponent(log.ComponentVault).DebugContext(ctx, "Created note", log.FieldPath, path)
	}
	return vault.Update(path, func(doc *vault.Document) error {
		for _, f := range r.Fields {
			doc.Set(f.Key, f.Value, f.Tag)
		}
		doc.Body = report.Merge(doc.Body, r.Section)
		return nil
	})
}

// notify records the outcome in the ledger and, for written notes, fans it
// out to the event bus and the spreadsheet.
func (s *SyncService) notify(ctx context.Context, logger *log.Logger, runID string, res NoteResult) {
	fields := func(op string, err error) []any {
		return log.NewFields().
			WithNote(string(res.Target.Kind), res.Target.Key, res.Path).
			WithOperation(op).
			WithError(err).
			ToSlice()
	}

	if s.ledger != nil {
		if _, err := s.ledger.RecordNote(ctx, noteSync(runID, res)); err != nil {
			logger.WithComponent(log.ComponentLedger).WarnContext(ctx, "Failed to record note outcome",
				fields(log.OpRecord, err)...)
		}
	}
	if res.Status != storage.StatusWritten {
		return
	}

	if s.events != nil {
		if err := s.events.PublishNoteSynced(ctx, noteSyncedMessage(runID, res)); err != nil {
			logger.WithComponent(log.ComponentEvents).WarnContext(ctx, "Failed to publish note event",
				fields(log.OpPublish, err)...)
		}
	}

	if s.exporter != nil {
		ref, err := s.exporter.Upsert(ctx, metricsRow(res))
		if err != nil {
			logger.WithComponent(log.ComponentSheets).WarnContext(ctx, "Failed to export note metrics",
				fields(log.OpExport, err)...)
			return
		}
		logger.WithComponent(log.ComponentSheets).DebugContext(ctx, "Exported note metrics",
			append(fields(log.OpExport, nil), log.FieldRef, ref)...)
	}
}

func (s *SyncService) startRun(ctx context.Context, logger *log.Logger, id, mode string, at time.Time) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.StartRun(ctx, id, mode, at); err != nil {
		logger.WarnContext(ctx, "Failed to record run start",
			log.FieldOperation, log.OpRecord,
			log.FieldError, err)
	}
}

func (s *SyncService) finishRun(ctx context.Context, logger *log.Logger, sum RunSummary) {
	if s.ledger == nil {
		return
	}
	// The pass may have been cancelled; the ledger still gets the counts.
	err := s.ledger.FinishRun(context.WithoutCancel(ctx), sum.RunID, s.now(), sum.Written, sum.Skipped, sum.Failed)
	if err != nil {
		logger.WarnContext(ctx, "Failed to record run finish",
			log.FieldOperation, log.OpRecord,
			log.FieldError, err)
	}
}

func noteSync(runID string, res NoteResult) storage.NoteSync {
	n := storage.NoteSync{
		RunID:          runID,
		Kind:           string(res.Target.Kind),
		NoteKey:        res.Target.Key,
		Path:           res.Path,
		WindowStart:    core.DayKey(res.Target.Start),
		WindowEnd:      core.DayKey(res.Target.End),
		DaysWithData:   int64(res.Window.DaysFetched),
		WorkSeconds:    res.Window.Metrics.WorkTime,
		FocusSeconds:   res.Window.Metrics.FocusTime,
		TrackedSeconds: res.Window.Metrics.TrackedTime,
		Status:         res.Status,
		SyncedAt:       res.SyncedAt,
	}
	if res.Err != nil {
		n.Error = res.Err.Error()
	}
	return n
}

func noteSyncedMessage(runID string, res NoteResult) *amqp.NoteSyncedMessage {
	m := res.Window.Metrics
	return &amqp.NoteSyncedMessage{
		RunID:          runID,
		Kind:           string(res.Target.Kind),
		Key:            res.Target.Key,
		Path:           res.Path,
		Start:          core.DayKey(res.Target.Start),
		End:            core.DayKey(res.Target.End),
		DaysWithData:   res.Window.DaysFetched,
		WorkSeconds:    m.WorkTime,
		FocusSeconds:   m.FocusTime,
		MeetingSeconds: m.MeetingTime,
		BreakSeconds:   m.BreakTime,
		TrackedSeconds: m.TrackedTime,
		Timestamp:      res.SyncedAt,
	}
}

func metricsRow(res NoteResult) sheets.MetricsRow {
	m := res.Window.Metrics
	return sheets.MetricsRow{
		Kind:         string(res.Target.Kind),
		Key:          res.Target.Key,
		WorkHours:    report.Hours(m.WorkTime),
		FocusHours:   report.Hours(m.FocusTime),
		MeetingHours: report.Hours(m.MeetingTime),
		BreakHours:   report.Hours(m.BreakTime),
		TrackedHours: report.Hours(m.TrackedTime),
		SyncedAt:     res.SyncedAt,
	}
}
