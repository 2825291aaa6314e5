package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldMode      = "mode"
	FieldKind      = "kind"
	FieldDate      = "date"
	FieldNote      = "note"
	FieldPath      = "path"
	FieldStart     = "start"
	FieldEnd       = "end"
	FieldDays      = "days"
	FieldFailed    = "failed"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldRef       = "ref"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentSync   = "sync"
	ComponentRize   = "rize"
	ComponentVault  = "vault"
	ComponentLedger = "ledger"
	ComponentEvents = "events"
	ComponentSheets = "sheets"
	ComponentWorker = "worker"
	ComponentCache  = "cache"
)

// Operations defines standard operation names
const (
	OpFetch    = "fetch"
	OpWrite    = "write"
	OpRecord   = "record"
	OpPublish  = "publish"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithRun adds the sync run identifier
func (f LogFields) WithRun(runID string) LogFields {
	f[FieldRunID] = runID
	return f
}

// WithNote adds the note kind, key and path
func (f LogFields) WithNote(kind, key, path string) LogFields {
	f[FieldKind] = kind
	f[FieldNote] = key
	f[FieldPath] = path
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// ToSlice converts LogFields to a slice for slog. Keys are emitted in a
// stable order.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
