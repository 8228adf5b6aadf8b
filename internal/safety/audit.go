package safety

import (
	"errors"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// ErrNilWriter is returned by AuditLogger.Log on a logger built without a
// writer.
var ErrNilWriter = errors.New("audit logger: writer is nil")

// AuditEntry captures a single tool invocation for the audit log.
type AuditEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Tool      string         `json:"tool"`
	Params    map[string]any `json:"params"`
	Result    string         `json:"result"`
	Duration  time.Duration  `json:"duration_ns"`
}

// AuditLogger writes AuditEntry records as newline-delimited JSON. It is
// safe for concurrent use.
type AuditLogger struct {
	log zerolog.Logger
}

// NewAuditLogger returns an AuditLogger writing to w, or nil when w is nil.
func NewAuditLogger(w io.Writer) *AuditLogger {
	if w == nil {
		return nil
	}
	return &AuditLogger{log: zerolog.New(zerolog.SyncWriter(w))}
}

// Log writes entry as one JSON line.
func (l *AuditLogger) Log(entry AuditEntry) error {
	if l == nil {
		return ErrNilWriter
	}
	params := entry.Params
	if params == nil {
		params = map[string]any{}
	}
	l.log.Log().
		Str("timestamp", entry.Timestamp.Format(time.RFC3339Nano)).
		Str("tool", entry.Tool).
		Interface("params", params).
		Str("result", entry.Result).
		Int64("duration_ns", int64(entry.Duration)).
		Send()
	return nil
}
