// internal/output/dnclog.go
package output

import (
	"time"

	"github.com/osdlabs/chromepuppet/internal/zoom"
)

// FromDNCResult flattens a block list submission outcome into a record.
func FromDNCResult(r zoom.Result) Record {
	return Record{
		"number":    r.Number,
		"target":    r.Target,
		"status":    string(r.Status),
		"message":   r.Message,
		"attempts":  r.Attempts,
		"error":     r.Error,
		"timestamp": r.Timestamp.Format(time.RFC3339),
	}
}

// DNCLog persists batch DNC outcomes through an output writer.
type DNCLog struct {
	w Writer
}

// NewDNCLog wraps a writer.
func NewDNCLog(w Writer) *DNCLog {
	return &DNCLog{w: w}
}

// RecordResult persists one submission outcome.
func (l *DNCLog) RecordResult(result zoom.Result) error {
	if err := l.w.Write([]Record{FromDNCResult(result)}); err != nil {
		return err
	}
	return l.w.Flush()
}

// Close closes the underlying writer.
func (l *DNCLog) Close() error {
	return l.w.Close()
}
