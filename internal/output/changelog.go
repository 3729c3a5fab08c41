// internal/output/changelog.go
package output

import (
	"github.com/osdlabs/chromepuppet/internal/portal"
)

// ChangeLog records list swap outcomes through an output writer. It is
// the bridge the balancer uses to persist every attempted change.
type ChangeLog struct {
	w Writer
}

// NewChangeLog wraps a writer.
func NewChangeLog(w Writer) *ChangeLog {
	return &ChangeLog{w: w}
}

// RecordChange persists one swap outcome.
func (l *ChangeLog) RecordChange(result portal.ChangeResult) error {
	if err := l.w.Write([]Record{FromChange(result)}); err != nil {
		return err
	}
	return l.w.Flush()
}

// Close closes the underlying writer.
func (l *ChangeLog) Close() error {
	return l.w.Close()
}
