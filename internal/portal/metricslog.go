// internal/portal/metricslog.go
package portal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/osdlabs/chromepuppet/internal/config"
	"github.com/osdlabs/chromepuppet/internal/utils"
)

// MetricsLog appends per-list metric snapshots to daily JSON files,
// one file per source under <dir>/<login prefix><server>/<date>/.
type MetricsLog struct {
	dir      string
	serverID string
	logger   utils.Logger
}

// metricsLogEntry is the on-disk shape of one snapshot.
type metricsLogEntry struct {
	Timestamp  string `json:"timestamp"`
	ServerID   string `json:"server_id"`
	ServerType string `json:"server_type"`
	ListID     string `json:"list_id"`
	Source     string `json:"source"`

	Metrics interface{} `json:"metrics"`
}

// NewMetricsLog creates a metrics log rooted at dir for one server.
func NewMetricsLog(dir, serverID string, logger utils.Logger) *MetricsLog {
	if logger == nil {
		logger = utils.NewLogger()
	}
	return &MetricsLog{dir: dir, serverID: serverID, logger: logger}
}

// FilePath returns today's log file for a source ("dashboard",
// "strategy" or "combined"), creating the directories on the way.
func (l *MetricsLog) FilePath(source string, now time.Time) (string, error) {
	date := now.Format("2006-01-02")
	dir := filepath.Join(l.dir, config.ServerLoginPrefix(l.serverID), date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create metrics log directory: %w", err)
	}
	return filepath.Join(dir, fmt.Sprintf("%s_metrics_%s.json", source, date)), nil
}

// Append adds one snapshot to today's file for the source. The file
// holds a JSON array and is rewritten whole on each append.
func (l *MetricsLog) Append(serverType, listID, source string, metrics interface{}, now time.Time) error {
	path, err := l.FilePath(source, now)
	if err != nil {
		return err
	}

	var entries []json.RawMessage
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &entries); err != nil {
			l.logger.Warnf("could not parse existing log file %s, starting new file", path)
			entries = nil
		}
	}

	entry := metricsLogEntry{
		Timestamp:  now.Format("2006-01-02 15:04:05"),
		ServerID:   l.serverID,
		ServerType: serverType,
		ListID:     listID,
		Source:     source,
		Metrics:    metrics,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode metrics entry: %w", err)
	}
	entries = append(entries, raw)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metrics log: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metrics log: %w", err)
	}
	return nil
}
