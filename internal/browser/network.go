// internal/browser/network.go
package browser

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// RequestRecord is one captured network exchange.
type RequestRecord struct {
	RequestID string    `json:"request_id"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	Status    int64     `json:"status,omitempty"`
	MimeType  string    `json:"mime_type,omitempty"`
	Type      string    `json:"type,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder captures request/response summaries from the CDP network
// domain, optionally filtered by URL substring patterns.
type Recorder struct {
	mu       sync.Mutex
	patterns []string
	records  map[string]*RequestRecord
	order    []string
}

// NewRecorder creates a recorder. With no patterns every request is
// captured; otherwise a request must contain one of the patterns.
func NewRecorder(patterns ...string) *Recorder {
	return &Recorder{
		patterns: patterns,
		records:  make(map[string]*RequestRecord),
	}
}

// AttachRecorder enables network events on the session and routes them
// into the recorder. It stays attached for the life of the session.
func (c *Chrome) AttachRecorder(rec *Recorder) error {
	if rec == nil {
		return fmt.Errorf("recorder cannot be nil")
	}

	if err := chromedp.Run(c.ctx, network.Enable()); err != nil {
		return fmt.Errorf("failed to enable network capture: %w", err)
	}

	chromedp.ListenTarget(c.ctx, rec.handleEvent)
	return nil
}

// handleEvent folds CDP network events into records.
func (r *Recorder) handleEvent(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		r.onRequest(string(e.RequestID), e.Request.URL, e.Request.Method, string(e.Type))
	case *network.EventResponseReceived:
		r.onResponse(string(e.RequestID), e.Response.Status, e.Response.MimeType)
	}
}

func (r *Recorder) onRequest(id, url, method, resourceType string) {
	if !r.matches(url) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[id] = &RequestRecord{
		RequestID: id,
		URL:       url,
		Method:    method,
		Type:      resourceType,
		Timestamp: time.Now(),
	}
	r.order = append(r.order, id)
}

func (r *Recorder) onResponse(id string, status int64, mimeType string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[id]; ok {
		rec.Status = status
		rec.MimeType = mimeType
	}
}

func (r *Recorder) matches(url string) bool {
	if len(r.patterns) == 0 {
		return true
	}
	for _, p := range r.patterns {
		if strings.Contains(url, p) {
			return true
		}
	}
	return false
}

// Records returns captured exchanges in arrival order.
func (r *Recorder) Records() []RequestRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RequestRecord, 0, len(r.order))
	for _, id := range r.order {
		if rec, ok := r.records[id]; ok {
			out = append(out, *rec)
		}
	}
	return out
}

// Clear drops all captured records.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[string]*RequestRecord)
	r.order = nil
}
