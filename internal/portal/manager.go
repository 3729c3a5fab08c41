// internal/portal/manager.go
package portal

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/osdlabs/chromepuppet/internal/config"
	"github.com/osdlabs/chromepuppet/internal/utils"
)

// queueFloor is the point at which the operator queue is considered
// low and failed lists get a second look.
const queueFloor = 5

// ListManager owns the replacement bookkeeping: the operator-supplied
// queue of fresh lists, the sets of used, failed and ignored lists, and
// the pick order for replacements.
type ListManager struct {
	mu      sync.Mutex
	queue   []string
	used    map[string]bool
	failed  map[string]bool
	ignored map[string]bool
	logger  utils.Logger
}

// NewListManager creates a manager seeded with the operator queue and
// any statically ignored list ids.
func NewListManager(queue, ignore []string, logger utils.Logger) *ListManager {
	if logger == nil {
		logger = utils.NewLogger()
	}
	m := &ListManager{
		queue:   append([]string(nil), queue...),
		used:    make(map[string]bool),
		failed:  make(map[string]bool),
		ignored: make(map[string]bool),
		logger:  logger,
	}
	for _, id := range ignore {
		m.ignored[id] = true
	}
	return m
}

// IgnoreFilePath is the conventional per-server ignore file name,
// e.g. "IB6_IGNORE.txt".
func IgnoreFilePath(serverID string) string {
	return fmt.Sprintf("%s_IGNORE.txt", config.ServerLoginPrefix(serverID))
}

// LoadIgnoreFile merges list ids from a newline-delimited file into the
// ignore set. A missing file is not an error.
func (m *ListManager) LoadIgnoreFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer f.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if id := utils.NormalizeName(scanner.Text()); id != "" {
			m.ignored[id] = true
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read ignore file: %w", err)
	}

	m.logger.Infof("loaded %d lists from ignore file %s", count, path)
	return nil
}

// ShouldIgnore reports whether a list must never be rotated in: either
// its id is in the ignore set or its name carries the MLM marker.
func (m *ListManager) ShouldIgnore(listID, listName string) bool {
	m.mu.Lock()
	ignored := m.ignored[listID]
	m.mu.Unlock()

	if ignored {
		return true
	}
	if listName != "" && utils.ContainsFold(listName, "MLM") {
		m.logger.Infof("ignoring list %s (%s): MLM marker", listID, listName)
		return true
	}
	return false
}

// MarkUsed records a successful swap: the new list becomes used, the
// removed one is released and the new one cleared from the failed set.
func (m *ListManager) MarkUsed(newID, removedID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used[newID] = true
	delete(m.used, removedID)
	delete(m.failed, newID)
}

// MarkFailed records lists that fell below the gates this cycle.
func (m *ListManager) MarkFailed(listIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range listIDs {
		m.failed[id] = true
	}
}

// IsUsed reports whether the list is currently deployed by this run.
func (m *ListManager) IsUsed(listID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used[listID]
}

// QueueLen returns the number of fresh lists still queued.
func (m *ListManager) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// PopQueue takes the next fresh list off the operator queue.
func (m *ListManager) PopQueue() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return "", false
	}
	id := m.queue[0]
	m.queue = m.queue[1:]
	return id, true
}

// RequeueFront puts a list back at the head of the operator queue,
// used when a swap attempt failed before the list was consumed.
func (m *ListManager) RequeueFront(listID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append([]string{listID}, m.queue...)
}

// Replenish re-vets failed lists once the queue drops below the floor.
// Lists the verifier accepts again rejoin the queue.
func (m *ListManager) Replenish(verify func(listID string) bool) {
	m.mu.Lock()
	low := len(m.queue) < queueFloor
	var failed []string
	if low {
		for id := range m.failed {
			failed = append(failed, id)
		}
	}
	m.mu.Unlock()

	if !low {
		return
	}
	m.logger.Infof("list queue running low (%d remaining), re-vetting %d failed lists", m.QueueLen(), len(failed))

	var recovered []string
	for _, id := range failed {
		if verify(id) {
			recovered = append(recovered, id)
		}
	}
	if len(recovered) == 0 {
		return
	}

	m.mu.Lock()
	for _, id := range recovered {
		delete(m.failed, id)
		m.queue = append(m.queue, id)
	}
	total := len(m.queue)
	m.mu.Unlock()

	m.logger.Infof("recovered %d lists into queue, %d available", len(recovered), total)
}

// candidate checks shared by every replacement source.
func (m *ListManager) viable(listID, listName string, active map[string]bool, verify func(string) bool) bool {
	if active[listID] {
		m.logger.Infof("skipping list %s: currently active", listID)
		return false
	}
	if m.ShouldIgnore(listID, listName) {
		return false
	}
	if m.IsUsed(listID) {
		m.logger.Infof("skipping list %s: already used this run", listID)
		return false
	}
	return verify(listID)
}

// PickReplacement chooses the next list to rotate in. Priority order:
// inactive high-conversion lists, then low-contact lists, then the
// operator queue. names maps ids to display names for the ignore rule;
// active flags ids running right now. Queue entries that fail vetting
// are consumed.
func (m *ListManager) PickReplacement(highConv, lowContact []string, names map[string]string, active map[string]bool, verify func(string) bool) (string, bool) {
	for _, id := range highConv {
		if m.viable(id, names[id], active, verify) {
			m.logger.Infof("selected high-converting list %s as replacement", id)
			return id, true
		}
	}
	for _, id := range lowContact {
		if m.viable(id, names[id], active, verify) {
			m.logger.Infof("selected low-contact list %s as replacement", id)
			return id, true
		}
	}
	for {
		id, ok := m.PopQueue()
		if !ok {
			break
		}
		if m.viable(id, names[id], active, verify) {
			m.logger.Infof("selected fresh list %s from queue as replacement", id)
			return id, true
		}
	}

	m.logger.Info("no suitable inactive replacement lists found")
	return "", false
}

// HandleFailedChange puts a candidate back where it came from after a
// swap attempt failed: used lists rejoin the high-conversion pool,
// known low-contact lists their own, everything else the queue.
func (m *ListManager) HandleFailedChange(listID string, highConv, lowContact *[]string) {
	if m.IsUsed(listID) {
		*highConv = append([]string{listID}, *highConv...)
		return
	}
	for _, id := range *lowContact {
		if id == listID {
			*lowContact = append([]string{listID}, *lowContact...)
			return
		}
	}
	m.RequeueFront(listID)
}
