/*
Package statusweb serves a small read-only HTTP dashboard over the
orchestrator's progress: one page per run, one page per archive, and a JSON
status endpoint.
*/
package statusweb

import (
	"sync"
	"time"
)

// ArchiveStatus is one archive file's last-known progress, kept in memory
// for the dashboard to render.
type ArchiveStatus struct {
	FileName      string
	Started       bool
	StartedAt     time.Time
	Completed     bool
	CompletedAt   time.Time
	PagesIngested int
	Error         string
}

// Model is the in-memory progress store the dashboard reads from. It
// implements ccwalker.ProgressObserver so the orchestrator can report into
// it directly with no further wiring.
type Model struct {
	mu       sync.RWMutex
	statuses map[string]*ArchiveStatus
	order    []string
}

// NewModel returns an empty Model.
func NewModel() *Model {
	return &Model{statuses: make(map[string]*ArchiveStatus)}
}

// ArchiveStarted records that fileName began processing.
func (m *Model) ArchiveStarted(fileName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.statuses[fileName]; !ok {
		m.order = append(m.order, fileName)
	}
	m.statuses[fileName] = &ArchiveStatus{
		FileName:  fileName,
		Started:   true,
		StartedAt: time.Now(),
	}
}

// ArchiveCompleted records that fileName finished processing, successfully
// or not.
func (m *Model) ArchiveCompleted(fileName string, pagesIngested int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status, ok := m.statuses[fileName]
	if !ok {
		status = &ArchiveStatus{FileName: fileName}
		m.statuses[fileName] = status
		m.order = append(m.order, fileName)
	}
	status.Completed = true
	status.CompletedAt = time.Now()
	status.PagesIngested = pagesIngested
	if err != nil {
		status.Error = err.Error()
	}
}

// Snapshot returns every known archive's status, most recently started
// first.
func (m *Model) Snapshot() []ArchiveStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ArchiveStatus, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, *m.statuses[m.order[i]])
	}
	return out
}

// Summary aggregates the snapshot into counts the home page headline uses.
type Summary struct {
	Total     int
	Started   int
	Completed int
	Failed    int
	Pages     int
}

// Summarize computes a Summary from the current snapshot.
func (m *Model) Summarize() Summary {
	snapshot := m.Snapshot()
	s := Summary{Total: len(snapshot)}
	for _, status := range snapshot {
		if status.Started {
			s.Started++
		}
		if status.Completed {
			s.Completed++
			s.Pages += status.PagesIngested
		}
		if status.Error != "" {
			s.Failed++
		}
	}
	return s
}
