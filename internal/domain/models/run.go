package models

import (
	"sync"
	"time"
)

// RunStatus is the lifecycle state of one refresh invocation.
type RunStatus string

const (
	RunIdle      RunStatus = "idle"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCancelled RunStatus = "cancelled"
	RunFailed    RunStatus = "failed"
)

// RunState tracks one refresh run: the requested ticker set, aggregate
// progress, and the terminal outcome. It is owned by the orchestrator and
// passed by reference to collaborators; it replaces what used to be ambient
// global state. Safe for concurrent use.
type RunState struct {
	mu sync.Mutex

	id        string
	status    RunStatus
	message   string
	done      int
	total     int
	requested []string
	started   time.Time
	finished  time.Time
}

// NewRunState returns a fresh idle state.
func NewRunState() *RunState {
	return &RunState{status: RunIdle}
}

// Begin transitions to running and records the run identity.
func (s *RunState) Begin(id string, requested []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.status = RunRunning
	s.message = ""
	s.done = 0
	s.total = 0
	s.requested = append([]string(nil), requested...)
	s.started = time.Now()
	s.finished = time.Time{}
}

// SetTotal records how many tickers survived discovery/filtering.
func (s *RunState) SetTotal(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = n
}

// SetMessage updates the status message without touching progress, used for
// stage transitions before the per-ticker work starts.
func (s *RunState) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Step increments the completed counter and returns the new (done, total)
// pair so the caller can build the matching status message.
func (s *RunState) Step() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done++
	return s.done, s.total
}

// Finish records the terminal status and message.
func (s *RunState) Finish(status RunStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.message = message
	s.finished = time.Now()
}

// Running reports whether a run is currently in flight.
func (s *RunState) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == RunRunning
}

// RunView is an immutable copy of the run state for reporting.
type RunView struct {
	ID       string    `json:"id"`
	Status   RunStatus `json:"status"`
	Message  string    `json:"message"`
	Done     int       `json:"done"`
	Total    int       `json:"total"`
	Started  time.Time `json:"started_at"`
	Finished time.Time `json:"finished_at,omitzero"`
}

// View returns a copy of the current state.
func (s *RunState) View() RunView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RunView{
		ID:       s.id,
		Status:   s.status,
		Message:  s.message,
		Done:     s.done,
		Total:    s.total,
		Started:  s.started,
		Finished: s.finished,
	}
}
