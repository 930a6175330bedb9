// Package poll implements the browser refresh policy for a running job: a
// small state machine consuming the minimal status payload and deciding when
// the heavy notifications partial is worth re-fetching.
package poll

import (
	"time"

	"github.com/GSA/notifications-admin-sub001/internal/model"
)

// RefreshThreshold is the processed-count cutoff: once more than this many
// notifications have settled, the first-page view is stable and only the
// count badges are updated until the job finishes.
const RefreshThreshold = 50

// Interval is the polling cadence while the tab is visible and the job is
// not finished.
const Interval = 2 * time.Second

// ShouldRefresh is the refresh policy: the notifications partial is
// re-fetched iff the job finished or at most RefreshThreshold notifications
// have been processed.
func ShouldRefresh(processed int, finished bool) bool {
	return finished || processed <= RefreshThreshold
}

// State of the client-side poll loop.
type State int

const (
	StateIdle State = iota
	StatePolling
	StateRefreshing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateRefreshing:
		return "refreshing"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Machine drives one job's poll loop. It holds no per-session server state;
// each payload is evaluated on its own and stale ticks are dropped while a
// refresh is in flight.
type Machine struct {
	state State
	final bool
}

func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

func (m *Machine) State() State {
	return m.state
}

// Start begins polling; ticks before Start are ignored.
func (m *Machine) Start() {
	if m.state == StateIdle {
		m.state = StatePolling
	}
}

// Stop halts the loop, e.g. when the user leaves the page.
func (m *Machine) Stop() {
	m.state = StateStopped
}

// Tick consumes one status payload and reports whether the notifications
// partial must be refreshed. A finishing payload triggers exactly one final
// refresh before the machine stops.
func (m *Machine) Tick(s model.JobStatus) bool {
	switch m.state {
	case StateIdle, StateStopped, StateRefreshing:
		return false
	}

	if s.Finished {
		m.state = StateRefreshing
		m.final = true
		return true
	}
	if ShouldRefresh(s.SentCount+s.FailedCount, false) {
		m.state = StateRefreshing
		return true
	}
	return false
}

// Refreshed marks the in-flight partial refresh complete, resuming polling
// or stopping after the final refresh.
func (m *Machine) Refreshed() {
	if m.state != StateRefreshing {
		return
	}
	if m.final {
		m.state = StateStopped
		return
	}
	m.state = StatePolling
}
