package poll

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GSA/notifications-admin-sub001/internal/model"
)

func TestShouldRefresh(t *testing.T) {
	assert.True(t, ShouldRefresh(0, false))
	assert.True(t, ShouldRefresh(50, false))
	assert.False(t, ShouldRefresh(51, false))
	assert.False(t, ShouldRefresh(10000, false))

	// A finished job always gets one more refresh regardless of volume.
	assert.True(t, ShouldRefresh(51, true))
	assert.True(t, ShouldRefresh(10000, true))
}

func TestMachineIgnoresTicksBeforeStart(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, StateIdle, m.State())
	assert.False(t, m.Tick(model.JobStatus{SentCount: 1}))
	assert.Equal(t, StateIdle, m.State())
}

func TestMachineRefreshCycle(t *testing.T) {
	m := NewMachine()
	m.Start()
	assert.Equal(t, StatePolling, m.State())

	// Early in the job the partial refreshes on every tick.
	assert.True(t, m.Tick(model.JobStatus{SentCount: 10, TotalCount: 100}))
	assert.Equal(t, StateRefreshing, m.State())

	// Stale ticks while a refresh is in flight are dropped.
	assert.False(t, m.Tick(model.JobStatus{SentCount: 20, TotalCount: 100}))

	m.Refreshed()
	assert.Equal(t, StatePolling, m.State())
}

func TestMachineSettlesOnHighVolume(t *testing.T) {
	m := NewMachine()
	m.Start()

	// Past the threshold only the counters update; no partial refresh.
	assert.False(t, m.Tick(model.JobStatus{SentCount: 60, FailedCount: 2, TotalCount: 5000}))
	assert.Equal(t, StatePolling, m.State())

	// The finishing payload forces exactly one final refresh, then stops.
	assert.True(t, m.Tick(model.JobStatus{SentCount: 4990, FailedCount: 10, TotalCount: 5000, Finished: true}))
	assert.Equal(t, StateRefreshing, m.State())

	m.Refreshed()
	assert.Equal(t, StateStopped, m.State())
	assert.False(t, m.Tick(model.JobStatus{Finished: true}))
}

func TestMachineStop(t *testing.T) {
	m := NewMachine()
	m.Start()
	m.Stop()
	assert.False(t, m.Tick(model.JobStatus{SentCount: 1}))
	assert.Equal(t, StateStopped, m.State())

	// Stopped machines stay stopped.
	m.Start()
	assert.Equal(t, StateStopped, m.State())
}

func TestSmallJobRefreshesUntilFinished(t *testing.T) {
	m := NewMachine()
	m.Start()

	ticks := []model.JobStatus{
		{SentCount: 5, TotalCount: 30},
		{SentCount: 18, TotalCount: 30},
		{SentCount: 30, TotalCount: 30, Finished: true},
	}
	for _, s := range ticks {
		assert.True(t, m.Tick(s))
		m.Refreshed()
	}
	assert.Equal(t, StateStopped, m.State())
}
