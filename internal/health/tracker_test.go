package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_UnknownWithoutHistory(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, StatusUnknown, tr.StatusOf("never-seen"))
}

func TestTracker_HealthyAfterSuccesses(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 5; i++ {
		tr.RecordSuccess("lever", 10)
	}
	assert.Equal(t, StatusHealthy, tr.StatusOf("lever"))
}

func TestTracker_FailingAfterRepeatedFailures(t *testing.T) {
	tr := NewTracker()
	tr.RecordSuccess("greenhouse", 3)
	for i := 0; i < 9; i++ {
		tr.RecordFailure("greenhouse", "status 429")
	}
	assert.Equal(t, StatusFailing, tr.StatusOf("greenhouse"))
}

func TestTracker_DegradedOnMixedHistory(t *testing.T) {
	tr := NewTracker()
	tr.RecordSuccess("rss", 5)
	tr.RecordSuccess("rss", 7)
	tr.RecordFailure("rss", "timeout")
	tr.RecordSuccess("rss", 6)
	tr.RecordFailure("rss", "timeout")
	// 3/5 success with the most recent run failing
	assert.Equal(t, StatusDegraded, tr.StatusOf("rss"))
}

func TestTracker_Snapshots(t *testing.T) {
	tr := NewTracker()
	tr.RecordSuccess("a", 4)
	tr.RecordFailure("b", "boom")

	snaps := tr.Snapshots()
	require.Len(t, snaps, 2)
	byName := map[string]Snapshot{}
	for _, s := range snaps {
		byName[s.Source] = s
	}
	assert.Equal(t, 1, byName["a"].Successes)
	assert.Equal(t, 4, byName["a"].LastCount)
	assert.Equal(t, "boom", byName["b"].LastError)
	assert.Equal(t, StatusFailing, byName["b"].Status)
}
