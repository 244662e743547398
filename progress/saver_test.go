package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaverCoalescesRapidQueues(t *testing.T) {
	repo := newRecordingProgress()
	saver := NewSaver(repo, 30*time.Millisecond)

	saver.Queue("alice", []int{1}, 10)
	saver.Queue("alice", []int{1, 2}, 30)
	saver.Queue("alice", []int{1, 2, 3}, 60)

	require.Eventually(t, func() bool {
		return repo.saveCount() == 1
	}, time.Second, 5*time.Millisecond)

	last := repo.lastSave()
	assert.Equal(t, []int{1, 2, 3}, last.UnlockedIDs)
	assert.Equal(t, 60, last.TotalPoints)

	// No second write arrives after the coalesced one.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, repo.saveCount())
}

func TestSaverQueueRearmsTimer(t *testing.T) {
	repo := newRecordingProgress()
	saver := NewSaver(repo, 50*time.Millisecond)

	saver.Queue("alice", []int{1}, 10)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, repo.saveCount())

	saver.Queue("alice", []int{1, 2}, 30)

	require.Eventually(t, func() bool {
		return repo.saveCount() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int{1, 2}, repo.lastSave().UnlockedIDs)
}

func TestSaverKeepsPendingPerUser(t *testing.T) {
	repo := newRecordingProgress()
	saver := NewSaver(repo, 30*time.Millisecond)

	saver.Queue("alice", []int{1, 2}, 30)
	saver.Queue("bob", []int{9}, 5)

	require.Eventually(t, func() bool {
		return repo.saveCount() == 2
	}, time.Second, 5*time.Millisecond)

	alice, err := repo.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, alice.UnlockedIDs)
	assert.Equal(t, 30, alice.TotalPoints)

	bob, err := repo.Get("bob")
	require.NoError(t, err)
	assert.Equal(t, []int{9}, bob.UnlockedIDs)
	assert.Equal(t, 5, bob.TotalPoints)
}

func TestSaverFlushWritesEveryPendingUser(t *testing.T) {
	repo := newRecordingProgress()
	saver := NewSaver(repo, time.Hour)

	saver.Queue("alice", []int{1, 2}, 30)
	saver.Queue("bob", []int{9}, 5)
	require.NoError(t, saver.Flush())

	assert.Equal(t, 2, repo.saveCount())

	alice, err := repo.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, 30, alice.TotalPoints)

	bob, err := repo.Get("bob")
	require.NoError(t, err)
	assert.Equal(t, 5, bob.TotalPoints)
}

func TestSaverCloseFlushesPending(t *testing.T) {
	repo := newRecordingProgress()
	saver := NewSaver(repo, time.Hour)

	saver.Queue("alice", []int{1}, 10)
	require.NoError(t, saver.Close())

	require.Equal(t, 1, repo.saveCount())
	assert.Equal(t, "alice", repo.lastSave().UserID)
}

func TestSaverFlushWithoutPending(t *testing.T) {
	repo := newRecordingProgress()
	saver := NewSaver(repo, time.Hour)

	require.NoError(t, saver.Flush())
	assert.Zero(t, repo.saveCount())
}

func TestSaverZeroDelayFallsBackToDefault(t *testing.T) {
	saver := NewSaver(newRecordingProgress(), 0)
	assert.Equal(t, DefaultQuietPeriod, saver.delay)
}
