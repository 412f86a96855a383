package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuildSessionEnqueueStartsWhenStopped(t *testing.T) {
	s := NewGuildSession(1, 2, 3)
	require.NotEmpty(t, s.ID)

	start, started, pos := s.Enqueue(items("A", "B", "C")...)
	assert.True(t, started)
	assert.Equal(t, 0, pos)
	assert.Equal(t, "A", start.Title)

	snap := s.Snapshot()
	assert.Equal(t, StatePlaying, snap.State)
	require.NotNil(t, snap.Current)
	assert.Equal(t, "A", snap.Current.Title)
	assert.Equal(t, []string{"B", "C"}, titles(snap.Pending))
}

func TestGuildSessionEnqueueWhilePlayingReportsPosition(t *testing.T) {
	s := NewGuildSession(1, 2, 3)
	s.Enqueue(items("A")...)

	_, started, pos := s.Enqueue(items("B")...)
	assert.False(t, started)
	assert.Equal(t, 1, pos)

	_, _, pos = s.Enqueue(items("C", "D")...)
	assert.Equal(t, 2, pos)
}

func TestGuildSessionPauseTwiceFails(t *testing.T) {
	s := NewGuildSession(1, 2, 3)
	s.Enqueue(items("A")...)

	require.NoError(t, s.Pause(true))
	err := s.Pause(true)
	assert.ErrorIs(t, err, ErrAlreadyPaused)
	assert.Equal(t, KindAlreadyInState, KindOf(err))
	assert.Equal(t, StatePaused, s.State())
}

func TestGuildSessionPauseResume(t *testing.T) {
	s := NewGuildSession(1, 2, 3)
	s.Enqueue(items("A")...)

	require.NoError(t, s.Pause(true))
	require.NoError(t, s.Pause(false))
	assert.Equal(t, StatePlaying, s.State())

	err := s.Pause(false)
	assert.ErrorIs(t, err, ErrAlreadyPlaying)
	assert.Equal(t, KindAlreadyInState, KindOf(err))
}

func TestGuildSessionPauseWithoutPlayback(t *testing.T) {
	s := NewGuildSession(1, 2, 3)
	assert.ErrorIs(t, s.Pause(true), ErrNothingPlaying)
	assert.ErrorIs(t, s.Pause(false), ErrNothingPlaying)
	assert.Equal(t, StateStopped, s.State())
}

func TestGuildSessionTogglePause(t *testing.T) {
	s := NewGuildSession(1, 2, 3)
	s.Enqueue(items("A")...)

	paused, err := s.TogglePause()
	require.NoError(t, err)
	assert.True(t, paused)

	paused, err = s.TogglePause()
	require.NoError(t, err)
	assert.False(t, paused)
	assert.Equal(t, StatePlaying, s.State())
}

func TestGuildSessionSetVolume(t *testing.T) {
	s := NewGuildSession(1, 2, 3)
	assert.Equal(t, DefaultVolume, s.Volume())

	for _, v := range []int{0, 50, 100} {
		_, err := s.SetVolume(v)
		require.NoError(t, err)
		assert.Equal(t, v, s.Volume())
	}

	for _, v := range []int{-1, 101} {
		_, err := s.SetVolume(v)
		assert.ErrorIs(t, err, ErrInvalidVolume)
		assert.Equal(t, KindInvalidArgument, KindOf(err))
		assert.Equal(t, 100, s.Volume())
	}
}

func TestGuildSessionSkipScenario(t *testing.T) {
	s := NewGuildSession(1, 2, 3)
	s.Enqueue(items("A", "B", "C")...)

	skipped, next, ok, err := s.Skip()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", skipped.Title)
	assert.Equal(t, "B", next.Title)

	snap := s.Snapshot()
	assert.Equal(t, "B", snap.Current.Title)
	assert.Equal(t, []string{"C"}, titles(snap.Pending))
}

func TestGuildSessionSkipLastStops(t *testing.T) {
	s := NewGuildSession(1, 2, 3)
	s.Enqueue(items("A")...)

	_, _, ok, err := s.Skip()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, StateStopped, s.State())
}

func TestGuildSessionSkipEmpty(t *testing.T) {
	s := NewGuildSession(1, 2, 3)
	_, _, _, err := s.Skip()
	assert.ErrorIs(t, err, ErrNothingToSkip)
	assert.Equal(t, KindNothingToSkip, KindOf(err))
}

func TestGuildSessionSkipLoopingReplaysCurrent(t *testing.T) {
	s := NewGuildSession(1, 2, 3)
	s.Enqueue(items("A")...)
	assert.Equal(t, LoopQueue, s.ToggleLoop())

	skipped, next, ok, err := s.Skip()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", skipped.Title)
	assert.Equal(t, "A", next.Title)
	assert.Equal(t, StatePlaying, s.State())
}

func TestGuildSessionStopResets(t *testing.T) {
	s := NewGuildSession(1, 2, 3)
	s.Enqueue(items("A", "B")...)
	s.SetLoop(LoopQueue)

	s.Stop()

	snap := s.Snapshot()
	assert.Equal(t, StateStopped, snap.State)
	assert.Nil(t, snap.Current)
	assert.Empty(t, snap.Pending)
}
