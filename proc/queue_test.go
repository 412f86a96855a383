package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queueOf(names ...string) *TrackQueue {
	q := &TrackQueue{}
	for _, it := range items(names...) {
		q.Add(it)
	}
	return q
}

func TestTrackQueueAddReturnsPosition(t *testing.T) {
	q := &TrackQueue{}
	assert.Equal(t, 1, q.Add(QueueItem{Title: "a"}))
	assert.Equal(t, 2, q.Add(QueueItem{Title: "b"}))
	assert.Equal(t, 2, q.Len())
}

func TestTrackQueueRemoveAtEveryPosition(t *testing.T) {
	names := []string{"a", "b", "c", "d"}
	for pos := 1; pos <= len(names); pos++ {
		q := queueOf(names...)

		removed, err := q.RemoveAt(pos)
		require.NoError(t, err)
		assert.Equal(t, names[pos-1], removed.Title)

		want := append(append([]string{}, names[:pos-1]...), names[pos:]...)
		assert.Equal(t, want, titles(q.Pending()), "position %d", pos)
	}
}

func TestTrackQueueRemoveAtOutOfRange(t *testing.T) {
	q := queueOf("a", "b")
	before := q.Pending()

	for _, pos := range []int{0, -1, 3, 100} {
		_, err := q.RemoveAt(pos)
		assert.ErrorIs(t, err, ErrOutOfRange)
		assert.Equal(t, KindOutOfRange, KindOf(err))
		assert.Equal(t, before, q.Pending())
	}
}

func TestTrackQueueClearKeepsCurrent(t *testing.T) {
	q := queueOf("a", "b", "c")
	cur, ok := q.Advance()
	require.True(t, ok)

	assert.Equal(t, 2, q.Clear())
	assert.Zero(t, q.Len())

	still, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, cur, still)
}

func TestTrackQueueShuffleSmallIsNoop(t *testing.T) {
	empty := &TrackQueue{}
	empty.Shuffle()
	assert.Empty(t, empty.Pending())

	one := queueOf("only")
	one.Shuffle()
	assert.Equal(t, []string{"only"}, titles(one.Pending()))
}

func TestTrackQueueShuffleIsPermutation(t *testing.T) {
	q := queueOf("a", "b", "c", "d", "e", "f")
	_, _ = q.Advance()

	q.Shuffle()

	assert.ElementsMatch(t, []string{"b", "c", "d", "e", "f"}, titles(q.Pending()))
	cur, _ := q.Current()
	assert.Equal(t, "a", cur.Title)
}

func TestTrackQueueAdvance(t *testing.T) {
	q := queueOf("a", "b")

	next, ok := q.Advance()
	require.True(t, ok)
	assert.Equal(t, "a", next.Title)

	next, ok = q.Advance()
	require.True(t, ok)
	assert.Equal(t, "b", next.Title)

	_, ok = q.Advance()
	assert.False(t, ok)
	_, ok = q.Current()
	assert.False(t, ok)
}

func TestTrackQueueAdvanceLoopRequeuesFinished(t *testing.T) {
	q := queueOf("a", "b")
	q.SetLoop(LoopQueue)

	var played []string
	for i := 0; i < 5; i++ {
		next, ok := q.Advance()
		require.True(t, ok)
		played = append(played, next.Title)
	}
	assert.Equal(t, []string{"a", "b", "a", "b", "a"}, played)
}
