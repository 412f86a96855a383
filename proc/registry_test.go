package proc

import (
	"context"
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(content string) discord.MessageCreate {
	return discord.MessageCreate{Content: content}
}

func TestTransientMessagesSingleNowPlaying(t *testing.T) {
	ctx := context.Background()
	m := newFakeMessenger()
	var reg TransientMessages

	for _, title := range []string{"A", "B", "C"} {
		require.NoError(t, reg.OnTrackStart(ctx, m, 10, msg(title)))
		assert.Equal(t, 1, m.liveCount(), "after %s", title)
	}

	ref, ok := reg.NowPlaying()
	require.True(t, ok)
	assert.True(t, m.isLive(ref.MessageID))
	assert.Len(t, m.deleted, 2)
}

func TestTransientMessagesTrackStartKeepsQueueNotices(t *testing.T) {
	ctx := context.Background()
	m := newFakeMessenger()
	var reg TransientMessages

	require.NoError(t, reg.OnEnqueue(ctx, m, 10, msg("added A")))
	require.NoError(t, reg.OnEnqueue(ctx, m, 10, msg("added B")))
	require.NoError(t, reg.OnTrackStart(ctx, m, 10, msg("now A")))
	require.NoError(t, reg.OnTrackStart(ctx, m, 10, msg("now B")))

	assert.Len(t, reg.Queued(), 2)
	for _, ref := range reg.Queued() {
		assert.True(t, m.isLive(ref.MessageID))
	}
	assert.Equal(t, 3, m.liveCount())
}

func TestTransientMessagesFlushDeletesEverything(t *testing.T) {
	ctx := context.Background()
	m := newFakeMessenger()
	var reg TransientMessages

	require.NoError(t, reg.OnEnqueue(ctx, m, 10, msg("added A")))
	require.NoError(t, reg.OnEnqueue(ctx, m, 10, msg("added B")))
	require.NoError(t, reg.OnTrackStart(ctx, m, 10, msg("now A")))
	require.Equal(t, 3, m.liveCount())

	reg.Flush(ctx, m)

	assert.Zero(t, m.liveCount())
	assert.Empty(t, reg.Queued())
	_, ok := reg.NowPlaying()
	assert.False(t, ok)
}

func TestTransientMessagesIgnoresAlreadyDeleted(t *testing.T) {
	ctx := context.Background()
	m := newFakeMessenger()
	var reg TransientMessages

	require.NoError(t, reg.OnTrackStart(ctx, m, 10, msg("now A")))
	ref, _ := reg.NowPlaying()
	m.deleteBehindOurBack(ref.MessageID)

	require.NoError(t, reg.OnTrackStart(ctx, m, 10, msg("now B")))
	assert.Equal(t, 1, m.liveCount())

	reg.Flush(ctx, m)
	assert.Zero(t, m.liveCount())
}

func TestTransientMessagesSwallowsDeleteFailures(t *testing.T) {
	ctx := context.Background()
	m := newFakeMessenger()
	var reg TransientMessages

	require.NoError(t, reg.OnEnqueue(ctx, m, 10, msg("added A")))
	require.NoError(t, reg.OnEnqueue(ctx, m, 10, msg("added B")))
	queued := reg.Queued()
	m.deleteErr[queued[0].MessageID] = errBoom

	assert.NotPanics(t, func() { reg.Flush(ctx, m) })
	assert.Empty(t, reg.Queued())
	assert.False(t, m.isLive(queued[1].MessageID))
}

func TestTransientMessagesSendFailureIsExternal(t *testing.T) {
	ctx := context.Background()
	m := newFakeMessenger()
	m.createErr = errBoom
	var reg TransientMessages

	err := reg.OnTrackStart(ctx, m, 10, msg("now A"))
	assert.Equal(t, KindExternalFailure, KindOf(err))
	assert.ErrorIs(t, err, errBoom)
	_, ok := reg.NowPlaying()
	assert.False(t, ok)
}

// racingMessenger runs onCreate after the message exists but before the send returns.
type racingMessenger struct {
	*fakeMessenger
	onCreate func()
}

func (r *racingMessenger) CreateMessage(ctx context.Context, channelID snowflake.ID, m discord.MessageCreate) (snowflake.ID, error) {
	id, err := r.fakeMessenger.CreateMessage(ctx, channelID, m)
	if err == nil && r.onCreate != nil {
		r.onCreate()
	}
	return id, err
}

func TestTransientMessagesLateSendAfterFlushIsDeleted(t *testing.T) {
	ctx := context.Background()
	m := newFakeMessenger()
	var reg TransientMessages

	racing := &racingMessenger{fakeMessenger: m, onCreate: func() { reg.Flush(ctx, m) }}
	require.NoError(t, reg.OnEnqueue(ctx, racing, 10, msg("added A")))

	assert.Empty(t, reg.Queued())
	assert.Zero(t, m.liveCount())
}
