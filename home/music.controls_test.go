package home

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeineian/kyvex/proc"
)

func TestParseControlID(t *testing.T) {
	action, sid, ok := parseControlID(controlID(ControlSkip, "abc-123"))
	require.True(t, ok)
	assert.Equal(t, ControlSkip, action)
	assert.Equal(t, "abc-123", sid)

	for _, bad := range []string{"", "music:", "music:skip", "music:skip:", "music:dance:abc", "ping:refresh"} {
		_, _, ok := parseControlID(bad)
		assert.False(t, ok, bad)
	}
}

func startSession(t *testing.T, f *routerFixture) *proc.GuildSession {
	t.Helper()
	require.True(t, f.router.Handle(context.Background(), invoke("!play song a", inVoice(voiceA))))
	sess, ok := f.manager.Session(guildA)
	require.True(t, ok)
	return sess
}

func press(action ControlAction, sessionID string, voice *proc.GuildSession) ControlPress {
	p := ControlPress{
		GuildID:   guildA,
		ChannelID: textA,
		UserID:    userID,
		UserName:  "listener",
		CustomID:  controlID(action, sessionID),
	}
	if voice != nil {
		p.VoiceChannelID = inVoice(voice.VoiceChannelID)
	}
	return p
}

func TestHandleControlIgnoresStalePresses(t *testing.T) {
	f := newRouterFixture(RouterConfig{})
	ctx := context.Background()

	_, handled, err := f.router.HandleControl(ctx, press(ControlSkip, "nope", nil))
	assert.False(t, handled)
	assert.NoError(t, err)

	sess := startSession(t, f)

	_, handled, _ = f.router.HandleControl(ctx, press(ControlSkip, "old-session", sess))
	assert.False(t, handled)

	other := press(ControlSkip, sess.ID, sess)
	other.ChannelID = textA + 1
	_, handled, _ = f.router.HandleControl(ctx, other)
	assert.False(t, handled)

	_, handled, _ = f.router.HandleControl(ctx, ControlPress{GuildID: guildA, ChannelID: textA, CustomID: "music:bogus"})
	assert.False(t, handled)
}

func TestHandleControlVoiceChecks(t *testing.T) {
	f := newRouterFixture(RouterConfig{})
	ctx := context.Background()
	sess := startSession(t, f)

	_, handled, err := f.router.HandleControl(ctx, press(ControlTogglePause, sess.ID, nil))
	assert.True(t, handled)
	assert.ErrorIs(t, err, proc.ErrNotInVoice)

	elsewhere := press(ControlTogglePause, sess.ID, nil)
	elsewhere.VoiceChannelID = inVoice(voiceB)
	_, handled, err = f.router.HandleControl(ctx, elsewhere)
	assert.True(t, handled)
	assert.ErrorIs(t, err, proc.ErrWrongVoice)
	assert.Equal(t, proc.StatePlaying, sess.State())
}

func TestHandleControlActions(t *testing.T) {
	f := newRouterFixture(RouterConfig{})
	ctx := context.Background()
	sess := startSession(t, f)

	reply, handled, err := f.router.HandleControl(ctx, press(ControlTogglePause, sess.ID, sess))
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "✅ | Paused the music!", reply.Content)
	assert.Equal(t, proc.StatePaused, sess.State())

	reply, _, err = f.router.HandleControl(ctx, press(ControlTogglePause, sess.ID, sess))
	require.NoError(t, err)
	assert.Equal(t, "✅ | Resumed the music!", reply.Content)
	assert.Equal(t, []bool{true, false}, f.audio.paused)

	reply, _, err = f.router.HandleControl(ctx, press(ControlLoop, sess.ID, sess))
	require.NoError(t, err)
	assert.Equal(t, "✅ | Enabled loop mode!", reply.Content)

	reply, _, err = f.router.HandleControl(ctx, press(ControlQueue, sess.ID, sess))
	require.NoError(t, err)
	require.Len(t, reply.Embeds, 1)

	reply, _, err = f.router.HandleControl(ctx, press(ControlStop, sess.ID, sess))
	require.NoError(t, err)
	assert.Equal(t, "✅ | Stopped the music and cleared the queue!", reply.Content)
	assert.Zero(t, f.manager.Len())

	// The session is gone, so its buttons go quiet.
	_, handled, _ = f.router.HandleControl(ctx, press(ControlSkip, sess.ID, sess))
	assert.False(t, handled)
}
