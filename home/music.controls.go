package home

import (
	"context"
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/kyvex/proc"
)

const controlPrefix = "music:"

type ControlAction string

const (
	ControlTogglePause ControlAction = "toggle"
	ControlSkip        ControlAction = "skip"
	ControlStop        ControlAction = "stop"
	ControlLoop        ControlAction = "loop"
	ControlQueue       ControlAction = "queue"
)

// controlID binds a button to one session instance: music:<action>:<session id>.
func controlID(action ControlAction, sessionID string) string {
	return fmt.Sprintf("%s%s:%s", controlPrefix, action, sessionID)
}

func parseControlID(customID string) (ControlAction, string, bool) {
	rest, ok := strings.CutPrefix(customID, controlPrefix)
	if !ok {
		return "", "", false
	}
	action, sessionID, ok := strings.Cut(rest, ":")
	if !ok || sessionID == "" {
		return "", "", false
	}
	switch a := ControlAction(action); a {
	case ControlTogglePause, ControlSkip, ControlStop, ControlLoop, ControlQueue:
		return a, sessionID, true
	}
	return "", "", false
}

func controlRow(snap proc.Snapshot) discord.ActionRowComponent {
	toggle := emojiPause + " Pause"
	if snap.State == proc.StatePaused {
		toggle = emojiPlay + " Resume"
	}
	return discord.NewActionRow(
		discord.NewSecondaryButton(toggle, controlID(ControlTogglePause, snap.SessionID)),
		discord.NewSecondaryButton("⏭️ Skip", controlID(ControlSkip, snap.SessionID)),
		discord.NewDangerButton("⏹️ Stop", controlID(ControlStop, snap.SessionID)),
		discord.NewSecondaryButton(emojiRepeat+" Loop", controlID(ControlLoop, snap.SessionID)),
		discord.NewSecondaryButton(emojiQueue+" Queue", controlID(ControlQueue, snap.SessionID)),
	)
}

// ControlPress is a button press on a now-playing message.
type ControlPress struct {
	GuildID        snowflake.ID
	ChannelID      snowflake.ID
	UserID         snowflake.ID
	UserName       string
	VoiceChannelID *snowflake.ID
	CustomID       string
}

// HandleControl runs a button press. handled is false when the press must be
// ignored silently: unknown id, a session that is gone or was replaced, or a
// press from outside the session's text channel.
func (r *Router) HandleControl(ctx context.Context, press ControlPress) (reply discord.MessageCreate, handled bool, err error) {
	action, sessionID, ok := parseControlID(press.CustomID)
	if !ok {
		return reply, false, nil
	}
	sess, ok := r.manager.Session(press.GuildID)
	if !ok || sess.ID != sessionID || sess.TextChannelID != press.ChannelID {
		return reply, false, nil
	}

	defer func() { r.countOutcome("button:"+string(action), err) }()

	if press.VoiceChannelID == nil {
		return reply, true, proc.ErrNotInVoice
	}
	if *press.VoiceChannelID != sess.VoiceChannelID {
		return reply, true, proc.ErrWrongVoice
	}

	switch action {
	case ControlTogglePause:
		paused, err := r.manager.TogglePause(ctx, press.GuildID)
		if err != nil {
			return reply, true, err
		}
		if paused {
			return successMessage("Paused the music!"), true, nil
		}
		return successMessage("Resumed the music!"), true, nil
	case ControlSkip:
		reply, err = r.skip(ctx, press.GuildID)
		return reply, true, err
	case ControlStop:
		reply, err = r.stop(ctx, press.GuildID)
		return reply, true, err
	case ControlLoop:
		reply, err = r.loop(press.GuildID)
		return reply, true, err
	case ControlQueue:
		reply, err = r.queue(press.GuildID, 1)
		return reply, true, err
	}
	return reply, false, nil
}
