package home

import (
	"context"
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/kyvex/proc"
	"github.com/leeineian/kyvex/sys"
)

func (r *Router) play(ctx context.Context, inv Invocation, query string) (discord.MessageCreate, error) {
	res, err := r.manager.Play(ctx, proc.PlayRequest{
		GuildID:        inv.GuildID,
		VoiceChannelID: *inv.VoiceChannelID,
		TextChannelID:  inv.ChannelID,
		RequesterID:    inv.AuthorID,
		RequesterName:  inv.AuthorName,
		Query:          query,
	})
	if err != nil {
		return discord.MessageCreate{}, err
	}

	// The notice is tracked by the session, so it is not returned as a reply.
	var notice discord.MessageCreate
	if res.Resolution.Type == proc.LoadPlaylist {
		notice = r.embeds.AddedPlaylist(res.Resolution.PlaylistName, res.Added)
	} else {
		notice = r.embeds.AddedToQueue(res.Added[0], res.Position)
	}
	if err := r.manager.NotifyEnqueued(ctx, res.Session, notice); err != nil {
		sys.LogWarn(sys.MsgMusicNotifyFailed, "queue", inv.GuildID, err)
	}
	return discord.MessageCreate{}, nil
}

func (r *Router) pause(ctx context.Context, guildID snowflake.ID, paused bool) (discord.MessageCreate, error) {
	if err := r.manager.Pause(ctx, guildID, paused); err != nil {
		return discord.MessageCreate{}, err
	}
	if paused {
		return successMessage("Paused the music!"), nil
	}
	return successMessage("Resumed the music!"), nil
}

func (r *Router) skip(ctx context.Context, guildID snowflake.ID) (discord.MessageCreate, error) {
	skipped, next, err := r.manager.Skip(ctx, guildID)
	if err != nil {
		return discord.MessageCreate{}, err
	}
	if next == nil {
		return successMessage(fmt.Sprintf("Skipped **%s**! Nothing left in the queue.", orUnknown(skipped.Title))), nil
	}
	return successMessage(fmt.Sprintf("Skipped **%s**!", orUnknown(skipped.Title))), nil
}

func (r *Router) stop(ctx context.Context, guildID snowflake.ID) (discord.MessageCreate, error) {
	if err := r.manager.Stop(ctx, guildID); err != nil {
		return discord.MessageCreate{}, err
	}
	return successMessage("Stopped the music and cleared the queue!"), nil
}

func (r *Router) volume(ctx context.Context, guildID snowflake.ID, level int) (discord.MessageCreate, error) {
	if err := r.manager.SetVolume(ctx, guildID, level); err != nil {
		return discord.MessageCreate{}, err
	}
	return successMessage(fmt.Sprintf("Set volume to %d%%", level)), nil
}
