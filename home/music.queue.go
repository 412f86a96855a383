package home

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/kyvex/proc"
)

func (r *Router) queue(guildID snowflake.ID, page int) (discord.MessageCreate, error) {
	sess, err := r.manager.Require(guildID)
	if err != nil {
		return discord.MessageCreate{}, err
	}
	snap := sess.Snapshot()
	if snap.Current == nil && len(snap.Pending) == 0 {
		return discord.MessageCreate{}, proc.ErrQueueEmpty
	}
	if page < 1 || page > QueuePages(len(snap.Pending)) {
		return discord.MessageCreate{}, proc.ErrInvalidPage
	}
	return r.embeds.QueueList(snap, page), nil
}

func (r *Router) nowPlaying(guildID snowflake.ID) (discord.MessageCreate, error) {
	sess, err := r.manager.Require(guildID)
	if err != nil {
		return discord.MessageCreate{}, err
	}
	snap := sess.Snapshot()
	if snap.Current == nil {
		return discord.MessageCreate{}, proc.ErrNothingPlaying
	}
	return r.embeds.NowPlaying(snap, *snap.Current), nil
}

func (r *Router) shuffle(guildID snowflake.ID) (discord.MessageCreate, error) {
	sess, err := r.manager.Require(guildID)
	if err != nil {
		return discord.MessageCreate{}, err
	}
	if len(sess.Snapshot().Pending) < 2 {
		return discord.MessageCreate{}, proc.ErrShuffleTooSmall
	}
	n, err := r.manager.Shuffle(guildID)
	if err != nil {
		return discord.MessageCreate{}, err
	}
	return successMessage(fmt.Sprintf("🔀 Shuffled %d tracks in the queue!", n)), nil
}

func (r *Router) loop(guildID snowflake.ID) (discord.MessageCreate, error) {
	mode, err := r.manager.ToggleLoop(guildID)
	if err != nil {
		return discord.MessageCreate{}, err
	}
	if mode == proc.LoopQueue {
		return successMessage("Enabled loop mode!"), nil
	}
	return successMessage("Disabled loop mode!"), nil
}

func (r *Router) remove(guildID snowflake.ID, position int) (discord.MessageCreate, error) {
	removed, err := r.manager.RemoveAt(guildID, position)
	if err != nil {
		return discord.MessageCreate{}, err
	}
	return successMessage(fmt.Sprintf("Removed **%s** from the queue!", orUnknown(removed.Title))), nil
}

func (r *Router) clear(guildID snowflake.ID) (discord.MessageCreate, error) {
	n, err := r.manager.Clear(guildID)
	if err != nil {
		return discord.MessageCreate{}, err
	}
	if n == 0 {
		return discord.MessageCreate{}, proc.ErrQueueAlreadyEmpty
	}
	return successMessage("Cleared the queue!"), nil
}

func (r *Router) status(guildID snowflake.ID) (discord.MessageCreate, error) {
	sess, err := r.manager.Require(guildID)
	if err != nil {
		return discord.MessageCreate{}, err
	}
	return r.embeds.Status(sess.Snapshot()), nil
}
