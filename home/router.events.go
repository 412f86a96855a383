package home

import (
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
)

func invocationFromMessage(event *events.GuildMessageCreate) Invocation {
	client := event.Client()
	msg := event.Message

	inv := Invocation{
		GuildID:    event.GuildID,
		ChannelID:  event.ChannelID,
		MessageID:  msg.ID,
		AuthorID:   msg.Author.ID,
		AuthorName: msg.Author.Username,
		Content:    msg.Content,
		SentAt:     msg.CreatedAt,
	}
	inv.VoiceChannelID = voiceChannelOf(client, event.GuildID, msg.Author.ID)
	if member, ok := client.Caches.Member(event.GuildID, msg.Author.ID); ok {
		inv.Admin = isGuildAdmin(client, event.GuildID, member)
	}
	return inv
}

func pressFromComponent(event *events.ComponentInteractionCreate) (ControlPress, bool) {
	guildID := event.GuildID()
	if guildID == nil {
		return ControlPress{}, false
	}
	user := event.User()
	return ControlPress{
		GuildID:        *guildID,
		ChannelID:      event.Message.ChannelID,
		UserID:         user.ID,
		UserName:       user.Username,
		VoiceChannelID: voiceChannelOf(event.Client(), *guildID, user.ID),
		CustomID:       event.Data.CustomID(),
	}, true
}

func voiceChannelOf(client *bot.Client, guildID, userID snowflake.ID) *snowflake.ID {
	if vs, ok := client.Caches.VoiceState(guildID, userID); ok {
		return vs.ChannelID
	}
	return nil
}

// isGuildAdmin checks guild-wide permissions only; channel overwrites cannot grant Administrator.
func isGuildAdmin(client *bot.Client, guildID snowflake.ID, member discord.Member) bool {
	guild, ok := client.Caches.Guild(guildID)
	if !ok {
		return false
	}
	if guild.OwnerID == member.User.ID {
		return true
	}

	var perms discord.Permissions
	if everyone, ok := client.Caches.Role(guildID, guildID); ok {
		perms |= everyone.Permissions
	}
	for _, roleID := range member.RoleIDs {
		if role, ok := client.Caches.Role(guildID, roleID); ok {
			perms |= role.Permissions
		}
	}
	return perms.Has(discord.PermissionAdministrator)
}
