package sys

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
)

// Ops log embed colors
const (
	opColorInfo    = 0x3498DB
	opColorSuccess = 0x2ECC71
	opColorWarn    = 0xF1C40F
	opColorError   = 0xE74C3C
)

type opLogSink struct {
	channelID snowflake.ID
	send      func(ctx context.Context, channelID snowflake.ID, msg discord.MessageCreate) error
}

var (
	opLog   *opLogSink
	opLogMu sync.RWMutex
)

// InitOpLog enables the operational log channel. A zero channelID leaves it disabled.
func InitOpLog(client *bot.Client, channelID snowflake.ID) {
	if channelID == 0 {
		return
	}
	setOpLogSink(channelID, func(ctx context.Context, channelID snowflake.ID, msg discord.MessageCreate) error {
		_, err := client.Rest.CreateMessage(channelID, msg, rest.WithCtx(ctx))
		return err
	})
}

func setOpLogSink(channelID snowflake.ID, send func(ctx context.Context, channelID snowflake.ID, msg discord.MessageCreate) error) {
	opLogMu.Lock()
	defer opLogMu.Unlock()
	if send == nil {
		opLog = nil
		return
	}
	opLog = &opLogSink{channelID: channelID, send: send}
}

// emitOpLog is fire-and-forget; failures only reach the console.
func emitOpLog(embed discord.Embed) {
	opLogMu.RLock()
	sink := opLog
	opLogMu.RUnlock()
	if sink == nil {
		return
	}

	msg := discord.NewMessageCreate().AddEmbeds(embed)
	safeGo(func() {
		ctx, cancel := context.WithTimeout(AppContext, 10*time.Second)
		defer cancel()
		if err := sink.send(ctx, sink.channelID, msg); err != nil {
			LogWarn(MsgOpLogSendFail, err)
		}
	})
}

func opEmbed(title string, color int) *discord.EmbedBuilder {
	return discord.NewEmbedBuilder().
		SetTitle(title).
		SetColor(color).
		SetTimestamp(time.Now())
}

func OpLogReady(botName string, guilds int) {
	emitOpLog(opEmbed("🟢 Bot Started", opColorSuccess).
		SetDescription(fmt.Sprintf("**%s** is online in %d servers.", botName, guilds)).
		Build())
}

func OpLogCommand(userName string, userID, guildID snowflake.ID, command string, args []string) {
	argText := "None"
	if len(args) > 0 {
		argText = fmt.Sprintf("`%s`", truncate(fmt.Sprint(args), 1000))
	}
	emitOpLog(opEmbed("📝 Command Used", opColorInfo).
		AddField("User", fmt.Sprintf("%s (%s)", userName, userID), true).
		AddField("Server", guildID.String(), true).
		AddField("Command", command, true).
		AddField("Arguments", argText, false).
		Build())
}

func OpLogGuildJoin(guildID snowflake.ID, name string, members int) {
	emitOpLog(opEmbed("📥 Joined Server", opColorSuccess).
		AddField("Server", fmt.Sprintf("%s (%s)", name, guildID), false).
		AddField("Members", fmt.Sprint(members), true).
		Build())
}

func OpLogGuildLeave(guildID snowflake.ID, name string) {
	emitOpLog(opEmbed("📤 Left Server", opColorWarn).
		AddField("Server", fmt.Sprintf("%s (%s)", name, guildID), false).
		Build())
}

// OpLogPlayer records a playback lifecycle event for one guild.
func OpLogPlayer(event string, guildID snowflake.ID, detail string) {
	b := opEmbed("🎵 Player Event", opColorInfo).
		AddField("Event", event, true).
		AddField("Server", guildID.String(), true)
	if detail != "" {
		b.AddField("Details", truncate(detail, 1024), false)
	}
	emitOpLog(b.Build())
}

func OpLogNode(name string, connected bool, detail string) {
	title, color := "🔌 Node Connected", opColorSuccess
	if !connected {
		title, color = "🔌 Node Error", opColorError
	}
	b := opEmbed(title, color).AddField("Node", name, true)
	if detail != "" {
		b.AddField("Details", truncate(detail, 1024), false)
	}
	emitOpLog(b.Build())
}

func OpLogActivity(activity string) {
	emitOpLog(opEmbed("ℹ️ Activity Changed", opColorWarn).
		AddField("New Activity", truncate(activity, 1024), false).
		Build())
}

func OpLogError(source string, err error) {
	if err == nil {
		return
	}
	emitOpLog(opEmbed("❌ Error", opColorError).
		AddField("Source", source, true).
		AddField("Error", fmt.Sprintf("```%s```", truncate(err.Error(), 1000)), false).
		Build())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
