package home

import (
	"fmt"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/omit"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/kyvex/sys"
)

const pingRefreshID = "ping:refresh"

func init() {
	adminPerm := discord.PermissionAdministrator

	sys.RegisterCommand(discord.SlashCommandCreate{
		Name:                     "ping",
		Description:              "Check bot latency (Admin Only)",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts: []discord.InteractionContextType{
			discord.InteractionContextTypeGuild,
		},
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionBool{
				Name:        "ephemeral",
				Description: "Whether the message should be ephemeral (default: true)",
				Required:    false,
			},
		},
	}, handlePing)

	sys.RegisterComponentHandler(pingRefreshID, handlePingRefresh)
}

func pingContainer(client *bot.Client, interactionID snowflake.ID, icon string) discord.ContainerComponent {
	rest := time.Since(interactionID.Time()).Milliseconds()
	content := fmt.Sprintf("# Pong! %s\n\n> **Interaction:** %dms", icon, rest)
	if client.Gateway != nil {
		content += fmt.Sprintf("\n> **Gateway:** %dms", client.Gateway.Latency().Milliseconds())
	}
	return discord.NewContainer(
		discord.NewTextDisplay(content),
		discord.NewActionRow(
			discord.NewSuccessButton("🔄 Refresh", pingRefreshID),
		),
	)
}

func handlePing(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	ephemeral := true
	if eph, ok := data.OptBool("ephemeral"); ok {
		ephemeral = eph
	}

	msg := discord.NewMessageCreate().
		WithIsComponentsV2(true).
		WithEphemeral(ephemeral).
		AddComponents(pingContainer(event.Client(), event.ID(), "🏓"))

	if err := event.CreateMessage(msg); err != nil {
		sys.LogDebug("Failed to send ping: %v", err)
	}
}

func handlePingRefresh(event *events.ComponentInteractionCreate) {
	msg := discord.NewMessageUpdate().
		WithIsComponentsV2(true).
		AddComponents(pingContainer(event.Client(), event.ID(), "🔁"))

	_ = event.UpdateMessage(msg)
}
