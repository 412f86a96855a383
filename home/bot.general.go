package home

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/kyvex/proc"
	"github.com/leeineian/kyvex/sys"
)

func (r *Router) setPrefix(ctx context.Context, guildID snowflake.ID, prefix string) (discord.MessageCreate, error) {
	if err := r.prefixes.Set(ctx, guildID, prefix); err != nil {
		if errors.Is(err, sys.ErrInvalidPrefix) {
			return discord.MessageCreate{}, proc.InvalidArgument(fmt.Sprintf("Prefix must be 1 to %d characters with no spaces!", sys.MaxPrefixLength))
		}
		return discord.MessageCreate{}, proc.External("save the prefix", err)
	}
	return successMessage(fmt.Sprintf("Prefix for this server is now `%s`", prefix)), nil
}

func (r *Router) ping(inv Invocation) discord.MessageCreate {
	content := "# Pong! 🏓\n"
	if r.latency != nil {
		content += fmt.Sprintf("\n> **Gateway:** %dms", r.latency().Milliseconds())
	}
	if !inv.SentAt.IsZero() {
		content += fmt.Sprintf("\n> **Message:** %dms", time.Since(inv.SentAt).Milliseconds())
	}
	return discord.NewMessageCreate().WithContent(content)
}

func (r *Router) uptime() discord.MessageCreate {
	return discord.NewMessageCreate().
		WithContent(fmt.Sprintf("%s | Uptime: **%s**", emojiTime, formatUptime(time.Since(r.startedAt))))
}

func (r *Router) setActivity(ctx context.Context, args []string) (discord.MessageCreate, error) {
	act, err := proc.ParseActivity(args)
	if err != nil {
		return discord.MessageCreate{}, err
	}
	if err := r.activity.Set(ctx, act); err != nil {
		return discord.MessageCreate{}, err
	}
	sys.OpLogActivity(act.String())

	msg := fmt.Sprintf("Bot activity set to: **%s %s**", titleCase(string(act.Type)), act.Name)
	if act.URL != "" {
		msg += fmt.Sprintf(" (URL: %s)", act.URL)
	}
	return successMessage(msg), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
