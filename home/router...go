package home

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"

	"github.com/leeineian/kyvex/proc"
	"github.com/leeineian/kyvex/sys"
)

const commandTimeout = 30 * time.Second

var activeRouter atomic.Pointer[Router]

// Setup installs the router the gateway handlers dispatch to.
func Setup(r *Router) {
	activeRouter.Store(r)
}

func init() {
	sys.RegisterMessageHandler(handleGuildMessage)
	sys.RegisterComponentHandler(controlPrefix, handleControlPress)
}

func handleGuildMessage(event *events.GuildMessageCreate) {
	r := activeRouter.Load()
	if r == nil {
		return
	}
	ctx, cancel := context.WithTimeout(sys.AppContext, commandTimeout)
	defer cancel()
	r.Handle(ctx, invocationFromMessage(event))
}

func handleControlPress(event *events.ComponentInteractionCreate) {
	r := activeRouter.Load()
	press, ok := pressFromComponent(event)
	if r == nil || !ok {
		_ = event.DeferUpdateMessage()
		return
	}

	ctx, cancel := context.WithTimeout(sys.AppContext, commandTimeout)
	defer cancel()

	reply, handled, err := r.HandleControl(ctx, press)
	if !handled {
		_ = event.DeferUpdateMessage()
		return
	}
	if err != nil {
		r.reportError("button", err)
		reply = errorMessage(proc.UserMessage(err))
	}

	reply.Flags |= discord.MessageFlagEphemeral
	if err := event.CreateMessage(reply); err != nil {
		sys.LogWarn(sys.MsgRouterReplyFail, press.UserName, press.ChannelID, err)
	}
}
