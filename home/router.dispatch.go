package home

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/time/rate"

	"github.com/leeineian/kyvex/proc"
	"github.com/leeineian/kyvex/sys"
)

// Prefixes resolves and changes a guild's command prefix.
type Prefixes interface {
	Get(guildID snowflake.ID) string
	Set(ctx context.Context, guildID snowflake.ID, prefix string) error
}

// ActivitySetter changes the bot's presence.
type ActivitySetter interface {
	Set(ctx context.Context, act proc.Activity) error
}

// Invocation is one guild text message that may carry a command.
type Invocation struct {
	GuildID    snowflake.ID
	ChannelID  snowflake.ID
	MessageID  snowflake.ID
	AuthorID   snowflake.ID
	AuthorName string
	// VoiceChannelID is nil when the author is not in voice.
	VoiceChannelID *snowflake.ID
	// Admin is true when the author holds Administrator in the guild.
	Admin   bool
	Content string
	SentAt  time.Time
}

type RouterConfig struct {
	Manager   *proc.Manager
	Messenger proc.Messenger
	Prefixes  Prefixes
	Activity  ActivitySetter
	Embeds    Embeds
	Owners    []snowflake.ID
	// Latency reports the gateway heartbeat latency, may be nil.
	Latency   func() time.Duration
	StartedAt time.Time
	// CommandRate is commands per second per user; zero disables limiting.
	CommandRate  float64
	CommandBurst int
}

// Router turns text commands and button presses into session operations.
type Router struct {
	manager   *proc.Manager
	messenger proc.Messenger
	prefixes  Prefixes
	activity  ActivitySetter
	embeds    Embeds
	owners    []snowflake.ID
	latency   func() time.Duration
	startedAt time.Time

	limit     rate.Limit
	burst     int
	limiterMu sync.Mutex
	limiters  map[snowflake.ID]*rate.Limiter
}

func NewRouter(cfg RouterConfig) *Router {
	limit := rate.Inf
	if cfg.CommandRate > 0 {
		limit = rate.Limit(cfg.CommandRate)
	}
	burst := cfg.CommandBurst
	if burst < 1 {
		burst = 1
	}
	started := cfg.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	return &Router{
		manager:   cfg.Manager,
		messenger: cfg.Messenger,
		prefixes:  cfg.Prefixes,
		activity:  cfg.Activity,
		embeds:    cfg.Embeds,
		owners:    cfg.Owners,
		latency:   cfg.Latency,
		startedAt: started,
		limit:     limit,
		burst:     burst,
		limiters:  make(map[snowflake.ID]*rate.Limiter),
	}
}

// Handle runs the command in inv, if any, and posts the reply or the error
// notice to the invoking channel. It reports whether inv carried a command.
func (r *Router) Handle(ctx context.Context, inv Invocation) bool {
	prefix := r.prefixes.Get(inv.GuildID)
	body, ok := strings.CutPrefix(inv.Content, prefix)
	if !ok {
		return false
	}
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return false
	}

	cmd, parseErr := ParseCommand(fields[0], fields[1:])
	if errors.Is(parseErr, errUnknownCommand) {
		return false
	}

	if !r.allow(inv.AuthorID) {
		sys.LogRouter(sys.MsgRouterRateLimited, inv.AuthorName, inv.AuthorID)
		sys.CommandsTotal.WithLabelValues(cmd.Name(), "rate_limited").Inc()
		return true
	}

	sys.LogRouter(sys.MsgRouterCommand, inv.AuthorName, cmd.Name(), inv.GuildID)
	sys.OpLogCommand(inv.AuthorName, inv.AuthorID, inv.GuildID, cmd.Name(), fields[1:])

	reply, err := r.run(ctx, inv, cmd, parseErr)
	r.countOutcome(cmd.Name(), err)
	if err != nil {
		r.reportError(cmd.Name(), err)
		reply = errorMessage(proc.UserMessage(err))
	}
	if reply.Content == "" && len(reply.Embeds) == 0 {
		return true
	}
	if _, err := r.messenger.CreateMessage(ctx, inv.ChannelID, reply); err != nil {
		sys.LogWarn(sys.MsgRouterReplyFail, cmd.Name(), inv.ChannelID, err)
	}
	return true
}

// run checks preconditions in order: voice, permission, arguments.
func (r *Router) run(ctx context.Context, inv Invocation, cmd Command, parseErr error) (discord.MessageCreate, error) {
	if cmd.voice() && inv.VoiceChannelID == nil {
		return discord.MessageCreate{}, proc.ErrNotInVoice
	}
	if err := r.authorize(inv, cmd); err != nil {
		return discord.MessageCreate{}, err
	}
	if parseErr != nil {
		return discord.MessageCreate{}, parseErr
	}
	return r.dispatch(ctx, inv, cmd)
}

func (r *Router) authorize(inv Invocation, cmd Command) error {
	switch cmd.(type) {
	case SetActivityCommand:
		if !r.isOwner(inv.AuthorID) {
			return proc.ErrPermissionDenied
		}
	case PrefixCommand:
		if !inv.Admin && !r.isOwner(inv.AuthorID) {
			return proc.ErrPermissionDenied
		}
	}
	return nil
}

func (r *Router) dispatch(ctx context.Context, inv Invocation, cmd Command) (discord.MessageCreate, error) {
	switch c := cmd.(type) {
	case PlayCommand:
		return r.play(ctx, inv, c.Query)
	case PauseCommand:
		return r.pause(ctx, inv.GuildID, true)
	case ResumeCommand:
		return r.pause(ctx, inv.GuildID, false)
	case SkipCommand:
		return r.skip(ctx, inv.GuildID)
	case StopCommand:
		return r.stop(ctx, inv.GuildID)
	case QueueCommand:
		return r.queue(inv.GuildID, c.Page)
	case NowPlayingCommand:
		return r.nowPlaying(inv.GuildID)
	case VolumeCommand:
		return r.volume(ctx, inv.GuildID, c.Level)
	case ShuffleCommand:
		return r.shuffle(inv.GuildID)
	case LoopCommand:
		return r.loop(inv.GuildID)
	case RemoveCommand:
		return r.remove(inv.GuildID, c.Position)
	case ClearCommand:
		return r.clear(inv.GuildID)
	case StatusCommand:
		return r.status(inv.GuildID)
	case PrefixCommand:
		return r.setPrefix(ctx, inv.GuildID, c.Prefix)
	case PingCommand:
		return r.ping(inv), nil
	case UptimeCommand:
		return r.uptime(), nil
	case SetActivityCommand:
		return r.setActivity(ctx, c.Args)
	case UpdatesCommand:
		return r.embeds.Updates(changelog), nil
	case HelpCommand:
		return r.embeds.Help(r.prefixes.Get(inv.GuildID)), nil
	default:
		panic(fmt.Sprintf("home: unhandled command %T", cmd))
	}
}

func (r *Router) allow(userID snowflake.ID) bool {
	if r.limit == rate.Inf {
		return true
	}
	r.limiterMu.Lock()
	lim, ok := r.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(r.limit, r.burst)
		r.limiters[userID] = lim
	}
	r.limiterMu.Unlock()
	return lim.Allow()
}

func (r *Router) isOwner(userID snowflake.ID) bool {
	return slices.Contains(r.owners, userID)
}

func (r *Router) countOutcome(command string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = proc.KindOf(err).String()
	}
	sys.CommandsTotal.WithLabelValues(command, outcome).Inc()
}

// reportError sends collaborator failures to the log and the ops channel.
func (r *Router) reportError(source string, err error) {
	if proc.KindOf(err) != proc.KindExternalFailure && proc.KindOf(err) != proc.KindUnknown {
		return
	}
	sys.LogError(sys.MsgRouterExternalFail, source, err)
	sys.OpLogError(source, err)
}
