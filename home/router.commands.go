package home

import (
	"errors"
	"strconv"
	"strings"

	"github.com/leeineian/kyvex/proc"
)

var errUnknownCommand = errors.New("unknown command")

// Command is one parsed text command. The set is closed; the router
// dispatches on the concrete type.
type Command interface {
	Name() string
	// voice reports whether the invoking user must be in a voice channel.
	voice() bool
}

type (
	PlayCommand        struct{ Query string }
	PauseCommand       struct{}
	ResumeCommand      struct{}
	SkipCommand        struct{}
	StopCommand        struct{}
	QueueCommand       struct{ Page int }
	NowPlayingCommand  struct{}
	VolumeCommand      struct{ Level int }
	ShuffleCommand     struct{}
	LoopCommand        struct{}
	RemoveCommand      struct{ Position int }
	ClearCommand       struct{}
	StatusCommand      struct{}
	PrefixCommand      struct{ Prefix string }
	PingCommand        struct{}
	UptimeCommand      struct{}
	SetActivityCommand struct{ Args []string }
	UpdatesCommand     struct{}
	HelpCommand        struct{}
)

func (PlayCommand) Name() string        { return "play" }
func (PauseCommand) Name() string       { return "pause" }
func (ResumeCommand) Name() string      { return "resume" }
func (SkipCommand) Name() string        { return "skip" }
func (StopCommand) Name() string        { return "stop" }
func (QueueCommand) Name() string       { return "queue" }
func (NowPlayingCommand) Name() string  { return "nowplaying" }
func (VolumeCommand) Name() string      { return "volume" }
func (ShuffleCommand) Name() string     { return "shuffle" }
func (LoopCommand) Name() string        { return "loop" }
func (RemoveCommand) Name() string      { return "remove" }
func (ClearCommand) Name() string       { return "clear" }
func (StatusCommand) Name() string      { return "status" }
func (PrefixCommand) Name() string      { return "prefix" }
func (PingCommand) Name() string        { return "ping" }
func (UptimeCommand) Name() string      { return "uptime" }
func (SetActivityCommand) Name() string { return "setactivity" }
func (UpdatesCommand) Name() string     { return "updates" }
func (HelpCommand) Name() string        { return "help" }

func (PlayCommand) voice() bool        { return true }
func (PauseCommand) voice() bool       { return true }
func (ResumeCommand) voice() bool      { return true }
func (SkipCommand) voice() bool        { return true }
func (StopCommand) voice() bool        { return true }
func (QueueCommand) voice() bool       { return true }
func (NowPlayingCommand) voice() bool  { return true }
func (VolumeCommand) voice() bool      { return true }
func (ShuffleCommand) voice() bool     { return true }
func (LoopCommand) voice() bool        { return true }
func (RemoveCommand) voice() bool      { return true }
func (ClearCommand) voice() bool       { return true }
func (StatusCommand) voice() bool      { return false }
func (PrefixCommand) voice() bool      { return false }
func (PingCommand) voice() bool        { return false }
func (UptimeCommand) voice() bool      { return false }
func (SetActivityCommand) voice() bool { return false }
func (UpdatesCommand) voice() bool     { return false }
func (HelpCommand) voice() bool        { return false }

var commandAliases = map[string]string{
	"p":   "play",
	"s":   "skip",
	"q":   "queue",
	"np":  "nowplaying",
	"vol": "volume",
}

// ParseCommand turns a command word and its arguments into a Command.
// On an argument error the zero value of the matched command is still
// returned, so callers can run preconditions before reporting the error.
func ParseCommand(name string, args []string) (Command, error) {
	name = strings.ToLower(name)
	if full, ok := commandAliases[name]; ok {
		name = full
	}

	switch name {
	case "play":
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return PlayCommand{}, proc.ErrMissingQuery
		}
		return PlayCommand{Query: query}, nil
	case "pause":
		return PauseCommand{}, nil
	case "resume":
		return ResumeCommand{}, nil
	case "skip":
		return SkipCommand{}, nil
	case "stop":
		return StopCommand{}, nil
	case "queue":
		if len(args) == 0 {
			return QueueCommand{Page: 1}, nil
		}
		page, err := strconv.Atoi(args[0])
		if err != nil || page < 1 {
			return QueueCommand{}, proc.ErrInvalidPage
		}
		return QueueCommand{Page: page}, nil
	case "nowplaying":
		return NowPlayingCommand{}, nil
	case "volume":
		if len(args) == 0 {
			return VolumeCommand{}, proc.ErrInvalidVolume
		}
		level, err := parseVolume(args[0])
		if err != nil {
			return VolumeCommand{}, err
		}
		return VolumeCommand{Level: level}, nil
	case "shuffle":
		return ShuffleCommand{}, nil
	case "loop":
		return LoopCommand{}, nil
	case "remove":
		if len(args) == 0 {
			return RemoveCommand{}, proc.ErrInvalidPosition
		}
		pos, err := strconv.Atoi(args[0])
		if err != nil || pos < 1 {
			return RemoveCommand{}, proc.ErrInvalidPosition
		}
		return RemoveCommand{Position: pos}, nil
	case "clear":
		return ClearCommand{}, nil
	case "status":
		return StatusCommand{}, nil
	case "prefix":
		if len(args) != 1 {
			return PrefixCommand{}, proc.InvalidArgument("Usage: prefix <new prefix> (up to 5 characters, no spaces)")
		}
		return PrefixCommand{Prefix: args[0]}, nil
	case "ping":
		return PingCommand{}, nil
	case "uptime":
		return UptimeCommand{}, nil
	case "setactivity":
		return SetActivityCommand{Args: args}, nil
	case "updates":
		return UpdatesCommand{}, nil
	case "help":
		return HelpCommand{}, nil
	}
	return nil, errUnknownCommand
}

// parseVolume accepts only a plain base-10 integer in [0, 100].
func parseVolume(raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 || v > 100 {
		return 0, proc.ErrInvalidVolume
	}
	return v, nil
}

type helpEntry struct {
	Usage       string
	Description string
}

type helpCategory struct {
	Name    string
	Entries []helpEntry
}

var helpCategories = []helpCategory{
	{Name: "🎵 Playback", Entries: []helpEntry{
		{"play <query>", "Play a song or playlist"},
		{"pause", "Pause the current track"},
		{"resume", "Resume the current track"},
		{"skip", "Skip the current track"},
		{"stop", "Stop playback and clear queue"},
		{"nowplaying", "Show current track info"},
		{"volume <0-100>", "Adjust player volume"},
	}},
	{Name: "📜 Queue", Entries: []helpEntry{
		{"queue [page]", "Show the current queue"},
		{"shuffle", "Shuffle the current queue"},
		{"loop", "Toggle queue loop mode"},
		{"remove <position>", "Remove a track from queue"},
		{"clear", "Clear the current queue"},
		{"status", "Show player status"},
	}},
	{Name: "⚙️ Bot", Entries: []helpEntry{
		{"prefix <new>", "Change the server prefix (Admin only)"},
		{"setactivity <type> <name> [url]", "Set the bot's activity (Owner only). URL needed for streaming."},
		{"ping", "Check bot latency"},
		{"uptime", "Show how long the bot has been running"},
		{"updates", "Show the latest bot updates and changelog"},
		{"help", "Show this help message"},
	}},
}
