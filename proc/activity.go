package proc

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/gateway"

	"github.com/leeineian/kyvex/sys"
)

const activityConfigKey = "activity"

type ActivityType string

const (
	ActivityPlaying   ActivityType = "playing"
	ActivityListening ActivityType = "listening"
	ActivityWatching  ActivityType = "watching"
	ActivityCompeting ActivityType = "competing"
	ActivityStreaming ActivityType = "streaming"
)

var (
	twitchURL  = regexp.MustCompile(`(?i)^https://(www\.)?twitch\.tv/[a-zA-Z0-9_]+$`)
	youtubeURL = regexp.MustCompile(`(?i)^(https?://)?(www\.)?(youtube\.com|youtu\.be)/.*$`)
)

type Activity struct {
	Type ActivityType `json:"type"`
	Name string       `json:"name"`
	URL  string       `json:"url,omitempty"`
}

// ParseActivity reads `<type> <name...> [url]`. Only streaming takes a url,
// and it must point at Twitch or YouTube.
func ParseActivity(args []string) (Activity, error) {
	if len(args) < 2 {
		return Activity{}, InvalidArgument("Usage: setactivity <playing|listening|watching|competing|streaming> <name> [url]")
	}

	act := Activity{Type: ActivityType(strings.ToLower(args[0]))}
	rest := args[1:]

	switch act.Type {
	case ActivityPlaying, ActivityListening, ActivityWatching, ActivityCompeting:
	case ActivityStreaming:
		if len(rest) < 2 {
			return Activity{}, InvalidArgument("Streaming needs a name and a Twitch or YouTube URL!")
		}
		act.URL = rest[len(rest)-1]
		rest = rest[:len(rest)-1]
		if !ValidStreamURL(act.URL) {
			return Activity{}, InvalidArgument("Streaming URL must be a Twitch channel or YouTube link!")
		}
	default:
		return Activity{}, InvalidArgument("Activity type must be one of playing, listening, watching, competing, streaming!")
	}

	act.Name = strings.Join(rest, " ")
	if act.Name == "" || len([]rune(act.Name)) > 128 {
		return Activity{}, InvalidArgument("Activity name must be between 1 and 128 characters!")
	}
	return act, nil
}

func ValidStreamURL(u string) bool {
	return twitchURL.MatchString(u) || youtubeURL.MatchString(u)
}

func (a Activity) String() string {
	if a.URL != "" {
		return fmt.Sprintf("%s %s (%s)", a.Type, a.Name, a.URL)
	}
	return fmt.Sprintf("%s %s", a.Type, a.Name)
}

func (a Activity) presenceOpt() gateway.PresenceOpt {
	switch a.Type {
	case ActivityListening:
		return gateway.WithListeningActivity(a.Name)
	case ActivityWatching:
		return gateway.WithWatchingActivity(a.Name)
	case ActivityCompeting:
		return gateway.WithCompetingActivity(a.Name)
	case ActivityStreaming:
		return gateway.WithStreamingActivity(a.Name, a.URL)
	default:
		return gateway.WithPlayingActivity(a.Name)
	}
}

// Presence applies and remembers the bot's activity.
type Presence struct {
	client   *bot.Client
	fallback Activity
}

func NewPresence(client *bot.Client, fallback Activity) *Presence {
	return &Presence{client: client, fallback: fallback}
}

// Set updates the gateway presence and stores the activity for the next start.
func (p *Presence) Set(ctx context.Context, act Activity) error {
	if err := p.client.SetPresence(ctx,
		gateway.WithOnlineStatus(discord.OnlineStatusOnline),
		act.presenceOpt(),
	); err != nil {
		sys.LogWarn(sys.MsgPresenceUpdateFail, err)
		return External("update the bot activity", err)
	}
	sys.LogPresence(sys.MsgPresenceUpdated, act.Type, act.Name)

	data, err := json.Marshal(act)
	if err != nil {
		return err
	}
	if err := sys.SetBotConfig(ctx, activityConfigKey, string(data)); err != nil {
		return External("save the bot activity", err)
	}
	return nil
}

// Restore re-applies the stored activity, or the configured default.
func (p *Presence) Restore(ctx context.Context) {
	act := p.fallback
	if raw, err := sys.GetBotConfig(ctx, activityConfigKey); err == nil && raw != "" {
		var stored Activity
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			sys.LogWarn(sys.MsgPresenceRestoreBad, err)
		} else {
			act = stored
		}
	}

	if err := p.client.SetPresence(ctx,
		gateway.WithOnlineStatus(discord.OnlineStatusOnline),
		act.presenceOpt(),
	); err != nil {
		sys.LogWarn(sys.MsgPresenceUpdateFail, err)
		return
	}
	sys.LogPresence(sys.MsgPresenceUpdated, act.Type, act.Name)
}
