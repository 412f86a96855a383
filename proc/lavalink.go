package proc

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/kyvex/sys"
)

const audioEventTimeout = 15 * time.Second

// TrackEvents receives playback callbacks from the audio node.
type TrackEvents interface {
	OnTrackStart(ctx context.Context, guildID snowflake.ID)
	OnTrackEnd(ctx context.Context, guildID snowflake.ID, ended string, mayStartNext bool)
	OnVoiceConnected(ctx context.Context, guildID, channelID snowflake.ID)
	OnVoiceDisconnected(ctx context.Context, guildID snowflake.ID)
}

// LavalinkAudio implements Audio on top of a Lavalink node via disgolink.
type LavalinkAudio struct {
	client       *bot.Client
	link         disgolink.Client
	searchPrefix string

	mu     sync.RWMutex
	events TrackEvents
}

func NewLavalinkAudio(client *bot.Client, searchPrefix string) *LavalinkAudio {
	a := &LavalinkAudio{
		client:       client,
		searchPrefix: searchPrefix,
	}
	a.link = disgolink.New(client.ApplicationID,
		disgolink.WithListenerFunc(a.onTrackStart),
		disgolink.WithListenerFunc(a.onTrackEnd),
		disgolink.WithListenerFunc(a.onTrackException),
		disgolink.WithListenerFunc(a.onTrackStuck),
		disgolink.WithListenerFunc(a.onWebSocketClosed),
	)
	return a
}

// Bind sets the receiver of track events. Must be called before the gateway opens.
func (a *LavalinkAudio) Bind(ev TrackEvents) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = ev
}

func (a *LavalinkAudio) sink() TrackEvents {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.events
}

// ConnectNode adds a node and reports the outcome to the ops log.
func (a *LavalinkAudio) ConnectNode(ctx context.Context, cfg disgolink.NodeConfig) error {
	if _, err := a.link.AddNode(ctx, cfg); err != nil {
		sys.LogError(sys.MsgLavalinkNodeFailed, cfg.Name, err)
		sys.OpLogNode(cfg.Name, false, err.Error())
		return err
	}
	sys.LogLavalink(sys.MsgLavalinkNodeAdded, cfg.Name, cfg.Address)
	sys.OpLogNode(cfg.Name, true, cfg.Address)
	return nil
}

func (a *LavalinkAudio) Close() {
	a.link.Close()
}

// --- Audio ---

func (a *LavalinkAudio) Connect(ctx context.Context, guildID, voiceChannelID snowflake.ID) error {
	return a.client.UpdateVoiceState(ctx, guildID, &voiceChannelID, false, true)
}

func (a *LavalinkAudio) Resolve(ctx context.Context, query string) (Resolution, error) {
	node := a.link.BestNode()
	if node == nil {
		return Resolution{}, errors.New(sys.MsgLavalinkNoNode)
	}

	identifier := query
	if !isURL(query) {
		identifier = a.searchPrefix + ":" + query
	}

	var res Resolution
	var loadErr error
	node.LoadTracksHandler(ctx, identifier, disgolink.NewResultHandler(
		func(track lavalink.Track) {
			res = Resolution{Type: LoadTrack, Items: []QueueItem{itemFromTrack(track)}}
		},
		func(playlist lavalink.Playlist) {
			res = Resolution{Type: LoadPlaylist, Items: itemsFromTracks(playlist.Tracks), PlaylistName: playlist.Info.Name}
		},
		func(tracks []lavalink.Track) {
			res = Resolution{Type: LoadSearch, Items: itemsFromTracks(tracks)}
		},
		func() {
			res = Resolution{Type: LoadEmpty}
		},
		func(err error) {
			loadErr = err
		},
	))
	return res, loadErr
}

func (a *LavalinkAudio) Play(ctx context.Context, guildID snowflake.ID, item QueueItem, volume int) error {
	return a.link.Player(guildID).Update(ctx,
		lavalink.WithEncodedTrack(item.Encoded),
		lavalink.WithVolume(volume),
		lavalink.WithPaused(false),
	)
}

func (a *LavalinkAudio) Pause(ctx context.Context, guildID snowflake.ID, paused bool) error {
	return a.link.Player(guildID).Update(ctx, lavalink.WithPaused(paused))
}

func (a *LavalinkAudio) SetVolume(ctx context.Context, guildID snowflake.ID, volume int) error {
	return a.link.Player(guildID).Update(ctx, lavalink.WithVolume(volume))
}

// Destroy removes the node player and leaves the voice channel.
func (a *LavalinkAudio) Destroy(ctx context.Context, guildID snowflake.ID) error {
	var destroyErr error
	if player := a.link.ExistingPlayer(guildID); player != nil {
		destroyErr = player.Destroy(ctx)
	}
	leaveErr := a.client.UpdateVoiceState(ctx, guildID, nil, false, false)
	return errors.Join(destroyErr, leaveErr)
}

// --- Gateway passthrough ---

func (a *LavalinkAudio) HandleVoiceStateUpdate(event *events.GuildVoiceStateUpdate) {
	if event.VoiceState.UserID != a.client.ID() {
		return
	}
	ctx, cancel := context.WithTimeout(sys.AppContext, audioEventTimeout)
	defer cancel()

	a.link.OnVoiceStateUpdate(ctx, event.VoiceState.GuildID, event.VoiceState.ChannelID, event.VoiceState.SessionID)
	ev := a.sink()
	if ev == nil {
		return
	}
	if event.VoiceState.ChannelID == nil {
		ev.OnVoiceDisconnected(ctx, event.VoiceState.GuildID)
		return
	}
	ev.OnVoiceConnected(ctx, event.VoiceState.GuildID, *event.VoiceState.ChannelID)
}

func (a *LavalinkAudio) HandleVoiceServerUpdate(event *events.VoiceServerUpdate) {
	if event.Endpoint == nil {
		return
	}
	ctx, cancel := context.WithTimeout(sys.AppContext, audioEventTimeout)
	defer cancel()
	a.link.OnVoiceServerUpdate(ctx, event.GuildID, event.Token, *event.Endpoint)
}

// --- Node events ---

func (a *LavalinkAudio) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	ev := a.sink()
	if ev == nil {
		return
	}
	ctx, cancel := context.WithTimeout(sys.AppContext, audioEventTimeout)
	defer cancel()
	ev.OnTrackStart(ctx, player.GuildID())
}

func (a *LavalinkAudio) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	ev := a.sink()
	if ev == nil {
		return
	}
	ctx, cancel := context.WithTimeout(sys.AppContext, audioEventTimeout)
	defer cancel()
	ev.OnTrackEnd(ctx, player.GuildID(), event.Track.Encoded, event.Reason.MayStartNext())
}

// Exceptions are followed by a TrackEndEvent, which does the advancing.
func (a *LavalinkAudio) onTrackException(player disgolink.Player, event lavalink.TrackExceptionEvent) {
	sys.LogWarn(sys.MsgLavalinkTrackError, player.GuildID(), event.Exception.Message)
	sys.OpLogError("track exception", errors.New(event.Exception.Message))
}

func (a *LavalinkAudio) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	sys.LogWarn(sys.MsgLavalinkTrackStuck, player.GuildID(), event.Track.Info.Title)
	ev := a.sink()
	if ev == nil {
		return
	}
	ctx, cancel := context.WithTimeout(sys.AppContext, audioEventTimeout)
	defer cancel()
	ev.OnTrackEnd(ctx, player.GuildID(), event.Track.Encoded, true)
}

func (a *LavalinkAudio) onWebSocketClosed(player disgolink.Player, event lavalink.WebSocketClosedEvent) {
	sys.LogLavalink(sys.MsgLavalinkSocketClosed, player.GuildID(), event.Code, event.Reason)
}

// --- Helpers ---

func itemFromTrack(t lavalink.Track) QueueItem {
	item := QueueItem{
		Title:    t.Info.Title,
		Author:   t.Info.Author,
		Duration: time.Duration(t.Info.Length) * time.Millisecond,
		IsStream: t.Info.IsStream,
		Encoded:  t.Encoded,
	}
	if t.Info.URI != nil {
		item.URI = *t.Info.URI
	}
	if t.Info.ArtworkURL != nil {
		item.ThumbnailURL = *t.Info.ArtworkURL
	}
	return item
}

func itemsFromTracks(tracks []lavalink.Track) []QueueItem {
	items := make([]QueueItem, 0, len(tracks))
	for _, t := range tracks {
		items = append(items, itemFromTrack(t))
	}
	return items
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
