package proc

import (
	"context"
	"strings"
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/kyvex/sys"
)

// Audio is the playback backend. One player per guild.
type Audio interface {
	Connect(ctx context.Context, guildID, voiceChannelID snowflake.ID) error
	Resolve(ctx context.Context, query string) (Resolution, error)
	Play(ctx context.Context, guildID snowflake.ID, item QueueItem, volume int) error
	Pause(ctx context.Context, guildID snowflake.ID, paused bool) error
	SetVolume(ctx context.Context, guildID snowflake.ID, volume int) error
	Destroy(ctx context.Context, guildID snowflake.ID) error
}

// Renderer builds the messages the manager posts on its own.
type Renderer interface {
	NowPlaying(snap Snapshot, item QueueItem) discord.MessageCreate
	QueueEnded() discord.MessageCreate
}

// Manager owns every guild's session and drives them from commands and audio events.
type Manager struct {
	audio     Audio
	messenger Messenger
	render    Renderer

	mu       sync.Mutex
	sessions map[snowflake.ID]*GuildSession
}

func NewManager(audio Audio, messenger Messenger, render Renderer) *Manager {
	return &Manager{
		audio:     audio,
		messenger: messenger,
		render:    render,
		sessions:  make(map[snowflake.ID]*GuildSession),
	}
}

func (m *Manager) Session(guildID snowflake.ID) (*GuildSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[guildID]
	return s, ok
}

// Require returns the guild's session or ErrNoSession.
func (m *Manager) Require(guildID snowflake.ID) (*GuildSession, error) {
	if s, ok := m.Session(guildID); ok {
		return s, nil
	}
	return nil, ErrNoSession
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) getOrCreate(guildID, voiceChannelID, textChannelID snowflake.ID) (*GuildSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[guildID]; ok {
		return s, false
	}
	s := NewGuildSession(guildID, voiceChannelID, textChannelID)
	m.sessions[guildID] = s
	sys.ActiveSessions.Set(float64(len(m.sessions)))
	return s, true
}

// attached reports whether s is still the guild's session.
func (m *Manager) attached(s *GuildSession) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[s.GuildID] == s
}

// detach removes s from the map if it is still the guild's session.
func (m *Manager) detach(s *GuildSession) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sessions[s.GuildID]; !ok || cur != s {
		return false
	}
	delete(m.sessions, s.GuildID)
	sys.ActiveSessions.Set(float64(len(m.sessions)))
	return true
}

type PlayRequest struct {
	GuildID        snowflake.ID
	VoiceChannelID snowflake.ID
	TextChannelID  snowflake.ID
	RequesterID    snowflake.ID
	RequesterName  string
	Query          string
}

type PlayResult struct {
	Session    *GuildSession
	Resolution Resolution
	Added      []QueueItem
	// Position of the first added item in pending, 0 when it started right away.
	Position int
	Started  bool
}

// Play resolves the query, creating and connecting a session when the guild has none.
func (m *Manager) Play(ctx context.Context, req PlayRequest) (PlayResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return PlayResult{}, ErrMissingQuery
	}

	if s, ok := m.Session(req.GuildID); ok && s.VoiceChannelID != req.VoiceChannelID {
		return PlayResult{}, ErrWrongVoice
	}

	res, err := m.audio.Resolve(ctx, query)
	if err != nil {
		return PlayResult{}, External("load tracks", err)
	}
	if len(res.Items) == 0 {
		return PlayResult{}, ErrNoResults
	}

	items := res.Items
	if res.Type == LoadSearch {
		items = items[:1]
	}
	items = append([]QueueItem(nil), items...)
	for i := range items {
		items[i].RequesterID = req.RequesterID
		items[i].RequesterName = req.RequesterName
	}

	sess, created := m.getOrCreate(req.GuildID, req.VoiceChannelID, req.TextChannelID)
	if created {
		sys.LogMusic(sys.MsgMusicSessionCreated, sess.ID, sess.GuildID, sess.VoiceChannelID, sess.TextChannelID)
		err := m.audio.Connect(ctx, req.GuildID, req.VoiceChannelID)
		if err != nil {
			m.detach(sess)
		}
		sess.finishConnect(err)
		if err != nil {
			return PlayResult{}, External("join your voice channel", err)
		}
	} else if sess.VoiceChannelID != req.VoiceChannelID {
		return PlayResult{}, ErrWrongVoice
	} else if err := sess.awaitConnect(ctx); err != nil {
		return PlayResult{}, External("join your voice channel", err)
	}

	first, started, position := sess.Enqueue(items...)
	if !m.attached(sess) {
		return PlayResult{}, ErrNoSession
	}
	if started {
		if err := m.audio.Play(ctx, req.GuildID, first, sess.Volume()); err != nil {
			m.end(ctx, sess, "playback failed", false)
			return PlayResult{}, External("start playback", err)
		}
	}

	return PlayResult{
		Session:    sess,
		Resolution: res,
		Added:      items,
		Position:   position,
		Started:    started,
	}, nil
}

// NotifyEnqueued posts an "added" notice that lives until the session is flushed.
func (m *Manager) NotifyEnqueued(ctx context.Context, sess *GuildSession, msg discord.MessageCreate) error {
	return sess.Messages.OnEnqueue(ctx, m.messenger, sess.TextChannelID, msg)
}

func (m *Manager) Pause(ctx context.Context, guildID snowflake.ID, paused bool) error {
	sess, err := m.Require(guildID)
	if err != nil {
		return err
	}
	if err := sess.Pause(paused); err != nil {
		return err
	}
	if err := m.audio.Pause(ctx, guildID, paused); err != nil {
		_ = sess.Pause(!paused)
		return External("update the player", err)
	}
	return nil
}

// TogglePause flips the pause state and reports whether the player is now paused.
func (m *Manager) TogglePause(ctx context.Context, guildID snowflake.ID) (bool, error) {
	sess, err := m.Require(guildID)
	if err != nil {
		return false, err
	}
	paused, err := sess.TogglePause()
	if err != nil {
		return false, err
	}
	if err := m.audio.Pause(ctx, guildID, paused); err != nil {
		_ = sess.Pause(!paused)
		return false, External("update the player", err)
	}
	return paused, nil
}

func (m *Manager) SetVolume(ctx context.Context, guildID snowflake.ID, volume int) error {
	sess, err := m.Require(guildID)
	if err != nil {
		return err
	}
	prev, err := sess.SetVolume(volume)
	if err != nil {
		return err
	}
	if err := m.audio.SetVolume(ctx, guildID, volume); err != nil {
		_, _ = sess.SetVolume(prev)
		return External("change the volume", err)
	}
	return nil
}

// Skip advances past the current item. next is nil when nothing followed and the session ended.
func (m *Manager) Skip(ctx context.Context, guildID snowflake.ID) (QueueItem, *QueueItem, error) {
	sess, err := m.Require(guildID)
	if err != nil {
		return QueueItem{}, nil, err
	}
	skipped, next, ok, err := sess.Skip()
	if err != nil {
		return QueueItem{}, nil, err
	}
	if !ok {
		m.end(ctx, sess, "skipped the last track", true)
		return skipped, nil, nil
	}
	if err := m.audio.Play(ctx, guildID, next, sess.Volume()); err != nil {
		m.end(ctx, sess, "playback failed", false)
		return skipped, nil, External("play the next track", err)
	}
	return skipped, &next, nil
}

// Stop tears the session down: queue cleared, transient messages flushed, player destroyed.
func (m *Manager) Stop(ctx context.Context, guildID snowflake.ID) error {
	sess, err := m.Require(guildID)
	if err != nil {
		return err
	}
	m.end(ctx, sess, "stopped", false)
	return nil
}

func (m *Manager) RemoveAt(guildID snowflake.ID, position int) (QueueItem, error) {
	sess, err := m.Require(guildID)
	if err != nil {
		return QueueItem{}, err
	}
	return sess.RemoveAt(position)
}

func (m *Manager) Clear(guildID snowflake.ID) (int, error) {
	sess, err := m.Require(guildID)
	if err != nil {
		return 0, err
	}
	return sess.Clear(), nil
}

func (m *Manager) Shuffle(guildID snowflake.ID) (int, error) {
	sess, err := m.Require(guildID)
	if err != nil {
		return 0, err
	}
	return sess.Shuffle(), nil
}

func (m *Manager) ToggleLoop(guildID snowflake.ID) (LoopMode, error) {
	sess, err := m.Require(guildID)
	if err != nil {
		return LoopNone, err
	}
	return sess.ToggleLoop(), nil
}

// --- Audio events ---

// OnTrackStart replaces the guild's now-playing message.
func (m *Manager) OnTrackStart(ctx context.Context, guildID snowflake.ID) {
	sess, ok := m.Session(guildID)
	if !ok {
		return
	}
	item, ok := sess.Current()
	if !ok {
		return
	}

	sys.TracksStarted.Inc()
	sys.LogMusic(sys.MsgMusicTrackStarted, guildID, item.Title)
	sys.OpLogPlayer("Track Started", guildID, item.Title)

	msg := m.render.NowPlaying(sess.Snapshot(), item)
	if err := sess.Messages.OnTrackStart(ctx, m.messenger, sess.TextChannelID, msg); err != nil {
		sys.LogWarn(sys.MsgMusicNotifyFailed, "now playing", guildID, err)
	}
}

// OnTrackEnd advances the queue when the finished track is still the current one.
// ended is the encoded handle reported by the audio node.
func (m *Manager) OnTrackEnd(ctx context.Context, guildID snowflake.ID, ended string, mayStartNext bool) {
	if !mayStartNext {
		return
	}
	sess, ok := m.Session(guildID)
	if !ok {
		return
	}
	if cur, ok := sess.Current(); ok && ended != "" && cur.Encoded != ended {
		return
	}

	next, ok := sess.Advance()
	if !ok {
		m.end(ctx, sess, "queue ended", true)
		return
	}
	if err := m.audio.Play(ctx, guildID, next, sess.Volume()); err != nil {
		sys.LogError(sys.MsgMusicAdvanceFailed, guildID, err)
		sys.OpLogError("queue advance", err)
		m.end(ctx, sess, "playback failed", true)
	}
}

// OnVoiceConnected records that the gateway saw the bot join channelID.
func (m *Manager) OnVoiceConnected(_ context.Context, guildID, channelID snowflake.ID) {
	sess, ok := m.Session(guildID)
	if !ok {
		return
	}
	if sess.ConfirmVoice(channelID) {
		sys.LogDebug("Voice connection confirmed for guild %s in %s", guildID, channelID)
	}
}

// OnVoiceDisconnected tears down the session after the bot left voice.
// A leave that arrives before the session's own join was confirmed belongs to an
// earlier connection and is ignored.
func (m *Manager) OnVoiceDisconnected(ctx context.Context, guildID snowflake.ID) {
	sess, ok := m.Session(guildID)
	if !ok || !sess.VoiceConfirmed() {
		return
	}
	sys.LogMusic(sys.MsgMusicBotDisconnected, guildID)
	m.end(ctx, sess, "disconnected from voice", false)
}

// Shutdown ends every session.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*GuildSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		m.end(ctx, s, "shutdown", false)
	}
}

func (m *Manager) end(ctx context.Context, sess *GuildSession, reason string, announce bool) {
	if !m.detach(sess) {
		return
	}
	sess.Stop()
	sess.Messages.Flush(ctx, m.messenger)

	if err := m.audio.Destroy(ctx, sess.GuildID); err != nil {
		sys.LogWarn(sys.MsgRouterExternalFail, "player destroy", err)
	}
	if announce {
		if _, err := m.messenger.CreateMessage(ctx, sess.TextChannelID, m.render.QueueEnded()); err != nil {
			sys.LogWarn(sys.MsgMusicNotifyFailed, "queue ended", sess.GuildID, err)
		}
	}

	sys.LogMusic(sys.MsgMusicSessionEnded, sess.ID, sess.GuildID, reason)
	sys.OpLogPlayer("Session Ended", sess.GuildID, reason)
}
