package proc

import (
	"context"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
)

const DefaultVolume = 100

// GuildSession is the per-guild playback aggregate. All state changes
// happen under mu; callers perform I/O only after a method returns.
type GuildSession struct {
	ID             string
	GuildID        snowflake.ID
	VoiceChannelID snowflake.ID
	TextChannelID  snowflake.ID

	Messages TransientMessages

	mu     sync.Mutex
	state  PlaybackState
	volume int
	queue  TrackQueue

	// ready is closed once the voice join request finished; connectErr holds its result.
	ready      chan struct{}
	connectErr error
	// voiceUp is set when the gateway echoed the bot joining VoiceChannelID.
	voiceUp bool
}

func NewGuildSession(guildID, voiceChannelID, textChannelID snowflake.ID) *GuildSession {
	return &GuildSession{
		ID:             uuid.NewString(),
		GuildID:        guildID,
		VoiceChannelID: voiceChannelID,
		TextChannelID:  textChannelID,
		volume:         DefaultVolume,
		ready:          make(chan struct{}),
	}
}

// Snapshot is a consistent copy of a session's state for rendering.
type Snapshot struct {
	SessionID      string
	GuildID        snowflake.ID
	VoiceChannelID snowflake.ID
	TextChannelID  snowflake.ID
	State          PlaybackState
	Volume         int
	Loop           LoopMode
	Current        *QueueItem
	Pending        []QueueItem
}

func (s *GuildSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		SessionID:      s.ID,
		GuildID:        s.GuildID,
		VoiceChannelID: s.VoiceChannelID,
		TextChannelID:  s.TextChannelID,
		State:          s.state,
		Volume:         s.volume,
		Loop:           s.queue.Loop(),
		Pending:        s.queue.Pending(),
	}
	if cur, ok := s.queue.Current(); ok {
		snap.Current = &cur
	}
	return snap
}

func (s *GuildSession) State() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *GuildSession) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Enqueue appends items. When nothing is playing the first item becomes
// current, the session moves to Playing and start is true.
// position is the 1-indexed queue position of the first item, 0 when it started immediately.
func (s *GuildSession) Enqueue(items ...QueueItem) (start QueueItem, started bool, position int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range items {
		pos := s.queue.Add(item)
		if i == 0 {
			position = pos
		}
	}

	if s.state == StateStopped && len(items) > 0 {
		if next, ok := s.queue.Advance(); ok {
			s.state = StatePlaying
			return next, true, 0
		}
	}
	return QueueItem{}, false, position
}

// Pause moves between Playing and Paused. Asking for the state the
// session is already in fails with AlreadyInState.
func (s *GuildSession) Pause(paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setPausedLocked(paused)
}

func (s *GuildSession) setPausedLocked(paused bool) error {
	switch {
	case s.state == StateStopped:
		return ErrNothingPlaying
	case paused && s.state == StatePaused:
		return ErrAlreadyPaused
	case !paused && s.state == StatePlaying:
		return ErrAlreadyPlaying
	}
	if paused {
		s.state = StatePaused
	} else {
		s.state = StatePlaying
	}
	return nil
}

// TogglePause flips Playing/Paused and reports the new paused value.
func (s *GuildSession) TogglePause() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	paused := s.state != StatePaused
	return paused, s.setPausedLocked(paused)
}

func (s *GuildSession) SetVolume(v int) (previous int, err error) {
	if v < 0 || v > 100 {
		return 0, ErrInvalidVolume
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	previous = s.volume
	s.volume = v
	return previous, nil
}

// Skip ends the current item and promotes the next one. ok is false when
// the queue is exhausted; the session is then Stopped and should be torn down.
func (s *GuildSession) Skip() (skipped QueueItem, next QueueItem, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, hasCurrent := s.queue.Current()
	if !hasCurrent && s.queue.Len() == 0 {
		return QueueItem{}, QueueItem{}, false, ErrNothingToSkip
	}
	next, ok = s.advanceLocked()
	return cur, next, ok, nil
}

// Advance is called when the current item finished on its own.
func (s *GuildSession) Advance() (QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceLocked()
}

func (s *GuildSession) advanceLocked() (QueueItem, bool) {
	next, ok := s.queue.Advance()
	if ok {
		s.state = StatePlaying
	} else {
		s.state = StateStopped
	}
	return next, ok
}

// Stop clears everything and marks the session Stopped.
func (s *GuildSession) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Reset()
	s.state = StateStopped
}

func (s *GuildSession) RemoveAt(position int) (QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.RemoveAt(position)
}

func (s *GuildSession) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Clear()
}

func (s *GuildSession) Shuffle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Shuffle()
	return s.queue.Len()
}

func (s *GuildSession) SetLoop(mode LoopMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.SetLoop(mode)
}

// ToggleLoop flips between LoopNone and LoopQueue and returns the new mode.
func (s *GuildSession) ToggleLoop() LoopMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	mode := LoopQueue
	if s.queue.Loop() == LoopQueue {
		mode = LoopNone
	}
	s.queue.SetLoop(mode)
	return mode
}

// finishConnect records the outcome of the voice join and releases waiters.
func (s *GuildSession) finishConnect(err error) {
	s.mu.Lock()
	s.connectErr = err
	s.mu.Unlock()
	close(s.ready)
}

// awaitConnect blocks until the session's voice join finished.
func (s *GuildSession) awaitConnect(ctx context.Context) error {
	select {
	case <-s.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectErr
}

// ConfirmVoice marks the voice connection as established when channelID is the bound channel.
func (s *GuildSession) ConfirmVoice(channelID snowflake.ID) bool {
	if channelID != s.VoiceChannelID {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceUp = true
	return true
}

func (s *GuildSession) VoiceConfirmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceUp
}

// Current returns the in-flight item.
func (s *GuildSession) Current() (QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Current()
}
