package proc

import (
	"context"
	"errors"
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/hashicorp/go-multierror"

	"github.com/leeineian/kyvex/sys"
)

// ErrMessageNotFound is returned by a Messenger when the message is already gone.
var ErrMessageNotFound = errors.New("message not found")

// Messenger is the part of the chat client the session layer needs.
type Messenger interface {
	CreateMessage(ctx context.Context, channelID snowflake.ID, msg discord.MessageCreate) (snowflake.ID, error)
	DeleteMessage(ctx context.Context, channelID, messageID snowflake.ID) error
}

type MessageRef struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
}

// TransientMessages tracks the chat notices whose lifetime follows playback:
// one now-playing message and the "added to queue" notices since the last flush.
type TransientMessages struct {
	mu         sync.Mutex
	nowPlaying *MessageRef
	queued     []MessageRef
	// epoch changes on every flush; sends that started before it are stale.
	epoch uint64
}

// OnTrackStart replaces the now-playing message. The old one is deleted
// before the new one is sent; queue notices are left alone.
func (t *TransientMessages) OnTrackStart(ctx context.Context, m Messenger, channelID snowflake.ID, msg discord.MessageCreate) error {
	t.mu.Lock()
	prev := t.nowPlaying
	t.nowPlaying = nil
	epoch := t.epoch
	t.mu.Unlock()

	if prev != nil {
		deleteQuietly(ctx, m, *prev)
	}

	id, err := m.CreateMessage(ctx, channelID, msg)
	if err != nil {
		return External("send the now playing message", err)
	}
	ref := MessageRef{ChannelID: channelID, MessageID: id}

	t.mu.Lock()
	if t.epoch != epoch {
		t.mu.Unlock()
		deleteQuietly(ctx, m, ref)
		return nil
	}
	// A concurrent start may have stored its message while we were sending.
	stale := t.nowPlaying
	t.nowPlaying = &ref
	t.mu.Unlock()

	if stale != nil {
		deleteQuietly(ctx, m, *stale)
	}
	return nil
}

// OnEnqueue sends an "added" notice and remembers it until the next flush.
func (t *TransientMessages) OnEnqueue(ctx context.Context, m Messenger, channelID snowflake.ID, msg discord.MessageCreate) error {
	t.mu.Lock()
	epoch := t.epoch
	t.mu.Unlock()

	id, err := m.CreateMessage(ctx, channelID, msg)
	if err != nil {
		return External("send the queue notice", err)
	}
	ref := MessageRef{ChannelID: channelID, MessageID: id}

	t.mu.Lock()
	if t.epoch != epoch {
		t.mu.Unlock()
		deleteQuietly(ctx, m, ref)
		return nil
	}
	t.queued = append(t.queued, ref)
	t.mu.Unlock()
	return nil
}

// Flush deletes every tracked message and forgets them. Failures are logged, never returned.
func (t *TransientMessages) Flush(ctx context.Context, m Messenger) {
	t.mu.Lock()
	refs := t.queued
	if t.nowPlaying != nil {
		refs = append([]MessageRef{*t.nowPlaying}, refs...)
	}
	t.nowPlaying = nil
	t.queued = nil
	t.epoch++
	t.mu.Unlock()

	var result *multierror.Error
	for _, ref := range refs {
		if err := deleteMessage(ctx, m, ref); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		sys.LogWarn(sys.MsgMusicCleanupFailed, err)
	}
}

func (t *TransientMessages) NowPlaying() (MessageRef, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.nowPlaying == nil {
		return MessageRef{}, false
	}
	return *t.nowPlaying, true
}

func (t *TransientMessages) Queued() []MessageRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]MessageRef(nil), t.queued...)
}

// deleteMessage treats an already deleted message as success.
func deleteMessage(ctx context.Context, m Messenger, ref MessageRef) error {
	err := m.DeleteMessage(ctx, ref.ChannelID, ref.MessageID)
	if err == nil || errors.Is(err, ErrMessageNotFound) {
		return nil
	}
	return err
}

func deleteQuietly(ctx context.Context, m Messenger, ref MessageRef) {
	if err := deleteMessage(ctx, m, ref); err != nil {
		sys.LogWarn(sys.MsgMusicDeleteFailed, ref.MessageID, ref.ChannelID, err)
	}
}
