package proc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

type sentMessage struct {
	ChannelID snowflake.ID
	MessageID snowflake.ID
	Content   string
}

type fakeMessenger struct {
	mu        sync.Mutex
	nextID    snowflake.ID
	sent      []sentMessage
	live      map[snowflake.ID]bool
	deleted   []snowflake.ID
	deleteErr map[snowflake.ID]error
	createErr error
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		nextID:    1000,
		live:      make(map[snowflake.ID]bool),
		deleteErr: make(map[snowflake.ID]error),
	}
}

func (f *fakeMessenger) CreateMessage(_ context.Context, channelID snowflake.ID, msg discord.MessageCreate) (snowflake.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, MessageID: f.nextID, Content: msg.Content})
	f.live[f.nextID] = true
	return f.nextID, nil
}

func (f *fakeMessenger) DeleteMessage(_ context.Context, _ snowflake.ID, messageID snowflake.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.deleteErr[messageID]; ok {
		return err
	}
	if !f.live[messageID] {
		return ErrMessageNotFound
	}
	delete(f.live, messageID)
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

func (f *fakeMessenger) isLive(id snowflake.ID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live[id]
}

// deleteBehindOurBack simulates a user removing a message.
func (f *fakeMessenger) deleteBehindOurBack(id snowflake.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.live, id)
}

type audioCall struct {
	Op      string
	GuildID snowflake.ID
	Arg     string
}

type fakeAudio struct {
	mu         sync.Mutex
	calls      []audioCall
	resolution Resolution
	resolveErr error
	failOp     map[string]error
	// connectGate, when set, holds Connect until it is closed.
	connectGate chan struct{}
}

func newFakeAudio(items ...QueueItem) *fakeAudio {
	return &fakeAudio{
		resolution: Resolution{Type: LoadTrack, Items: items},
		failOp:     make(map[string]error),
	}
}

func (f *fakeAudio) record(op string, guildID snowflake.ID, arg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, audioCall{Op: op, GuildID: guildID, Arg: arg})
	return f.failOp[op]
}

func (f *fakeAudio) Connect(_ context.Context, guildID, voiceChannelID snowflake.ID) error {
	f.mu.Lock()
	f.calls = append(f.calls, audioCall{Op: "connect", GuildID: guildID, Arg: voiceChannelID.String()})
	gate := f.connectGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failOp["connect"]
}

func (f *fakeAudio) Resolve(_ context.Context, query string) (Resolution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, audioCall{Op: "resolve", Arg: query})
	return f.resolution, f.resolveErr
}

func (f *fakeAudio) Play(_ context.Context, guildID snowflake.ID, item QueueItem, volume int) error {
	return f.record("play", guildID, item.Title)
}

func (f *fakeAudio) Pause(_ context.Context, guildID snowflake.ID, paused bool) error {
	return f.record("pause", guildID, fmt.Sprint(paused))
}

func (f *fakeAudio) SetVolume(_ context.Context, guildID snowflake.ID, volume int) error {
	return f.record("volume", guildID, fmt.Sprint(volume))
}

func (f *fakeAudio) Destroy(_ context.Context, guildID snowflake.ID) error {
	return f.record("destroy", guildID, "")
}

func (f *fakeAudio) ops(op string) []audioCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []audioCall
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

type fakeRenderer struct{}

func (fakeRenderer) NowPlaying(_ Snapshot, item QueueItem) discord.MessageCreate {
	return discord.MessageCreate{Content: "now playing " + item.Title}
}

func (fakeRenderer) QueueEnded() discord.MessageCreate {
	return discord.MessageCreate{Content: "queue ended"}
}

var errBoom = errors.New("boom")

func items(titles ...string) []QueueItem {
	out := make([]QueueItem, 0, len(titles))
	for _, t := range titles {
		out = append(out, QueueItem{Title: t, Encoded: "enc-" + t})
	}
	return out
}

func titles(items []QueueItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}
