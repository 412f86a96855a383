package home

import (
	"context"
	"sync"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/kyvex/proc"
	"github.com/leeineian/kyvex/sys"
)

type postedMessage struct {
	ChannelID snowflake.ID
	ID        snowflake.ID
	Msg       discord.MessageCreate
}

type memMessenger struct {
	mu     sync.Mutex
	nextID snowflake.ID
	posted []postedMessage
	live   map[snowflake.ID]bool
}

func newMemMessenger() *memMessenger {
	return &memMessenger{nextID: 500, live: make(map[snowflake.ID]bool)}
}

func (m *memMessenger) CreateMessage(_ context.Context, channelID snowflake.ID, msg discord.MessageCreate) (snowflake.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.posted = append(m.posted, postedMessage{ChannelID: channelID, ID: m.nextID, Msg: msg})
	m.live[m.nextID] = true
	return m.nextID, nil
}

func (m *memMessenger) DeleteMessage(_ context.Context, _ snowflake.ID, messageID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.live[messageID] {
		return proc.ErrMessageNotFound
	}
	delete(m.live, messageID)
	return nil
}

func (m *memMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posted)
}

func (m *memMessenger) last() discord.MessageCreate {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.posted) == 0 {
		return discord.MessageCreate{}
	}
	return m.posted[len(m.posted)-1].Msg
}

type stubAudio struct {
	mu      sync.Mutex
	res     proc.Resolution
	paused  []bool
	volumes []int
}

func (a *stubAudio) Connect(context.Context, snowflake.ID, snowflake.ID) error { return nil }

func (a *stubAudio) Resolve(context.Context, string) (proc.Resolution, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.res, nil
}

func (a *stubAudio) Play(context.Context, snowflake.ID, proc.QueueItem, int) error { return nil }

func (a *stubAudio) Pause(_ context.Context, _ snowflake.ID, paused bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = append(a.paused, paused)
	return nil
}

func (a *stubAudio) SetVolume(_ context.Context, _ snowflake.ID, volume int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.volumes = append(a.volumes, volume)
	return nil
}

func (a *stubAudio) Destroy(context.Context, snowflake.ID) error { return nil }

type memPrefixes struct {
	mu       sync.Mutex
	fallback string
	byGuild  map[snowflake.ID]string
}

func (p *memPrefixes) Get(guildID snowflake.ID) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.byGuild[guildID]; ok {
		return v
	}
	return p.fallback
}

func (p *memPrefixes) Set(_ context.Context, guildID snowflake.ID, prefix string) error {
	if !sys.ValidPrefix(prefix) {
		return sys.ErrInvalidPrefix
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byGuild[guildID] = prefix
	return nil
}

type recordingActivity struct {
	got []proc.Activity
	err error
}

func (a *recordingActivity) Set(_ context.Context, act proc.Activity) error {
	if a.err != nil {
		return a.err
	}
	a.got = append(a.got, act)
	return nil
}

const (
	guildA  snowflake.ID = 100
	textA   snowflake.ID = 200
	voiceA  snowflake.ID = 300
	voiceB  snowflake.ID = 301
	ownerID snowflake.ID = 9
	userID  snowflake.ID = 10
)

type routerFixture struct {
	router    *Router
	manager   *proc.Manager
	messenger *memMessenger
	audio     *stubAudio
	prefixes  *memPrefixes
	activity  *recordingActivity
}

func newRouterFixture(cfg RouterConfig) *routerFixture {
	f := &routerFixture{
		messenger: newMemMessenger(),
		audio: &stubAudio{res: proc.Resolution{
			Type:  proc.LoadTrack,
			Items: []proc.QueueItem{{Title: "Song A", Encoded: "enc-a"}},
		}},
		prefixes: &memPrefixes{fallback: "!", byGuild: make(map[snowflake.ID]string)},
		activity: &recordingActivity{},
	}
	embeds := Embeds{Color: 0x7289DA}
	f.manager = proc.NewManager(f.audio, f.messenger, embeds)

	cfg.Manager = f.manager
	cfg.Messenger = f.messenger
	cfg.Prefixes = f.prefixes
	cfg.Activity = f.activity
	cfg.Embeds = embeds
	if cfg.Owners == nil {
		cfg.Owners = []snowflake.ID{ownerID}
	}
	f.router = NewRouter(cfg)
	return f
}

func inVoice(id snowflake.ID) *snowflake.ID { return &id }

func invoke(content string, voice *snowflake.ID) Invocation {
	return Invocation{
		GuildID:        guildA,
		ChannelID:      textA,
		AuthorID:       userID,
		AuthorName:     "listener",
		VoiceChannelID: voice,
		Content:        content,
	}
}
