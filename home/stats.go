package home

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/omit"

	"github.com/leeineian/kyvex/sys"
)

const (
	StatsAnsiReset    = "\u001b[0m"
	StatsAnsiPink     = "\u001b[35m"
	StatsAnsiPinkBold = "\u001b[35;1m"
	StatsCacheTTL     = 5 * time.Second

	statsLiveFor = time.Minute
)

var (
	statsCacheMu sync.RWMutex
	statsSystem  string
	statsSysAt   time.Time
)

// StatsSnapshot is what one render of /stats shows besides the runtime section.
type StatsSnapshot struct {
	Sessions    int
	Uptime      time.Duration
	GatewayPing int64
	APIPing     int64
	DBLatency   string
}

func statsTitle(text string) string {
	return fmt.Sprintf("%s%s%s", StatsAnsiPink, text, StatsAnsiReset)
}

func statsLine(key, val string) string {
	return fmt.Sprintf("%s> %s:%s %s%s%s", StatsAnsiPink, key, StatsAnsiReset, StatsAnsiPinkBold, val, StatsAnsiReset)
}

func init() {
	adminPerm := discord.PermissionAdministrator

	sys.RegisterCommand(discord.SlashCommandCreate{
		Name:                     "stats",
		Description:              "Display system and player statistics (Admin Only)",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts: []discord.InteractionContextType{
			discord.InteractionContextTypeGuild,
		},
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionBool{
				Name:        "ephemeral",
				Description: "Whether the message should be ephemeral (default: true)",
				Required:    false,
			},
		},
	}, handleStats)
}

func handleStats(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	ephemeral := true
	if eph, ok := data.OptBool("ephemeral"); ok {
		ephemeral = eph
	}

	loading := discord.NewMessageCreate().
		WithIsComponentsV2(true).
		WithEphemeral(ephemeral).
		AddComponents(discord.NewContainer(discord.NewTextDisplay("⏳ Loading stats...")))
	if err := event.CreateMessage(loading); err != nil {
		sys.LogDebug("Failed to send initial stats: %v", err)
		return
	}

	apiPing := time.Since(event.ID().Time()).Milliseconds()
	client := event.Client()

	sys.SafeGo(func() {
		update := func() {
			snap := collectStats(sys.AppContext)
			snap.APIPing = apiPing
			if client.Gateway != nil {
				snap.GatewayPing = client.Gateway.Latency().Milliseconds()
			}
			msg := discord.NewMessageUpdate().
				WithIsComponentsV2(true).
				AddComponents(discord.NewContainer(discord.NewTextDisplay(renderStats(snap))))
			_, _ = client.Rest.UpdateInteractionResponse(event.ApplicationID(), event.Token(), msg)
		}

		update()
		if !ephemeral {
			return
		}

		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		timeout := time.After(statsLiveFor)
		for {
			select {
			case <-ticker.C:
				update()
			case <-timeout:
				return
			case <-sys.AppContext.Done():
				return
			}
		}
	})
}

func collectStats(ctx context.Context) StatsSnapshot {
	snap := StatsSnapshot{Uptime: time.Since(sys.StartupTime)}
	if r := activeRouter.Load(); r != nil {
		snap.Sessions = r.manager.Len()
	}

	if sys.DB != nil {
		start := time.Now()
		_, _ = sys.GetBotConfig(ctx, "ping_test")
		snap.DBLatency = fmt.Sprintf("%.2f", float64(time.Since(start).Microseconds())/1000.0)
	}
	return snap
}

func renderStats(snap StatsSnapshot) string {
	return fmt.Sprintf("```ansi\n%s\n\n%s\n```", systemStats(), appStats(snap))
}

func systemStats() string {
	statsCacheMu.RLock()
	if time.Since(statsSysAt) < StatsCacheTTL && statsSystem != "" {
		defer statsCacheMu.RUnlock()
		return statsSystem
	}
	statsCacheMu.RUnlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	data := strings.Join([]string{
		statsTitle("System"),
		statsLine("Platform", runtime.GOOS+" "+runtime.GOARCH),
		statsLine("Go Version", runtime.Version()),
		statsLine("Memory", fmt.Sprintf("%.2f MB / %.2f MB (Sys)", float64(m.HeapAlloc)/1024/1024, float64(m.Sys)/1024/1024)),
		statsLine("Goroutines", fmt.Sprint(runtime.NumGoroutine())),
	}, "\n")

	statsCacheMu.Lock()
	statsSystem, statsSysAt = data, time.Now()
	statsCacheMu.Unlock()
	return data
}

func appStats(snap StatsSnapshot) string {
	lines := []string{
		statsTitle("Player"),
		statsLine("Active Sessions", fmt.Sprint(snap.Sessions)),
		statsLine("Uptime", formatUptime(snap.Uptime)),
	}
	if snap.GatewayPing > 0 {
		lines = append(lines, statsLine("Gateway", fmt.Sprintf("%dms", snap.GatewayPing)))
	}
	if snap.APIPing > 0 {
		lines = append(lines, statsLine("API Latency", fmt.Sprintf("%dms", snap.APIPing)))
	}
	if snap.DBLatency != "" {
		lines = append(lines, statsLine("Database", snap.DBLatency+"ms"))
	}
	return strings.Join(lines, "\n")
}
