package home

import (
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"

	"github.com/leeineian/kyvex/proc"
)

const (
	queuePageSize   = 10
	embedFieldLimit = 1024
)

const (
	emojiSuccess = "✅"
	emojiError   = "❌"
	emojiInfo    = "ℹ️"
	emojiMusic   = "🎵"
	emojiPlay    = "▶️"
	emojiPause   = "⏸️"
	emojiTime    = "⏱️"
	emojiQueue   = "📜"
	emojiVolume  = "🔊"
	emojiRepeat  = "🔁"
	emojiSong    = "🎶"
)

// Embeds builds every music message. It implements proc.Renderer.
type Embeds struct {
	Color int
}

func (e Embeds) base(title string) *discord.EmbedBuilder {
	b := discord.NewEmbedBuilder().
		SetColor(e.Color).
		SetTimestamp(time.Now())
	if title != "" {
		b.SetTitle(title)
	}
	return b
}

func successMessage(text string) discord.MessageCreate {
	return discord.NewMessageCreate().
		WithContent(fmt.Sprintf("%s | %s", emojiSuccess, text))
}

func errorMessage(text string) discord.MessageCreate {
	return discord.NewMessageCreate().
		WithContent(fmt.Sprintf("%s | %s", emojiError, text))
}

func (e Embeds) NowPlaying(snap proc.Snapshot, item proc.QueueItem) discord.MessageCreate {
	embed := e.base(emojiMusic+" Now Playing").
		SetDescription(fmt.Sprintf("**%s**", trackLink(item))).
		AddField("Artist", emojiInfo+" "+orUnknown(item.Author), true).
		AddField("Duration", emojiTime+" "+durationString(item), true).
		AddField("Requested By", emojiInfo+" "+orUnknown(item.RequesterName), true).
		SetFooterText("Requested by " + orUnknown(item.RequesterName))
	if item.ThumbnailURL != "" {
		embed.SetThumbnail(item.ThumbnailURL)
	}

	return discord.NewMessageCreate().
		AddEmbeds(embed.Build()).
		AddComponents(controlRow(snap))
}

func (e Embeds) QueueEnded() discord.MessageCreate {
	return discord.NewMessageCreate().
		WithContent(emojiInfo + " | Queue has ended. Leaving voice channel.")
}

func (e Embeds) AddedToQueue(item proc.QueueItem, position int) discord.MessageCreate {
	pos := fmt.Sprintf("%s #%d", emojiQueue, position)
	if position == 0 {
		pos = emojiPlay + " Now"
	}
	embed := e.base("").
		SetDescription(fmt.Sprintf("%s Added to queue: **%s**", emojiSuccess, trackLink(item))).
		AddField("Artist", emojiInfo+" "+orUnknown(item.Author), true).
		AddField("Duration", emojiTime+" "+durationString(item), true).
		AddField("Position", pos, true).
		SetFooterText("Requested by " + orUnknown(item.RequesterName))
	if item.ThumbnailURL != "" {
		embed.SetThumbnail(item.ThumbnailURL)
	}
	return discord.NewMessageCreate().AddEmbeds(embed.Build())
}

func (e Embeds) AddedPlaylist(name string, items []proc.QueueItem) discord.MessageCreate {
	if name == "" {
		name = "Unknown playlist"
	}
	total, streams := totalDuration(items)

	embed := e.base(emojiSuccess+" Added Playlist").
		SetDescription(fmt.Sprintf("**%s**", name)).
		AddField("Total Tracks", fmt.Sprintf("%s %d tracks", emojiQueue, len(items)), true)
	if total > 0 {
		embed.AddField("Estimated Duration", emojiTime+" "+formatDuration(total), true)
	}
	if streams > 0 {
		embed.AddField("Streams Included", fmt.Sprintf("%s %d", emojiInfo, streams), true)
	}
	if len(items) > 0 && items[0].ThumbnailURL != "" {
		embed.SetThumbnail(items[0].ThumbnailURL)
	}
	embed.SetFooterText("The playlist will start playing soon")

	return discord.NewMessageCreate().AddEmbeds(embed.Build())
}

// QueuePages reports how many pages the pending list needs, at least one.
func QueuePages(pending int) int {
	if pending <= queuePageSize {
		return 1
	}
	return (pending + queuePageSize - 1) / queuePageSize
}

// QueueList renders one page of the queue. page is 1-indexed and must be valid.
func (e Embeds) QueueList(snap proc.Snapshot, page int) discord.MessageCreate {
	embed := e.base(emojiQueue + " Music Queue")

	if snap.Current != nil {
		embed.SetDescription(fmt.Sprintf("**%s Now Playing:** %s - `%s`\n\n**Up Next:**",
			emojiPlay, trackLink(*snap.Current), durationString(*snap.Current)))
		if snap.Current.ThumbnailURL != "" {
			embed.SetThumbnail(snap.Current.ThumbnailURL)
		}
	} else {
		embed.SetDescription("**Queue is empty!** Add some tracks with the play command.")
	}

	pages := QueuePages(len(snap.Pending))
	start := (page - 1) * queuePageSize
	end := min(start+queuePageSize, len(snap.Pending))

	if start < end {
		lines := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			item := snap.Pending[i]
			lines = append(lines, fmt.Sprintf("`%02d` %s %s - `%s`", i+1, emojiSong, trackLink(item), durationString(item)))
		}
		embed.AddField("\u200b", truncateRunes(strings.Join(lines, "\n"), embedFieldLimit), false)
	} else if snap.Current == nil {
		embed.AddField("\u200b", "No tracks in queue.", false)
	}

	total, streams := totalDuration(snap.Pending)
	footer := fmt.Sprintf("Total Tracks in Queue: %d", len(snap.Pending))
	if total > 0 {
		footer += " • Est. Queue Duration: " + formatDuration(total)
	}
	if streams > 0 {
		footer += fmt.Sprintf(" (%d streams)", streams)
	}
	footer += fmt.Sprintf(" • Page %d/%d", page, pages)
	embed.SetFooterText(footer)

	return discord.NewMessageCreate().AddEmbeds(embed.Build())
}

func (e Embeds) Status(snap proc.Snapshot) discord.MessageCreate {
	state := emojiPlay + " Playing"
	switch snap.State {
	case proc.StatePaused:
		state = emojiPause + " Paused"
	case proc.StateStopped:
		state = "⏹️ Stopped"
	}
	loop := "Disabled"
	if snap.Loop == proc.LoopQueue {
		loop = "Queue"
	}

	embed := e.base(emojiInfo+" Player Status").
		AddField("Status", state, true).
		AddField("Volume", fmt.Sprintf("%s %d%%", emojiVolume, snap.Volume), true).
		AddField("Loop Mode", emojiRepeat+" "+loop, true).
		AddField("Voice Channel", fmt.Sprintf("<#%s>", snap.VoiceChannelID), true).
		AddField("Text Channel", fmt.Sprintf("<#%s>", snap.TextChannelID), true).
		AddField("Queue", fmt.Sprintf("%s %d tracks", emojiQueue, len(snap.Pending)), true)

	if snap.Current != nil {
		embed.SetDescription(fmt.Sprintf("**Currently Playing:**\n**%s**\n%s Duration: `%s`",
			trackLink(*snap.Current), emojiTime, durationString(*snap.Current)))
		if snap.Current.ThumbnailURL != "" {
			embed.SetThumbnail(snap.Current.ThumbnailURL)
		}
	} else {
		embed.SetDescription("No track is currently playing.")
	}
	return discord.NewMessageCreate().AddEmbeds(embed.Build())
}

func (e Embeds) Help(prefix string) discord.MessageCreate {
	embed := e.base(emojiInfo + " Available Commands")
	for _, cat := range helpCategories {
		lines := make([]string, 0, len(cat.Entries))
		for _, entry := range cat.Entries {
			lines = append(lines, fmt.Sprintf("`%s%s` - %s", prefix, entry.Usage, entry.Description))
		}
		embed.AddField(cat.Name, strings.Join(lines, "\n"), false)
	}
	embed.SetFooterText(fmt.Sprintf("Prefix: %s • Example: %splay <song name>", prefix, prefix))
	return discord.NewMessageCreate().AddEmbeds(embed.Build())
}

func (e Embeds) Updates(log []Release) discord.MessageCreate {
	if len(log) == 0 {
		return errorMessage("Sorry, no updates are available yet!")
	}
	embed := e.base("🆕 Bot Updates & Changelog").
		SetDescription("Here are the latest changes and improvements to the bot:").
		SetFooterText("Bot Updates")
	for _, rel := range log {
		changes := make([]string, 0, len(rel.Changes))
		for _, c := range rel.Changes {
			changes = append(changes, "- "+c)
		}
		embed.AddField(fmt.Sprintf("Version %s (%s)", rel.Version, rel.Date), truncateRunes(strings.Join(changes, "\n"), embedFieldLimit), false)
	}
	return discord.NewMessageCreate().AddEmbeds(embed.Build())
}

// --- Formatting ---

// formatDuration renders MM:SS, or HH:MM:SS from one hour up. Non-positive durations are live.
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "LIVE"
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total / 60) % 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func durationString(item proc.QueueItem) string {
	if item.IsStream {
		return "LIVE"
	}
	if item.Duration <= 0 {
		return "N/A"
	}
	return formatDuration(item.Duration)
}

// formatUptime renders "Xd Yh Zm Ws".
func formatUptime(d time.Duration) string {
	total := int64(d / time.Second)
	return fmt.Sprintf("%dd %dh %dm %ds", total/86400, (total/3600)%24, (total/60)%60, total%60)
}

// totalDuration sums non-stream durations and counts streams.
func totalDuration(items []proc.QueueItem) (time.Duration, int) {
	var total time.Duration
	streams := 0
	for _, it := range items {
		if it.IsStream {
			streams++
			continue
		}
		total += it.Duration
	}
	return total, streams
}

func trackLink(item proc.QueueItem) string {
	title := orUnknown(item.Title)
	if item.URI == "" {
		return title
	}
	return fmt.Sprintf("[%s](%s)", title, item.URI)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
