package home

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeineian/kyvex/proc"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "LIVE", formatDuration(0))
	assert.Equal(t, "LIVE", formatDuration(-time.Second))
	assert.Equal(t, "00:05", formatDuration(5*time.Second))
	assert.Equal(t, "03:07", formatDuration(3*time.Minute+7*time.Second))
	assert.Equal(t, "59:59", formatDuration(time.Hour-time.Second))
	assert.Equal(t, "01:00:00", formatDuration(time.Hour))
	assert.Equal(t, "12:04:09", formatDuration(12*time.Hour+4*time.Minute+9*time.Second))
}

func TestDurationString(t *testing.T) {
	assert.Equal(t, "LIVE", durationString(proc.QueueItem{IsStream: true, Duration: time.Minute}))
	assert.Equal(t, "N/A", durationString(proc.QueueItem{}))
	assert.Equal(t, "01:30", durationString(proc.QueueItem{Duration: 90 * time.Second}))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0d 0h 0m 0s", formatUptime(0))
	assert.Equal(t, "1d 2h 3m 4s", formatUptime(26*time.Hour+3*time.Minute+4*time.Second))
}

func TestQueuePages(t *testing.T) {
	assert.Equal(t, 1, QueuePages(0))
	assert.Equal(t, 1, QueuePages(10))
	assert.Equal(t, 2, QueuePages(11))
	assert.Equal(t, 3, QueuePages(25))
}

func TestQueueListPaging(t *testing.T) {
	pending := make([]proc.QueueItem, 0, 12)
	for i := 1; i <= 12; i++ {
		pending = append(pending, proc.QueueItem{Title: fmt.Sprintf("T%d", i), Duration: time.Minute})
	}
	pending = append(pending, proc.QueueItem{Title: "Radio", IsStream: true})
	cur := proc.QueueItem{Title: "Now", Duration: 2 * time.Minute}
	snap := proc.Snapshot{Current: &cur, Pending: pending}

	msg := Embeds{}.QueueList(snap, 2)
	require.Len(t, msg.Embeds, 1)
	embed := msg.Embeds[0]
	require.Len(t, embed.Fields, 1)
	lines := strings.Split(embed.Fields[0].Value, "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "`11` 🎶 T11 - `01:00`", lines[0])
	assert.Equal(t, "`13` 🎶 Radio - `LIVE`", lines[2])
	require.NotNil(t, embed.Footer)
	assert.Equal(t, "Total Tracks in Queue: 13 • Est. Queue Duration: 12:00 (1 streams) • Page 2/2", embed.Footer.Text)
	assert.Contains(t, embed.Description, "Now")
}

func TestAddedToQueuePosition(t *testing.T) {
	item := proc.QueueItem{Title: "Song", URI: "https://example.com/s", Duration: time.Minute, RequesterName: "listener"}

	now := Embeds{}.AddedToQueue(item, 0).Embeds[0]
	assert.Equal(t, "▶️ Now", now.Fields[2].Value)
	assert.Contains(t, now.Description, "[Song](https://example.com/s)")

	later := Embeds{}.AddedToQueue(item, 4).Embeds[0]
	assert.Equal(t, "📜 #4", later.Fields[2].Value)
}

func TestNowPlayingCarriesControls(t *testing.T) {
	item := proc.QueueItem{Title: "Song"}
	msg := Embeds{}.NowPlaying(proc.Snapshot{SessionID: "sid", State: proc.StatePlaying, Current: &item}, item)
	require.Len(t, msg.Embeds, 1)
	require.Len(t, msg.Components, 1)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "abcdefg...", truncateRunes(strings.Repeat("abcdefghij", 3), 10))
	assert.Equal(t, 10, len([]rune(truncateRunes(strings.Repeat("é", 20), 10))))
}

func TestChangelog(t *testing.T) {
	require.NotEmpty(t, changelog)
	assert.Equal(t, "1.0.1", changelog[0].Version)
	for _, rel := range changelog {
		assert.NotEmpty(t, rel.Date, rel.Version)
		assert.NotEmpty(t, rel.Changes, rel.Version)
	}

	_, err := parseChangelog([]byte("version: [unclosed"))
	assert.Error(t, err)

	assert.Equal(t, "❌ | Sorry, no updates are available yet!", Embeds{}.Updates(nil).Content)
	assert.Len(t, Embeds{}.Updates(changelog).Embeds[0].Fields, len(changelog))
}
