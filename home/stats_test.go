package home

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenderStats(t *testing.T) {
	out := renderStats(StatsSnapshot{Sessions: 3, Uptime: 90 * time.Second, GatewayPing: 42})
	assert.True(t, strings.HasPrefix(out, "```ansi\n"))
	assert.Contains(t, out, "Active Sessions:"+StatsAnsiReset+" "+StatsAnsiPinkBold+"3")
	assert.Contains(t, out, "0d 0h 1m 30s")
	assert.Contains(t, out, "42ms")
	assert.NotContains(t, out, "API Latency")
	assert.NotContains(t, out, "Database")
}
