package home

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeineian/kyvex/proc"
)

func TestParseCommandAliases(t *testing.T) {
	tests := []struct {
		in   string
		args []string
		want Command
	}{
		{"p", []string{"never", "gonna"}, PlayCommand{Query: "never gonna"}},
		{"PLAY", []string{"x"}, PlayCommand{Query: "x"}},
		{"s", nil, SkipCommand{}},
		{"q", nil, QueueCommand{Page: 1}},
		{"q", []string{"3"}, QueueCommand{Page: 3}},
		{"np", nil, NowPlayingCommand{}},
		{"vol", []string{"0"}, VolumeCommand{Level: 0}},
		{"volume", []string{"100"}, VolumeCommand{Level: 100}},
		{"remove", []string{"2"}, RemoveCommand{Position: 2}},
		{"prefix", []string{"?"}, PrefixCommand{Prefix: "?"}},
		{"setactivity", []string{"playing", "x"}, SetActivityCommand{Args: []string{"playing", "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCommand(tt.in, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"play", nil, proc.ErrMissingQuery},
		{"volume", nil, proc.ErrInvalidVolume},
		{"volume", []string{"-1"}, proc.ErrInvalidVolume},
		{"volume", []string{"101"}, proc.ErrInvalidVolume},
		{"volume", []string{"abc"}, proc.ErrInvalidVolume},
		{"volume", []string{"NaN"}, proc.ErrInvalidVolume},
		{"volume", []string{"0x10"}, proc.ErrInvalidVolume},
		{"queue", []string{"0"}, proc.ErrInvalidPage},
		{"queue", []string{"two"}, proc.ErrInvalidPage},
		{"remove", nil, proc.ErrInvalidPosition},
		{"remove", []string{"0"}, proc.ErrInvalidPosition},
		{"remove", []string{"x"}, proc.ErrInvalidPosition},
	}
	for _, tt := range tests {
		cmd, err := ParseCommand(tt.name, tt.args)
		assert.ErrorIs(t, err, tt.want, "%s %v", tt.name, tt.args)
		require.NotNil(t, cmd, "%s still yields a command", tt.name)
		assert.True(t, cmd.voice())
	}

	cmd, err := ParseCommand("prefix", []string{"a", "b"})
	require.NotNil(t, cmd)
	assert.Equal(t, proc.KindInvalidArgument, proc.KindOf(err))
}

func TestParseCommandUnknown(t *testing.T) {
	cmd, err := ParseCommand("dance", nil)
	assert.Nil(t, cmd)
	assert.ErrorIs(t, err, errUnknownCommand)
}

func TestMusicCommandsNeedVoice(t *testing.T) {
	voice := []string{"play x", "pause", "resume", "skip", "stop", "queue", "nowplaying", "volume 1", "shuffle", "loop", "remove 1", "clear"}
	for _, c := range voice {
		cmd, _ := parseLine(c)
		assert.True(t, cmd.voice(), c)
	}
	other := []string{"status", "prefix !", "ping", "uptime", "setactivity a b", "updates", "help"}
	for _, c := range other {
		cmd, _ := parseLine(c)
		assert.False(t, cmd.voice(), c)
	}
}

func parseLine(line string) (Command, error) {
	fields := strings.Fields(line)
	return ParseCommand(fields[0], fields[1:])
}
