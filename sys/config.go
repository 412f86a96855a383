package sys

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/joho/godotenv"
)

// MaxPrefixLength bounds both the default and per-guild prefixes.
const MaxPrefixLength = 5

type Config struct {
	Token        string   `env:"DISCORD_TOKEN"`
	GuildID      string   `env:"GUILD_ID"`
	DatabasePath string   `env:"DATABASE_PATH"`
	OwnerIDs     []string `env:"OWNER_IDS" envSeparator:","`
	Silent       bool     `env:"SILENT"`

	Prefix       string `env:"PREFIX" envDefault:"."`
	EmbedColor   string `env:"EMBED_COLOR" envDefault:"#7289DA"`
	LogChannelID string `env:"LOG_CHANNEL_ID"`

	ActivityName string `env:"ACTIVITY_NAME" envDefault:"Kyvex Music"`
	StreamingURL string `env:"STREAMING_URL" envDefault:"https://www.twitch.tv/kyvexmusic"`

	LavalinkName     string `env:"LAVALINK_NAME" envDefault:"Main Node"`
	LavalinkAddress  string `env:"LAVALINK_ADDRESS" envDefault:"localhost:2333"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD" envDefault:"youshallnotpass"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE"`
	SearchPrefix     string `env:"SEARCH_PREFIX" envDefault:"ytmsearch"`

	MetricsAddr  string  `env:"METRICS_ADDR"`
	CommandRate  float64 `env:"COMMAND_RATE" envDefault:"2"`
	CommandBurst int     `env:"COMMAND_BURST" envDefault:"5"`
}

var GlobalConfig *Config

// LoadConfig initializes the configuration from the environment and .env.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	for i := range cfg.OwnerIDs {
		cfg.OwnerIDs[i] = strings.TrimSpace(cfg.OwnerIDs[i])
	}

	if cfg.DatabasePath == "" {
		folder := "."
		if info, err := os.Stat("data"); err == nil && info.IsDir() {
			folder = "./data"
		}
		cfg.DatabasePath = filepath.Join(folder, GetProjectName()+".db")
	}
	cfg.DatabasePath = fmt.Sprintf("%s?_journal_mode=WAL&_timeout=5000", cfg.DatabasePath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Silent {
		SetSilentMode(true)
	}

	GlobalConfig = cfg
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf(MsgConfigMissingToken)
	}
	if c.GuildID != "" && (len(c.GuildID) < 17 || len(c.GuildID) > 20) {
		return fmt.Errorf("invalid GUILD_ID: must be a valid Snowflake")
	}
	if c.Prefix == "" || len([]rune(c.Prefix)) > MaxPrefixLength {
		return fmt.Errorf(MsgConfigInvalidPrefix)
	}
	if _, err := ParseColor(c.EmbedColor); err != nil {
		return fmt.Errorf(MsgConfigInvalidColor)
	}
	if c.LogChannelID != "" {
		if _, err := snowflake.Parse(c.LogChannelID); err != nil {
			return fmt.Errorf(MsgConfigInvalidSnowflake, "LOG_CHANNEL_ID")
		}
	}
	for _, id := range c.OwnerIDs {
		if _, err := snowflake.Parse(id); err != nil {
			return fmt.Errorf(MsgConfigInvalidSnowflake, "OWNER_IDS")
		}
	}
	return nil
}

// Owners returns the parsed owner ids. Validate has already rejected bad ones.
func (c *Config) Owners() []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(c.OwnerIDs))
	for _, raw := range c.OwnerIDs {
		if id, err := snowflake.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *Config) Color() int {
	color, _ := ParseColor(c.EmbedColor)
	return color
}

// ParseColor converts "#RRGGBB" (or "RRGGBB") into an embed color.
func ParseColor(hex string) (int, error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return 0, fmt.Errorf("invalid color %q", hex)
	}
	v, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func GetProjectName() string {
	exePath, err := os.Executable()
	projectName := "bot"
	if err == nil {
		projectName = filepath.Base(exePath)
		projectName = strings.TrimSuffix(projectName, ".exe")

		if projectName == "main" || strings.HasPrefix(projectName, "go_build_") || strings.HasSuffix(projectName, ".test") {
			if modData, err := os.ReadFile("go.mod"); err == nil {
				lines := strings.Split(string(modData), "\n")
				if len(lines) > 0 && strings.HasPrefix(lines[0], "module ") {
					parts := strings.Split(lines[0], "/")
					projectName = strings.TrimSpace(parts[len(parts)-1])
				}
			}
		}
	}
	return projectName
}
