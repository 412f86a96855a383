package sys

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

// --- Globals & Styles ---

var (
	// Level colors
	infoColor  = color.New()
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
	fatalColor = color.New(color.FgRed, color.Bold)

	// Component colors
	databaseColor = color.New()
	musicColor    = color.New(color.FgMagenta)
	lavalinkColor = color.New(color.FgBlue)
	presenceColor = color.New(color.FgHiMagenta)
	routerColor   = color.New(color.FgGreen)

	// Global state
	DefaultTimeFormat = "15:04:05"
	IsSilent          = false
	LogToFile         = false
	Logger            *slog.Logger

	// Internal state
	logFile *lumberjack.Logger
	logMu   sync.Mutex
)

// --- Initialization ---

func init() {
	InitLogger(false, false)
}

// InitLogger initializes the global structured logger
func InitLogger(silent bool, saveToFile bool) {
	logMu.Lock()
	defer logMu.Unlock()

	IsSilent = silent
	LogToFile = saveToFile
	level := slog.LevelInfo
	if strings.ToLower(os.Getenv("DEBUG")) == "true" {
		level = slog.LevelDebug
	}

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writer io.Writer = os.Stdout

	if LogToFile {
		logFile = &lumberjack.Logger{
			Filename:   GetProjectName() + ".log",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     14,
		}
		writer = io.MultiWriter(os.Stdout, NewStripANSIWriter(logFile))
	}

	color.NoColor = false

	handler := NewBotLogHandler(writer, &BotLogHandlerOptions{
		Silent: IsSilent,
		Level:  level,
	})
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

func SetSilentMode(silent bool) {
	InitLogger(silent, LogToFile)
}

// --- Public Logging API ---

func LogInfo(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...))
}

func LogWarn(format string, v ...any) {
	slog.Warn(fmt.Sprintf(format, v...))
}

func LogError(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...))
}

// LogFatal logs and panics so deferred cleanup in main still runs.
func LogFatal(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	slog.Log(context.Background(), slog.LevelError+4, msg)
	panic(msg)
}

func LogDebug(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...))
}

// Component Loggers

func LogDatabase(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "database"))
}

func LogMusic(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "music"))
}

func LogLavalink(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "lavalink"))
}

func LogPresence(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "presence"))
}

func LogRouter(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "router"))
}

// --- Log Handler Implementation ---

type BotLogHandlerOptions struct {
	Silent bool
	Level  slog.Leveler
}

type BotLogHandler struct {
	w    io.Writer
	opts *BotLogHandlerOptions
	mu   *sync.Mutex
}

func NewBotLogHandler(w io.Writer, opts *BotLogHandlerOptions) *BotLogHandler {
	if opts == nil {
		opts = &BotLogHandlerOptions{Level: slog.LevelInfo}
	}
	return &BotLogHandler{
		w:    w,
		opts: opts,
		mu:   &sync.Mutex{},
	}
}

func (h *BotLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.opts.Silent {
		return false
	}
	return level >= h.opts.Level.Level()
}

func (h *BotLogHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.opts.Silent {
		return nil
	}

	timeStr := time.Now().Format(DefaultTimeFormat)
	var levelStr string
	var levelColor *color.Color

	switch {
	case r.Level >= slog.LevelError+4:
		levelStr = "FATAL"
		levelColor = fatalColor
	case r.Level >= slog.LevelError:
		levelStr = "ERROR"
		levelColor = errorColor
	case r.Level >= slog.LevelWarn:
		levelStr = "WARN"
		levelColor = warnColor
	case r.Level >= slog.LevelInfo:
		levelStr = "INFO"
		levelColor = infoColor
	default:
		levelStr = "DEBUG"
		levelColor = infoColor
	}

	component := ""
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = strings.ToUpper(a.Value.String())
			return false
		}
		return true
	})

	fmt.Fprintf(h.w, "%s", timeStr)

	if component != "" {
		if levelStr != "INFO" {
			fmt.Fprintf(h.w, " %s", levelColor.Sprintf("[%s]", levelStr))
		}
		compColor := getComponentColor(component)
		fmt.Fprintf(h.w, " %s\n", colorizeWithResets(compColor, fmt.Sprintf("[%s] %s", component, r.Message)))
	} else {
		fmt.Fprintf(h.w, " %s\n", colorizeWithResets(levelColor, fmt.Sprintf("[%s] %s", levelStr, r.Message)))
	}

	return nil
}

func (h *BotLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *BotLogHandler) WithGroup(name string) slog.Handler       { return h }

// --- Formatting Helpers ---

func getComponentColor(name string) *color.Color {
	switch name {
	case "DATABASE":
		return databaseColor
	case "MUSIC":
		return musicColor
	case "LAVALINK":
		return lavalinkColor
	case "PRESENCE":
		return presenceColor
	case "ROUTER":
		return routerColor
	default:
		return color.New(color.FgCyan)
	}
}

// colorizeWithResets re-applies the outer color after every reset inside text.
func colorizeWithResets(c *color.Color, text string) string {
	if !strings.Contains(text, "\x1b[0m") {
		return c.Sprint(text)
	}

	marker := "@@@MSG@@@"
	wrapped := c.Sprint(marker)
	idx := strings.Index(wrapped, marker)
	if idx <= 0 {
		return text
	}
	startSeq := wrapped[:idx]

	modifiedText := strings.ReplaceAll(text, "\x1b[0m", "\x1b[0m"+startSeq)
	return c.Sprint(modifiedText)
}

// ColorizeHex renders an embed color as a swatch for terminal logs.
func ColorizeHex(colorInt int) string {
	r := (colorInt >> 16) & 0xFF
	g := (colorInt >> 8) & 0xFF
	b := colorInt & 0xFF
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm⬤ #%06X\x1b[0m", r, g, b, colorInt)
}

// --- ANSI Stripper ---

type StripANSIWriter struct {
	w  io.Writer
	re *regexp.Regexp
}

func NewStripANSIWriter(w io.Writer) *StripANSIWriter {
	return &StripANSIWriter{
		w:  w,
		re: regexp.MustCompile(`\x1b\[[0-9;]*m`),
	}
}

func (s *StripANSIWriter) Write(p []byte) (n int, err error) {
	clean := s.re.ReplaceAll(p, []byte(""))
	_, err = s.w.Write(clean)
	return len(p), err
}

// --- Message Constants ---

const (
	// --- Infrastructure & Lifecycle ---
	MsgConfigFailedToLoad     = "Failed to load config: %v"
	MsgConfigMissingToken     = "DISCORD_TOKEN is not set in .env file"
	MsgConfigInvalidPrefix    = "PREFIX must be 1 to 5 characters"
	MsgConfigInvalidColor     = "EMBED_COLOR must be a hex color like #7289DA"
	MsgConfigInvalidSnowflake = "%s must be a valid Snowflake"
	MsgDatabaseInitSuccess    = "Database initialized successfully"
	MsgDatabaseTableError     = "Failed to create table: %w"
	MsgDatabasePragmaError    = "Failed to set pragma %s: %w"
	MsgDaemonStarting         = "Starting..."
	MsgBotStarting            = "Starting %s..."
	MsgBotReady               = "%s is ready! (ID: %s) (PID: %d) (Took: %dms)"
	MsgBotShutdown            = "Shutting down %s..."
	MsgBotKillingOld          = "Killing running instance... (PID: %d)"
	MsgBotOldTerminated       = "Old instance terminated."
	MsgBotRegisterFail        = "Command registration failed: %v"
	MsgGenericError           = "%v"

	// --- Command Loader & Registry ---
	MsgLoaderSyncCommands   = "Syncing %s commands..."
	MsgLoaderUpToDate       = "Commands are up to date. (Hash: %s)"
	MsgLoaderRegistered     = "Registered %s command: %s"
	MsgLoaderRegisterFail   = "Failed to register %s commands: %w"
	MsgLoaderPanicRecovered = "Recovered from panic: %v"

	// --- Prefixes ---
	MsgPrefixLoaded   = "Loaded %d guild prefixes"
	MsgPrefixSaveFail = "failed to save prefix for guild %s: %w"
	MsgPrefixLoadFail = "failed to load guild prefixes: %w"

	// --- Music ---
	MsgMusicSessionCreated  = "Session %s created in guild %s (voice %s, text %s)"
	MsgMusicSessionEnded    = "Session %s ended in guild %s (%s)"
	MsgMusicTrackStarted    = "Now playing in guild %s: %s"
	MsgMusicDeleteFailed    = "Failed to delete transient message %s in channel %s: %v"
	MsgMusicNotifyFailed    = "Failed to send %s notice in guild %s: %v"
	MsgMusicAdvanceFailed   = "Failed to start next track in guild %s: %v"
	MsgMusicBotDisconnected = "Bot disconnected from voice in guild %s"
	MsgMusicCleanupFailed   = "Transient message cleanup: %v"

	// --- Lavalink ---
	MsgLavalinkNodeAdded    = "Node %s connected (%s)"
	MsgLavalinkNodeFailed   = "Node %s failed to connect: %v"
	MsgLavalinkTrackError   = "Track exception in guild %s: %s"
	MsgLavalinkTrackStuck   = "Track stuck in guild %s: %s"
	MsgLavalinkNoNode       = "no audio node is available"
	MsgLavalinkSocketClosed = "Voice socket closed in guild %s (code %d: %s)"

	// --- Presence ---
	MsgPresenceUpdated    = "Activity set to %s \"%s\""
	MsgPresenceUpdateFail = "Failed to update presence: %v"
	MsgPresenceRestoreBad = "Ignoring stored activity: %v"

	// --- Router ---
	MsgRouterCommand      = "%s used %s in guild %s"
	MsgRouterRateLimited  = "Rate limited %s (%s)"
	MsgRouterReplyFail    = "Failed to reply to %s in channel %s: %v"
	MsgRouterExternalFail = "External failure in %s: %v"

	// --- Ops log channel ---
	MsgOpLogSendFail = "Failed to send ops log entry: %v"

	// --- Metrics ---
	MsgMetricsListening = "Serving metrics on %s"
	MsgMetricsFail      = "Metrics server stopped: %v"
)
