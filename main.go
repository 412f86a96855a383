package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/spf13/cobra"

	"github.com/leeineian/kyvex/home"
	"github.com/leeineian/kyvex/proc"
	"github.com/leeineian/kyvex/sys"
)

const pidFile = ".bot.pid"

type options struct {
	silent  bool
	skipReg bool
	logFile bool
}

func main() {
	// LogFatal panics so deferred cleanup runs; turn that into an exit code here.
	defer func() {
		if r := recover(); r != nil {
			if msg, ok := r.(string); ok {
				fmt.Fprintf(os.Stderr, "\n[FATAL] %s\n", msg)
				os.Exit(1)
			}
			panic(r)
		}
	}()

	var opts options
	root := &cobra.Command{
		Use:           sys.GetProjectName(),
		Short:         "Discord music bot backed by a Lavalink node",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return start(opts)
		},
	}
	root.Flags().BoolVar(&opts.silent, "silent", false, "Disable all log output")
	root.Flags().BoolVar(&opts.skipReg, "skip-reg", false, "Skip slash command registration")
	root.Flags().BoolVar(&opts.logFile, "log-file", true, "Also write logs to a rotating file")

	if err := root.Execute(); err != nil {
		sys.LogFatal(sys.MsgGenericError, err)
	}
}

func start(opts options) error {
	cfg, err := sys.LoadConfig()
	if err != nil {
		return fmt.Errorf(sys.MsgConfigFailedToLoad, err)
	}

	sys.InitLogger(opts.silent || cfg.Silent, opts.logFile)

	if err := sys.InitDatabase(context.Background(), cfg.DatabasePath); err != nil {
		sys.LogFatal("Failed to initialize database: %v", err)
	}
	defer sys.CloseDatabase()

	sys.LogInfo(sys.MsgBotStarting, sys.GetProjectName())

	release := acquirePIDLock()
	defer release()

	return run(cfg, opts)
}

func run(cfg *sys.Config, opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	sys.SetAppContext(ctx)

	prefixes := sys.NewPrefixStore(sys.DB, cfg.Prefix)
	if err := prefixes.Load(ctx); err != nil {
		return err
	}

	client, err := sys.CreateClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create Discord client: %w", err)
	}
	defer client.Close(context.Background())

	if ch, err := snowflake.Parse(cfg.LogChannelID); err == nil {
		sys.InitOpLog(client, ch)
	}

	audio := proc.NewLavalinkAudio(client, cfg.SearchPrefix)
	defer audio.Close()

	embeds := home.Embeds{Color: cfg.Color()}
	messenger := home.NewRestMessenger(client.Rest)
	manager := proc.NewManager(audio, messenger, embeds)
	audio.Bind(manager)

	presence := proc.NewPresence(client, proc.Activity{
		Type: proc.ActivityStreaming,
		Name: cfg.ActivityName,
		URL:  cfg.StreamingURL,
	})

	home.Setup(home.NewRouter(home.RouterConfig{
		Manager:      manager,
		Messenger:    messenger,
		Prefixes:     prefixes,
		Activity:     presence,
		Embeds:       embeds,
		Owners:       cfg.Owners(),
		Latency:      func() time.Duration { return client.Gateway.Latency() },
		StartedAt:    sys.StartupTime,
		CommandRate:  cfg.CommandRate,
		CommandBurst: cfg.CommandBurst,
	}))

	sys.RegisterVoiceStateUpdateHandler(audio.HandleVoiceStateUpdate)
	sys.RegisterVoiceServerUpdateHandler(audio.HandleVoiceServerUpdate)

	var nodeOnce sync.Once
	sys.OnClientReady(func(ctx context.Context, client *bot.Client) {
		presence.Restore(ctx)
		nodeOnce.Do(func() {
			_ = audio.ConnectNode(ctx, disgolink.NodeConfig{
				Name:     cfg.LavalinkName,
				Address:  cfg.LavalinkAddress,
				Password: cfg.LavalinkPassword,
				Secure:   cfg.LavalinkSecure,
			})
		})
	})

	sys.RegisterDaemon(sys.LogInfo, sys.StartMetricsServer(cfg.MetricsAddr))

	if !opts.skipReg {
		if err := sys.RegisterCommands(ctx, client, cfg.GuildID); err != nil {
			sys.LogError(sys.MsgBotRegisterFail, err)
		}
	} else {
		sys.LogInfo("Skipping command registration as requested.")
	}

	if err := client.OpenGateway(ctx); err != nil {
		return fmt.Errorf("failed to open gateway: %w", err)
	}

	<-ctx.Done()
	if !opts.silent {
		fmt.Println()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	manager.Shutdown(shutdownCtx)
	sys.LogInfo("Shutting down all daemons...")
	sys.ShutdownDaemons(shutdownCtx)

	if botUser, ok := client.Caches.SelfUser(); ok {
		sys.LogInfo(sys.MsgBotShutdown, botUser.Username)
	} else {
		sys.LogInfo(sys.MsgBotShutdown, sys.GetProjectName())
	}
	return nil
}

// acquirePIDLock takes the PID file lock, terminating a running instance if
// one holds it. The returned func releases the lock and removes the file.
func acquirePIDLock() func() {
	f, err := os.OpenFile(pidFile, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		sys.LogFatal("Failed to open PID file: %v", err)
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			break
		}
		if err != syscall.EWOULDBLOCK {
			sys.LogFatal("Failed to lock PID file: %v", err)
		}

		var oldPid int
		_, _ = f.Seek(0, 0)
		if _, scanErr := fmt.Fscanf(f, "%d", &oldPid); scanErr != nil {
			<-ticker.C
			continue
		}
		if oldPid == os.Getpid() {
			break
		}

		process, procErr := os.FindProcess(oldPid)
		if procErr != nil {
			<-ticker.C
			continue
		}

		sys.LogInfo(sys.MsgBotKillingOld, oldPid)
		_ = process.Signal(syscall.SIGTERM)
		if !waitForExit(process, 5*time.Second) {
			sys.LogWarn("Old process %d is stubborn. Sending SIGKILL...", oldPid)
			_ = process.Signal(syscall.SIGKILL)
			if !waitForExit(process, 2*time.Second) {
				sys.LogWarn("Process %d still exists after SIGKILL", oldPid)
			}
		}
		sys.LogInfo(sys.MsgBotOldTerminated)
	}

	_ = f.Truncate(0)
	_, _ = f.Seek(0, 0)
	_, _ = fmt.Fprintf(f, "%d", os.Getpid())
	_ = f.Sync()

	return func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
		_ = os.Remove(pidFile)
	}
}

func waitForExit(process *os.Process, timeout time.Duration) bool {
	deadline := time.After(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := process.Signal(syscall.Signal(0)); err != nil {
				return true
			}
		case <-deadline:
			return false
		}
	}
}
