// Command monitor connects to a Twitch channel's chat and EventSub feeds
// and logs everything that happens there. It loads one channel
// configuration, resolves the authorized user, and runs the chat and event
// sessions until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/ModuloCorpse/TwitchCorpse/internal/config"
	"github.com/ModuloCorpse/TwitchCorpse/internal/eventsub"
	"github.com/ModuloCorpse/TwitchCorpse/internal/irc"
	"github.com/ModuloCorpse/TwitchCorpse/internal/logger"
	"github.com/ModuloCorpse/TwitchCorpse/internal/media"
	"github.com/ModuloCorpse/TwitchCorpse/internal/monitor"
	"github.com/ModuloCorpse/TwitchCorpse/internal/richtext"
	"github.com/ModuloCorpse/TwitchCorpse/internal/twitch"
)

const banner = `
╔══════════════════════════════════════╗
║       TwitchCorpse — Go Edition      ║
╚══════════════════════════════════════╝
`

func main() {
	configPath := flag.String("config", "config.yml", "Path to the configuration file")
	logLevel := flag.String("log-level", "", "Log level: DEBUG, INFO, WARN, ERROR (overrides LOG_LEVEL env)")
	noColor := flag.Bool("no-color", false, "Disable colored output (overrides TTY detection)")
	flag.Parse()

	// Credentials may come from a .env file during development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	level := logger.ParseLevel(cfg.Log.Level)
	if *logLevel != "" {
		level = logger.ParseLevel(*logLevel)
	} else if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		level = logger.ParseLevel(envLevel)
	}

	colored := !*noColor && term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""

	log, err := logger.Setup(logger.Config{
		Level:     level,
		FileLevel: slog.LevelDebug,
		Colored:   colored,
		LogDir:    cfg.Log.Dir,
		Channel:   cfg.Channel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(banner)
	log.Info("🚀 Starting channel monitor", "channel", cfg.Channel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("Received shutdown signal", "signal", sig.String())
		cancel()

		time.AfterFunc(30*time.Second, func() {
			log.Error("Graceful shutdown timed out, forcing exit")
			os.Exit(1)
		})
	}()

	token := twitch.NewToken(cfg.ClientID, cfg.ClientSecret, cfg.AccessToken, cfg.RefreshToken)
	client := twitch.NewClient(twitch.ClientOptions{
		Token:   token,
		Log:     log,
		BaseURL: cfg.API.URL,
	})

	self, err := client.LoadSelf(ctx)
	if err != nil {
		log.Error("Failed to resolve token user", "error", err)
		os.Exit(1)
	}
	broadcaster, err := client.UserByLogin(ctx, cfg.Channel)
	if err != nil {
		log.Error("Failed to resolve channel", "channel", cfg.Channel, "error", err)
		os.Exit(1)
	}
	log.Info("Authorized", "user", self.DisplayName, "channel", broadcaster.DisplayName)

	catalog := media.NewCatalog(client, broadcaster.ID)
	renderer := richtext.NewRenderer(catalog, media.ParseTheme(cfg.Theme))
	handler := monitor.New(log)

	registry := eventsub.NewRegistry(eventsub.RegistryOptions{
		Handler:   handler,
		Users:     client,
		Renderer:  renderer,
		Catalog:   catalog,
		Log:       log,
		ChannelID: broadcaster.ID,
	})
	supervisor := eventsub.NewSupervisor(eventsub.SupervisorOptions{
		Dial:      eventsub.Dial,
		URL:       cfg.Events.URL,
		Registrar: client,
		Registry:  registry,
		Log:       log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return supervisor.Run(gctx)
	})

	if cfg.Chat.Enabled {
		chat := irc.NewSession(irc.SessionOptions{
			Dial:      irc.Dial,
			URL:       cfg.Chat.URL,
			Users:     client,
			Token:     token,
			Catalog:   catalog,
			Renderer:  renderer,
			Handler:   handler,
			Log:       log,
			Channel:   cfg.Channel,
			ChannelID: broadcaster.ID,
		})
		g.Go(func() error {
			return chat.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Monitor stopped", "error", err)
		os.Exit(1)
	}
	log.Info("👋 Shutdown complete. Goodbye!")
}
