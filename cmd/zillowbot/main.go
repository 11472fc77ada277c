package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/swang373/zillowbot/internal/applock"
	"github.com/swang373/zillowbot/internal/config"
	"github.com/swang373/zillowbot/internal/events"
	"github.com/swang373/zillowbot/internal/extract"
	"github.com/swang373/zillowbot/internal/httpapi"
	"github.com/swang373/zillowbot/internal/logging"
	"github.com/swang373/zillowbot/internal/mailbox"
	"github.com/swang373/zillowbot/internal/notify"
	"github.com/swang373/zillowbot/internal/poll"
	"github.com/swang373/zillowbot/internal/secrets"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "path to config.yml (default: <data-dir>/config.yml)")
		dataDir = flag.String("data-dir", "", "data directory (default: $ZILLOWBOT_DATA_DIR or .)")
	)
	flag.Parse()

	dir := *dataDir
	if dir == "" {
		dir = os.Getenv("ZILLOWBOT_DATA_DIR")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatal(err)
	}

	release, err := applock.Acquire(dir)
	if err != nil {
		log.Fatal(err)
	}
	defer release()

	path := *cfgPath
	if path == "" {
		path, err = config.EnsureUserConfig(dir, filepath.Join("config", "config.yml"))
		if err != nil {
			log.Fatalf("config bootstrap failed: %v", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", path, err)
	}
	if err := config.OverlayEnv(&cfg); err != nil {
		log.Fatalf("config env overlay failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal(err)
	}

	// Credentials missing from the file and environment come from the
	// OS keychain.
	if cfg.Email.Password == "" {
		pw, err := secrets.Get(secrets.IMAPAccount(cfg.Email.Username, cfg.Email.IMAPHost))
		if err != nil {
			log.Fatalf("imap password not configured and not in keychain: %v", err)
		}
		cfg.Email.Password = pw
	}
	if cfg.Discord.Token == "" {
		tok, err := secrets.Get(secrets.DiscordAccount())
		if err != nil {
			log.Fatalf("discord token not configured and not in keychain: %v", err)
		}
		cfg.Discord.Token = tok
	}

	lg, err := logging.Open(cfg.App.LogFile, cfg.App.Verbose)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Close()

	hub := events.NewHub()

	notifier, err := notify.NewDiscord(cfg.Discord.Token, cfg.Discord.ChannelID, cfg.Discord.MessagesPerMinute, lg)
	if err != nil {
		log.Fatal(err)
	}

	settings := mailbox.Settings{
		Host:     cfg.Email.IMAPHost,
		Port:     cfg.Email.IMAPPort,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		Mailbox:  cfg.Email.Mailbox,
		Sender:   cfg.Email.Sender,
		Subject:  cfg.Email.SubjectContains,
	}

	poller := &poll.Poller{
		Dial: func(ctx context.Context) (poll.Session, error) {
			return mailbox.Dial(ctx, settings)
		},
		Extract:          extract.Listing,
		Notifier:         notifier,
		Interval:         time.Duration(cfg.Polling.IntervalSeconds) * time.Second,
		IterationTimeout: time.Duration(cfg.Polling.IterationTimeoutSeconds) * time.Second,
		Log:              lg,
		Hub:              hub,
	}

	api := &httpapi.Server{
		Port:   cfg.App.Port,
		Status: poller.Status,
		Hub:    hub,
		Log:    lg,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return poller.Run(ctx) })
	g.Go(func() error { return api.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		lg.Printf("[main] exiting: %v", err)
		os.Exit(1)
	}
	lg.Printf("[main] shutdown complete")
}
