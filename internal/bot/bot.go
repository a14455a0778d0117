// Package bot implements the orchestrator for a single Misskey bot account.
// It wires together the REST client, the streaming engine, event handlers,
// and the autopost scheduler.
package bot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oreeke/twipsybot/internal/config"
	"github.com/oreeke/twipsybot/internal/constants"
	"github.com/oreeke/twipsybot/internal/logger"
	"github.com/oreeke/twipsybot/internal/misskey"
	"github.com/oreeke/twipsybot/internal/model"
	"github.com/oreeke/twipsybot/internal/streaming"
	"github.com/oreeke/twipsybot/internal/workerpool"
)

// Bot orchestrates the full lifecycle for one configured account: identity
// lookup, channel subscription, the streaming read loop, and scheduled posts.
type Bot struct {
	cfg    *config.BotConfig
	log    *logger.Logger
	api    *misskey.Client
	stream *streaming.Client

	responder Responder

	running atomic.Bool

	me       *misskey.User
	channels []model.ChannelSpec
}

// New creates a Bot from configuration. The responder defaults to a
// log-only implementation; replace it with [Bot.SetResponder] before Run.
func New(cfg *config.BotConfig, log *logger.Logger) *Bot {
	b := &Bot{
		cfg: cfg,
		log: log,
		api: misskey.NewClient(cfg.Instance.URL, cfg.Instance.AccessToken, log),
	}
	b.responder = &logResponder{log: log}
	b.stream = streaming.NewClient(cfg.Instance.URL, cfg.Instance.AccessToken, streaming.Options{
		Workers:        cfg.Stream.Workers,
		QueueCapacity:  cfg.Stream.QueueCapacity,
		EnqueueTimeout: cfg.Stream.EnqueueTimeout,
		DedupCapacity:  cfg.Stream.DedupCapacity,
		DedupTTL:       cfg.Stream.DedupTTL,
		ChatInactivity: cfg.Stream.ChatInactivity,
		LogDumpEvents:  cfg.LogDumpEvents,
	}, log.WithName("stream"))
	return b
}

// SetResponder replaces the event responder. Must be called before Run.
func (b *Bot) SetResponder(r Responder) {
	if r != nil {
		b.responder = r
	}
}

// API returns the REST client, for responders that need to call back
// into the instance.
func (b *Bot) API() *misskey.Client {
	return b.api
}

// IsRunning reports whether the bot main loop is active.
func (b *Bot) IsRunning() bool {
	return b.running.Load()
}

// Me returns the authenticated account, once Run has resolved it.
func (b *Bot) Me() *misskey.User {
	return b.me
}

// Run is the main entry point. It performs startup in parallel (identity
// lookup and antenna resolution), registers event handlers, then runs the
// streaming loop and the autopost scheduler until ctx is cancelled or the
// streaming loop fails terminally.
func (b *Bot) Run(ctx context.Context) error {
	b.running.Store(true)
	defer b.running.Store(false)

	b.log.Info("Starting bot", "name", b.cfg.Name, "instance", b.cfg.Instance.URL)

	startup := []func(context.Context) error{
		b.resolveIdentity,
		b.resolveChannels,
	}
	if err := workerpool.Run(ctx, startup, constants.StartupWorkers,
		func(ctx context.Context, task func(context.Context) error) error {
			return task(ctx)
		}); err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	b.log.Info("Logged in",
		"user", b.me.Username,
		"user_id", b.me.ID,
		"channels", len(b.channels),
	)

	b.registerHandlers()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.stream.Connect(gctx, b.channels, b.cfg.ShouldReconnect())
	})
	if b.cfg.Autopost.Enabled {
		g.Go(func() error {
			return b.runAutopost(gctx)
		})
	}

	err := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultGracefulShutdownTimeout)
	defer cancel()
	if cerr := b.stream.Close(shutdownCtx); cerr != nil {
		b.log.Warn("Error closing streaming client", "error", cerr)
	}

	if err != nil && ctx.Err() == nil {
		return err
	}
	b.log.Info("Bot stopped", "name", b.cfg.Name)
	return nil
}

func (b *Bot) resolveIdentity(ctx context.Context) error {
	me, err := b.api.Me(ctx)
	if err != nil {
		return fmt.Errorf("fetching own profile: %w", err)
	}
	b.me = me
	return nil
}

func (b *Bot) resolveChannels(ctx context.Context) error {
	specs, err := b.streamingChannels(ctx)
	if err != nil {
		return err
	}
	b.channels = specs
	return nil
}

func (b *Bot) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
