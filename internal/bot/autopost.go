package bot

import (
	"context"
	"math/rand"
	"time"

	"github.com/oreeke/twipsybot/internal/constants"
)

// runAutopost posts a note from the configured rotation at the configured
// interval, with an optional random jitter so posts do not land on a fixed
// cadence. It returns when ctx is cancelled.
func (b *Bot) runAutopost(ctx context.Context) error {
	if len(b.cfg.Autopost.Texts) == 0 {
		b.log.Warn("Autopost enabled but no texts configured, scheduler not started")
		return nil
	}
	interval := b.cfg.Autopost.Interval
	if interval <= 0 {
		interval = constants.DefaultAutopostInterval
	}
	b.log.Info("Autopost scheduler started",
		"interval", interval,
		"texts", len(b.cfg.Autopost.Texts),
	)

	next := 0
	for {
		if err := b.sleep(ctx, b.withJitter(interval)); err != nil {
			return nil
		}

		text := b.cfg.Autopost.Texts[next%len(b.cfg.Autopost.Texts)]
		next++

		postCtx, cancel := context.WithTimeout(ctx, constants.DefaultHTTPTimeout)
		note, err := b.api.CreateNote(postCtx, text, b.cfg.Autopost.Visibility, "")
		cancel()
		if err != nil {
			b.log.Error("Autopost failed", "error", err)
			continue
		}
		b.log.Info("Autopost published", "note_id", note.ID)
	}
}

func (b *Bot) withJitter(interval time.Duration) time.Duration {
	if b.cfg.Autopost.MaxJitter <= 0 {
		return interval
	}
	return interval + time.Duration(rand.Int63n(int64(b.cfg.Autopost.MaxJitter)))
}
