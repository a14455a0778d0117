package bot

import (
	"context"

	"github.com/oreeke/twipsybot/internal/jsonutil"
	"github.com/oreeke/twipsybot/internal/logger"
	"github.com/oreeke/twipsybot/internal/model"
)

// Responder reacts to normalized streaming events. Implementations run on
// the streaming dispatch workers; long-running work should be offloaded.
type Responder interface {
	OnMention(ctx context.Context, event *model.Event) error
	OnMessage(ctx context.Context, event *model.Event) error
	OnNotification(ctx context.Context, event *model.Event) error
	OnNote(ctx context.Context, event *model.Event) error
}

func (b *Bot) registerHandlers() {
	b.stream.OnMention(b.onMention)
	b.stream.OnMessage(b.onMessage)
	b.stream.OnNotification(b.onNotification)
	b.stream.OnNote(b.onNote)
}

func (b *Bot) onMention(ctx context.Context, event *model.Event) error {
	if b.isSelf(event) {
		return nil
	}
	return b.responder.OnMention(ctx, event)
}

func (b *Bot) onMessage(ctx context.Context, event *model.Event) error {
	if b.isSelf(event) {
		return nil
	}
	return b.responder.OnMessage(ctx, event)
}

func (b *Bot) onNotification(ctx context.Context, event *model.Event) error {
	return b.responder.OnNotification(ctx, event)
}

func (b *Bot) onNote(ctx context.Context, event *model.Event) error {
	if b.isSelf(event) {
		return nil
	}
	return b.responder.OnNote(ctx, event)
}

// isSelf reports whether the event originated from the bot's own account.
// The streaming connection echoes the account's own notes and messages back.
func (b *Bot) isSelf(event *model.Event) bool {
	return b.me != nil && event.UserID() == b.me.ID
}

// logResponder is the default Responder. It records each event and takes
// no further action.
type logResponder struct {
	log *logger.Logger
}

func (r *logResponder) OnMention(_ context.Context, event *model.Event) error {
	note := event.Note()
	r.log.Info("Mention received",
		"user", noteUsername(note),
		"note_id", jsonutil.StringFromMap(note, "id"),
	)
	return nil
}

func (r *logResponder) OnMessage(_ context.Context, event *model.Event) error {
	r.log.Info("Chat message received",
		"user", event.UserID(),
		"channel", event.ChannelID,
		"message_id", jsonutil.StringFromMap(event.Body, "id"),
	)
	return nil
}

func (r *logResponder) OnNotification(_ context.Context, event *model.Event) error {
	r.log.Info("Notification received",
		"notification_type", jsonutil.StringFromMap(event.Body, "type"),
		"user", event.UserID(),
	)
	return nil
}

func (r *logResponder) OnNote(_ context.Context, event *model.Event) error {
	r.log.Debug("Timeline note",
		"channel", event.ChannelName,
		"user", noteUsername(event.Note()),
		"note_id", jsonutil.StringFromMap(event.Note(), "id"),
	)
	return nil
}

func noteUsername(note map[string]any) string {
	user := jsonutil.MapFromMap(note, "user")
	return jsonutil.StringFromMap(user, "username")
}
