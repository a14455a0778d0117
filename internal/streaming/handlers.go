package streaming

import (
	"context"
	"fmt"

	"github.com/oreeke/twipsybot/internal/model"
)

// Handler consumes one canonical event. Returning an error only logs it;
// handler failures never affect dedup or queue state and never stop a
// dispatch worker.
type Handler func(ctx context.Context, event *model.Event) error

// OnMention registers a handler for mention events (wire "mention" and
// "reply" on the main channel). Handlers run in registration order.
func (c *Client) OnMention(h Handler) {
	c.addHandler(string(model.EventMention), h)
}

// OnMessage registers a handler for direct chat message events.
func (c *Client) OnMessage(h Handler) {
	c.addHandler(string(model.EventMessage), h)
}

// OnNotification registers a handler for generic notification events.
func (c *Client) OnNotification(h Handler) {
	c.addHandler(string(model.EventNotification), h)
}

// OnNote registers a handler for timeline and antenna note events.
func (c *Client) OnNote(h Handler) {
	c.addHandler(string(model.EventNote), h)
}

// On registers a handler for an arbitrary event category. Notifications
// whose inner type matches a registered category are redirected there
// instead of the generic notification handlers.
func (c *Client) On(eventType string, h Handler) {
	c.addHandler(eventType, h)
}

// Async wraps a handler so dispatch launches it on its own goroutine
// instead of running it inline on a worker. The choice is made once, at
// registration time.
func (c *Client) Async(h Handler) Handler {
	return func(ctx context.Context, event *model.Event) error {
		go func() {
			if err := c.invokeHandler(ctx, h, event); err != nil {
				c.log.Error("Event handler failed",
					"event", string(event.Type), "error", c.redact(err.Error()))
			}
		}()
		return nil
	}
}

func (c *Client) addHandler(eventType string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = append(c.handlers[eventType], h)
}

func (c *Client) hasHandlers(eventType string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers[eventType]) > 0
}

// callHandlers invokes every handler registered for the event type, in
// registration order. Failures are logged and do not affect later handlers.
func (c *Client) callHandlers(ctx context.Context, eventType string, event *model.Event) {
	c.mu.Lock()
	registered := c.handlers[eventType]
	handlers := make([]Handler, len(registered))
	copy(handlers, registered)
	c.mu.Unlock()

	for _, h := range handlers {
		if err := c.invokeHandler(ctx, h, event); err != nil {
			c.log.Error("Event handler failed",
				"event", eventType, "error", c.redact(err.Error()))
		}
	}
}

// invokeHandler runs one handler, converting a panic into an error so a
// misbehaving handler cannot kill a dispatch worker.
func (c *Client) invokeHandler(ctx context.Context, h Handler, event *model.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, event)
}
