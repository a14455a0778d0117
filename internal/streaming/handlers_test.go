package streaming

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oreeke/twipsybot/internal/model"
)

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	c := newTestClient(t, newMockTransport(), Options{})

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		c.OnNote(func(_ context.Context, _ *model.Event) error {
			order = append(order, i)
			return nil
		})
	}
	c.callHandlers(context.Background(), string(model.EventNote), &model.Event{Type: model.EventNote})
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestHandlerPanicDoesNotStopOthers(t *testing.T) {
	c := newTestClient(t, newMockTransport(), Options{})

	var reached bool
	c.OnMention(func(_ context.Context, _ *model.Event) error {
		panic("boom")
	})
	c.OnMention(func(_ context.Context, _ *model.Event) error {
		reached = true
		return nil
	})

	require.NotPanics(t, func() {
		c.callHandlers(context.Background(), string(model.EventMention), &model.Event{Type: model.EventMention})
	})
	assert.True(t, reached, "a panicking handler must not block the next one")
}

func TestHandlerErrorDoesNotStopOthers(t *testing.T) {
	c := newTestClient(t, newMockTransport(), Options{})

	var reached bool
	c.OnMessage(func(_ context.Context, _ *model.Event) error {
		return errors.New("handler failed")
	})
	c.OnMessage(func(_ context.Context, _ *model.Event) error {
		reached = true
		return nil
	})
	c.callHandlers(context.Background(), string(model.EventMessage), &model.Event{Type: model.EventMessage})
	assert.True(t, reached)
}

func TestAsyncHandlerRunsOffWorker(t *testing.T) {
	c := newTestClient(t, newMockTransport(), Options{})

	done := make(chan struct{})
	h := c.Async(func(_ context.Context, _ *model.Event) error {
		close(done)
		return nil
	})
	require.NoError(t, h(context.Background(), &model.Event{Type: model.EventNote}))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async handler never ran")
	}
}

func TestHasHandlers(t *testing.T) {
	c := newTestClient(t, newMockTransport(), Options{})
	assert.False(t, c.hasHandlers("follow"))
	c.On("follow", func(_ context.Context, _ *model.Event) error { return nil })
	assert.True(t, c.hasHandlers("follow"))
}
