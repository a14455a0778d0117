package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oreeke/twipsybot/internal/logger"
)

// recordedFrame is an outbound frame decoded back to generic JSON so tests
// can assert on it regardless of the typed body used on the write side.
type recordedFrame struct {
	Type string         `json:"type"`
	Body map[string]any `json:"body"`
}

// mockSocket is an in-memory Socket. Reads block on the inbound channel
// until a frame arrives or the socket is closed; writes are recorded.
type mockSocket struct {
	mu     sync.Mutex
	writes []recordedFrame

	inbound   chan json.RawMessage
	closed    chan struct{}
	closeOnce sync.Once

	failWrites bool
}

func newMockSocket() *mockSocket {
	return &mockSocket{
		inbound: make(chan json.RawMessage, 64),
		closed:  make(chan struct{}),
	}
}

func (s *mockSocket) ReadJSON(ctx context.Context, v any) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.closed:
		return errors.New("socket closed")
	case raw := <-s.inbound:
		target, ok := v.(*json.RawMessage)
		if !ok {
			return fmt.Errorf("unexpected read target %T", v)
		}
		*target = raw
		return nil
	}
}

func (s *mockSocket) WriteJSON(_ context.Context, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrites {
		return errors.New("write failed")
	}
	select {
	case <-s.closed:
		return errors.New("socket closed")
	default:
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var frame recordedFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return err
	}
	s.writes = append(s.writes, frame)
	return nil
}

func (s *mockSocket) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

// push delivers a server frame to the next ReadJSON call.
func (s *mockSocket) push(t *testing.T, frame any) {
	t.Helper()
	data, err := json.Marshal(frame)
	require.NoError(t, err)
	s.inbound <- data
}

func (s *mockSocket) pushRaw(raw string) {
	s.inbound <- json.RawMessage(raw)
}

// frames returns a snapshot of recorded writes.
func (s *mockSocket) frames() []recordedFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]recordedFrame, len(s.writes))
	copy(out, s.writes)
	return out
}

// framesOfType filters recorded writes by frame type.
func (s *mockSocket) framesOfType(frameType string) []recordedFrame {
	var out []recordedFrame
	for _, f := range s.frames() {
		if f.Type == frameType {
			out = append(out, f)
		}
	}
	return out
}

func (s *mockSocket) setFailWrites(fail bool) {
	s.mu.Lock()
	s.failWrites = fail
	s.mu.Unlock()
}

// mockTransport hands out pre-built sockets in order, recording when each
// dial happened. A nil entry makes that dial fail; the sockets running out
// fails too.
type mockTransport struct {
	mu        sync.Mutex
	sockets   []*mockSocket
	dials     int
	dialTimes []time.Time
}

func newMockTransport(sockets ...*mockSocket) *mockTransport {
	return &mockTransport{sockets: sockets}
}

func (t *mockTransport) Dial(_ context.Context, _ string) (Socket, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dialTimes = append(t.dialTimes, time.Now())
	if t.dials >= len(t.sockets) {
		t.dials++
		return nil, errors.New("no more sockets")
	}
	sock := t.sockets[t.dials]
	t.dials++
	if sock == nil {
		return nil, errors.New("dial refused")
	}
	return sock, nil
}

func (t *mockTransport) dialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dials
}

func (t *mockTransport) dialedAt() []time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]time.Time, len(t.dialTimes))
	copy(out, t.dialTimes)
	return out
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.Setup(logger.Config{Level: slog.LevelError + 4, Colored: false})
	require.NoError(t, err)
	return log
}

func newTestClient(t *testing.T, transport Transport, opts Options) *Client {
	t.Helper()
	opts.Transport = transport
	c := NewClient("https://misskey.example", "secret-token", opts, testLogger(t))
	t.Cleanup(func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		_ = c.Close(ctx)
	})
	return c
}
