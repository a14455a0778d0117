package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/oreeke/twipsybot/internal/constants"
	"github.com/oreeke/twipsybot/internal/logger"
	"github.com/oreeke/twipsybot/internal/model"
)

// State is the connection lifecycle state. Exactly one value at a time.
type State string

// Connection states.
const (
	StateInitializing State = "initializing"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateDisconnected State = "disconnected"
)

// Options tunes the streaming client. Zero values fall back to the
// package defaults.
type Options struct {
	Workers            int
	QueueCapacity      int
	EnqueueTimeout     time.Duration
	DedupCapacity      int
	DedupTTL           time.Duration
	ChatInactivity     time.Duration
	SendBufferCapacity int
	ReconnectBase      time.Duration
	ReconnectCap       time.Duration
	Transport          Transport
	LogDumpEvents      bool
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = constants.DefaultStreamWorkers
	}
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = constants.DefaultQueueCapacity
	}
	if o.EnqueueTimeout <= 0 {
		o.EnqueueTimeout = constants.DefaultEnqueueTimeout
	}
	if o.DedupCapacity <= 0 {
		o.DedupCapacity = constants.DefaultDedupCapacity
	}
	if o.DedupTTL <= 0 {
		o.DedupTTL = constants.DefaultDedupTTL
	}
	if o.ChatInactivity <= 0 {
		o.ChatInactivity = constants.DefaultChatInactivity
	}
	if o.SendBufferCapacity <= 0 {
		o.SendBufferCapacity = constants.DefaultSendBufferCapacity
	}
	if o.ReconnectBase <= 0 {
		o.ReconnectBase = constants.DefaultReconnectBase
	}
	if o.ReconnectCap <= 0 {
		o.ReconnectCap = constants.DefaultReconnectCap
	}
	if o.Transport == nil {
		o.Transport = WebSocketTransport{}
	}
	return o
}

// Client drives exactly one multiplexed streaming connection: it owns the
// socket lifecycle, the channel registry, event normalization and dedup,
// the dispatch worker pool, and the outgoing buffer. All registries are
// per-Client state; independent Clients never interfere.
type Client struct {
	instanceURL string
	accessToken string
	opts        Options
	log         *logger.Logger

	// mu guards the socket handle, connection flags, the channel registry,
	// and the handler table. Close and establish paths share it so two
	// goroutines cannot race to replace the socket.
	mu              sync.Mutex
	socket          Socket
	state           State
	running         bool
	listening       bool
	shouldReconnect bool
	firstConnection bool
	registry        *registry
	handlers        map[string][]Handler

	// sendMu serializes all socket writes and guards the outgoing buffer,
	// preserving resubscribe-before-flush ordering.
	sendMu sync.Mutex
	buffer *sendBuffer

	dedup    *dedupCache
	dispatch *dispatcher
	chat     *chatManager

	// dial collapses concurrent establishment attempts onto a single
	// in-flight dial; latecomers await its result.
	dial singleflight.Group
}

// NewClient creates a streaming client for the given instance. It does not
// connect; call Connect.
func NewClient(instanceURL, accessToken string, opts Options, log *logger.Logger) *Client {
	opts = opts.withDefaults()
	c := &Client{
		instanceURL:     strings.TrimRight(instanceURL, "/"),
		accessToken:     accessToken,
		opts:            opts,
		log:             log,
		state:           StateInitializing,
		firstConnection: true,
		registry:        newRegistry(),
		handlers:        make(map[string][]Handler),
		buffer:          newSendBuffer(opts.SendBufferCapacity),
		dedup:           newDedupCache(opts.DedupCapacity, opts.DedupTTL),
	}
	c.dispatch = newDispatcher(opts.Workers, opts.QueueCapacity, opts.EnqueueTimeout, c.processItem, log)
	c.chat = newChatManager(c, opts.ChatInactivity)
	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect establishes the connection, subscribes the requested channels,
// and listens for events until Disconnect is called. When reconnect is
// true it keeps reattempting indefinitely under exponential backoff
// (reset after a fully successful reconnect); when false a connection
// failure is returned to the caller. Exactly one Connect call owns the
// read loop at a time; a concurrent second call returns nil immediately.
func (c *Client) Connect(ctx context.Context, specs []model.ChannelSpec, reconnect bool) error {
	c.mu.Lock()
	if c.listening {
		c.mu.Unlock()
		return nil
	}
	c.listening = true
	c.shouldReconnect = reconnect
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.listening = false
		c.mu.Unlock()
	}()

	if err := c.ConnectOnce(ctx, specs); err != nil {
		if !reconnect || errors.Is(err, ErrBadScheme) {
			return err
		}
		c.setState(StateReconnecting)
	}

	retryDelay := c.opts.ReconnectBase
	for c.isRunning() {
		err := c.listen(ctx)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		if !reconnect || !c.reconnectEnabled() {
			return err
		}

		c.setState(StateReconnecting)
		c.log.Debug("WebSocket disconnected, reconnecting", "delay", retryDelay)
		if err := c.reconnectWithBackoff(ctx, retryDelay); err != nil {
			if errors.Is(err, ErrBadScheme) || ctx.Err() != nil {
				return err
			}
			retryDelay = minDuration(retryDelay*2, c.opts.ReconnectCap)
			continue
		}
		retryDelay = c.opts.ReconnectBase
	}
	return nil
}

// ConnectOnce performs a single connection attempt: start the workers,
// register the requested channels (a "main" subscription is always
// ensured), dial, resubscribe, and flush the outgoing buffer. Repeated
// calls while running are no-ops.
func (c *Client) ConnectOnce(ctx context.Context, specs []model.ChannelSpec) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.state = StateConnecting
	c.mu.Unlock()

	c.dispatch.start(ctx)

	requested := normalizeSpecs(specs)
	hasMain := false
	for _, spec := range requested {
		if spec.Name == constants.ChannelMain {
			hasMain = true
			break
		}
	}
	if !hasMain {
		requested = append([]model.ChannelSpec{{Name: constants.ChannelMain}}, requested...)
	}

	for _, spec := range requested {
		if _, err := c.ConnectChannel(ctx, spec.Name, spec.Params); err != nil && !errors.Is(err, ErrReconnect) {
			return err
		}
	}

	if err := c.establish(ctx); err != nil {
		if errors.Is(err, ErrBadScheme) {
			return err
		}
		c.setState(StateReconnecting)
		return err
	}
	if err := c.resubscribeAll(ctx); err != nil {
		c.setState(StateReconnecting)
		return fmt.Errorf("resubscribing channels: %w", err)
	}
	if err := c.flushSendBuffer(ctx); err != nil {
		c.setState(StateReconnecting)
		return fmt.Errorf("flushing send buffer: %w", err)
	}
	c.setState(StateConnected)

	c.mu.Lock()
	first := c.firstConnection
	c.firstConnection = false
	c.mu.Unlock()
	if first {
		c.log.Info("Streaming client started")
	}
	return nil
}

// Disconnect stops the connection: reconnection is disabled, ephemeral
// chat timers are cancelled and awaited, every tracked channel is
// unsubscribed best-effort, and the socket, dedup cache, and outgoing
// buffer are all cleared.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	c.shouldReconnect = false
	c.running = false
	c.mu.Unlock()

	c.chat.cancelAll()

	c.mu.Lock()
	channels := c.registry.list()
	c.mu.Unlock()
	for _, ch := range channels {
		if err := c.sendControl(ctx, unsubscribeFrame(ch.ID)); err != nil {
			c.log.Warn("Error disconnecting channel",
				"channel", ch.Name, "error", c.redact(err.Error()))
		}
	}

	c.mu.Lock()
	c.registry.clear()
	c.mu.Unlock()

	c.closeSocket()
	c.dedup.clear()

	c.sendMu.Lock()
	c.buffer.clear()
	c.sendMu.Unlock()

	c.setState(StateDisconnected)
	return nil
}

// Close disconnects and shuts down the worker pool, waiting for in-flight
// handler calls to finish.
func (c *Client) Close(ctx context.Context) error {
	err := c.Disconnect(ctx)
	c.dispatch.stop()
	c.dedup.stop()
	c.log.Debug("Streaming client closed")
	return err
}

// ConnectChannel subscribes a logical channel. It is idempotent on
// (name, params): an existing subscription's id is returned and no second
// wire frame is sent. Local registry state is authoritative; the
// subscribe frame goes out only when the socket is currently live, and
// the wire is brought in line on the next reconnect otherwise.
func (c *Client) ConnectChannel(ctx context.Context, name string, params map[string]any) (string, error) {
	if name == "" {
		return "", fmt.Errorf("channel name must not be empty")
	}
	if params == nil {
		params = map[string]any{}
	}

	c.mu.Lock()
	key := model.ChannelKey(name, params)
	if existing, ok := c.registry.lookupKey(key); ok {
		c.mu.Unlock()
		c.log.Debug("Channel already connected", "channel", name, "id", existing.ID)
		return existing.ID, nil
	}
	ch := &model.Channel{ID: uuid.NewString(), Name: name, Params: params}
	c.registry.add(ch)
	live := c.socket != nil
	c.mu.Unlock()

	if live {
		if err := c.sendControl(ctx, subscribeFrame(name, ch.ID, params)); err != nil {
			return ch.ID, err
		}
	}
	c.log.Debug("Connected channel", "channel", name, "id", ch.ID)
	return ch.ID, nil
}

// DisconnectChannel unsubscribes every channel with the given name.
// Wire failures are swallowed; local tracking is always removed.
func (c *Client) DisconnectChannel(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("channel name must not be empty")
	}

	c.mu.Lock()
	channels := c.registry.byName(name)
	c.mu.Unlock()

	for _, ch := range channels {
		if err := c.DisconnectChannelByID(ctx, ch.ID); err != nil {
			return err
		}
	}
	c.log.Debug("Disconnected channel", "channel", name)
	return nil
}

// DisconnectChannelByID unsubscribes a single channel by its local id.
// Wire failures are swallowed; local tracking is always removed.
func (c *Client) DisconnectChannelByID(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	c.mu.Lock()
	_, tracked := c.registry.lookupID(id)
	live := c.socket != nil
	c.mu.Unlock()

	if tracked && live {
		if err := c.sendControl(ctx, unsubscribeFrame(id)); err != nil {
			c.log.Debug("Channel unsubscribe failed",
				"channel", id, "error", c.redact(err.Error()))
		}
	}

	c.mu.Lock()
	c.registry.removeID(id)
	c.mu.Unlock()
	return nil
}

// SendChannelMessage sends a best-effort data frame into the channel
// matching (name, params), e.g. a read receipt. While disconnected the
// frame is buffered and flushed after the next successful reconnect.
func (c *Client) SendChannelMessage(ctx context.Context, name, eventType string, body, params map[string]any) {
	if name == "" || eventType == "" {
		return
	}
	if params == nil {
		params = map[string]any{}
	}

	c.mu.Lock()
	ch, ok := c.registry.lookupKey(model.ChannelKey(name, params))
	c.mu.Unlock()
	if !ok {
		return
	}
	c.sendBestEffort(ctx, channelSendFrame(ch.ID, eventType, body))
}

func normalizeSpecs(specs []model.ChannelSpec) []model.ChannelSpec {
	out := make([]model.ChannelSpec, 0, len(specs))
	for _, s := range specs {
		if s.Name != "" {
			out = append(out, s)
		}
	}
	return out
}

// establish dials the streaming socket. Concurrent attempts collapse onto
// one in-flight dial; others await its result rather than racing to open
// a second socket.
func (c *Client) establish(ctx context.Context) error {
	wsURL, err := StreamURL(c.instanceURL, c.accessToken)
	if err != nil {
		return err
	}

	_, err, _ = c.dial.Do("connect", func() (any, error) {
		c.mu.Lock()
		if c.socket != nil {
			c.mu.Unlock()
			return nil, nil
		}
		c.mu.Unlock()

		sock, derr := c.opts.Transport.Dial(ctx, wsURL)
		if derr != nil {
			c.log.Error("WebSocket connection failed", "error", c.redact(derr.Error()))
			return nil, fmt.Errorf("%w: %s", ErrConnection, c.redact(derr.Error()))
		}

		c.mu.Lock()
		if c.socket != nil {
			c.mu.Unlock()
			sock.Close()
			return nil, nil
		}
		c.socket = sock
		c.mu.Unlock()
		c.log.Debug("WebSocket connected", "url", safeStreamURL(wsURL))
		return nil, nil
	})
	return err
}

// listen reads inbound frames until the socket breaks or the client
// stops. A nil return means a clean stop.
func (c *Client) listen(ctx context.Context) error {
	for c.isRunning() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		c.mu.Lock()
		sock := c.socket
		c.mu.Unlock()
		if sock == nil {
			return fmt.Errorf("%w: no live socket", ErrReconnect)
		}

		var raw json.RawMessage
		if err := sock.ReadJSON(ctx, &raw); err != nil {
			if ctx.Err() != nil || !c.isRunning() {
				return nil
			}
			return fmt.Errorf("%w: %s", ErrReconnect, c.redact(err.Error()))
		}

		var frame InboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.log.Debug("Dropping malformed frame", "error", err)
			continue
		}
		c.processFrame(ctx, &frame)
	}
	return nil
}

func (c *Client) processFrame(ctx context.Context, frame *InboundFrame) {
	if frame.Type != TypeChannel {
		c.log.Debug("Unknown message type received", "type", frame.Type)
		return
	}
	var body ChannelEventBody
	if err := json.Unmarshal(frame.Body, &body); err != nil {
		c.log.Debug("Dropping malformed channel frame", "error", err)
		return
	}
	c.handleChannelEvent(ctx, body)
}

// handleChannelEvent normalizes one inbound channel event, filters
// duplicates, and enqueues it for dispatch. Dedup happens synchronously
// before enqueue, so back-to-back duplicates within the receive loop are
// always caught.
func (c *Client) handleChannelEvent(ctx context.Context, body ChannelEventBody) {
	c.mu.Lock()
	ch, ok := c.registry.lookupID(body.ID)
	c.mu.Unlock()
	if !ok {
		c.log.Debug("Message received for unknown channel", "channel", body.ID)
		return
	}

	wireType := body.Type
	payload := body.Body
	if payload == nil {
		payload = map[string]any{}
	}
	if wireType == "" {
		if !isBareNote(ch.Name, payload) {
			c.log.Debug("Received data without event type", "channel", ch.Name)
			c.dumpEvent(ch.Name, payload)
			return
		}
		wireType = "note"
	}

	normType, normPayload := normalizeChannelEvent(ch.Name, wireType, payload)
	if _, present := normPayload["streamingChannelId"]; !present {
		normPayload["streamingChannelId"] = ch.ID
	}

	id := extractEventID(normType, normPayload)
	key := model.DedupKey(normType, id)
	if c.dedup.seen(key) {
		c.log.Debug("Duplicate event detected, skipping", "type", normType, "id", id)
		return
	}
	c.dedup.track(key)

	c.log.Debug("Received channel event",
		"channel", ch.Name, "type", normType, "id", id)
	c.dispatch.enqueue(ctx, &queueItem{channel: ch, wireType: normType, payload: normPayload, id: id})
}

// reconnectWithBackoff waits out the delay, re-dials, resubscribes every
// tracked channel in registry order, and only then flushes the outgoing
// buffer.
func (c *Client) reconnectWithBackoff(ctx context.Context, delay time.Duration) error {
	c.closeSocket()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	if err := c.establish(ctx); err != nil {
		return err
	}
	if err := c.resubscribeAll(ctx); err != nil {
		return err
	}
	if err := c.flushSendBuffer(ctx); err != nil {
		return err
	}
	c.setState(StateConnected)
	return nil
}

func (c *Client) resubscribeAll(ctx context.Context) error {
	c.mu.Lock()
	channels := c.registry.list()
	c.mu.Unlock()

	for _, ch := range channels {
		if err := c.sendControl(ctx, subscribeFrame(ch.Name, ch.ID, ch.Params)); err != nil {
			return err
		}
	}
	return nil
}

// sendControl writes a control frame that must either reach a live socket
// or fail immediately with ErrReconnect.
func (c *Client) sendControl(ctx context.Context, f Frame) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.writeLocked(ctx, f)
}

// sendBestEffort writes a data frame if a live socket exists, buffering
// it otherwise.
func (c *Client) sendBestEffort(ctx context.Context, f Frame) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if err := c.writeLocked(ctx, f); err != nil {
		c.buffer.push(f)
	}
}

func (c *Client) writeLocked(ctx context.Context, f Frame) error {
	c.mu.Lock()
	sock := c.socket
	c.mu.Unlock()
	if sock == nil {
		return fmt.Errorf("%w: no live socket", ErrReconnect)
	}
	if err := sock.WriteJSON(ctx, f); err != nil {
		c.closeSocket()
		c.log.Debug("WebSocket send failed, reconnecting", "error", c.redact(err.Error()))
		return fmt.Errorf("%w: %s", ErrReconnect, c.redact(err.Error()))
	}
	return nil
}

// flushSendBuffer drains buffered best-effort frames in order onto the
// live socket.
func (c *Client) flushSendBuffer(ctx context.Context) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	for c.buffer.len() > 0 {
		f, _ := c.buffer.pop()
		if err := c.writeLocked(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) closeSocket() {
	c.mu.Lock()
	sock := c.socket
	c.socket = nil
	c.mu.Unlock()
	if sock != nil {
		sock.Close()
	}
}

func (c *Client) isRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Client) reconnectEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shouldReconnect
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// redact scrubs the access token from strings destined for logs.
func (c *Client) redact(s string) string {
	if c.accessToken == "" {
		return s
	}
	return strings.ReplaceAll(s, c.accessToken, "***")
}

func (c *Client) dumpEvent(kind string, payload map[string]any) {
	if !c.opts.LogDumpEvents {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.log.Debug("Event dump", "kind", kind, "payload", string(data))
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
