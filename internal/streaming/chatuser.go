package streaming

import (
	"context"
	"sync"
	"time"

	"github.com/oreeke/twipsybot/internal/constants"
	"github.com/oreeke/twipsybot/internal/jsonutil"
)

// chatTimer is a cancellable inactivity timer for one ephemeral channel.
// done is closed when the timer goroutine has fully settled, so
// cancellation can be confirmed rather than assumed.
type chatTimer struct {
	stop chan struct{}
	done chan struct{}
}

// chatManager opens per-conversation-partner chat channels on demand and
// closes them again after a window of inactivity. It also caches partner
// profiles seen on the main channel so chat-channel messages missing the
// sender object can be re-annotated.
type chatManager struct {
	client     *Client
	inactivity time.Duration

	mu               sync.Mutex
	timers           map[string]*chatTimer       // channel id -> timer
	partnerToChannel map[string]string           // partner user id -> channel id
	channelToPartner map[string]string           // channel id -> partner user id
	profiles         map[string]map[string]any   // partner user id -> profile
}

func newChatManager(client *Client, inactivity time.Duration) *chatManager {
	return &chatManager{
		client:           client,
		inactivity:       inactivity,
		timers:           make(map[string]*chatTimer),
		partnerToChannel: make(map[string]string),
		channelToPartner: make(map[string]string),
		profiles:         make(map[string]map[string]any),
	}
}

// ensureChannel subscribes a chatUser channel for the message's sender if
// one is not already open, and (re)arms its inactivity timer. It returns
// the channel id, or "" when the message carries no sender or the
// subscribe failed.
func (m *chatManager) ensureChannel(ctx context.Context, message map[string]any) string {
	partnerID := jsonutil.StringFromMap(message, "fromUserId")
	if partnerID == "" {
		return ""
	}

	if profile := jsonutil.MapFromMap(message, "fromUser"); profile != nil {
		m.mu.Lock()
		m.profiles[partnerID] = profile
		m.mu.Unlock()
	}

	channelID, err := m.client.ConnectChannel(ctx, constants.ChannelChatUser, map[string]any{"otherId": partnerID})
	if err != nil {
		m.client.log.Debug("Failed to open chatUser channel",
			"user", partnerID, "error", m.client.redact(err.Error()))
		return ""
	}

	m.mu.Lock()
	m.partnerToChannel[partnerID] = channelID
	m.channelToPartner[channelID] = partnerID
	m.armTimerLocked(partnerID, channelID)
	m.mu.Unlock()

	return channelID
}

// refresh re-arms the inactivity timer for a channel on new traffic.
func (m *chatManager) refresh(channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	partnerID, ok := m.channelToPartner[channelID]
	if !ok {
		return
	}
	m.armTimerLocked(partnerID, channelID)
}

// profile returns the cached profile for a partner, or nil.
func (m *chatManager) profile(partnerID string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[partnerID]
}

// cancelAll cancels every outstanding timer, waits for each to settle, and
// clears all bookkeeping. Called on full disconnect.
func (m *chatManager) cancelAll() {
	m.mu.Lock()
	timers := make([]*chatTimer, 0, len(m.timers))
	for _, t := range m.timers {
		timers = append(timers, t)
	}
	m.timers = make(map[string]*chatTimer)
	m.partnerToChannel = make(map[string]string)
	m.channelToPartner = make(map[string]string)
	m.profiles = make(map[string]map[string]any)
	m.mu.Unlock()

	for _, t := range timers {
		close(t.stop)
		<-t.done
	}
}

// timerCount returns the number of outstanding inactivity timers.
func (m *chatManager) timerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *chatManager) armTimerLocked(partnerID, channelID string) {
	if old, ok := m.timers[channelID]; ok {
		close(old.stop)
	}
	t := &chatTimer{stop: make(chan struct{}), done: make(chan struct{})}
	m.timers[channelID] = t
	go m.runTimer(t, partnerID, channelID)
}

func (m *chatManager) runTimer(t *chatTimer, partnerID, channelID string) {
	defer close(t.done)

	timer := time.NewTimer(m.inactivity)
	defer timer.Stop()

	select {
	case <-t.stop:
		return
	case <-timer.C:
	}

	m.expire(partnerID, channelID, t)
}

// expire unsubscribes an idle channel and forgets its bookkeeping, unless
// the timer has been superseded in the meantime.
func (m *chatManager) expire(partnerID, channelID string, t *chatTimer) {
	m.mu.Lock()
	if m.timers[channelID] != t {
		m.mu.Unlock()
		return
	}
	delete(m.timers, channelID)
	if m.partnerToChannel[partnerID] == channelID {
		delete(m.partnerToChannel, partnerID)
	}
	delete(m.channelToPartner, channelID)
	delete(m.profiles, partnerID)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.client.DisconnectChannelByID(ctx, channelID); err != nil {
		m.client.log.Debug("Failed to close idle chatUser channel",
			"channel", channelID, "error", m.client.redact(err.Error()))
	}
}
