// Package constants defines Misskey API endpoints, streaming channel names,
// and default timeout/interval/capacity values used throughout the bot.
package constants

import "time"

const (
	// StreamingPath is the path of the realtime streaming WebSocket endpoint,
	// relative to the instance base URL.
	StreamingPath = "/streaming"
	// APIPathPrefix is the path prefix for REST API endpoints.
	APIPathPrefix = "/api"
)

const (
	// ChannelMain is the per-account main channel carrying mentions, replies,
	// chat messages, and notifications.
	ChannelMain = "main"
	// ChannelHomeTimeline carries notes from followed users.
	ChannelHomeTimeline = "homeTimeline"
	// ChannelLocalTimeline carries local instance notes.
	ChannelLocalTimeline = "localTimeline"
	// ChannelHybridTimeline carries local and followed notes.
	ChannelHybridTimeline = "hybridTimeline"
	// ChannelGlobalTimeline carries federated notes.
	ChannelGlobalTimeline = "globalTimeline"
	// ChannelAntenna carries notes matching an antenna, parameterized by antennaId.
	ChannelAntenna = "antenna"
	// ChannelChatUser is the per-conversation-partner chat channel,
	// parameterized by otherId.
	ChannelChatUser = "chatUser"
)

const (
	// DefaultStreamWorkers is the number of event dispatch workers.
	DefaultStreamWorkers = 8
	// DefaultQueueCapacity is the capacity of the bounded dispatch queue.
	DefaultQueueCapacity = 1000
	// DefaultEnqueueTimeout is how long an enqueue may block on a full queue
	// before the event is dropped.
	DefaultEnqueueTimeout = 1 * time.Second
	// DefaultDedupCapacity is the maximum number of tracked dedup keys.
	DefaultDedupCapacity = 500
	// DefaultDedupTTL is how long a dedup key suppresses duplicate delivery.
	DefaultDedupTTL = 1 * time.Hour
	// DefaultReconnectBase is the initial reconnect backoff delay.
	DefaultReconnectBase = 1 * time.Second
	// DefaultReconnectCap is the maximum reconnect backoff delay.
	DefaultReconnectCap = 30 * time.Second
	// DefaultChatInactivity is how long an idle chatUser channel stays
	// subscribed before it is closed.
	DefaultChatInactivity = 120 * time.Second
	// DefaultSendBufferCapacity bounds the outgoing best-effort frame buffer;
	// overflow evicts the oldest frame.
	DefaultSendBufferCapacity = 1000
)

const (
	// DefaultHTTPTimeout is the default timeout for REST API requests.
	DefaultHTTPTimeout = 15 * time.Second
	// DefaultAutopostInterval is the default interval between scheduled posts.
	DefaultAutopostInterval = 6 * time.Hour
	// DefaultGracefulShutdownTimeout is the time allowed for graceful shutdown
	// before the process force-exits.
	DefaultGracefulShutdownTimeout = 30 * time.Second
	// StartupWorkers is the number of concurrent workers for parallel startup
	// operations such as antenna resolution.
	StartupWorkers = 5
)
