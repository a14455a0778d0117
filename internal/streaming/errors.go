package streaming

import "errors"

// Sentinel errors for connection failure handling. Callers classify with
// errors.Is.
var (
	// ErrConnection means establishing the WebSocket failed. Retryable under
	// backoff.
	ErrConnection = errors.New("streaming: connection failed")
	// ErrReconnect means the live socket broke or a control send failed.
	// The connect loop reacts by tearing down and reconnecting.
	ErrReconnect = errors.New("streaming: reconnect requested")
	// ErrBadScheme means the instance URL uses a scheme other than
	// https/http. Fatal, never retried.
	ErrBadScheme = errors.New("streaming: unsupported instance URL scheme")
)
