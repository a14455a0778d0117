package streaming

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Socket is a live streaming connection carrying JSON frames.
type Socket interface {
	ReadJSON(ctx context.Context, v any) error
	WriteJSON(ctx context.Context, v any) error
	Close() error
}

// Transport dials streaming sockets. It owns only the connect/close
// primitives; lifecycle is driven by the Client.
type Transport interface {
	Dial(ctx context.Context, wsURL string) (Socket, error)
}

// WebSocketTransport dials real WebSocket connections.
type WebSocketTransport struct{}

// Dial opens a WebSocket connection to the given URL.
func (WebSocketTransport) Dial(ctx context.Context, wsURL string) (Socket, error) {
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{})
	if err != nil {
		return nil, fmt.Errorf("dialing streaming server: %w", err)
	}
	conn.SetReadLimit(1 << 20) // 1 MB
	return &wsSocket{conn: conn}, nil
}

type wsSocket struct {
	conn *websocket.Conn
}

func (s *wsSocket) ReadJSON(ctx context.Context, v any) error {
	return wsjson.Read(ctx, s.conn, v)
}

func (s *wsSocket) WriteJSON(ctx context.Context, v any) error {
	return wsjson.Write(ctx, s.conn, v)
}

func (s *wsSocket) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "closing")
}

// StreamURL derives the streaming WebSocket URL from an instance base URL.
// https maps to wss and http to ws, the path is preserved, and the access
// token is carried in the query string. Any other scheme is ErrBadScheme.
func StreamURL(instanceURL, accessToken string) (string, error) {
	raw := strings.TrimRight(strings.TrimSpace(instanceURL), "/")
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing instance URL: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "https":
		parsed.Scheme = "wss"
	case "http":
		parsed.Scheme = "ws"
	default:
		return "", fmt.Errorf("%w: %q", ErrBadScheme, parsed.Scheme)
	}

	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/streaming"
	query := url.Values{}
	query.Set("i", accessToken)
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

// safeStreamURL is the streaming URL without credentials, for logging.
func safeStreamURL(wsURL string) string {
	if idx := strings.IndexByte(wsURL, '?'); idx >= 0 {
		return wsURL[:idx]
	}
	return wsURL
}
