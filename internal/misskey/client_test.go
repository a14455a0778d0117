package misskey

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oreeke/twipsybot/internal/logger"
)

type apiServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests map[string][]map[string]any
}

// newAPIServer fakes the Misskey REST API: each endpoint maps to a canned
// response, and every request body is recorded for assertions.
func newAPIServer(t *testing.T, responses map[string]any) *apiServer {
	t.Helper()
	s := &apiServer{requests: make(map[string][]map[string]any)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		s.mu.Lock()
		s.requests[r.URL.Path] = append(s.requests[r.URL.Path], body)
		s.mu.Unlock()

		resp, ok := responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if apiErr, isErr := resp.(*APIError); isErr {
			w.WriteHeader(apiErr.StatusCode)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": apiErr})
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *apiServer) lastRequest(path string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	reqs := s.requests[path]
	if len(reqs) == 0 {
		return nil
	}
	return reqs[len(reqs)-1]
}

func testClient(t *testing.T, server *apiServer) *Client {
	t.Helper()
	log, err := logger.Setup(logger.Config{Level: slog.LevelError + 4})
	require.NoError(t, err)
	return NewClient(server.URL, "secret-token", log)
}

func TestMe(t *testing.T) {
	server := newAPIServer(t, map[string]any{
		"/api/i": map[string]any{"id": "u1", "username": "twipsy", "name": "Twipsy"},
	})
	c := testClient(t, server)

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", me.ID)
	assert.Equal(t, "twipsy", me.Username)

	req := server.lastRequest("/api/i")
	require.NotNil(t, req)
	assert.Equal(t, "secret-token", req["i"], "token travels in the request body")
}

func TestAntennas(t *testing.T) {
	server := newAPIServer(t, map[string]any{
		"/api/antennas/list": []map[string]any{
			{"id": "a1", "name": "News"},
			{"id": "a2", "name": "Art"},
		},
	})
	c := testClient(t, server)

	antennas, err := c.Antennas(context.Background())
	require.NoError(t, err)
	require.Len(t, antennas, 2)
	assert.Equal(t, "a1", antennas[0].ID)
	assert.Equal(t, "Art", antennas[1].Name)
}

func TestCreateNote(t *testing.T) {
	server := newAPIServer(t, map[string]any{
		"/api/notes/create": map[string]any{
			"createdNote": map[string]any{"id": "n1", "text": "hello"},
		},
	})
	c := testClient(t, server)

	note, err := c.CreateNote(context.Background(), "hello", "home", "parent1")
	require.NoError(t, err)
	assert.Equal(t, "n1", note.ID)

	req := server.lastRequest("/api/notes/create")
	require.NotNil(t, req)
	assert.Equal(t, "hello", req["text"])
	assert.Equal(t, "home", req["visibility"])
	assert.Equal(t, "parent1", req["replyId"])

	_, err = c.CreateNote(context.Background(), "no reply", "public", "")
	require.NoError(t, err)
	assert.NotContains(t, server.lastRequest("/api/notes/create"), "replyId")
}

func TestAPIError(t *testing.T) {
	server := newAPIServer(t, map[string]any{
		"/api/i": &APIError{
			StatusCode: http.StatusForbidden,
			Code:       "AUTHENTICATION_FAILED",
			Message:    "bad credentials",
		},
	})
	c := testClient(t, server)

	_, err := c.Me(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "AUTHENTICATION_FAILED", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "bad credentials")
}

func TestTransportErrorRedactsToken(t *testing.T) {
	log, err := logger.Setup(logger.Config{Level: slog.LevelError + 4})
	require.NoError(t, err)
	c := NewClient("http://127.0.0.1:1", "secret-token", log)

	_, err = c.Me(context.Background())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
}
