// Package misskey provides a typed client for the Misskey REST API,
// covering the endpoints the bot needs: credential verification, antenna
// listing, and note creation.
package misskey

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/oreeke/twipsybot/internal/constants"
	"github.com/oreeke/twipsybot/internal/logger"
)

// Client is the Misskey REST API client. Misskey endpoints are POST-only
// and carry the credential in the JSON body.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	log         *logger.Logger
}

// User is the authenticated account, as returned by the "i" endpoint.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Host     string `json:"host"`
}

// Antenna is one configured antenna.
type Antenna struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Note is a created note, trimmed to the fields the bot reads back.
type Note struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// APIError is a structured error response from the instance.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("misskey API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("misskey API error %d", e.StatusCode)
}

// NewClient creates a Misskey REST client for the given instance.
func NewClient(instanceURL, accessToken string, log *logger.Logger) *Client {
	base := strings.TrimRight(strings.TrimSpace(instanceURL), "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return &Client{
		baseURL:     base,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: constants.DefaultHTTPTimeout},
		log:         log,
	}
}

// Me verifies the credential and returns the authenticated account.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.post(ctx, "i", map[string]any{}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Antennas lists the account's antennas.
func (c *Client) Antennas(ctx context.Context) ([]Antenna, error) {
	var antennas []Antenna
	if err := c.post(ctx, "antennas/list", map[string]any{}, &antennas); err != nil {
		return nil, err
	}
	return antennas, nil
}

// CreateNote posts a note. Visibility is one of public, home, followers,
// or specified; replyID may be empty.
func (c *Client) CreateNote(ctx context.Context, text, visibility, replyID string) (*Note, error) {
	params := map[string]any{
		"text":       text,
		"visibility": visibility,
	}
	if replyID != "" {
		params["replyId"] = replyID
	}

	var resp struct {
		CreatedNote Note `json:"createdNote"`
	}
	if err := c.post(ctx, "notes/create", params, &resp); err != nil {
		return nil, err
	}
	return &resp.CreatedNote, nil
}

func (c *Client) post(ctx context.Context, endpoint string, params map[string]any, out any) error {
	params["i"] = c.accessToken

	payload, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", endpoint, err)
	}

	url := c.baseURL + constants.APIPathPrefix + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", endpoint, c.redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var wrapper struct {
			Error APIError `json:"error"`
		}
		if json.Unmarshal(body, &wrapper) == nil {
			apiErr.Code = wrapper.Error.Code
			apiErr.Message = wrapper.Error.Message
		}
		return apiErr
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}

// redact scrubs the access token from transport errors before they can
// reach a log line.
func (c *Client) redact(err error) error {
	msg := err.Error()
	if c.accessToken == "" || !strings.Contains(msg, c.accessToken) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(msg, c.accessToken, "***"))
}
