// Package api is the client for the board's durable-write interface. All
// writes go over plain request/response; the push channel only carries
// broadcasts and ephemeral signals.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codefionn/boardsync/internal/wire"
)

// Sentinel errors for the rejection taxonomy. ErrMaintenance is carried by
// a MaintenanceError so callers can both branch with errors.Is and read
// the server's current maintenance state.
var (
	ErrMaintenance  = errors.New("server under maintenance")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// MaintenanceError is the distinguished 503 rejection: the write was
// refused because maintenance is active, and the response body carries the
// authoritative maintenance state.
type MaintenanceError struct {
	State wire.MaintenanceState
}

func (e *MaintenanceError) Error() string {
	if e.State.Message != "" {
		return "server under maintenance: " + e.State.Message
	}
	return "server under maintenance"
}

func (e *MaintenanceError) Unwrap() error { return ErrMaintenance }

// Client talks to one backend.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the backend base URL.
func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// do issues a request and decodes the response into out (if non-nil),
// mapping the rejection statuses onto the error taxonomy.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		// Maintenance rejection: the body is the current maintenance
		// state, best effort.
		maint := wire.MaintenanceState{Status: true}
		_ = json.NewDecoder(resp.Body).Decode(&maint)
		maint.Status = true
		return &MaintenanceError{State: maint}
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s %s: %w", method, path, ErrForbidden)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// Questions fetches the full item snapshot (initial load and resync).
func (c *Client) Questions(ctx context.Context) ([]wire.Item, error) {
	var items []wire.Item
	if err := c.do(ctx, http.MethodGet, "/api/questions", "", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

type postBody struct {
	Text string `json:"text"`
	User string `json:"user"`
}

// PostQuestion creates a top-level item and returns the server's copy,
// including the assigned identifier.
func (c *Client) PostQuestion(ctx context.Context, text, user string) (wire.Item, error) {
	var item wire.Item
	err := c.do(ctx, http.MethodPost, "/api/questions", "", postBody{Text: text, User: user}, &item)
	return item, err
}

// PostReply creates a reply under an item.
func (c *Client) PostReply(ctx context.Context, questionID, text, user string) (wire.Reply, error) {
	var reply wire.Reply
	err := c.do(ctx, http.MethodPost, "/api/questions/"+questionID+"/replies", "",
		postBody{Text: text, User: user}, &reply)
	return reply, err
}

// DeleteQuestion deletes an item and its replies (admin bearer).
func (c *Client) DeleteQuestion(ctx context.Context, token, questionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/questions/"+questionID, token, nil, nil)
}

// DeleteReply deletes one reply (admin bearer).
func (c *Client) DeleteReply(ctx context.Context, token, questionID, replyID string) error {
	return c.do(ctx, http.MethodDelete, "/api/questions/"+questionID+"/replies/"+replyID, token, nil, nil)
}

// ClearAll deletes every item on the board (admin bearer).
func (c *Client) ClearAll(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/api/questions", token, nil, nil)
}

// Login exchanges the admin password for a bearer token. The server is the
// sole authority; the client never verifies the password itself.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/admin/login", "", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login: empty token in response")
	}
	return resp.Token, nil
}

// MaintenanceRequest is the admin maintenance update.
type MaintenanceRequest struct {
	Status          bool   `json:"status"`
	Message         string `json:"message,omitempty"`
	LogoURL         string `json:"logoUrl,omitempty"`
	DurationMinutes *int   `json:"duration,omitempty"`
}

// SetMaintenance updates the maintenance state (admin bearer) and returns
// the state the server settled on.
func (c *Client) SetMaintenance(ctx context.Context, token string, req MaintenanceRequest) (wire.MaintenanceState, error) {
	var state wire.MaintenanceState
	err := c.do(ctx, http.MethodPost, "/api/admin/maintenance", token, req, &state)
	return state, err
}

// Maintenance fetches the current maintenance state.
func (c *Client) Maintenance(ctx context.Context) (wire.MaintenanceState, error) {
	var state wire.MaintenanceState
	err := c.do(ctx, http.MethodGet, "/api/maintenance", "", nil, &state)
	return state, err
}

// MembersSummary is the admin roster summary.
type MembersSummary struct {
	Count int `json:"count"`
}

// Members fetches the roster summary (admin bearer).
func (c *Client) Members(ctx context.Context, token string) (MembersSummary, error) {
	var sum MembersSummary
	err := c.do(ctx, http.MethodGet, "/api/admin/members", token, nil, &sum)
	return sum, err
}

type aiRequest struct {
	QuestionID string `json:"questionId"`
	Prompt     string `json:"prompt"`
}

// AIReply is the generated answer for a question.
type AIReply struct {
	QuestionID string `json:"questionId"`
	wire.Reply
}

// RequestAI asks the backend to generate an assistant reply for a freshly
// posted question. Generation happens server-side; failures here are
// non-fatal to the post itself.
func (c *Client) RequestAI(ctx context.Context, questionID, prompt string) (AIReply, error) {
	var reply AIReply
	err := c.do(ctx, http.MethodPost, "/api/ai", "", aiRequest{QuestionID: questionID, Prompt: prompt}, &reply)
	return reply, err
}
