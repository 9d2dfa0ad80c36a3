// Package api implements the HTTP client for the remote question-bank
// services: catalog tree, skeleton lists, question detail, submission,
// answer reset, and mistake removal. The client is the remote-lazy
// question.Source strategy and the catalog.Fetcher for online sessions.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hahahahacnm/medbank/internal/catalog"
	"github.com/hahahahacnm/medbank/internal/question"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the service root, e.g. "https://api.example.com".
	BaseURL string

	// Token is the opaque bearer credential supplied by the surrounding
	// application; it is attached to every request and never interpreted.
	Token string

	// HTTPClient overrides the default client (mainly for tests).
	HTTPClient *http.Client
}

// Client talks to the question-bank services.
type Client struct {
	base  string
	token string
	http  *http.Client
}

var (
	_ question.Source = (*Client)(nil)
	_ question.Grader = (*Client)(nil)
	_ catalog.Fetcher = (*Client)(nil)
)

// New creates a Client from cfg.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{base: cfg.BaseURL, token: cfg.Token, http: hc}
}

// Error is a non-2xx response from the service.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// treeNode is the wire form of a catalog node.
type treeNode struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Path  string `json:"path"`
	Leaf  bool   `json:"leaf"`
	Level int    `json:"level"`
	Count int    `json:"count,omitempty"`
	Done  int    `json:"done_count,omitempty"`
	Total int    `json:"total_count,omitempty"`
}

// skeletonEntry is the wire form of a skeleton list entry.
type skeletonEntry struct {
	ID         string `json:"id"`
	Index      int    `json:"index"`
	Status     string `json:"status,omitempty"`
	WrongCount *int   `json:"wrong_count,omitempty"`
}

type skeletonResponse struct {
	Entries []skeletonEntry      `json:"entries"`
	Summary question.ListSummary `json:"summary"`
}

// ChildNodes fetches the direct children of parentID (root when empty).
func (c *Client) ChildNodes(ctx context.Context, source, parentID string) ([]catalog.Node, error) {
	q := url.Values{"source": {source}}
	if parentID != "" {
		q.Set("parent", parentID)
	}
	var wire []treeNode
	if err := c.get(ctx, "/tree", q, &wire); err != nil {
		return nil, err
	}
	nodes := make([]catalog.Node, 0, len(wire))
	for _, n := range wire {
		nodes = append(nodes, catalog.Node{
			ID:    n.ID,
			Name:  n.Name,
			Path:  n.Path,
			Leaf:  n.Leaf,
			Level: n.Level,
			Count: n.Count,
			Done:  n.Done,
			Total: n.Total,
		})
	}
	return nodes, nil
}

// ListSkeleton fetches the ordered question skeleton for a category.
func (c *Client) ListSkeleton(ctx context.Context, category, source string) (question.SkeletonList, error) {
	q := url.Values{"category": {category}, "source": {source}}
	var wire skeletonResponse
	if err := c.get(ctx, "/skeleton", q, &wire); err != nil {
		return question.SkeletonList{}, err
	}
	list := question.SkeletonList{Summary: wire.Summary}
	for i, e := range wire.Entries {
		idx := e.Index
		if idx == 0 {
			idx = i + 1
		}
		list.Entries = append(list.Entries, question.SkeletonEntry{
			ID:         e.ID,
			Index:      idx,
			Status:     parseStatus(e.Status),
			WrongCount: e.WrongCount,
		})
	}
	return list, nil
}

// ResolveDetail fetches the full question record. It is re-issued on every
// index change; the client keeps no detail cache.
func (c *Client) ResolveDetail(ctx context.Context, entryID string) (*question.Detail, error) {
	var d question.Detail
	if err := c.get(ctx, "/questions/"+url.PathEscape(entryID), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Submit posts an answer for grading.
func (c *Client) Submit(ctx context.Context, questionID, answer string) (question.SubmitResult, error) {
	body := map[string]string{"question_id": questionID, "answer": answer}
	var res question.SubmitResult
	if err := c.do(ctx, http.MethodPost, "/submit", nil, body, &res); err != nil {
		return question.SubmitResult{}, err
	}
	return res, nil
}

// Reset clears the server-side recorded answer for a question.
func (c *Client) Reset(ctx context.Context, questionID string) error {
	return c.do(ctx, http.MethodDelete, "/answers/"+url.PathEscape(questionID), nil, nil, nil)
}

// RemoveMistake removes a question from the server-side mistake book.
func (c *Client) RemoveMistake(ctx context.Context, questionID string) error {
	return c.do(ctx, http.MethodDelete, "/mistakes/"+url.PathEscape(questionID), nil, nil, nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

func parseStatus(s string) question.Status {
	switch s {
	case "correct":
		return question.StatusCorrect
	case "wrong":
		return question.StatusWrong
	default:
		return question.StatusUnfilled
	}
}
