// Package advisory calls the optional external move-suggestion service.
// The service is never authoritative: the bot executor falls back to its
// heuristic on any error, timeout or contract violation.
package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/hpark-dev/footchess-server/internal/engine"
)

type Client struct {
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &fasthttp.Client{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second, MaxConnsPerHost: 16},
		timeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type suggestRequest struct {
	State      *engine.GameState `json:"state"`
	Candidates []engine.Move     `json:"candidates"`
	Acting     engine.Player     `json:"acting_player"`
}

type suggestResponse struct {
	Move *engine.Move `json:"move"`
}

// Suggest posts the position and candidate set and returns the service's
// pick, nil when it declines. A suggestion outside the candidate set is a
// contract violation and is treated as nil.
func (c *Client) Suggest(ctx context.Context, state *engine.GameState, legal []engine.Move, acting engine.Player) (*engine.Move, error) {
	payload, err := json.Marshal(suggestRequest{State: state, Candidates: legal, Acting: acting})
	if err != nil {
		return nil, fmt.Errorf("marshal suggest request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(c.baseURL + "/suggest")
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	if err := c.http.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		return nil, fmt.Errorf("advisory request: %w", err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return nil, fmt.Errorf("advisory status %d", status)
	}

	var out suggestResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode advisory response: %w", err)
	}
	if out.Move == nil {
		return nil, nil
	}
	for _, mv := range legal {
		if mv == *out.Move {
			return out.Move, nil
		}
	}
	// out-of-set suggestion; contract says treat as null
	return nil, nil
}

func (c *Client) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(d) {
		return dl
	}
	return d
}
