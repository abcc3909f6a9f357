package discord

// Package discord is a thin REST wrapper over the chat platform used for
// reconciliation scans. It only fetches channels and message history; message
// delivery goes through the announcer sinks.

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultAPIBase = "https://discord.com/api/v10"

// Message is a single chat message as seen by reconciliation scans.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Embeds    []Embed   `json:"embeds,omitempty"`
}

// Embed carries the URL of an embedded link, the part scans care about.
type Embed struct {
	URL string `json:"url,omitempty"`
}

// Channel exposes the message history of one chat channel.
type Channel interface {
	ID() string
	Messages(ctx context.Context, limit int) ([]Message, error)
}

// Messenger is the client contract the coordinator's bootstrap scan consumes.
type Messenger interface {
	IsReady() bool
	FetchChannel(ctx context.Context, channelID string) (Channel, error)
}

// Client talks to the chat platform REST API.
type Client struct {
	http    *resty.Client
	apiBase string
	token   string
	ready   bool
}

// NewClient builds a REST client for the given bot token. The client reports
// not-ready until Connect succeeds.
func NewClient(apiBase, token string, timeout time.Duration) *Client {
	if strings.TrimSpace(apiBase) == "" {
		apiBase = defaultAPIBase
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New()
	c.SetTimeout(timeout)
	return &Client{
		http:    c,
		apiBase: strings.TrimRight(apiBase, "/"),
		token:   strings.TrimSpace(token),
	}
}

// Connect verifies the token against the API and marks the client ready.
func (c *Client) Connect(ctx context.Context) error {
	if c.token == "" {
		return fmt.Errorf("discord token is empty")
	}

	resp, err := c.request(ctx).Get(c.apiBase + "/users/@me")
	if err != nil {
		return fmt.Errorf("discord identity check: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("discord identity check status %d: %s", resp.StatusCode(), bodySnippet(resp.Body()))
	}

	c.ready = true
	return nil
}

// IsReady reports whether Connect has succeeded.
func (c *Client) IsReady() bool {
	return c != nil && c.ready
}

// FetchChannel resolves a channel handle for the given identifier.
func (c *Client) FetchChannel(ctx context.Context, channelID string) (Channel, error) {
	if strings.TrimSpace(channelID) == "" {
		return nil, fmt.Errorf("channel id is empty")
	}

	resp, err := c.request(ctx).Get(c.apiBase + "/channels/" + channelID)
	if err != nil {
		return nil, fmt.Errorf("fetch channel %s: %w", channelID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch channel %s status %d: %s", channelID, resp.StatusCode(), bodySnippet(resp.Body()))
	}

	return &restChannel{client: c, id: channelID}, nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if c.token != "" {
		req.SetHeader("Authorization", "Bot "+c.token)
	}
	return req
}

// restChannel implements Channel over the messages endpoint.
type restChannel struct {
	client *Client
	id     string
}

func (ch *restChannel) ID() string { return ch.id }

// Messages returns up to limit messages from the channel history, newest first.
func (ch *restChannel) Messages(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	var out []Message
	resp, err := ch.client.request(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&out).
		Get(ch.client.apiBase + "/channels/" + ch.id + "/messages")
	if err != nil {
		return nil, fmt.Errorf("fetch messages for channel %s: %w", ch.id, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch messages for channel %s status %d: %s", ch.id, resp.StatusCode(), bodySnippet(resp.Body()))
	}
	return out, nil
}

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 512 {
		return s[:512] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
