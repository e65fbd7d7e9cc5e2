// Package chat is a small client for the Gemini generateContent API used
// by the study assistant.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/verte-zerg/nihongo/internal/httpx"
)

const (
	// DefaultModel is the Gemini model used when none is configured.
	DefaultModel   = "gemini-2.5-flash"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1"
	defaultTimeout = 60 * time.Second
)

// FallbackReply is returned when the model produced no candidate text.
const FallbackReply = "Sorry, I can't answer that right now. すみません。"

var (
	// ErrMissingAPIKey is returned when no Gemini API key is configured.
	ErrMissingAPIKey = errors.New("missing GEMINI_API_KEY")
	// ErrNoMessages is returned for an empty conversation.
	ErrNoMessages = errors.New("messages are required")
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role Role
	Text string
}

// Client calls Gemini.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at another endpoint.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// NewClient returns a Client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		apiKey:  apiKey,
		model:   DefaultModel,
		baseURL: defaultBaseURL,
		http:    httpx.NewClient(defaultTimeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Reply sends the conversation and returns the model's answer.
func (c *Client) Reply(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}
	body, err := json.Marshal(generateRequest{Contents: lo.Map(messages, func(m Message, _ int) content {
		return content{Role: geminiRole(m.Role), Parts: []part{{Text: m.Text}}}
	})})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}
	// The key travels in a header so transport errors, which quote the URL,
	// never carry it.
	target := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))

	resp, err := httpx.Do(ctx, c.http, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)
		return req, nil
	}, httpx.Repeatable())
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode gemini response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return FallbackReply, nil
	}
	texts := lo.Map(out.Candidates[0].Content.Parts, func(p part, _ int) string { return p.Text })
	return strings.Join(texts, "\n"), nil
}

func geminiRole(r Role) string {
	if r == RoleAssistant {
		return "model"
	}
	return "user"
}

// Conversation keeps the running history of a chat.
type Conversation struct {
	client   *Client
	messages []Message
}

// NewConversation starts an empty conversation.
func NewConversation(client *Client) *Conversation {
	return &Conversation{client: client}
}

// Send appends text as a user turn and returns the reply. A failed request
// leaves the history unchanged.
func (c *Conversation) Send(ctx context.Context, text string) (string, error) {
	history := append(append([]Message(nil), c.messages...), Message{Role: RoleUser, Text: text})
	reply, err := c.client.Reply(ctx, history)
	if err != nil {
		return "", err
	}
	c.messages = append(history, Message{Role: RoleAssistant, Text: reply})
	return reply, nil
}

// Messages returns the history so far.
func (c *Conversation) Messages() []Message {
	return append([]Message(nil), c.messages...)
}
