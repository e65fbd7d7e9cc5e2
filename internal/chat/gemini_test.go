package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/nihongo/internal/httpx"
)

func newServer(t *testing.T, handler func(w http.ResponseWriter, req generateRequest)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/"+DefaultModel+":generateContent", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient("k", WithBaseURL(srv.URL))
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(" ")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestReplyMapsRolesAndJoinsParts(t *testing.T) {
	var got generateRequest
	c := newServer(t, func(w http.ResponseWriter, req generateRequest) {
		got = req
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"こんにちは"},{"text":"Hello"}]}}]}`))
	})
	reply, err := c.Reply(context.Background(), []Message{
		{Role: RoleUser, Text: "hi"},
		{Role: RoleAssistant, Text: "yo"},
		{Role: RoleUser, Text: "greet me"},
	})
	require.NoError(t, err)
	assert.Equal(t, "こんにちは\nHello", reply)
	require.Len(t, got.Contents, 3)
	assert.Equal(t, []string{"user", "model", "user"}, []string{got.Contents[0].Role, got.Contents[1].Role, got.Contents[2].Role})
	assert.Equal(t, "yo", got.Contents[1].Parts[0].Text)
}

func TestReplyFallback(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ generateRequest) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})
	reply, err := c.Reply(context.Background(), []Message{{Role: RoleUser, Text: "?"}})
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, reply)
}

func TestReplyErrorCarriesBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ generateRequest) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	})
	_, err := c.Reply(context.Background(), []Message{{Role: RoleUser, Text: "?"}})
	var statusErr *httpx.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Status)
	assert.Contains(t, statusErr.Body, "quota exceeded")
}

func TestReplyRequiresMessages(t *testing.T) {
	c, err := NewClient("k")
	require.NoError(t, err)
	_, err = c.Reply(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoMessages)
}

func TestConversationKeepsHistory(t *testing.T) {
	var turns []int
	c := newServer(t, func(w http.ResponseWriter, req generateRequest) {
		turns = append(turns, len(req.Contents))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	})
	conv := NewConversation(c)
	_, err := conv.Send(context.Background(), "one")
	require.NoError(t, err)
	_, err = conv.Send(context.Background(), "two")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, turns)
	assert.Len(t, conv.Messages(), 4)
}

func TestReplyErrorsNeverCarryAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := NewClient("SECRET-KEY-123", WithBaseURL(base))
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = c.Reply(ctx, []Message{{Role: RoleUser, Text: "hi"}})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}
