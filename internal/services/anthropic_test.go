package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicComplete(t *testing.T) {
	var gotReq anthropicChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_test",
			"type": "message",
			"role": "assistant",
			"content": [{"type": "text", "text": "A measured reply."}],
			"stop_reason": "end_turn"
		}`))
	}))
	defer server.Close()

	svc := NewAnthropicService("test-key", "test-model", nil)
	svc.baseURL = server.URL

	text, err := svc.Complete(context.Background(), "You are an ambassador.", "Good evening.", 300)
	require.NoError(t, err)
	assert.Equal(t, "A measured reply.", text)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.Equal(t, 300, gotReq.MaxTokens)
	assert.Equal(t, "You are an ambassador.", gotReq.System)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
}

func TestAnthropicCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"type": "authentication_error", "message": "invalid key"}}`))
	}))
	defer server.Close()

	svc := NewAnthropicService("bad-key", "test-model", nil)
	svc.baseURL = server.URL

	_, err := svc.Complete(context.Background(), "sys", "hi", 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestAnthropicCompleteNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "msg_test", "content": []}`))
	}))
	defer server.Close()

	svc := NewAnthropicService("test-key", "test-model", nil)
	svc.baseURL = server.URL

	_, err := svc.Complete(context.Background(), "sys", "hi", 0)
	assert.Error(t, err)
}

func TestAnthropicPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	svc := NewAnthropicService("test-key", "test-model", nil)
	svc.baseURL = server.URL
	assert.NoError(t, svc.Ping(context.Background()))
}
