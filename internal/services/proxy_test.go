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

func TestProxyComplete(t *testing.T) {
	var gotReq proxyChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-test",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "A guarded reply."}, "finish_reason": "stop"}]
		}`))
	}))
	defer server.Close()

	svc := NewProxyService(server.URL, "test-key", "test-model")

	text, err := svc.Complete(context.Background(), "You are an attache.", "Good evening.", 200)
	require.NoError(t, err)
	assert.Equal(t, "A guarded reply.", text)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.Equal(t, 200, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
}

func TestProxyCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "chatcmpl-test", "choices": []}`))
	}))
	defer server.Close()

	svc := NewProxyService(server.URL, "", "test-model")
	text, err := svc.Complete(context.Background(), "sys", "hi", 0)
	require.NoError(t, err)
	assert.Equal(t, msgNoResponse, text)
}

func TestProxyCompleteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewProxyService(server.URL, "", "test-model")
	_, err := svc.Complete(context.Background(), "sys", "hi", 0)
	assert.Error(t, err)
}

func TestProxyPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	svc := NewProxyService(server.URL, "", "test-model")
	assert.NoError(t, svc.Ping(context.Background()))
}
