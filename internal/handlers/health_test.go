package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelichko/envoy-engine/internal/services"
	"github.com/avelichko/envoy-engine/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthHandlerHealthy(t *testing.T) {
	st := storage.NewMockStorage()
	llm := services.NewMockLLM()
	handler := NewHealthHandler(st, llm, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "envoy-engine", resp.Service)
	assert.Equal(t, "healthy", resp.Components["storage"])
	assert.Equal(t, "healthy", resp.Components["llm"])
}

func TestHealthHandlerDegradedStorage(t *testing.T) {
	st := storage.NewMockStorage()
	st.SetPingError(errors.New("connection refused"))
	handler := NewHealthHandler(st, services.NewMockLLM(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unhealthy", resp.Components["storage"])
}

func TestHealthHandlerDegradedLLM(t *testing.T) {
	llm := services.NewMockLLM()
	llm.SetPingError(errors.New("api unreachable"))
	handler := NewHealthHandler(storage.NewMockStorage(), llm, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unhealthy", resp.Components["llm"])
}

func TestHealthHandlerNoLLMConfigured(t *testing.T) {
	handler := NewHealthHandler(storage.NewMockStorage(), nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	_, hasLLM := resp.Components["llm"]
	assert.False(t, hasLLM)
}
