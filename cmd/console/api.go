package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/avelichko/envoy-engine/internal/handlers"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	// Degraded (503) still means the API itself is up
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusServiceUnavailable
}

// decodeResponse reads the body and decodes it into out, translating API
// error envelopes into errors.
func decodeResponse(resp *http.Response, wantStatus int, out any) error {
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func createPlaythrough(client *http.Client, baseURL string) (*handlers.PlaythroughResponse, error) {
	resp, err := client.Post(baseURL+"/v1/playthrough", "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var play handlers.PlaythroughResponse
	if err := decodeResponse(resp, http.StatusCreated, &play); err != nil {
		return nil, err
	}
	return &play, nil
}

func getPlaythrough(client *http.Client, baseURL string, id uuid.UUID) (*handlers.PlaythroughResponse, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/playthrough/%s", baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var play handlers.PlaythroughResponse
	if err := decodeResponse(resp, http.StatusOK, &play); err != nil {
		return nil, err
	}
	return &play, nil
}

func postAction(client *http.Client, baseURL string, id uuid.UUID, action string, reqBody any) (*handlers.PlaythroughResponse, error) {
	var buf bytes.Buffer
	if reqBody != nil {
		if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/playthrough/%s/%s", baseURL, id, action),
		"application/json",
		&buf,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var play handlers.PlaythroughResponse
	if err := decodeResponse(resp, http.StatusOK, &play); err != nil {
		return nil, err
	}
	return &play, nil
}

func postChoice(client *http.Client, baseURL string, id uuid.UUID, choiceID string) (*handlers.PlaythroughResponse, error) {
	return postAction(client, baseURL, id, "choice", handlers.ChoiceRequest{ChoiceID: choiceID})
}

func postSkip(client *http.Client, baseURL string, id uuid.UUID) (*handlers.PlaythroughResponse, error) {
	return postAction(client, baseURL, id, "skip", nil)
}

func postBack(client *http.Client, baseURL string, id uuid.UUID) (*handlers.PlaythroughResponse, error) {
	return postAction(client, baseURL, id, "back", nil)
}

func postDialogue(client *http.Client, baseURL string, id uuid.UUID, message string) (*handlers.DialogueResponse, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(handlers.DialogueRequest{Message: message}); err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/playthrough/%s/dialogue", baseURL, id),
		"application/json",
		&buf,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var dialogue handlers.DialogueResponse
	if err := decodeResponse(resp, http.StatusOK, &dialogue); err != nil {
		return nil, err
	}
	return &dialogue, nil
}
