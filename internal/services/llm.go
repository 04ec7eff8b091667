package services

import "context"

// LLMService defines the interface for interacting with a chat-completion API
type LLMService interface {
	// Complete generates one completion for a system prompt and user message
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)

	// Ping checks that the backing API is reachable and credentialed
	Ping(ctx context.Context) error
}
