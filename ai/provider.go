// Package ai defines the interface for AI completion providers and the
// structured-response contract the chat orchestrator consumes.
//
// Design decisions:
//   - Provider is an interface so we can swap backends (OpenAI, Anthropic,
//     Gemini, Ollama) without changing orchestrator or TUI code.
//   - Providers return raw text; structured parsing and validation live in
//     structured.go and tableplan.go, shared across all backends.
//   - All methods accept a context for cancellation (async-friendly).
//   - The placeholder provider returns canned responses for development.
package ai

import (
	"context"
)

// Message represents a chat message.
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Provider is the interface all AI backends must implement.
type Provider interface {
	// Complete sends a system prompt and conversation, returning the
	// model's raw text reply.
	Complete(ctx context.Context, system string, messages []Message) (string, error)

	// Name returns the provider name for display.
	Name() string
}
