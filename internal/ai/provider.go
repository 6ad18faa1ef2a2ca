// Package ai holds the chat completion providers the support assistant
// can fall back through.
package ai

import "context"

type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Provider is a single chat completion backend. Complete returns the
// assistant reply for the system prompt, prior turns, and new message.
type Provider interface {
	Name() string
	Complete(ctx context.Context, systemPrompt string, history []Turn, userMessage string) (string, error)
}

const fallbackReply = "Sorry, I could not generate a response."
