// Package provider abstracts the text generation capability behind debate
// participants. Concrete clients (Gemini API, local Ollama, mock) are
// selected via a factory keyed by provider name.
package provider

import (
	"context"
	"fmt"
)

// Request is a single generation request.
type Request struct {
	// Prompt is the user-facing input text.
	Prompt string

	// SystemPrompt carries the participant's persona instructions. Optional.
	SystemPrompt string

	// Temperature is the sampling temperature, bounded [0, 2].
	Temperature float64

	// MaxTokens is the output token budget, bounded [1, 4000].
	MaxTokens int
}

// Client is the generation capability bound to a participant.
type Client interface {
	// Provider returns the provider tag this client was created for.
	Provider() string

	// Model returns the model this client generates with.
	Model() string

	// Generate produces a complete response for the request.
	Generate(ctx context.Context, req Request) (string, error)

	// StreamGenerate produces the response incrementally, invoking fn for
	// each text chunk. Part of the capability contract; the debate engine
	// itself only uses Generate.
	StreamGenerate(ctx context.Context, req Request, fn func(chunk string) error) error
}

// Factory creates clients keyed by provider tag.
type Factory interface {
	Create(provider, model string) (Client, error)
}

// GenerationError represents a failure from a generation provider.
type GenerationError struct {
	// Provider is the name of the provider that encountered the error.
	Provider string

	// Message is a human-readable error message.
	Message string

	// Err is the underlying error (if any).
	Err error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s provider error: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s provider error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Err
}
