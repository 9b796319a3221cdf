package provider

import (
	"context"
	"fmt"
	"sync"
)

// MockClient generates simulated responses for tests and offline runs.
type MockClient struct {
	model string

	mu        sync.Mutex
	responses []string
	calls     int
}

// NewMockClient creates a mock client. With no canned responses it echoes a
// truncated form of the prompt.
func NewMockClient(model string, responses ...string) *MockClient {
	if model == "" {
		model = "mock-v1"
	}
	return &MockClient{
		model:     model,
		responses: responses,
	}
}

// Provider returns the provider tag.
func (c *MockClient) Provider() string { return "mock" }

// Model returns the configured model.
func (c *MockClient) Model() string { return c.model }

// Calls returns how many generation calls were made.
func (c *MockClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Generate returns the next canned response, cycling when exhausted.
func (c *MockClient) Generate(ctx context.Context, req Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++

	if len(c.responses) == 0 {
		return fmt.Sprintf("Mock response to: %s... [Simulated content]", truncate(req.Prompt, 50)), nil
	}
	return c.responses[(c.calls-1)%len(c.responses)], nil
}

// StreamGenerate emits the full response as a single chunk.
func (c *MockClient) StreamGenerate(ctx context.Context, req Request, fn func(chunk string) error) error {
	text, err := c.Generate(ctx, req)
	if err != nil {
		return err
	}
	return fn(text)
}

// truncate cuts on rune boundaries so multibyte prompts stay valid UTF-8.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max])
	}
	return s
}
