package provider

import (
	"context"
	"log/slog"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when an agent does not name a model.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient generates text through the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client for the given model.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, &GenerationError{Provider: "gemini", Message: "failed to create client", Err: err}
	}

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

// Provider returns the provider tag.
func (c *GeminiClient) Provider() string { return "gemini" }

// Model returns the configured model.
func (c *GeminiClient) Model() string { return c.model }

// Generate produces a complete response from Gemini.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, promptContents(req), c.genConfig(req))
	if err != nil {
		return "", &GenerationError{Provider: "gemini", Message: "generation failed", Err: err}
	}

	text := resp.Text()
	if text == "" {
		// Blocked or empty candidates both surface as empty text.
		return "", &GenerationError{Provider: "gemini", Message: "no text content in response"}
	}

	return text, nil
}

// StreamGenerate streams response chunks from Gemini.
func (c *GeminiClient) StreamGenerate(ctx context.Context, req Request, fn func(chunk string) error) error {
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, promptContents(req), c.genConfig(req)) {
		if err != nil {
			return &GenerationError{Provider: "gemini", Message: "streaming failed", Err: err}
		}
		chunk := resp.Text()
		if chunk == "" {
			continue
		}
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (c *GeminiClient) genConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	slog.Debug("Gemini generation config", "model", c.model, "temperature", req.Temperature, "max_tokens", req.MaxTokens)
	return cfg
}

func promptContents(req Request) []*genai.Content {
	return []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
}
