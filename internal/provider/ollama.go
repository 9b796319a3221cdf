package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultOllamaBaseURL is the standard local Ollama endpoint.
const DefaultOllamaBaseURL = "http://localhost:11434"

// DefaultOllamaModel is used when an agent does not name a model.
const DefaultOllamaModel = "llama2"

// OllamaClient generates text through a local Ollama server's chat API.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaClient creates an Ollama client for the given model.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}

	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Provider returns the provider tag.
func (c *OllamaClient) Provider() string { return "ollama" }

// Model returns the configured model.
func (c *OllamaClient) Model() string { return c.model }

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

// Generate produces a complete response from Ollama.
func (c *OllamaClient) Generate(ctx context.Context, req Request) (string, error) {
	body, err := c.doChat(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var resp ollamaChatResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return "", &GenerationError{Provider: "ollama", Message: "failed to decode response", Err: err}
	}
	if resp.Error != "" {
		return "", &GenerationError{Provider: "ollama", Message: resp.Error}
	}

	return resp.Message.Content, nil
}

// StreamGenerate streams response chunks from Ollama. The chat endpoint
// emits one JSON object per line until done.
func (c *OllamaClient) StreamGenerate(ctx context.Context, req Request, fn func(chunk string) error) error {
	body, err := c.doChat(ctx, req, true)
	if err != nil {
		return err
	}
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var chunk ollamaChatResponse
		if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
			return &GenerationError{Provider: "ollama", Message: "failed to decode stream chunk", Err: err}
		}
		if chunk.Error != "" {
			return &GenerationError{Provider: "ollama", Message: chunk.Error}
		}
		if chunk.Message.Content != "" {
			if err := fn(chunk.Message.Content); err != nil {
				return err
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return &GenerationError{Provider: "ollama", Message: "stream read failed", Err: err}
	}

	return nil
}

func (c *OllamaClient) doChat(ctx context.Context, req Request, stream bool) (io.ReadCloser, error) {
	messages := make([]ollamaMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: req.Prompt})

	payload, err := json.Marshal(ollamaChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   stream,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	})
	if err != nil {
		return nil, &GenerationError{Provider: "ollama", Message: "failed to encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, &GenerationError{Provider: "ollama", Message: "failed to build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &GenerationError{Provider: "ollama", Message: "request failed", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &GenerationError{
			Provider: "ollama",
			Message:  fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(data)),
		}
	}

	return resp.Body, nil
}
