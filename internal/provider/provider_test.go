package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFactory(t *testing.T) {
	factory := NewFactory(FactoryConfig{OllamaBaseURL: "http://localhost:11434"})

	t.Run("Ollama", func(t *testing.T) {
		client, err := factory.Create("ollama", "mistral")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Provider() != "ollama" {
			t.Errorf("wrong provider: got %s", client.Provider())
		}
		if client.Model() != "mistral" {
			t.Errorf("wrong model: got %s", client.Model())
		}
	})

	t.Run("OllamaDefaultModel", func(t *testing.T) {
		client, err := factory.Create("ollama", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Model() != DefaultOllamaModel {
			t.Errorf("wrong default model: got %s", client.Model())
		}
	})

	t.Run("Mock", func(t *testing.T) {
		client, err := factory.Create("mock", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Provider() != "mock" {
			t.Errorf("wrong provider: got %s", client.Provider())
		}
	})

	t.Run("GeminiWithoutKey", func(t *testing.T) {
		if _, err := factory.Create("gemini", ""); err == nil {
			t.Error("expected error for missing API key")
		}
	})

	t.Run("UnsupportedProvider", func(t *testing.T) {
		if _, err := factory.Create("unknown", ""); err == nil {
			t.Error("expected error for unsupported provider")
		}
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		if _, err := factory.Create("Ollama", ""); err != nil {
			t.Errorf("provider names should be case-insensitive: %v", err)
		}
	})
}

func TestMockClient(t *testing.T) {
	t.Run("CannedResponsesCycle", func(t *testing.T) {
		client := NewMockClient("", "first", "second")
		ctx := context.Background()

		for i, want := range []string{"first", "second", "first"} {
			got, err := client.Generate(ctx, Request{Prompt: "test"})
			if err != nil {
				t.Fatalf("call %d failed: %v", i, err)
			}
			if got != want {
				t.Errorf("call %d: got %q, want %q", i, got, want)
			}
		}
		if client.Calls() != 3 {
			t.Errorf("wrong call count: got %d", client.Calls())
		}
	})

	t.Run("EchoWithoutResponses", func(t *testing.T) {
		client := NewMockClient("")
		got, err := client.Generate(context.Background(), Request{Prompt: "hello"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got, "hello") {
			t.Errorf("echo response missing prompt: %q", got)
		}
	})

	t.Run("EchoTruncatesOnRuneBoundary", func(t *testing.T) {
		client := NewMockClient("")
		prompt := strings.Repeat("é", 60)
		got, err := client.Generate(context.Background(), Request{Prompt: prompt})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !utf8.ValidString(got) {
			t.Errorf("echo response is not valid UTF-8: %q", got)
		}
		if !strings.Contains(got, strings.Repeat("é", 50)) {
			t.Errorf("echo response truncated short of 50 runes: %q", got)
		}
	})

	t.Run("StreamDeliversSingleChunk", func(t *testing.T) {
		client := NewMockClient("", "chunked")
		var chunks []string
		err := client.StreamGenerate(context.Background(), Request{Prompt: "x"}, func(c string) error {
			chunks = append(chunks, c)
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(chunks) != 1 || chunks[0] != "chunked" {
			t.Errorf("wrong chunks: %v", chunks)
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		client := NewMockClient("")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := client.Generate(ctx, Request{Prompt: "x"}); err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}

func TestOllamaClient(t *testing.T) {
	t.Run("Generate", func(t *testing.T) {
		var gotReq ollamaChatRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/chat" {
				t.Errorf("wrong path: %s", r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			json.NewEncoder(w).Encode(ollamaChatResponse{
				Message: ollamaMessage{Role: "assistant", Content: "generated text"},
				Done:    true,
			})
		}))
		defer srv.Close()

		client := NewOllamaClient(srv.URL, "llama2")
		got, err := client.Generate(context.Background(), Request{
			Prompt:       "question",
			SystemPrompt: "be brief",
			Temperature:  0.7,
			MaxTokens:    100,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "generated text" {
			t.Errorf("wrong response: %q", got)
		}

		if len(gotReq.Messages) != 2 {
			t.Fatalf("wrong message count: %d", len(gotReq.Messages))
		}
		if gotReq.Messages[0].Role != "system" || gotReq.Messages[0].Content != "be brief" {
			t.Errorf("system message wrong: %+v", gotReq.Messages[0])
		}
		if gotReq.Options.NumPredict != 100 {
			t.Errorf("max tokens not forwarded: %d", gotReq.Options.NumPredict)
		}
		if gotReq.Stream {
			t.Error("generate should not request streaming")
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer srv.Close()

		client := NewOllamaClient(srv.URL, "missing")
		_, err := client.Generate(context.Background(), Request{Prompt: "x"})
		if err == nil {
			t.Fatal("expected error")
		}
		var genErr *GenerationError
		if !errors.As(err, &genErr) {
			t.Fatalf("expected GenerationError, got %T", err)
		}
		if genErr.Provider != "ollama" {
			t.Errorf("wrong provider in error: %s", genErr.Provider)
		}
	})

	t.Run("Stream", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			enc := json.NewEncoder(w)
			enc.Encode(ollamaChatResponse{Message: ollamaMessage{Content: "part one "}})
			enc.Encode(ollamaChatResponse{Message: ollamaMessage{Content: "part two"}, Done: true})
		}))
		defer srv.Close()

		client := NewOllamaClient(srv.URL, "llama2")
		var sb strings.Builder
		err := client.StreamGenerate(context.Background(), Request{Prompt: "x"}, func(c string) error {
			sb.WriteString(c)
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sb.String() != "part one part two" {
			t.Errorf("wrong assembled stream: %q", sb.String())
		}
	})
}
