package dashscope

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poly-workshop/scaledown-gateway/internal/domain/llm"
)

func TestProvider_GenerateContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer testkey" {
			t.Errorf("unexpected auth header: %q", got)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "qwen-plus" {
			t.Errorf("unexpected model: %q", req.Model)
		}
		roles := []string{"system", "user", "assistant", "user"}
		if len(req.Messages) != len(roles) {
			t.Errorf("unexpected messages: %+v", req.Messages)
		} else {
			for i, m := range req.Messages {
				if m.Role != roles[i] {
					t.Errorf("message %d role = %q want %q", i, m.Role, roles[i])
				}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "id":"chatcmpl_x",
  "model":"qwen-plus",
  "choices":[{"index":0,"message":{"role":"assistant","content":"hi"},"finish_reason":"stop"}]
}`))
	}))
	t.Cleanup(srv.Close)

	p := NewProvider(srv.URL, "testkey", 2*time.Second)
	res, err := p.GenerateContent(context.Background(), llm.GenerationRequest{
		Model:             "qwen-plus",
		SystemInstruction: "Your name is Gene.",
		History: []llm.Turn{
			{Role: llm.RoleUser, Content: "hello"},
			{Role: llm.RoleAssistant, Content: "namaste"},
		},
		Prompt:      "explain GWAS",
		Temperature: 0.8,
	})
	if err != nil {
		t.Fatalf("GenerateContent error: %v", err)
	}
	if res.Text != "hi" || res.Model != "qwen-plus" {
		t.Fatalf("unexpected response: %+v", res)
	}
}

func TestProvider_GenerateContent_NoChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"qwen-plus","choices":[]}`))
	}))
	t.Cleanup(srv.Close)

	p := NewProvider(srv.URL, "testkey", 2*time.Second)
	res, err := p.GenerateContent(context.Background(), llm.GenerationRequest{Model: "qwen-plus", Prompt: "x"})
	if err != nil {
		t.Fatalf("GenerateContent error: %v", err)
	}
	if res.Text != "" {
		t.Fatalf("expected empty text, got %q", res.Text)
	}
}

func TestProvider_GenerateContent_Errors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad model"}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	p := NewProvider(srv.URL, "testkey", 2*time.Second)
	_, err := p.GenerateContent(context.Background(), llm.GenerationRequest{Model: "nope", Prompt: "x"})
	if !errors.Is(err, llm.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}

	noKey := NewProvider(srv.URL, "", 0)
	if _, err := noKey.GenerateContent(context.Background(), llm.GenerationRequest{Model: "m", Prompt: "x"}); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}
