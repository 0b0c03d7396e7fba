package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/poly-workshop/scaledown-gateway/internal/domain/llm"
)

// Provider implements the gateway TextProvider port for DashScope OpenAI-compatible mode.
type Provider struct {
	baseURL string
	apiKey  string

	httpClient *http.Client
}

func NewProvider(baseURL, apiKey string, timeout time.Duration) *Provider {
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Provider{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *Provider) GenerateContent(ctx context.Context, req llm.GenerationRequest) (llm.GenerationResponse, error) {
	// OpenAI-compatible request/response shapes (minimal subset).
	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type chatReq struct {
		Model       string    `json:"model"`
		Messages    []message `json:"messages"`
		Temperature float32   `json:"temperature"`
	}
	type choice struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	}
	type chatResp struct {
		Model   string   `json:"model"`
		Choices []choice `json:"choices"`
	}

	msgs := make([]message, 0, len(req.History)+2)
	if req.SystemInstruction != "" {
		msgs = append(msgs, message{Role: "system", Content: req.SystemInstruction})
	}
	for _, t := range req.History {
		msgs = append(msgs, message{Role: string(t.Role), Content: t.Content})
	}
	msgs = append(msgs, message{Role: string(llm.RoleUser), Content: req.Prompt})

	var out chatResp
	body := chatReq{Model: req.Model, Messages: msgs, Temperature: req.Temperature}
	if err := p.doJSON(ctx, http.MethodPost, p.baseURL+"/chat/completions", body, &out); err != nil {
		return llm.GenerationResponse{}, err
	}

	res := llm.GenerationResponse{Model: out.Model}
	if len(out.Choices) > 0 {
		res.Text = out.Choices[0].Message.Content
	}
	return res, nil
}

func (p *Provider) doJSON(ctx context.Context, method, url string, in any, out any) error {
	if p.apiKey == "" {
		return fmt.Errorf("dashscope api key is empty")
	}
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}

	r, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = resp.Status
		}
		if resp.StatusCode == http.StatusBadRequest {
			return llm.InvalidArgument(msg)
		}
		return fmt.Errorf("dashscope http %d: %s", resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
