package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/poly-workshop/scaledown-gateway/internal/domain/llm"
	"google.golang.org/genai"
)

// Provider implements the gateway text and video ports on the Gemini API.
// The SDK client is built on first use so a missing key only fails calls.
type Provider struct {
	apiKey  string
	baseURL string
	timeout time.Duration

	mu     sync.Mutex
	client *genai.Client
}

func NewProvider(apiKey, baseURL string, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Provider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// Configured reports whether an API key is present.
func (p *Provider) Configured() bool { return p.apiKey != "" }

func (p *Provider) GenerateContent(ctx context.Context, req llm.GenerationRequest) (llm.GenerationResponse, error) {
	c, err := p.sdk(ctx)
	if err != nil {
		return llm.GenerationResponse{}, err
	}

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(req.Temperature)}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	resp, err := c.Models.GenerateContent(ctx, req.Model, toContents(req), cfg)
	if err != nil {
		return llm.GenerationResponse{}, fmt.Errorf("gemini generate content: %w", err)
	}
	return llm.GenerationResponse{Text: resp.Text(), Model: resp.ModelVersion}, nil
}

func (p *Provider) SubmitVideo(ctx context.Context, req llm.VideoRequest) (llm.VideoJob, error) {
	c, err := p.sdk(ctx)
	if err != nil {
		return llm.VideoJob{}, err
	}
	op, err := c.Models.GenerateVideos(ctx, req.Model, req.Prompt, nil, &genai.GenerateVideosConfig{
		NumberOfVideos: req.NumberOfVideos,
		Resolution:     req.Resolution,
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		return llm.VideoJob{}, fmt.Errorf("gemini generate videos: %w", err)
	}
	return toVideoJob(op)
}

func (p *Provider) PollVideo(ctx context.Context, job llm.VideoJob) (llm.VideoJob, error) {
	op, ok := job.Handle.(*genai.GenerateVideosOperation)
	if !ok || op == nil {
		return llm.VideoJob{}, fmt.Errorf("gemini: unexpected video job handle %T", job.Handle)
	}
	c, err := p.sdk(ctx)
	if err != nil {
		return llm.VideoJob{}, err
	}
	next, err := c.Operations.GetVideosOperation(ctx, op, nil)
	if err != nil {
		return llm.VideoJob{}, fmt.Errorf("gemini get videos operation: %w", err)
	}
	return toVideoJob(next)
}

func (p *Provider) sdk(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	if p.apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	cfg := &genai.ClientConfig{
		APIKey:     p.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: p.timeout},
	}
	if p.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	p.client = c
	return c, nil
}

func toContents(req llm.GenerationRequest) []*genai.Content {
	out := make([]*genai.Content, 0, len(req.History)+1)
	for _, t := range req.History {
		var role genai.Role = genai.RoleUser
		if t.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(t.Content, role))
	}
	return append(out, genai.NewContentFromText(req.Prompt, genai.RoleUser))
}

func toVideoJob(op *genai.GenerateVideosOperation) (llm.VideoJob, error) {
	if op == nil {
		return llm.VideoJob{}, fmt.Errorf("gemini: empty video operation")
	}
	job := llm.VideoJob{ID: op.Name, Done: op.Done, Handle: op}
	if !op.Done {
		return job, nil
	}
	if len(op.Error) > 0 {
		msg, _ := op.Error["message"].(string)
		if msg == "" {
			msg = fmt.Sprint(op.Error)
		}
		return job, fmt.Errorf("gemini video operation %s failed: %s", op.Name, msg)
	}
	if op.Response != nil && len(op.Response.GeneratedVideos) > 0 {
		if v := op.Response.GeneratedVideos[0].Video; v != nil {
			job.ResultURI = v.URI
		}
	}
	return job, nil
}
