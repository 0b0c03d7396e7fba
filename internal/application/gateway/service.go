package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poly-workshop/scaledown-gateway/internal/domain/llm"
)

// Service is the AI gateway. It turns research intents into backend generation
// calls and normalizes results and errors per operation policy.
// It depends only on domain concepts (no protobuf / HTTP / gRPC).
type Service struct {
	providers map[string]TextProvider
	video     VideoProvider

	models     ModelSet
	credential Credential
	poll       PollPolicy
	observer   VideoObserver
}

// ModelSet holds the model used for each gateway role.
// Text roles are routed ids ("provider/model"); Video is sent to the video provider as-is.
type ModelSet struct {
	Reasoning   string
	Compression string
	Video       string
}

type Options struct {
	Models ModelSet
	// APIKey is appended to generated media URIs so players can fetch them.
	APIKey   string
	Poll     PollPolicy
	Observer VideoObserver
}

func NewService(providers map[string]TextProvider, video VideoProvider, opts Options) *Service {
	return &Service{
		providers:  providers,
		video:      video,
		models:     opts.Models,
		credential: NewCredential(opts.APIKey),
		poll:       opts.Poll.withDefaults(),
		observer:   opts.Observer,
	}
}

// GenerateHypothesis answers a free-text research query. It never fails: backend
// errors are returned as "[System Error]: ..." text.
func (s *Service) GenerateHypothesis(ctx context.Context, query, language string) string {
	req := llm.GenerationRequest{
		Model:             s.models.Reasoning,
		SystemInstruction: hypothesisInstruction(languageOrDefault(language)),
		Prompt:            query,
		Temperature:       hypothesisTemperature,
	}
	text, err := s.generate(ctx, req)
	if err != nil {
		slog.Error("hypothesis generation failed", "op", llm.OpGenerateHypothesis, "policy", llm.OpGenerateHypothesis.ErrorPolicy(), "model", req.Model, "error", err)
		msg := err.Error()
		if msg == "" {
			msg = hypothesisErrorDefault
		}
		return hypothesisErrorPrefix + msg
	}
	if text == "" {
		return hypothesisFallback
	}
	return text
}

// SimulateCompression summarizes a dense payload. The result is empty when the
// backend returns no text; backend errors become a fixed message.
func (s *Service) SimulateCompression(ctx context.Context, data string) string {
	req := llm.GenerationRequest{
		Model:       s.models.Compression,
		Prompt:      compressionPrompt(data),
		Temperature: compressionTemperature,
	}
	text, err := s.generate(ctx, req)
	if err != nil {
		slog.Error("compression failed", "op", llm.OpSimulateCompression, "policy", llm.OpSimulateCompression.ErrorPolicy(), "model", req.Model, "error", err)
		return compressionFailure
	}
	return text
}

func (s *Service) generate(ctx context.Context, req llm.GenerationRequest) (string, error) {
	p, upstreamModel, err := s.resolveProviderAndUpstreamModel(req.Model)
	if err != nil {
		return "", err
	}
	req.Model = upstreamModel
	resp, err := p.GenerateContent(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (s *Service) ListModels(_ context.Context) ([]llm.Model, error) {
	out := make([]llm.Model, 0, 3)
	for _, m := range []struct {
		id   string
		name string
		caps []string
	}{
		{s.models.Reasoning, "reasoning", []string{"text", "chat"}},
		{s.models.Compression, "compression", []string{"text"}},
	} {
		if m.id == "" {
			continue
		}
		provider, _, _ := strings.Cut(m.id, "/")
		out = append(out, llm.Model{ID: m.id, Name: m.name, Provider: provider, Capabilities: m.caps})
	}
	if s.models.Video != "" && s.video != nil {
		out = append(out, llm.Model{ID: s.models.Video, Name: "video", Provider: "gemini", Capabilities: []string{"video"}})
	}
	return out, nil
}

func (s *Service) resolveProviderAndUpstreamModel(routedModel string) (TextProvider, string, error) {
	if routedModel == "" {
		return nil, "", llm.InvalidArgument("model is not configured")
	}
	parts := strings.SplitN(routedModel, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, "", llm.InvalidArgument("invalid model format, expected provider/model")
	}
	providerName := parts[0]
	upstreamModel := parts[1]

	p := s.providers[providerName]
	if p == nil {
		return nil, "", fmt.Errorf("no provider configured: %s", providerName)
	}
	return p, upstreamModel, nil
}
