package gateway

import (
	"context"

	"github.com/poly-workshop/scaledown-gateway/internal/domain/llm"
)

// TextProvider is an application port for upstream text generation (e.g. Gemini, DashScope).
// Implementations live in infrastructure.
type TextProvider interface {
	GenerateContent(ctx context.Context, req llm.GenerationRequest) (llm.GenerationResponse, error)
}

// VideoProvider is an application port for long-running video generation.
// PollVideo receives the job returned by the previous call (SubmitVideo or PollVideo)
// and returns its refreshed state.
type VideoProvider interface {
	SubmitVideo(ctx context.Context, req llm.VideoRequest) (llm.VideoJob, error)
	PollVideo(ctx context.Context, job llm.VideoJob) (llm.VideoJob, error)
}

// VideoObserver is notified after a video job finishes successfully.
// Events never carry the backend credential.
type VideoObserver interface {
	VideoGenerated(ctx context.Context, ev VideoEvent) error
}

type VideoEvent struct {
	JobID  string
	Model  string
	Prompt string
	Polls  int
}
