package gateway

import (
	"context"
	"sync"

	"github.com/poly-workshop/scaledown-gateway/internal/domain/llm"
)

type stubText struct {
	mu    sync.Mutex
	reqs  []llm.GenerationRequest
	reply func(req llm.GenerationRequest) (llm.GenerationResponse, error)
}

func (s *stubText) GenerateContent(_ context.Context, req llm.GenerationRequest) (llm.GenerationResponse, error) {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()
	if s.reply == nil {
		return llm.GenerationResponse{Text: "ok", Model: req.Model}, nil
	}
	return s.reply(req)
}

func (s *stubText) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reqs)
}

func (s *stubText) last() llm.GenerationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqs[len(s.reqs)-1]
}

// stubVideo finishes a job after doneAfter polls. Each poll returns a new handle
// (previous handle + 1) so tests can check the handle chain.
type stubVideo struct {
	doneAfter int
	uri       string
	submitErr error
	pollErr   error

	submitted []llm.VideoRequest
	handles   []any
}

func (s *stubVideo) SubmitVideo(_ context.Context, req llm.VideoRequest) (llm.VideoJob, error) {
	s.submitted = append(s.submitted, req)
	if s.submitErr != nil {
		return llm.VideoJob{}, s.submitErr
	}
	return s.job(0), nil
}

func (s *stubVideo) PollVideo(_ context.Context, job llm.VideoJob) (llm.VideoJob, error) {
	s.handles = append(s.handles, job.Handle)
	if s.pollErr != nil {
		return llm.VideoJob{}, s.pollErr
	}
	return s.job(job.Handle.(int) + 1), nil
}

func (s *stubVideo) job(handle int) llm.VideoJob {
	j := llm.VideoJob{ID: "operations/veo-1", Handle: handle}
	if s.doneAfter >= 0 && handle >= s.doneAfter {
		j.Done = true
		j.ResultURI = s.uri
	}
	return j
}

type stubObserver struct {
	events chan VideoEvent
}

func (o *stubObserver) VideoGenerated(_ context.Context, ev VideoEvent) error {
	o.events <- ev
	return nil
}

func newTestService(text *stubText, video VideoProvider, opts Options) *Service {
	if opts.Models == (ModelSet{}) {
		opts.Models = ModelSet{
			Reasoning:   "gemini/gemini-3-pro-preview",
			Compression: "gemini/gemini-3-flash-preview",
			Video:       "veo-3.1-fast-generate-preview",
		}
	}
	return NewService(map[string]TextProvider{"gemini": text}, video, opts)
}
