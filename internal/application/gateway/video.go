package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poly-workshop/scaledown-gateway/internal/domain/llm"
	"github.com/sethvargo/go-retry"
)

const defaultPollInterval = 10 * time.Second

// PollPolicy bounds the video status loop. Zero MaxPolls or MaxWait means no limit
// on that axis; the context always applies.
type PollPolicy struct {
	Interval time.Duration
	MaxPolls uint64
	MaxWait  time.Duration
}

func (p PollPolicy) withDefaults() PollPolicy {
	if p.Interval <= 0 {
		p.Interval = defaultPollInterval
	}
	return p
}

func (p PollPolicy) backoff() retry.Backoff {
	b := retry.NewConstant(p.Interval)
	if p.MaxPolls > 0 {
		b = retry.WithMaxRetries(p.MaxPolls, b)
	}
	if p.MaxWait > 0 {
		b = retry.WithMaxDuration(p.MaxWait, b)
	}
	return b
}

var errVideoPending = errors.New("video job pending")

// GenerateEducationalVideo submits a video job for topic, polls it to completion
// and returns a playable URI carrying the API key. All failures are returned.
func (s *Service) GenerateEducationalVideo(ctx context.Context, topic string) (string, error) {
	if s.video == nil {
		return "", fmt.Errorf("no video provider configured")
	}
	req := llm.VideoRequest{
		Model:          s.models.Video,
		Prompt:         videoPrompt(topic),
		NumberOfVideos: videoCount,
		Resolution:     videoResolution,
		AspectRatio:    videoAspectRatio,
	}
	job, err := s.video.SubmitVideo(ctx, req)
	if err != nil {
		slog.Error("video submission failed", "op", llm.OpGenerateVideo, "model", req.Model, "error", err)
		return "", err
	}
	slog.Info("video job submitted", "job_id", job.ID, "model", req.Model)

	job, polls, err := s.awaitVideo(ctx, job)
	if err != nil {
		slog.Error("video generation failed", "op", llm.OpGenerateVideo, "job_id", job.ID, "polls", polls, "error", err)
		return "", err
	}
	if job.ResultURI == "" {
		return "", fmt.Errorf("%w: job %s finished without a media uri", llm.ErrVideoUnavailable, job.ID)
	}
	slog.Info("video job done", "job_id", job.ID, "polls", polls)

	if s.observer != nil {
		ev := VideoEvent{JobID: job.ID, Model: req.Model, Prompt: topic, Polls: polls}
		go func() {
			// Detached from the request so a finished caller does not cancel delivery.
			if err := s.observer.VideoGenerated(context.Background(), ev); err != nil {
				slog.Warn("video observer failed", "job_id", ev.JobID, "error", err)
			}
		}()
	}
	return s.credential.AppendTo(job.ResultURI), nil
}

// awaitVideo waits one interval between status checks, passing the latest job
// state back to the provider each time.
func (s *Service) awaitVideo(ctx context.Context, job llm.VideoJob) (llm.VideoJob, int, error) {
	polls := 0
	checked := false
	err := retry.Do(ctx, s.poll.backoff(), func(ctx context.Context) error {
		if checked {
			next, err := s.video.PollVideo(ctx, job)
			if err != nil {
				return err
			}
			polls++
			job = next
		}
		checked = true
		if !job.Done {
			return retry.RetryableError(errVideoPending)
		}
		return nil
	})
	if errors.Is(err, errVideoPending) {
		return job, polls, fmt.Errorf("%w: job %s still pending after %d polls", llm.ErrVideoPollExhausted, job.ID, polls)
	}
	return job, polls, err
}
