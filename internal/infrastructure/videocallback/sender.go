package videocallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/poly-workshop/scaledown-gateway/internal/application/gateway"
	"github.com/sethvargo/go-retry"
)

const (
	EventVideoGenerated = "video.generated"

	defaultTimeout = 3 * time.Second
	retryBase      = 200 * time.Millisecond
	maxRetries     = 2
)

// Sender posts finished video jobs to a configured URL.
type Sender struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

var _ gateway.VideoObserver = (*Sender)(nil)

func New(url string, client *http.Client, timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Sender{url: url, client: client, timeout: timeout}
}

type Payload struct {
	Event          string `json:"event"`
	JobID          string `json:"job_id"`
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Polls          int    `json:"polls"`
	OccurredAtUnix int64  `json:"occurred_at_unix"`
}

func (s *Sender) VideoGenerated(ctx context.Context, ev gateway.VideoEvent) error {
	return s.Send(ctx, Payload{
		Event:          EventVideoGenerated,
		JobID:          ev.JobID,
		Model:          ev.Model,
		Prompt:         ev.Prompt,
		Polls:          ev.Polls,
		OccurredAtUnix: time.Now().Unix(),
	})
}

// Send delivers payload, retrying transport failures and 5xx responses.
func (s *Sender) Send(ctx context.Context, payload Payload) error {
	if s == nil || s.client == nil || s.url == "" {
		return fmt.Errorf("video callback sender not configured")
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		return s.post(ctx, b)
	})
}

func (s *Sender) post(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return retry.RetryableError(err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode >= 500:
		return retry.RetryableError(fmt.Errorf("video callback non-2xx: %s", resp.Status))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("video callback non-2xx: %s", resp.Status)
	}
	return nil
}
