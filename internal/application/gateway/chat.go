package gateway

import (
	"context"

	"github.com/google/uuid"
	"github.com/poly-workshop/scaledown-gateway/internal/domain/llm"
)

// ChatSession is a multi-turn conversation with the reasoning model.
// Turns are kept in send order and only ever appended.
//
// A ChatSession is not safe for concurrent use; callers send one message at a time.
type ChatSession struct {
	id       string
	language string

	provider      TextProvider
	upstreamModel string
	instruction   string
	temperature   float32

	turns []llm.Turn
}

// CreateChat opens a new session with an empty history. Errors are returned to the caller.
func (s *Service) CreateChat(_ context.Context, language string) (*ChatSession, error) {
	language = languageOrDefault(language)
	p, upstreamModel, err := s.resolveProviderAndUpstreamModel(s.models.Reasoning)
	if err != nil {
		return nil, err
	}
	return &ChatSession{
		id:            uuid.NewString(),
		language:      language,
		provider:      p,
		upstreamModel: upstreamModel,
		instruction:   chatInstruction(language),
		temperature:   chatTemperature,
	}, nil
}

func (c *ChatSession) ID() string { return c.id }
func (c *ChatSession) Language() string { return c.language }

// History returns a copy of the committed turns.
func (c *ChatSession) History() []llm.Turn {
	out := make([]llm.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// SendMessage sends text with the full session history and returns the reply.
// The exchange is committed only when the backend answers; failures leave the
// history untouched and are returned as is.
func (c *ChatSession) SendMessage(ctx context.Context, text string) (string, error) {
	resp, err := c.provider.GenerateContent(ctx, llm.GenerationRequest{
		Model:             c.upstreamModel,
		SystemInstruction: c.instruction,
		History:           c.History(),
		Prompt:            text,
		Temperature:       c.temperature,
	})
	if err != nil {
		return "", err
	}
	c.turns = append(c.turns,
		llm.Turn{Role: llm.RoleUser, Content: text},
		llm.Turn{Role: llm.RoleAssistant, Content: resp.Text},
	)
	return resp.Text, nil
}

// SessionSlot holds at most one active chat session.
// Replacing the session discards the previous one and its history.
type SessionSlot struct {
	current *ChatSession
}

func (s *SessionSlot) Current() *ChatSession { return s.current }

// Replace installs next and returns the discarded session, if any.
func (s *SessionSlot) Replace(next *ChatSession) *ChatSession {
	prev := s.current
	s.current = next
	return prev
}

func (s *SessionSlot) Discard() { s.current = nil }
