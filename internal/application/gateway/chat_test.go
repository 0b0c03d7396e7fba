package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poly-workshop/scaledown-gateway/internal/domain/llm"
)

// echoTurns replies with the number of prior turns the backend received.
func echoTurns(req llm.GenerationRequest) (llm.GenerationResponse, error) {
	return llm.GenerationResponse{Text: fmt.Sprintf("turns=%d", len(req.History))}, nil
}

func TestChatSession_SendMessageCarriesHistory(t *testing.T) {
	t.Parallel()

	text := &stubText{reply: echoTurns}
	svc := newTestService(text, nil, Options{})
	sess, err := svc.CreateChat(context.Background(), "Tamil (தமிழ்)")
	if err != nil {
		t.Fatalf("CreateChat error: %v", err)
	}

	first, err := sess.SendMessage(context.Background(), "What is GWAS?")
	if err != nil || first != "turns=0" {
		t.Fatalf("first send = %q, %v", first, err)
	}
	second, err := sess.SendMessage(context.Background(), "And VEP?")
	if err != nil || second != "turns=2" {
		t.Fatalf("second send = %q, %v", second, err)
	}

	req := text.last()
	if req.Temperature != 0.8 || req.Model != "gemini-3-pro-preview" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if !strings.Contains(req.SystemInstruction, "Current language preference: Tamil (தமிழ்).") {
		t.Fatalf("unexpected instruction: %q", req.SystemInstruction)
	}
	want := []llm.Turn{
		{Role: llm.RoleUser, Content: "What is GWAS?"},
		{Role: llm.RoleAssistant, Content: "turns=0"},
	}
	for i, turn := range req.History {
		if turn != want[i] {
			t.Fatalf("history[%d] = %+v want %+v", i, turn, want[i])
		}
	}
	if got := len(sess.History()); got != 4 {
		t.Fatalf("unexpected history length: %d", got)
	}
}

func TestChatSession_FailedSendKeepsHistory(t *testing.T) {
	t.Parallel()

	fail := false
	text := &stubText{reply: func(req llm.GenerationRequest) (llm.GenerationResponse, error) {
		if fail {
			return llm.GenerationResponse{}, errors.New("503 unavailable")
		}
		return echoTurns(req)
	}}
	svc := newTestService(text, nil, Options{})
	sess, err := svc.CreateChat(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateChat error: %v", err)
	}
	if sess.Language() != DefaultLanguage {
		t.Fatalf("unexpected language: %q", sess.Language())
	}
	if _, err := sess.SendMessage(context.Background(), "hi"); err != nil {
		t.Fatalf("send: %v", err)
	}
	fail = true
	if _, err := sess.SendMessage(context.Background(), "again"); err == nil {
		t.Fatalf("expected error")
	}
	if got := len(sess.History()); got != 2 {
		t.Fatalf("failed exchange changed history: %d turns", got)
	}
}

func TestService_CreateChat_PropagatesErrors(t *testing.T) {
	t.Parallel()

	svc := newTestService(&stubText{}, nil, Options{Models: ModelSet{Reasoning: "bad-model"}})
	if _, err := svc.CreateChat(context.Background(), "English"); !errors.Is(err, llm.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestSessionSlot_Replace(t *testing.T) {
	t.Parallel()

	var slot SessionSlot
	a := &ChatSession{id: "a"}
	b := &ChatSession{id: "b"}
	if prev := slot.Replace(a); prev != nil {
		t.Fatalf("unexpected previous session")
	}
	if prev := slot.Replace(b); prev != a {
		t.Fatalf("expected a to be discarded")
	}
	if slot.Current() != b {
		t.Fatalf("expected b to be current")
	}
	slot.Discard()
	if slot.Current() != nil {
		t.Fatalf("expected empty slot")
	}
}

func TestConversation_LanguageChangeDiscardsHistory(t *testing.T) {
	t.Parallel()

	text := &stubText{reply: echoTurns}
	convs := NewConversations(newTestService(text, nil, Options{}))
	conv, err := convs.Open(context.Background(), "English")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	ctx := context.Background()
	if _, err := conv.Send(ctx, "one"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg, _ := conv.Send(ctx, "two"); msg.Content != "turns=2" {
		t.Fatalf("unexpected reply: %+v", msg)
	}

	if err := conv.SetLanguage(ctx, "Bengali (বাংলা)"); err != nil {
		t.Fatalf("SetLanguage error: %v", err)
	}
	msg, err := conv.Send(ctx, "three")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Content != "turns=0" {
		t.Fatalf("new session saw prior turns: %q", msg.Content)
	}
	if !strings.Contains(text.last().SystemInstruction, "Bengali (বাংলা)") {
		t.Fatalf("new session kept old language")
	}
	if conv.Language() != "Bengali (বাংলা)" {
		t.Fatalf("unexpected language: %q", conv.Language())
	}
	if got := len(conv.Transcript()); got != 6 {
		t.Fatalf("visible transcript should survive language change, got %d messages", got)
	}
}

func TestConversation_FailureBecomesApology(t *testing.T) {
	t.Parallel()

	text := &stubText{reply: func(llm.GenerationRequest) (llm.GenerationResponse, error) {
		return llm.GenerationResponse{}, errors.New("permission denied")
	}}
	convs := NewConversations(newTestService(text, nil, Options{}))
	conv, err := convs.Open(context.Background(), "")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	msg, err := conv.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Send should not fail on backend errors: %v", err)
	}
	if !msg.Failed || msg.Speaker != SpeakerBot {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Content != "नमस्ते! I ran into a technical hurdle. Please try asking again. (त्रुटि: permission denied)" {
		t.Fatalf("unexpected apology: %q", msg.Content)
	}
	tr := conv.Transcript()
	if len(tr) != 2 || tr[0].Speaker != SpeakerUser || tr[1] != msg {
		t.Fatalf("unexpected transcript: %+v", tr)
	}
}

func TestConversation_EmptyReplyUsesFallback(t *testing.T) {
	t.Parallel()

	text := &stubText{reply: func(llm.GenerationRequest) (llm.GenerationResponse, error) {
		return llm.GenerationResponse{}, nil
	}}
	convs := NewConversations(newTestService(text, nil, Options{}))
	conv, _ := convs.Open(context.Background(), "")
	msg, err := conv.Send(context.Background(), "hello")
	if err != nil || msg.Content != chatEmptyReply || msg.Failed {
		t.Fatalf("unexpected result: %+v, %v", msg, err)
	}
}

func TestConversation_BlankInputSkipsBackend(t *testing.T) {
	t.Parallel()

	text := &stubText{}
	convs := NewConversations(newTestService(text, nil, Options{}))
	conv, _ := convs.Open(context.Background(), "")
	for _, in := range []string{"", "   ", "\n\t"} {
		if _, err := conv.Send(context.Background(), in); !errors.Is(err, llm.ErrInvalidArgument) {
			t.Fatalf("Send(%q) = %v, want invalid argument", in, err)
		}
	}
	if text.calls() != 0 {
		t.Fatalf("backend called %d times", text.calls())
	}
	if len(conv.Transcript()) != 0 {
		t.Fatalf("blank input reached the transcript")
	}
}

func TestConversations_Registry(t *testing.T) {
	t.Parallel()

	convs := NewConversations(newTestService(&stubText{}, nil, Options{}))
	conv, err := convs.Open(context.Background(), "Marathi (मराठी)")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	got, err := convs.Get(conv.ID())
	if err != nil || got != conv {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if err := convs.Close(conv.ID()); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if _, err := convs.Get(conv.ID()); !errors.Is(err, llm.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := convs.Close(conv.ID()); !errors.Is(err, llm.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := convs.Get(""); !errors.Is(err, llm.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestConversations_IdleExpiry(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	convs := NewConversations(newTestService(&stubText{}, nil, Options{}), WithIdleTTL(30*time.Minute))
	convs.now = clock.Now
	ctx := context.Background()

	abandoned, err := convs.Open(ctx, "")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	active, err := convs.Open(ctx, "")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	clock.Advance(20 * time.Minute)
	if _, err := convs.Get(active.ID()); err != nil {
		t.Fatalf("Get(active) error: %v", err)
	}
	clock.Advance(20 * time.Minute)

	if _, err := convs.Open(ctx, ""); err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if n := convs.Len(); n != 2 {
		t.Fatalf("expected abandoned conversation to be swept, held %d", n)
	}
	if _, err := convs.Get(abandoned.ID()); !errors.Is(err, llm.ErrNotFound) {
		t.Fatalf("expected not found for abandoned conversation, got %v", err)
	}
	if _, err := abandoned.Send(ctx, "hello"); !errors.Is(err, llm.ErrNotFound) {
		t.Fatalf("expected discarded session, got %v", err)
	}
	if _, err := convs.Get(active.ID()); err != nil {
		t.Fatalf("recently used conversation expired: %v", err)
	}

	clock.Advance(31 * time.Minute)
	if _, err := convs.Get(active.ID()); !errors.Is(err, llm.ErrNotFound) {
		t.Fatalf("expected expiry on Get, got %v", err)
	}
}

func TestConversations_ManyAbandonedAreReleased(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	convs := NewConversations(newTestService(&stubText{}, nil, Options{}), WithIdleTTL(time.Minute))
	convs.now = clock.Now
	for i := 0; i < 1000; i++ {
		if _, err := convs.Open(context.Background(), ""); err != nil {
			t.Fatalf("Open error: %v", err)
		}
	}
	clock.Advance(2 * time.Minute)
	if _, err := convs.Open(context.Background(), ""); err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if n := convs.Len(); n != 1 {
		t.Fatalf("abandoned conversations still held: %d", n-1)
	}
}

func TestConversations_NoExpiryWhenDisabled(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	convs := NewConversations(newTestService(&stubText{}, nil, Options{}), WithIdleTTL(0))
	convs.now = clock.Now
	conv, _ := convs.Open(context.Background(), "")
	clock.Advance(24 * time.Hour)
	if _, err := convs.Get(conv.ID()); err != nil {
		t.Fatalf("Get error: %v", err)
	}
}

func TestConversations_CloseDiscardsSession(t *testing.T) {
	t.Parallel()

	text := &stubText{}
	convs := NewConversations(newTestService(text, nil, Options{}))
	conv, _ := convs.Open(context.Background(), "")
	if err := convs.Close(conv.ID()); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if _, err := conv.Send(context.Background(), "still there?"); !errors.Is(err, llm.ErrNotFound) {
		t.Fatalf("expected not found after close, got %v", err)
	}
	if text.calls() != 0 {
		t.Fatalf("backend called after close")
	}
}

func TestConversation_TranscriptNotBlockedBySend(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	text := &stubText{reply: func(llm.GenerationRequest) (llm.GenerationResponse, error) {
		close(entered)
		<-release
		return llm.GenerationResponse{Text: "done"}, nil
	}}
	convs := NewConversations(newTestService(text, nil, Options{}))
	conv, _ := convs.Open(context.Background(), "")

	sent := make(chan Message, 1)
	go func() {
		msg, _ := conv.Send(context.Background(), "slow question")
		sent <- msg
	}()
	<-entered

	got := make(chan []Message, 1)
	go func() {
		_ = conv.Language()
		got <- conv.Transcript()
	}()
	select {
	case tr := <-got:
		if len(tr) != 1 || tr[0].Speaker != SpeakerUser {
			t.Fatalf("unexpected transcript during send: %+v", tr)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Transcript blocked behind an in-flight send")
	}

	close(release)
	if msg := <-sent; msg.Content != "done" {
		t.Fatalf("unexpected reply: %+v", msg)
	}
	if n := len(conv.Transcript()); n != 2 {
		t.Fatalf("unexpected transcript length: %d", n)
	}
}
