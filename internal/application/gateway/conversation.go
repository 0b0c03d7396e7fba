package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poly-workshop/scaledown-gateway/internal/domain/llm"
)

const (
	chatEmptyReply  = "I processed that, but I'm having trouble phrasing the synthesis. Let's try another angle."
	chatApologyHead = "नमस्ते! I ran into a technical hurdle. Please try asking again. (त्रुटि: "
)

type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerBot  Speaker = "bot"
)

// Message is one line of a conversation transcript as shown to the user.
type Message struct {
	Speaker Speaker
	Content string
	// Failed marks a bot message produced from a backend error.
	Failed bool
	At     time.Time
}

// Conversation is the chat caller: it owns the active session and the visible transcript.
// Sends are serialized by sendMu so the session itself is never used concurrently;
// mu guards the fields below and is not held across backend calls.
type Conversation struct {
	id  string
	svc *Service

	sendMu sync.Mutex

	mu         sync.Mutex
	language   string
	slot       SessionSlot
	transcript []Message
}

func newConversation(ctx context.Context, svc *Service, language string) (*Conversation, error) {
	c := &Conversation{id: uuid.NewString(), svc: svc}
	if err := c.SetLanguage(ctx, language); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Conversation) ID() string { return c.id }

func (c *Conversation) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

// SetLanguage recreates the chat session for language. The previous session's
// history is dropped; the visible transcript stays.
func (c *Conversation) SetLanguage(ctx context.Context, language string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.svc.CreateChat(ctx, language)
	if err != nil {
		return err
	}
	if prev := c.slot.Replace(sess); prev != nil {
		slog.Debug("chat session replaced", "conversation_id", c.id, "discarded_session", prev.ID(), "discarded_turns", len(prev.turns))
	}
	c.language = sess.Language()
	return nil
}

// Send appends the user message, asks the active session and appends the bot
// reply. Backend failures become an apology message rather than an error; only
// blank input is rejected, before any backend call.
func (c *Conversation) Send(ctx context.Context, text string) (Message, error) {
	if err := llm.RequireText("text", text); err != nil {
		return Message{}, err
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	sess := c.slot.Current()
	if sess == nil {
		c.mu.Unlock()
		return Message{}, llm.NotFound("no active chat session")
	}
	c.transcript = append(c.transcript, Message{Speaker: SpeakerUser, Content: text, At: time.Now()})
	c.mu.Unlock()

	reply, err := sess.SendMessage(ctx, text)
	msg := Message{Speaker: SpeakerBot, Content: reply, At: time.Now()}
	switch {
	case err != nil:
		slog.Error("chat send failed", "op", llm.OpSendMessage, "conversation_id", c.id, "session_id", sess.ID(), "error", err)
		msg.Content = chatApologyHead + err.Error() + ")"
		msg.Failed = true
	case reply == "":
		msg.Content = chatEmptyReply
	}

	c.mu.Lock()
	c.transcript = append(c.transcript, msg)
	c.mu.Unlock()
	return msg, nil
}

// discard drops the active session; later sends fail with NotFound.
func (c *Conversation) discard() {
	c.mu.Lock()
	c.slot.Discard()
	c.mu.Unlock()
}

// Transcript returns a copy of the visible messages.
func (c *Conversation) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

const DefaultIdleTTL = 30 * time.Minute

// Conversations is an in-memory registry of live conversations. Conversations
// not used for the idle TTL are dropped, since remote callers may never close them.
type Conversations struct {
	svc     *Service
	idleTTL time.Duration
	now     func() time.Time

	mu    sync.Mutex
	items map[string]*registryEntry
}

type registryEntry struct {
	conv     *Conversation
	lastUsed time.Time
}

type ConversationsOption func(*Conversations)

// WithIdleTTL sets how long an unused conversation is kept. Zero or negative
// disables expiry.
func WithIdleTTL(ttl time.Duration) ConversationsOption {
	return func(r *Conversations) { r.idleTTL = ttl }
}

func NewConversations(svc *Service, opts ...ConversationsOption) *Conversations {
	r := &Conversations{
		svc:     svc,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
		items:   make(map[string]*registryEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Conversations) Open(ctx context.Context, language string) (*Conversation, error) {
	c, err := newConversation(ctx, r.svc, language)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweepLocked(now)
	r.items[c.id] = &registryEntry{conv: c, lastUsed: now}
	return c, nil
}

// Get returns the conversation and marks it used.
func (r *Conversations) Get(id string) (*Conversation, error) {
	if id == "" {
		return nil, llm.InvalidArgument("conversation_id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	e, ok := r.items[id]
	if !ok {
		return nil, llm.NotFound("conversation " + id)
	}
	if r.expired(e, now) {
		r.removeLocked(id, e)
		return nil, llm.NotFound("conversation " + id)
	}
	e.lastUsed = now
	return e.conv, nil
}

func (r *Conversations) Close(id string) error {
	if id == "" {
		return llm.InvalidArgument("conversation_id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[id]
	if !ok {
		return llm.NotFound("conversation " + id)
	}
	r.removeLocked(id, e)
	return nil
}

// Len reports how many conversations are held.
func (r *Conversations) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Conversations) expired(e *registryEntry, now time.Time) bool {
	return r.idleTTL > 0 && now.Sub(e.lastUsed) > r.idleTTL
}

func (r *Conversations) sweepLocked(now time.Time) {
	for id, e := range r.items {
		if r.expired(e, now) {
			slog.Debug("conversation expired", "conversation_id", id, "idle", now.Sub(e.lastUsed))
			r.removeLocked(id, e)
		}
	}
}

func (r *Conversations) removeLocked(id string, e *registryEntry) {
	delete(r.items, id)
	e.conv.discard()
}
