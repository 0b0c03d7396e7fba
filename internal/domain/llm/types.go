package llm

type Model struct {
	ID           string
	Name         string
	Provider     string
	Capabilities []string
}

// Role identifies the author of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single entry in a chat session history.
type Turn struct {
	Role    Role
	Content string
}

// GenerationRequest is one call to a text provider.
type GenerationRequest struct {
	// Routed model id, e.g. "gemini/gemini-3-pro-preview".
	// Providers receive the upstream model name only.
	Model string

	SystemInstruction string
	// Prior turns sent as context before Prompt. Empty for one-shot calls.
	History     []Turn
	Prompt      string
	Temperature float32
}

type GenerationResponse struct {
	// Text is empty when the backend returned no text payload.
	Text  string
	Model string
}

type VideoRequest struct {
	Model          string
	Prompt         string
	NumberOfVideos int32
	Resolution     string
	AspectRatio    string
}

// VideoJob is a long-running video generation operation.
// Handle is opaque to everything but the provider that created it and must be
// passed back unchanged when polling.
type VideoJob struct {
	ID        string
	Done      bool
	ResultURI string
	Handle    any
}
