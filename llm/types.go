package llm

// MessageRole represents the role of a message in a conversation.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Provider names accepted by the configuration surface.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
)

// Message represents a single message in a conversation.
// This is provider-neutral and immutable once constructed; an ordered
// slice of Messages forms a conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// NewMessage creates a new message with the given role and text content.
func NewMessage(role MessageRole, content string) Message {
	return Message{Role: role, Content: content}
}

// Request represents a complete completion request.
// The tuple (Messages, System, Model, MaxTokens, Temperature) fully
// determines a cache key.
type Request struct {
	Model       string
	Messages    []Message
	System      string
	MaxTokens   int64
	Temperature float64
}

// Usage represents token usage information reported by a backend.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Response represents a complete completion response.
// Cached is true when the response was served from the on-disk cache
// without a backend call.
type Response struct {
	Content string
	Model   string
	Usage   Usage
	Cached  bool
}
