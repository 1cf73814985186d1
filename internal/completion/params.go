package completion

// Default completion parameters.
const (
	DefaultModel        = "gpt-3.5-turbo"
	DefaultMaxTokens    = 150
	DefaultTemperature  = 0.7
	DefaultSystemPrompt = "You are a helpful assistant. Answer briefly and politely."
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Parameters are the per-process settings applied to every completion
// call. They are built once at startup and never modified.
type Parameters struct {
	SystemPrompt string
	Model        string
	MaxTokens    int
	Temperature  float32
}

// DefaultParameters returns the default parameters.
func DefaultParameters() Parameters {
	return Parameters{
		SystemPrompt: DefaultSystemPrompt,
		Model:        DefaultModel,
		MaxTokens:    DefaultMaxTokens,
		Temperature:  DefaultTemperature,
	}
}

// Message is one chat message.
type Message struct {
	Role    string
	Content string
}

// Request is the provider-neutral completion payload.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Request builds the payload for userMessage: the system prompt first,
// then the user message.
func (p Parameters) Request(userMessage string) Request {
	return Request{
		Model: p.Model,
		Messages: []Message{
			{Role: RoleSystem, Content: p.SystemPrompt},
			{Role: RoleUser, Content: userMessage},
		},
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	}
}

// Choice is one generated alternative.
type Choice struct {
	Content      string
	FinishReason string
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Response is the provider-neutral completion result.
type Response struct {
	Choices []Choice
	Usage   Usage
}
