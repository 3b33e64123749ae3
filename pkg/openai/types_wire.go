package openai

// CompletionRequest maps to the /v1/chat/completions request body.
type CompletionRequest struct {
	Model         string         `json:"model"`
	Messages      []ChatMessage  `json:"messages"`
	Functions     []FunctionDef  `json:"functions,omitempty"`
	FunctionCall  any            `json:"function_call,omitempty"` // "none" | "auto" | {"name": ...}
	Stream        bool           `json:"stream,omitempty"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	Temperature   *float64       `json:"temperature,omitempty"`
	TopP          *float64       `json:"top_p,omitempty"`
	Stop          []string       `json:"stop,omitempty"`
	User          string         `json:"user,omitempty"`
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`
}

// StreamOptions requests usage info in the final streaming chunk.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// ChatMessage is a chat-completions message for the messages array.
// Content is a pointer because the API distinguishes null content (an
// assistant message carrying only a function call) from an empty string.
type ChatMessage struct {
	Role         string        `json:"role"` // "system"|"user"|"assistant"|"function"
	Content      *string       `json:"content"`
	Name         string        `json:"name,omitempty"`          // function results and named senders
	FunctionCall *FunctionCall `json:"function_call,omitempty"` // assistant messages only
}

// FunctionCall holds the function name and arguments of a call.
type FunctionCall struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments"` // JSON string, streamed incrementally
}

// FunctionDef describes a callable function for the functions array.
type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"` // JSON Schema object
}

// CompletionResponse maps to the non-streaming response body. Streaming
// requests assemble the same shape through Stream.Accumulate.
type CompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"` // "chat.completion"
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice is one completed alternative in a response.
type Choice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"` // "stop" | "length" | "function_call"
}

// StreamChunk is a single SSE chunk of a streaming response.
type StreamChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"` // "chat.completion.chunk"
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
	Usage   *Usage        `json:"usage,omitempty"` // final chunk only (stream_options)
}

// ChunkChoice is a single choice in a streaming chunk.
type ChunkChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"` // null | "stop" | "length" | "function_call"
}

// Delta is the incremental content in a streaming chunk.
type Delta struct {
	Role         string        `json:"role,omitempty"`
	Content      *string       `json:"content,omitempty"` // nil vs "" matters
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// Usage from the final streaming chunk or non-streaming response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
