package chat

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleFunction:
		return true
	}
	return false
}

// FunctionCall is an assistant's request to invoke a named function.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON, kept verbatim for token counting
}

// Message is a single entry in a conversation transcript.
type Message struct {
	Role         Role          `json:"role"`                    // "system"|"user"|"assistant"|"function"
	Content      string        `json:"content,omitempty"`       // text, or a function's result payload
	Name         string        `json:"name,omitempty"`          // sender name; required for function results
	FunctionCall *FunctionCall `json:"function_call,omitempty"` // assistant messages only
}

// NewSystemMessage creates a system message with the given instructions.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a plain-text assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewFunctionCallMessage creates an assistant message that requests a
// function invocation instead of (or alongside) text content.
func NewFunctionCallMessage(name, arguments string) Message {
	return Message{
		Role:         RoleAssistant,
		FunctionCall: &FunctionCall{Name: name, Arguments: arguments},
	}
}

// NewFunctionResultMessage creates a function-role message carrying the
// result of a previously requested function call.
func NewFunctionResultMessage(name, content string) Message {
	return Message{Role: RoleFunction, Name: name, Content: content}
}

// Clone returns a deep copy of m, so the copy's FunctionCall can be
// mutated without affecting the original.
func (m Message) Clone() Message {
	if m.FunctionCall != nil {
		fc := *m.FunctionCall
		m.FunctionCall = &fc
	}
	return m
}

// Validate checks the per-role structural rules for a single message.
// It returns an *InvalidMessageError describing the first violation, or
// nil if the message is well formed.
func (m Message) Validate() error {
	return m.validateAt(-1)
}

// ValidateMessages validates every message in msgs. The returned
// *InvalidMessageError carries the index of the first offending message.
func ValidateMessages(msgs []Message) error {
	for i, m := range msgs {
		if err := m.validateAt(i); err != nil {
			return err
		}
	}
	return nil
}

func (m Message) validateAt(pos int) error {
	fail := func(reason string) error {
		return &InvalidMessageError{Position: pos, Role: m.Role, Reason: reason}
	}

	if !m.Role.Valid() {
		return fail("unrecognized role")
	}
	if m.FunctionCall != nil && m.Role != RoleAssistant {
		return fail("only assistant messages may carry a function call")
	}

	switch m.Role {
	case RoleSystem, RoleUser:
		if m.Content == "" {
			return fail("content is empty")
		}
	case RoleAssistant:
		if m.Content == "" && m.FunctionCall == nil {
			return fail("neither content nor a function call is present")
		}
		if m.FunctionCall != nil && m.FunctionCall.Name == "" {
			return fail("function call has no name")
		}
	case RoleFunction:
		if m.Name == "" {
			return fail("function result has no function name")
		}
	}
	return nil
}
