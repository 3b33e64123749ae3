package openai

import (
	"github.com/jg-phare/chatsplit/pkg/chat"
)

// FromMessage maps a canonical message onto the wire format. Content is
// null for an assistant message that only carries a function call.
func FromMessage(msg chat.Message) (ChatMessage, error) {
	return fromMessageAt(msg, -1)
}

// FromMessages maps a conversation onto the wire format, reporting the
// index of the first message that cannot be mapped.
func FromMessages(msgs []chat.Message) ([]ChatMessage, error) {
	out := make([]ChatMessage, len(msgs))
	for i, msg := range msgs {
		wire, err := fromMessageAt(msg, i)
		if err != nil {
			return nil, err
		}
		out[i] = wire
	}
	return out, nil
}

func fromMessageAt(msg chat.Message, position int) (ChatMessage, error) {
	var role string
	switch msg.Role {
	case chat.RoleSystem:
		role = "system"
	case chat.RoleUser:
		role = "user"
	case chat.RoleAssistant:
		role = "assistant"
	case chat.RoleFunction:
		role = "function"
	default:
		return ChatMessage{}, &chat.InvalidMessageError{
			Position: position,
			Role:     msg.Role,
			Reason:   "no wire mapping for this role",
		}
	}

	wire := ChatMessage{Role: role, Name: msg.Name}
	if msg.FunctionCall != nil {
		wire.FunctionCall = &FunctionCall{
			Name:      msg.FunctionCall.Name,
			Arguments: msg.FunctionCall.Arguments,
		}
	}
	if msg.Content != "" || wire.FunctionCall == nil {
		content := msg.Content
		wire.Content = &content
	}
	return wire, nil
}

// ToMessage maps a wire message back to the canonical form. It makes
// ChatMessage satisfy chat.Convertible, so stored wire messages can be
// windowed with chat.ConvertMessages or splitter.SplitRecords directly.
func (m ChatMessage) ToMessage() (chat.Message, error) {
	var role chat.Role
	switch m.Role {
	case "system":
		role = chat.RoleSystem
	case "user":
		role = chat.RoleUser
	case "assistant":
		role = chat.RoleAssistant
	case "function":
		role = chat.RoleFunction
	default:
		return chat.Message{}, &chat.InvalidMessageError{
			Position: -1,
			Role:     chat.Role(m.Role),
			Reason:   "no canonical mapping for this role",
		}
	}

	msg := chat.Message{Role: role, Name: m.Name}
	if m.Content != nil {
		msg.Content = *m.Content
	}
	if m.FunctionCall != nil {
		msg.FunctionCall = &chat.FunctionCall{
			Name:      m.FunctionCall.Name,
			Arguments: m.FunctionCall.Arguments,
		}
	}
	return msg, nil
}
