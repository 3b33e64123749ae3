package openai

import "strings"

// choiceAccumulator assembles one streamed choice from its deltas.
// Content and function call arguments arrive in fragments; the function
// name and finish reason arrive once.
type choiceAccumulator struct {
	content    strings.Builder
	hasContent bool
	callName   string
	callArgs   strings.Builder
	hasCall    bool
	finish     string
}

// addDelta merges one incremental chunk choice.
func (a *choiceAccumulator) addDelta(c ChunkChoice) {
	d := c.Delta
	if d.Content != nil {
		a.hasContent = true
		a.content.WriteString(*d.Content)
	}
	if d.FunctionCall != nil {
		a.hasCall = true
		if d.FunctionCall.Name != "" {
			a.callName = d.FunctionCall.Name
		}
		a.callArgs.WriteString(d.FunctionCall.Arguments)
	}
	if c.FinishReason != nil {
		a.finish = *c.FinishReason
	}
}

// choice returns the assembled choice. Content stays null when the
// assistant produced only a function call.
func (a *choiceAccumulator) choice(index int) Choice {
	msg := ChatMessage{Role: "assistant"}
	if a.hasContent || !a.hasCall {
		content := a.content.String()
		msg.Content = &content
	}
	if a.hasCall {
		msg.FunctionCall = &FunctionCall{
			Name:      a.callName,
			Arguments: a.callArgs.String(),
		}
	}
	return Choice{Index: index, Message: msg, FinishReason: a.finish}
}
