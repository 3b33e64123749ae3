package openai

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jg-phare/chatsplit/pkg/chat"
)

func TestFromMessage(t *testing.T) {
	tests := []struct {
		name        string
		msg         chat.Message
		wantRole    string
		wantContent *string
		wantCall    bool
	}{
		{
			name:        "system",
			msg:         chat.NewSystemMessage("be brief"),
			wantRole:    "system",
			wantContent: ptr("be brief"),
		},
		{
			name:        "user",
			msg:         chat.NewUserMessage("hello"),
			wantRole:    "user",
			wantContent: ptr("hello"),
		},
		{
			name:        "assistant text",
			msg:         chat.NewAssistantMessage("hi there"),
			wantRole:    "assistant",
			wantContent: ptr("hi there"),
		},
		{
			name:     "assistant function call has null content",
			msg:      chat.NewFunctionCallMessage("get_weather", `{"city":"Paris"}`),
			wantRole: "assistant",
			wantCall: true,
		},
		{
			name:        "function result",
			msg:         chat.NewFunctionResultMessage("get_weather", `{"temp":21}`),
			wantRole:    "function",
			wantContent: ptr(`{"temp":21}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := FromMessage(tt.msg)
			if err != nil {
				t.Fatalf("FromMessage() error: %v", err)
			}
			if wire.Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", wire.Role, tt.wantRole)
			}
			switch {
			case tt.wantContent == nil && wire.Content != nil:
				t.Errorf("Content = %q, want nil", *wire.Content)
			case tt.wantContent != nil && wire.Content == nil:
				t.Errorf("Content = nil, want %q", *tt.wantContent)
			case tt.wantContent != nil && *wire.Content != *tt.wantContent:
				t.Errorf("Content = %q, want %q", *wire.Content, *tt.wantContent)
			}
			if tt.wantCall && wire.FunctionCall == nil {
				t.Error("FunctionCall = nil, want populated")
			}
		})
	}
}

func TestFromMessage_UnknownRole(t *testing.T) {
	_, err := FromMessage(chat.Message{Role: "tool", Content: "x"})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
	invErr, ok := err.(*chat.InvalidMessageError)
	if !ok {
		t.Fatalf("error type = %T, want *chat.InvalidMessageError", err)
	}
	if invErr.Role != "tool" {
		t.Errorf("Role = %q, want tool", invErr.Role)
	}
}

func TestFromMessages_ReportsIndex(t *testing.T) {
	msgs := []chat.Message{
		chat.NewUserMessage("ok"),
		{Role: "tool", Content: "x"},
	}
	_, err := FromMessages(msgs)
	if err == nil {
		t.Fatal("expected error")
	}
	invErr, ok := err.(*chat.InvalidMessageError)
	if !ok {
		t.Fatalf("error type = %T, want *chat.InvalidMessageError", err)
	}
	if invErr.Position != 1 {
		t.Errorf("Position = %d, want 1", invErr.Position)
	}
}

func TestChatMessage_ToMessage(t *testing.T) {
	msgs := []chat.Message{
		chat.NewSystemMessage("be brief"),
		chat.NewUserMessage("hello"),
		chat.NewAssistantMessage("hi"),
		chat.NewFunctionCallMessage("get_weather", `{"city":"Paris"}`),
		chat.NewFunctionResultMessage("get_weather", `{"temp":21}`),
	}

	wire, err := FromMessages(msgs)
	if err != nil {
		t.Fatalf("FromMessages() error: %v", err)
	}
	back, err := chat.ConvertMessages(wire)
	if err != nil {
		t.Fatalf("ConvertMessages() error: %v", err)
	}

	if len(back) != len(msgs) {
		t.Fatalf("round trip produced %d messages, want %d", len(back), len(msgs))
	}
	for i := range msgs {
		if back[i].Role != msgs[i].Role || back[i].Content != msgs[i].Content || back[i].Name != msgs[i].Name {
			t.Errorf("message %d changed: got %+v, want %+v", i, back[i], msgs[i])
		}
	}
	if back[3].FunctionCall == nil || back[3].FunctionCall.Arguments != `{"city":"Paris"}` {
		t.Errorf("function call lost in round trip: %+v", back[3].FunctionCall)
	}
}

func TestChatMessage_ToMessage_UnknownRole(t *testing.T) {
	content := "x"
	_, err := ChatMessage{Role: "developer", Content: &content}.ToMessage()
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
	if _, ok := err.(*chat.InvalidMessageError); !ok {
		t.Fatalf("error type = %T, want *chat.InvalidMessageError", err)
	}
}

func TestChatMessage_NullContentOnWire(t *testing.T) {
	wire, err := FromMessage(chat.NewFunctionCallMessage("get_weather", `{}`))
	if err != nil {
		t.Fatalf("FromMessage() error: %v", err)
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if !strings.Contains(string(raw), `"content":null`) {
		t.Errorf("wire message %s missing null content", raw)
	}
}

func ptr(s string) *string { return &s }
