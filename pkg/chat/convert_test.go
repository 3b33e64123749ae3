package chat

import (
	"errors"
	"strings"
	"testing"
)

// storedMessage mimics an application record that lowers itself to a Message.
type storedMessage struct {
	author string
	body   string
	err    error
}

func (s storedMessage) ToMessage() (Message, error) {
	if s.err != nil {
		return Message{}, s.err
	}
	return Message{Role: Role(s.author), Content: s.body}, nil
}

func TestConvertMessages(t *testing.T) {
	records := []storedMessage{
		{author: "system", body: "be brief"},
		{author: "user", body: "hi"},
		{author: "assistant", body: "hello"},
	}

	msgs, err := ConvertMessages(records)
	if err != nil {
		t.Fatalf("ConvertMessages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d", len(msgs))
	}
	if msgs[0].Role != RoleSystem || msgs[2].Content != "hello" {
		t.Errorf("unexpected messages: %+v", msgs)
	}
}

func TestConvertMessages_AdapterError(t *testing.T) {
	sentinel := errors.New("record corrupt")
	records := []storedMessage{
		{author: "user", body: "hi"},
		{err: sentinel},
	}

	_, err := ConvertMessages(records)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("error does not wrap adapter error: %v", err)
	}
	if !strings.Contains(err.Error(), "index 1") {
		t.Errorf("Error() = %q, missing index", err.Error())
	}
}

func TestConvertMessages_InvalidResult(t *testing.T) {
	records := []storedMessage{
		{author: "user", body: "hi"},
		{author: "moderator", body: "x"},
	}

	_, err := ConvertMessages(records)
	if err == nil {
		t.Fatal("expected error")
	}
	invErr, ok := err.(*InvalidMessageError)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if invErr.Position != 1 {
		t.Errorf("Position = %d, want 1", invErr.Position)
	}
}

func TestConvertMessages_MessagePassthrough(t *testing.T) {
	in := []Message{NewUserMessage("hi"), NewAssistantMessage("hello")}
	out, err := ConvertMessages(in)
	if err != nil {
		t.Fatalf("ConvertMessages: %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("message %d changed: %+v", i, out[i])
		}
	}
}
