package openai

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"
)

func TestParseSSEStream(t *testing.T) {
	t.Run("simple text chunks", func(t *testing.T) {
		sseData := `data: {"id":"chatcmpl-1","object":"chat.completion.chunk","created":1234,"model":"gpt-3.5-turbo","choices":[{"index":0,"delta":{"role":"assistant","content":""},"finish_reason":null}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","created":1234,"model":"gpt-3.5-turbo","choices":[{"index":0,"delta":{"content":"Hello"},"finish_reason":null}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","created":1234,"model":"gpt-3.5-turbo","choices":[{"index":0,"delta":{"content":" world"},"finish_reason":null}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","created":1234,"model":"gpt-3.5-turbo","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}

data: [DONE]
`
		ch := ParseSSEStream(context.Background(), io.NopCloser(strings.NewReader(sseData)))

		var chunks []*StreamChunk
		var done bool
		for event := range ch {
			if event.Err != nil {
				t.Fatalf("unexpected error: %v", event.Err)
			}
			if event.Done {
				done = true
				continue
			}
			chunks = append(chunks, event.Chunk)
		}

		if !done {
			t.Error("expected Done event")
		}
		if len(chunks) != 4 {
			t.Fatalf("got %d chunks, want 4", len(chunks))
		}
		if chunks[0].ID != "chatcmpl-1" {
			t.Errorf("chunk[0].ID = %q", chunks[0].ID)
		}
		if c := chunks[1].Choices[0].Delta.Content; c == nil || *c != "Hello" {
			t.Errorf("chunk[1] content = %v", c)
		}
	})

	t.Run("function call deltas", func(t *testing.T) {
		sseData := `data: {"id":"chatcmpl-2","object":"chat.completion.chunk","created":1234,"model":"gpt-3.5-turbo","choices":[{"index":0,"delta":{"role":"assistant","content":null,"function_call":{"name":"lookup","arguments":""}},"finish_reason":null}]}

data: {"id":"chatcmpl-2","object":"chat.completion.chunk","created":1234,"model":"gpt-3.5-turbo","choices":[{"index":0,"delta":{"function_call":{"arguments":"{\"key\":"}},"finish_reason":null}]}

data: {"id":"chatcmpl-2","object":"chat.completion.chunk","created":1234,"model":"gpt-3.5-turbo","choices":[{"index":0,"delta":{"function_call":{"arguments":" \"a\"}"}},"finish_reason":null}]}

data: {"id":"chatcmpl-2","object":"chat.completion.chunk","created":1234,"model":"gpt-3.5-turbo","choices":[{"index":0,"delta":{},"finish_reason":"function_call"}]}

data: [DONE]
`
		ch := ParseSSEStream(context.Background(), io.NopCloser(strings.NewReader(sseData)))

		var chunks []*StreamChunk
		for event := range ch {
			if event.Err != nil {
				t.Fatalf("unexpected error: %v", event.Err)
			}
			if event.Chunk != nil {
				chunks = append(chunks, event.Chunk)
			}
		}

		if len(chunks) != 4 {
			t.Fatalf("got %d chunks, want 4", len(chunks))
		}
		fc := chunks[0].Choices[0].Delta.FunctionCall
		if fc == nil || fc.Name != "lookup" {
			t.Errorf("chunk[0] function call = %+v, want name lookup", fc)
		}
		fc = chunks[1].Choices[0].Delta.FunctionCall
		if fc == nil || fc.Arguments != `{"key":` {
			t.Errorf("chunk[1] arguments = %+v", fc)
		}
	})

	t.Run("comment lines and keep-alive", func(t *testing.T) {
		sseData := `: keep-alive

: another comment

data: {"id":"chatcmpl-3","object":"chat.completion.chunk","created":1234,"model":"gpt-3.5-turbo","choices":[{"index":0,"delta":{"content":"hi"},"finish_reason":null}]}

: ping

data: [DONE]
`
		ch := ParseSSEStream(context.Background(), io.NopCloser(strings.NewReader(sseData)))

		var chunks []*StreamChunk
		for event := range ch {
			if event.Err != nil {
				t.Fatalf("unexpected error: %v", event.Err)
			}
			if event.Chunk != nil {
				chunks = append(chunks, event.Chunk)
			}
		}

		if len(chunks) != 1 {
			t.Fatalf("got %d chunks, want 1 (comments should be skipped)", len(chunks))
		}
	})

	t.Run("malformed JSON skipped", func(t *testing.T) {
		sseData := `data: {"id":"chatcmpl-4","object":"chat.completion.chunk","created":1234,"model":"gpt-3.5-turbo","choices":[{"index":0,"delta":{"content":"ok"},"finish_reason":null}]}

data: {this is not valid json}

data: {"id":"chatcmpl-4","object":"chat.completion.chunk","created":1234,"model":"gpt-3.5-turbo","choices":[{"index":0,"delta":{"content":"still ok"},"finish_reason":null}]}

data: [DONE]
`
		ch := ParseSSEStream(context.Background(), io.NopCloser(strings.NewReader(sseData)))

		var chunks []*StreamChunk
		for event := range ch {
			if event.Err != nil {
				t.Fatalf("unexpected error: %v", event.Err)
			}
			if event.Chunk != nil {
				chunks = append(chunks, event.Chunk)
			}
		}

		if len(chunks) != 2 {
			t.Fatalf("got %d chunks, want 2 (malformed JSON should be skipped)", len(chunks))
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		pr, pw := io.Pipe()

		ctx, cancel := context.WithCancel(context.Background())
		ch := ParseSSEStream(ctx, pr)

		go func() {
			pw.Write([]byte(`data: {"id":"chatcmpl-5","object":"chat.completion.chunk","created":1234,"model":"gpt-3.5-turbo","choices":[{"index":0,"delta":{"content":"hi"},"finish_reason":null}]}` + "\n"))
			time.Sleep(50 * time.Millisecond)
			cancel()
			time.Sleep(20 * time.Millisecond)
			pw.Close()
		}()

		var gotCanceled bool
		timeout := time.After(2 * time.Second)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					goto done
				}
				if event.Err == context.Canceled {
					gotCanceled = true
				}
			case <-timeout:
				t.Fatal("test timed out waiting for channel close")
			}
		}
	done:

		if !gotCanceled {
			t.Error("expected context.Canceled error")
		}
	})
}
