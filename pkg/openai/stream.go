package openai

import (
	"context"
	"io"
)

// Stream represents an active SSE streaming response.
type Stream struct {
	events <-chan StreamEvent
	body   io.ReadCloser
	cancel context.CancelFunc
}

// NewStream creates a Stream from an SSE event channel and HTTP response body.
func NewStream(events <-chan StreamEvent, body io.ReadCloser, cancel context.CancelFunc) *Stream {
	return &Stream{
		events: events,
		body:   body,
		cancel: cancel,
	}
}

// Next returns the next parsed StreamChunk, or io.EOF when done.
// Returns context.Canceled if the parent context was cancelled.
func (s *Stream) Next() (*StreamChunk, error) {
	event, ok := <-s.events
	if !ok {
		return nil, io.EOF
	}
	if event.Done {
		return nil, io.EOF
	}
	if event.Err != nil {
		return nil, event.Err
	}
	return event.Chunk, nil
}

// Accumulate reads all remaining chunks and returns the response they
// assemble, in the same shape a non-streaming request produces.
func (s *Stream) Accumulate() (*CompletionResponse, error) {
	return s.AccumulateWithCallback(nil)
}

// AccumulateWithCallback reads all chunks, calling cb for each chunk
// before accumulation. Used to echo deltas while they arrive.
func (s *Stream) AccumulateWithCallback(cb func(*StreamChunk)) (*CompletionResponse, error) {
	defer s.Close()

	accums := make(map[int]*choiceAccumulator)
	maxIndex := -1
	var response CompletionResponse
	var usage *Usage

	for event := range s.events {
		if event.Err != nil {
			return nil, event.Err
		}
		if event.Done {
			break
		}

		chunk := event.Chunk
		if cb != nil {
			cb(chunk)
		}

		// Response metadata comes from the first chunk
		if response.ID == "" {
			response.ID = chunk.ID
			response.Model = chunk.Model
			response.Created = chunk.Created
		}

		// Usage arrives in the final chunk with stream_options
		if chunk.Usage != nil {
			usage = chunk.Usage
		}

		for _, choice := range chunk.Choices {
			acc, ok := accums[choice.Index]
			if !ok {
				acc = &choiceAccumulator{}
				accums[choice.Index] = acc
			}
			if choice.Index > maxIndex {
				maxIndex = choice.Index
			}
			acc.addDelta(choice)
		}
	}

	response.Object = "chat.completion"
	for i := 0; i <= maxIndex; i++ {
		if acc, ok := accums[i]; ok {
			response.Choices = append(response.Choices, acc.choice(i))
		}
	}
	response.Usage = usage

	return &response, nil
}

// Close terminates the stream early and releases the HTTP connection.
func (s *Stream) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.body != nil {
		return s.body.Close()
	}
	return nil
}
