package chatclient

import (
	"context"
	"errors"

	"financebot-be/pkg/llm"
)

type Mode string

const (
	// ModeStreaming asks the server's /chat-completion endpoint.
	ModeStreaming Mode = "streaming"
	// ModeExternal asks the external advisory API, directly or through /advice.
	ModeExternal Mode = "external"
)

// Advisor produces the assistant reply for a conversation.
type Advisor interface {
	Reply(ctx context.Context, history []Message) (string, error)
	Mode() Mode
}

// Asker is satisfied by advisor.Client and by Backend's /advice relay.
type Asker interface {
	Ask(ctx context.Context, message string, history []llm.Message) (string, error)
}

type StreamingAdvisor struct {
	backend *Backend
	onChunk func(string)
}

// NewStreamingAdvisor calls onChunk, when set, with every piece of the reply.
func NewStreamingAdvisor(backend *Backend, onChunk func(string)) *StreamingAdvisor {
	return &StreamingAdvisor{backend: backend, onChunk: onChunk}
}

func (a *StreamingAdvisor) Mode() Mode { return ModeStreaming }

func (a *StreamingAdvisor) Reply(ctx context.Context, history []Message) (string, error) {
	turns := make([]llm.Message, 0, len(history))
	for _, m := range history {
		turns = append(turns, llm.Message{Role: m.Role, Content: m.Content})
	}
	return a.backend.ChatCompletion(ctx, turns, a.onChunk)
}

type ExternalAdvisor struct {
	asker Asker
}

func NewExternalAdvisor(asker Asker) *ExternalAdvisor {
	return &ExternalAdvisor{asker: asker}
}

func (a *ExternalAdvisor) Mode() Mode { return ModeExternal }

// Reply sends the latest user message and the turns before it as the transcript.
func (a *ExternalAdvisor) Reply(ctx context.Context, history []Message) (string, error) {
	last := -1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			last = i
			break
		}
	}
	if last < 0 {
		return "", errors.New("no user message to answer")
	}

	transcript := make([]llm.Message, 0, last)
	for _, m := range history[:last] {
		transcript = append(transcript, llm.Message{Role: m.Role, Content: m.Content})
	}
	return a.asker.Ask(ctx, history[last].Content, transcript)
}
