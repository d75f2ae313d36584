// Package openai adapts any OpenAI-compatible chat completion API
// (OpenAI, the Hugging Face router, vLLM, ...) to llm.LLMProvider.
package openai

import (
	"context"
	"fmt"

	"financebot-be/pkg/llm"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

const HuggingFaceRouterURL = "https://router.huggingface.co/v1/"

type Provider struct {
	client openai.Client
	model  string
}

var _ llm.LLMProvider = &Provider{}

func NewProvider(apiKey, baseURL, model string) *Provider {
	var options []option.RequestOption
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	if apiKey != "" {
		options = append(options, option.WithAPIKey(apiKey))
	}
	return &Provider{
		client: openai.NewClient(options...),
		model:  model,
	}
}

func (p *Provider) params(history []llm.Message, options ...llm.Option) openai.ChatCompletionNewParams {
	opts := llm.Resolve(llm.Options{Model: p.model}, options...)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		case "assistant", "model":
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    opts.Model,
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	return params
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, p.params(history, options...))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("client didn't return any content choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) ChatStream(ctx context.Context, history []llm.Message, options ...llm.Option) (llm.Stream, error) {
	return &chunkStream{stream: p.client.Chat.Completions.NewStreaming(ctx, p.params(history, options...))}, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

// chunkStream skips role-only and empty deltas.
type chunkStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
	chunk  string
}

func (s *chunkStream) Next() bool {
	for s.stream.Next() {
		c := s.stream.Current()
		if len(c.Choices) == 0 || c.Choices[0].Delta.Content == "" {
			continue
		}
		s.chunk = c.Choices[0].Delta.Content
		return true
	}
	return false
}

func (s *chunkStream) Chunk() string { return s.chunk }
func (s *chunkStream) Err() error    { return s.stream.Err() }
func (s *chunkStream) Close() error  { return s.stream.Close() }
