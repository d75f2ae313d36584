package dto

import "financebot-be/pkg/llm"

type ChatCompletionRequest struct {
	Messages []llm.Message `json:"messages"`
}

// ChatCompletionChunk is one SSE data frame of a streamed reply.
type ChatCompletionChunk struct {
	Content string `json:"content"`
}

type AdviceRequest struct {
	Message string        `json:"message" validate:"required"`
	History []llm.Message `json:"history"`
}

type AdviceResponse struct {
	Reply string `json:"reply"`
}
