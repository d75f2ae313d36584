package controller

import (
	"errors"
	"net/http"
	"testing"

	"financebot-be/internal/constant"
	"financebot-be/internal/dto"
	"financebot-be/internal/pkg/apperror"
	"financebot-be/internal/pkg/logger"
	"financebot-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAdvisorController_ChatCompletion(t *testing.T) {
	history := []llm.Message{{Role: "user", Content: "¿Cómo hago un presupuesto?"}}

	t.Run("streams chunks then DONE", func(t *testing.T) {
		svc := new(mockAdvisorService)
		app := newTestApp(NewAdvisorController(svc, logger.NewNopLogger()))
		stream := &scriptedStream{chunks: []string{"Hola", ", amigo"}}
		svc.On("Stream", mock.Anything, history).Return(stream, nil)

		resp, raw := doJSON(t, app, http.MethodPost, "/chat-completion", dto.ChatCompletionRequest{Messages: history}, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
		assert.Equal(t,
			"data: {\"content\":\"Hola\"}\n\n"+
				"data: {\"content\":\", amigo\"}\n\n"+
				"data: [DONE]\n\n",
			string(raw))
		assert.True(t, stream.closed)
	})

	t.Run("mid-stream failure ends with an error event", func(t *testing.T) {
		svc := new(mockAdvisorService)
		app := newTestApp(NewAdvisorController(svc, logger.NewNopLogger()))
		stream := &scriptedStream{chunks: []string{"Hola"}, err: errors.New("provider reset")}
		svc.On("Stream", mock.Anything, history).Return(stream, nil)

		_, raw := doJSON(t, app, http.MethodPost, "/chat-completion", dto.ChatCompletionRequest{Messages: history}, nil)
		assert.Equal(t,
			"data: {\"content\":\"Hola\"}\n\n"+
				"event: error\ndata: {\"error\":\"provider reset\"}\n\n",
			string(raw))
		assert.NotContains(t, string(raw), "[DONE]")
	})

	t.Run("empty messages", func(t *testing.T) {
		app := newTestApp(NewAdvisorController(new(mockAdvisorService), logger.NewNopLogger()))

		resp, raw := doJSON(t, app, http.MethodPost, "/chat-completion", dto.ChatCompletionRequest{}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, constant.MsgMessagesRequired, decode(t, raw)["error"])
	})

	t.Run("provider refuses before streaming", func(t *testing.T) {
		svc := new(mockAdvisorService)
		app := newTestApp(NewAdvisorController(svc, logger.NewNopLogger()))
		svc.On("Stream", mock.Anything, history).Return(nil, apperror.Upstream(errors.New("invalid api key")))

		resp, raw := doJSON(t, app, http.MethodPost, "/chat-completion", dto.ChatCompletionRequest{Messages: history}, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "invalid api key", decode(t, raw)["error"])
	})
}

func TestAdvisorController_Advice(t *testing.T) {
	svc := new(mockAdvisorService)
	app := newTestApp(NewAdvisorController(svc, logger.NewNopLogger()))

	req := &dto.AdviceRequest{Message: "¿Debo invertir?"}
	svc.On("Advise", mock.Anything, req).Return(&dto.AdviceResponse{Reply: "Diversifica."}, nil)

	resp, raw := doJSON(t, app, http.MethodPost, "/advice", req, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Diversifica.", decode(t, raw)["reply"])

	svc2 := new(mockAdvisorService)
	app2 := newTestApp(NewAdvisorController(svc2, logger.NewNopLogger()))
	svc2.On("Advise", mock.Anything, req).Return(nil, apperror.UpstreamWithStatus(errors.New("advisor down"), http.StatusBadGateway))

	resp, _ = doJSON(t, app2, http.MethodPost, "/advice", req, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
