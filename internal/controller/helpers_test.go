package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"financebot-be/internal/dto"
	"financebot-be/internal/pkg/logger"
	"financebot-be/internal/pkg/serverutils"
	"financebot-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type routeRegistrar interface {
	RegisterRoutes(r fiber.Router)
}

func newTestApp(c routeRegistrar, middleware ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler(logger.NewNopLogger())})
	for _, m := range middleware {
		app.Use(m)
	}
	c.RegisterRoutes(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body interface{}, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if s, ok := body.(string); ok {
		reader = bytes.NewBufferString(s)
	} else if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*dto.AuthResponse)
	return res, args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*dto.AuthResponse)
	return res, args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

type mockChatService struct{ mock.Mock }

func (m *mockChatService) RecordTurn(ctx context.Context, req *dto.RecordTurnRequest, callerUserID string) (*dto.RecordTurnResult, error) {
	args := m.Called(ctx, req, callerUserID)
	res, _ := args.Get(0).(*dto.RecordTurnResult)
	return res, args.Error(1)
}

func (m *mockChatService) ListSessions(ctx context.Context, userID string) ([]*dto.ChatSessionResponse, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).([]*dto.ChatSessionResponse)
	return res, args.Error(1)
}

func (m *mockChatService) ListMessages(ctx context.Context, sessionID string) ([]*dto.ChatMessageResponse, error) {
	args := m.Called(ctx, sessionID)
	res, _ := args.Get(0).([]*dto.ChatMessageResponse)
	return res, args.Error(1)
}

type mockAdvisorService struct{ mock.Mock }

func (m *mockAdvisorService) Stream(ctx context.Context, messages []llm.Message) (llm.Stream, error) {
	args := m.Called(ctx, messages)
	res, _ := args.Get(0).(llm.Stream)
	return res, args.Error(1)
}

func (m *mockAdvisorService) Advise(ctx context.Context, req *dto.AdviceRequest) (*dto.AdviceResponse, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*dto.AdviceResponse)
	return res, args.Error(1)
}

// scriptedStream yields chunks, then ends with err.
type scriptedStream struct {
	chunks []string
	err    error
	i      int
	closed bool
}

func (s *scriptedStream) Next() bool {
	if s.i >= len(s.chunks) {
		return false
	}
	s.i++
	return true
}
func (s *scriptedStream) Chunk() string { return s.chunks[s.i-1] }
func (s *scriptedStream) Err() error    { return s.err }
func (s *scriptedStream) Close() error  { s.closed = true; return nil }
