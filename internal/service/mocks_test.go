package service

import (
	"context"
	"sync"

	"financebot-be/pkg/events"
	"financebot-be/pkg/identity"
	"financebot-be/pkg/llm"

	"github.com/stretchr/testify/mock"
)

type mockIdentityProvider struct {
	mock.Mock
}

func (m *mockIdentityProvider) SignUp(ctx context.Context, creds identity.Credentials) (*identity.AuthResult, error) {
	args := m.Called(ctx, creds)
	res, _ := args.Get(0).(*identity.AuthResult)
	return res, args.Error(1)
}

func (m *mockIdentityProvider) SignIn(ctx context.Context, email, password string) (*identity.AuthResult, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*identity.AuthResult)
	return res, args.Error(1)
}

func (m *mockIdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

func (m *mockIdentityProvider) GetUser(ctx context.Context, accessToken string) (string, error) {
	args := m.Called(ctx, accessToken)
	return args.String(0), args.Error(1)
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type sliceStream struct {
	chunks []string
	i      int
	closed bool
}

func (s *sliceStream) Next() bool {
	if s.i >= len(s.chunks) {
		return false
	}
	s.i++
	return true
}
func (s *sliceStream) Chunk() string { return s.chunks[s.i-1] }
func (s *sliceStream) Err() error    { return nil }
func (s *sliceStream) Close() error  { s.closed = true; return nil }

// fakeLLM remembers the last history it was asked to complete.
type fakeLLM struct {
	history []llm.Message
	chunks  []string
	err     error
	ctx     context.Context
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", f.err
}

func (f *fakeLLM) ChatStream(ctx context.Context, history []llm.Message, options ...llm.Option) (llm.Stream, error) {
	f.history = history
	f.ctx = ctx
	if f.err != nil {
		return nil, f.err
	}
	return &sliceStream{chunks: f.chunks}, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

type mockExternalAdvisor struct {
	mock.Mock
}

func (m *mockExternalAdvisor) Ask(ctx context.Context, message string, history []llm.Message) (string, error) {
	args := m.Called(ctx, message, history)
	return args.String(0), args.Error(1)
}
