package chatclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"financebot-be/pkg/llm"
)

// APIError is a non-2xx answer from the FinanceBot server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("financebot: %d %s", e.StatusCode, e.Message)
}

// AuthResult holds the provider's user and session objects verbatim.
type AuthResult struct {
	Message string          `json:"message"`
	User    json.RawMessage `json:"user"`
	Session json.RawMessage `json:"session"`
}

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Topic     string    `json:"topic"`
	StartedAt time.Time `json:"started_at"`
}

// StoredMessage is a turn as the server persisted it; Sender is "human" or "ai".
type StoredMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Backend is an HTTP client for the FinanceBot server.
type Backend struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewBackend(baseURL string, httpClient *http.Client) *Backend {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Backend{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetToken sets the bearer token sent with every request. "" clears it.
func (b *Backend) SetToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = token
}

func (b *Backend) bearer() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.token
}

func (b *Backend) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var res AuthResult
	err := b.doJSON(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (b *Backend) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	var res AuthResult
	err := b.doJSON(ctx, http.MethodPost, "/auth/register", map[string]string{"email": email, "password": password, "name": name}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (b *Backend) Logout(ctx context.Context) error {
	return b.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

type turnUserData struct {
	Id string `json:"id"`
}

type recordTurnRequest struct {
	SessionId string        `json:"sessionId"`
	Message   string        `json:"message"`
	Sender    string        `json:"sender"`
	UserData  *turnUserData `json:"userData,omitempty"`
}

// RecordTurn stores one turn. userID may be empty, in which case the
// server falls back to the bearer token.
func (b *Backend) RecordTurn(ctx context.Context, sessionID, message, sender, userID string) error {
	req := recordTurnRequest{SessionId: sessionID, Message: message, Sender: sender}
	if userID != "" {
		req.UserData = &turnUserData{Id: userID}
	}
	return b.doJSON(ctx, http.MethodPost, "/session-turn", req, nil)
}

func (b *Backend) ListSessions(ctx context.Context, userID string) ([]Session, error) {
	var res struct {
		Sessions []Session `json:"sessions"`
	}
	path := "/session-list?userId=" + url.QueryEscape(userID)
	if err := b.doJSON(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Sessions, nil
}

func (b *Backend) ListMessages(ctx context.Context, sessionID string) ([]StoredMessage, error) {
	var res struct {
		Sessions []StoredMessage `json:"sessions"`
	}
	path := "/session-messages?sessionId=" + url.QueryEscape(sessionID)
	if err := b.doJSON(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Sessions, nil
}

// Ask relays one question through the server's external advisor.
func (b *Backend) Ask(ctx context.Context, message string, history []llm.Message) (string, error) {
	var res struct {
		Reply string `json:"reply"`
	}
	req := map[string]interface{}{"message": message, "history": history}
	if err := b.doJSON(ctx, http.MethodPost, "/advice", req, &res); err != nil {
		return "", err
	}
	return res.Reply, nil
}

// ChatCompletion streams a FinanceBot completion, calling onChunk for every
// piece as it arrives, and returns the whole reply.
func (b *Backend) ChatCompletion(ctx context.Context, messages []llm.Message, onChunk func(string)) (string, error) {
	resp, err := b.send(ctx, http.MethodPost, "/chat-completion", map[string]interface{}{"messages": messages})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var (
		reply strings.Builder
		event string
	)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			event = ""
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return reply.String(), nil
			}
			if event == "error" {
				var e struct {
					Error string `json:"error"`
				}
				_ = json.Unmarshal([]byte(data), &e)
				return reply.String(), fmt.Errorf("completion failed: %s", e.Error)
			}
			var chunk struct {
				Content string `json:"content"`
			}
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				return reply.String(), fmt.Errorf("decode completion chunk: %w", err)
			}
			reply.WriteString(chunk.Content)
			if onChunk != nil {
				onChunk(chunk.Content)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return reply.String(), fmt.Errorf("read completion stream: %w", err)
	}
	return reply.String(), errors.New("completion stream ended without [DONE]")
}

func (b *Backend) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	resp, err := b.send(ctx, method, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// send returns the response only for 2xx statuses; the caller closes it.
func (b *Backend) send(ctx context.Context, method, path string, payload interface{}) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := b.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("financebot request failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body, resp.StatusCode)}
	}
	return resp, nil
}

func errorMessage(body []byte, status int) string {
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Message != "" {
			return env.Message
		}
	}
	return http.StatusText(status)
}
