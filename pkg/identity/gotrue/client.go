// Package gotrue talks to a Supabase GoTrue auth server over its REST API.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"financebot-be/pkg/identity"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ identity.Provider = &Client{}

func NewClient(projectURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(projectURL, "/") + "/auth/v1",
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type signUpRequest struct {
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Data     map[string]string `json:"data,omitempty"`
}

type passwordGrantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionEnvelope picks the fields we need while the raw body is relayed as-is.
type sessionEnvelope struct {
	AccessToken string          `json:"access_token"`
	User        json.RawMessage `json:"user"`
}

type userEnvelope struct {
	Id    string `json:"id"`
	Email string `json:"email"`
}

// errorEnvelope covers the error shapes GoTrue has used across versions.
type errorEnvelope struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
}

func (c *Client) SignUp(ctx context.Context, creds identity.Credentials) (*identity.AuthResult, error) {
	req := signUpRequest{Email: creds.Email, Password: creds.Password}
	if creds.Name != "" {
		req.Data = map[string]string{"name": creds.Name}
	}

	body, err := c.do(ctx, http.MethodPost, "/signup", "", req)
	if err != nil {
		return nil, err
	}

	// With email confirmation enabled GoTrue answers with the bare user.
	var env sessionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode signup response: %w", err)
	}
	if env.AccessToken == "" {
		return resultFrom(body, identity.NullJSON)
	}
	return resultFrom(env.User, body)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*identity.AuthResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", passwordGrantRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var env sessionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return resultFrom(env.User, body)
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, http.MethodPost, "/logout", accessToken, nil)
	return err
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/user", accessToken, nil)
	if err != nil {
		return "", err
	}
	var u userEnvelope
	if err := json.Unmarshal(body, &u); err != nil {
		return "", fmt.Errorf("decode user response: %w", err)
	}
	if u.Id == "" {
		return "", &identity.ProviderError{StatusCode: http.StatusUnauthorized, Message: "user not found"}
	}
	return u.Id, nil
}

func resultFrom(user, session json.RawMessage) (*identity.AuthResult, error) {
	var u userEnvelope
	if len(user) > 0 {
		if err := json.Unmarshal(user, &u); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
	}
	return &identity.AuthResult{
		User:    user,
		Session: session,
		UserID:  u.Id,
		Email:   u.Email,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, payload interface{}) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gotrue request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return nil, &identity.ProviderError{StatusCode: resp.StatusCode, Message: errorMessage(body, resp.StatusCode)}
	}
	return body, nil
}

func errorMessage(body []byte, status int) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		for _, m := range []string{env.Msg, env.Message, env.ErrorDescription, env.Error} {
			if m != "" {
				return m
			}
		}
	}
	return fmt.Sprintf("identity provider returned status %d", status)
}
