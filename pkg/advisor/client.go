// Package advisor talks to the third-party financial advisory API: one
// message plus the prior transcript in, one reply out.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"financebot-be/pkg/llm"
)

type Client struct {
	URL    string
	Token  string
	Client *http.Client
}

func NewClient(url, token string, timeout time.Duration) *Client {
	return &Client{
		URL:   url,
		Token: token,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

type adviceRequest struct {
	Message string        `json:"message"`
	History []llm.Message `json:"history"`
}

// The upstream has answered under several field names over time.
type adviceResponse struct {
	Reply    string `json:"reply"`
	Response string `json:"response"`
	Message  string `json:"message"`
}

func (r adviceResponse) text() string {
	for _, s := range []string{r.Reply, r.Response, r.Message} {
		if s != "" {
			return s
		}
	}
	return ""
}

// StatusError is a non-2xx answer from the advisory API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("advisor error: status %d, body: %s", e.StatusCode, e.Body)
}

// Ask sends message with the role-tagged history and returns the advisor's reply.
func (c *Client) Ask(ctx context.Context, message string, history []llm.Message) (string, error) {
	if history == nil {
		history = []llm.Message{}
	}
	payloadBytes, err := json.Marshal(adviceRequest{Message: message, History: history})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("advisor request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
	}

	var out adviceResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	reply := out.text()
	if reply == "" {
		return "", fmt.Errorf("advisor returned an empty reply")
	}
	return reply, nil
}
