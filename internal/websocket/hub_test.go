package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"financebot-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub(nil, "test", logger.NewNopLogger())
	go h.Run(ctx)
	return h
}

func TestHubSend(t *testing.T) {
	h := runHub(t)

	a := &Client{Hub: h, UserID: "user-a", Send: make(chan []byte, 4)}
	b := &Client{Hub: h, UserID: "user-b", Send: make(chan []byte, 4)}
	h.register <- a
	h.register <- b
	require.Eventually(t, func() bool { return h.Connections("user-a") == 1 && h.Connections("user-b") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, h.Send(context.Background(), "user-a", "turn", map[string]string{"session_id": "s1"}))

	select {
	case frame := <-a.Send:
		var got struct {
			Type string            `json:"type"`
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(frame, &got))
		assert.Equal(t, "turn", got.Type)
		assert.Equal(t, "s1", got.Data["session_id"])
	case <-time.After(time.Second):
		t.Fatal("frame not delivered")
	}
	assert.Len(t, b.Send, 0, "other users receive nothing")
}

func TestHubUnregister(t *testing.T) {
	h := runHub(t)

	c := &Client{Hub: h, UserID: "user-a", Send: make(chan []byte, 1)}
	h.register <- c
	h.unregister <- c
	require.Eventually(t, func() bool { return h.Connections("user-a") == 0 }, time.Second, 10*time.Millisecond)

	_, open := <-c.Send
	assert.False(t, open)

	// A second unregister of the same client is harmless.
	h.unregister <- c
	assert.NoError(t, h.Send(context.Background(), "user-a", "turn", nil))
}

func TestHubDropsSlowClient(t *testing.T) {
	h := runHub(t)

	c := &Client{Hub: h, UserID: "slow", Send: make(chan []byte)}
	h.register <- c
	require.Eventually(t, func() bool { return h.Connections("slow") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, h.Send(context.Background(), "slow", "turn", nil))
	require.Eventually(t, func() bool { return h.Connections("slow") == 0 }, time.Second, 10*time.Millisecond)
}
