package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"academic-auth-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func attach(t *testing.T, h *Hub, userID uuid.UUID) *Client {
	t.Helper()
	c := &Client{Hub: h, UserID: userID, Send: make(chan []byte, 4)}
	h.register <- c
	require.Eventually(t, func() bool { return h.Connected(userID) }, time.Second, time.Millisecond)
	return c
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case raw := <-c.Send:
		var m Message
		require.NoError(t, json.Unmarshal(raw, &m))
		return m
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return Message{}
	}
}

func TestSendReachesEveryDeviceOfTheUser(t *testing.T) {
	h := startHub(t)
	user := uuid.New()
	other := uuid.New()
	a := attach(t, h, user)
	b := attach(t, h, user)
	o := attach(t, h, other)

	h.Send(user, "submission_progress", map[string]int{"upload": 40})

	for _, c := range []*Client{a, b} {
		m := receive(t, c)
		assert.Equal(t, "submission_progress", m.Type)
	}
	assert.Empty(t, o.Send)
}

func TestBroadcastReachesEveryone(t *testing.T) {
	h := startHub(t)
	a := attach(t, h, uuid.New())
	b := attach(t, h, uuid.New())

	h.Broadcast("notification", map[string]string{"title": "Maintenance"})

	assert.Equal(t, "notification", receive(t, a).Type)
	assert.Equal(t, "notification", receive(t, b).Type)
}

func TestFullBufferDropsClient(t *testing.T) {
	h := startHub(t)
	user := uuid.New()
	c := &Client{Hub: h, UserID: user, Send: make(chan []byte)}
	h.register <- c
	require.Eventually(t, func() bool { return h.Connected(user) }, time.Second, time.Millisecond)

	h.Send(user, "notification", nil)

	assert.Eventually(t, func() bool { return !h.Connected(user) }, time.Second, time.Millisecond)
}

func TestRelaySkipsUnknownTargets(t *testing.T) {
	h := startHub(t)
	a := attach(t, h, uuid.New())

	h.relay(clusterEnvelope{TargetUserID: "not-a-uuid", Message: json.RawMessage(`{"type":"x"}`)})
	h.relay(clusterEnvelope{TargetUserID: broadcastTarget, Message: json.RawMessage(`{"type":"x"}`)})

	assert.Equal(t, "x", receive(t, a).Type)
}
