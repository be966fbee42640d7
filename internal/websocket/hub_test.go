package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return Event{}
}

func TestHub_SendToUserReachesEverySession(t *testing.T) {
	h := startHub(t)
	phone := NewClient(h, nil, 7)
	laptop := NewClient(h, nil, 7)
	h.Register(phone)
	h.Register(laptop)
	require.Eventually(t, func() bool { return h.SessionCount(7) == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.SendToUser(7, Event{Type: "notification", Data: map[string]string{"title": "清掃完了"}}))

	assert.Equal(t, "notification", receive(t, phone).Type)
	assert.Equal(t, "notification", receive(t, laptop).Type)
}

func TestHub_SendToOfflineUserIsNoop(t *testing.T) {
	h := startHub(t)
	assert.False(t, h.IsUserOnline(99))
	assert.NoError(t, h.SendToUser(99, Event{Type: "notification"}))
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := startHub(t)
	c := NewClient(h, nil, 3)
	h.Register(c)
	require.Eventually(t, func() bool { return h.IsUserOnline(3) }, time.Second, 5*time.Millisecond)

	h.Unregister(c)
	require.Eventually(t, func() bool { return !h.IsUserOnline(3) }, time.Second, 5*time.Millisecond)

	_, ok := <-c.Send
	assert.False(t, ok)
}

func TestHub_PingGetsPong(t *testing.T) {
	h := NewHub()
	c := NewClient(h, nil, 1)

	h.HandleClientMessage(c, []byte(`{"type":"ping"}`))
	assert.Equal(t, "pong", receive(t, c).Type)
}

func TestHub_RateLimitDropsExcessMessages(t *testing.T) {
	h := NewHub()
	c := NewClient(h, nil, 1)

	for i := 0; i < maxMessagesPerSecond+5; i++ {
		h.HandleClientMessage(c, []byte(`{"type":"ping"}`))
	}
	assert.Equal(t, maxMessagesPerSecond, len(c.Send))
}
