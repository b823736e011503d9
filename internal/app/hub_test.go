package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gaze_selector/internal/ui"
)

// waitUntil polls cond until it holds or the timeout expires.
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

// testClient has no connection; the hub tolerates a nil conn.
func testClient(h *Hub, buf int) *wsClient {
	return &wsClient{id: uuid.New(), hub: h, send: make(chan []byte, buf), remoteAddr: "test"}
}

func runHub(t *testing.T, h *Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestHub_PublishReachesAllClients(t *testing.T) {
	h := NewHub(nil)
	runHub(t, h)

	c1, c2 := testClient(h, 4), testClient(h, 4)
	h.register <- c1
	h.register <- c2
	waitUntil(t, time.Second, func() bool { return h.Clients() == 2 }, "clients not registered")

	ev := ui.Event{ID: uuid.New(), Type: ui.EventFocus, ItemID: "yes", Time: time.Now().UTC()}
	h.Publish(ev)

	for _, c := range []*wsClient{c1, c2} {
		select {
		case msg := <-c.send:
			var env struct {
				Type string   `json:"type"`
				Data ui.Event `json:"data"`
			}
			require.NoError(t, json.Unmarshal(msg, &env))
			assert.Equal(t, "focus", env.Type)
			assert.Equal(t, "yes", env.Data.ItemID)
			assert.Equal(t, ev.ID, env.Data.ID)
		case <-time.After(time.Second):
			t.Fatal("client did not receive the event")
		}
	}
}

func TestHub_SlowClientDisconnected(t *testing.T) {
	h := NewHub(nil)
	runHub(t, h)

	slow := testClient(h, 1)
	h.register <- slow
	waitUntil(t, time.Second, func() bool { return h.Clients() == 1 }, "client not registered")

	h.Publish(ui.Event{Type: ui.EventFocus})
	h.Publish(ui.Event{Type: ui.EventDeselectAll})

	waitUntil(t, time.Second, func() bool { return h.Clients() == 0 }, "slow client still connected")

	// the send channel is closed once drained
	<-slow.send
	_, open := <-slow.send
	assert.False(t, open)
}

func TestHub_UnregisterTwice(t *testing.T) {
	h := NewHub(nil)
	runHub(t, h)

	c := testClient(h, 1)
	h.register <- c
	waitUntil(t, time.Second, func() bool { return h.Clients() == 1 }, "client not registered")

	h.unregister <- c
	h.unregister <- c
	waitUntil(t, time.Second, func() bool { return h.Clients() == 0 }, "client not removed")
}

func TestHub_LeaveAfterStopDoesNotBlock(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		h.Run(ctx)
	}()
	cancel()
	<-stopped

	left := make(chan struct{})
	go func() {
		defer close(left)
		// more than the unregister buffer holds
		for i := 0; i < 2*cap(h.unregister); i++ {
			h.leave(testClient(h, 1))
		}
		assert.False(t, h.join(testClient(h, 1)))
	}()

	select {
	case <-left:
	case <-time.After(2 * time.Second):
		t.Fatal("leave blocked after the hub stopped")
	}
}
