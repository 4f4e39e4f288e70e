package hub

import (
	"encoding/json"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestBroadcastReachesClients(t *testing.T) {
	h := New("test")
	go h.Run()
	defer h.Stop()

	c := &Client{hub: h, send: make(chan Message, 64)}
	h.register <- c
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	if err := h.BroadcastJSON(map[string]int{"n": 7}); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}

	select {
	case msg := <-c.send:
		var decoded map[string]int
		if err := json.Unmarshal(msg.Data, &decoded); err != nil || decoded["n"] != 7 {
			t.Errorf("got %s, %v", msg.Data, err)
		}
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestSlowClientDropped(t *testing.T) {
	h := New("test")
	go h.Run()
	defer h.Stop()

	// A client with no buffer at all never keeps up.
	slow := &Client{hub: h, send: make(chan Message)}
	h.register <- slow
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	h.BroadcastJSON("x")
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestUnregister(t *testing.T) {
	h := New("test")
	go h.Run()
	defer h.Stop()

	c := &Client{hub: h, send: make(chan Message, 1)}
	h.register <- c
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	h.unregister <- c
	waitFor(t, func() bool { return h.ClientCount() == 0 })

	if _, open := <-c.send; open {
		t.Error("send channel should be closed on unregister")
	}
}

func TestNewClientAfterStopDoesNotBlock(t *testing.T) {
	h := New("test")
	go h.Run()
	waitFor(t, func() bool { return h.IsRunning() })

	h.Stop()
	waitFor(t, func() bool { return !h.IsRunning() })

	// A connection upgrade racing shutdown must not hang its handler.
	done := make(chan *Client, 1)
	go func() { done <- NewClient(h, nil) }()

	select {
	case c := <-done:
		if c != nil {
			t.Error("client registered on a stopped hub")
		}
	case <-time.After(time.Second):
		t.Fatal("NewClient blocked on a stopped hub")
	}
}
