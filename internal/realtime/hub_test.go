package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientsCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(context.Background(), Event{Type: EventWaiterCalled, ComandaID: 7, TableNumber: 3})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var got Event
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != EventWaiterCalled || got.ComandaID != 7 || got.TableNumber != 3 {
		t.Fatalf("unexpected event %+v", got)
	}
	if got.At.IsZero() {
		t.Fatal("event was not timestamped")
	}
}

func TestHubDropsEventsAfterStop(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	for i := 0; i < 2*cap(hub.broadcast); i++ {
		hub.Publish(context.Background(), Event{Type: EventComandaStatus, ComandaID: uint(i)})
	}
	if n := len(hub.broadcast); n != 0 {
		t.Fatalf("%d events queued on a stopped hub", n)
	}
}

type recorder struct{ events []Event }

func (r *recorder) Publish(_ context.Context, e Event) { r.events = append(r.events, e) }

func TestMultiSkipsNil(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	p := Multi(a, nil, b)
	p.Publish(context.Background(), Event{Type: EventComandaOpened})

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("fan-out failed: %d %d", len(a.events), len(b.events))
	}
	if Multi() != Nop {
		t.Fatal("empty Multi should be Nop")
	}
}
