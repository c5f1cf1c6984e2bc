package core

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

type frame map[string]any

// sequentialIDs yields c1, c2, ... so scenarios read like the protocol docs.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("c%d", n)
	}
}

func newTestHub(t *testing.T, opts ...Option) *Hub {
	t.Helper()
	return NewHub(append([]Option{WithIDGenerator(sequentialIDs())}, opts...)...)
}

func connect(t *testing.T, h *Hub) *Session {
	t.Helper()
	s, err := h.Connect()
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func join(t *testing.T, h *Hub, room, name string) *Session {
	t.Helper()
	s := connect(t, h)
	s.Handle([]byte(fmt.Sprintf(`{"type":"join","room":%q,"name":%q}`, room, name)))
	drain(s.Peer())
	return s
}

func mustFrame(t *testing.T, p *Peer, typ string) frame {
	t.Helper()

	select {
	case raw, ok := <-p.Events():
		if !ok {
			t.Fatalf("peer %s closed while waiting for %s", p.ID, typ)
		}
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			t.Fatalf("decode frame %s: %v", raw, err)
		}
		if f["type"] != typ {
			t.Fatalf("expected %s frame, got %s", typ, raw)
		}
		return f
	case <-time.After(2 * time.Second):
		t.Fatalf("expected %s frame not received by %s", typ, p.ID)
	}
	return nil
}

func expectNoFrame(t *testing.T, p *Peer) {
	t.Helper()

	select {
	case raw, ok := <-p.Events():
		if ok {
			t.Fatalf("unexpected frame for %s: %s", p.ID, raw)
		}
	default:
	}
}

func drain(p *Peer) {
	for {
		select {
		case _, ok := <-p.Events():
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func hasRoom(r *Registry, id string) bool {
	_, ok := r.Room(id)
	return ok
}
