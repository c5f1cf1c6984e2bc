package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/party-relay/internal/config"
	"github.com/vovakirdan/party-relay/internal/core"
	"github.com/vovakirdan/party-relay/internal/metrics"
)

type testServer struct {
	*httptest.Server
	hub      *core.Hub
	registry *prometheus.Registry
	stopHub  context.CancelFunc
}

func startTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := config.Default()
	for _, m := range mutate {
		m(&cfg)
	}

	disabledLogger := zerolog.Nop()
	reg := prometheus.NewRegistry()
	hub := core.NewHub(
		core.WithLogger(&disabledLogger),
		core.WithMetrics(metrics.New(reg)),
		core.WithSendQueueSize(cfg.SendQueueSize),
	)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	ts := httptest.NewServer(NewServer(hub, reg, &cfg, &disabledLogger).Handler)
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})

	return &testServer{Server: ts, hub: hub, registry: reg, stopHub: cancel}
}

func (ts *testServer) dial(t *testing.T, ctx context.Context, path string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + path
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func readType(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()

	var frame map[string]any
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		t.Fatalf("read %s: %v", typ, err)
	}
	if frame["type"] != typ {
		t.Fatalf("expected %s, got %+v", typ, frame)
	}
	return frame
}

// joinRoom joins and returns the assigned id after consuming welcome and room_state.
func joinRoom(t *testing.T, ctx context.Context, conn *websocket.Conn, room, name string) (string, map[string]any) {
	t.Helper()

	if err := wsjson.Write(ctx, conn, map[string]any{"type": "join", "room": room, "name": name}); err != nil {
		t.Fatalf("send join: %v", err)
	}
	welcome := readType(t, ctx, conn, "welcome")
	state := readType(t, ctx, conn, "room_state")
	id, _ := welcome["id"].(string)
	if id == "" {
		t.Fatalf("welcome without id: %+v", welcome)
	}
	return id, state
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketRoutesGreetJoiner(t *testing.T) {
	ts := startTestServer(t)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	for _, path := range []string{"/", "/ws"} {
		conn := ts.dial(t, ctx, path)
		if err := wsjson.Write(ctx, conn, map[string]any{"type": "join", "room": "routes"}); err != nil {
			t.Fatalf("send join on %s: %v", path, err)
		}
		welcome := readType(t, ctx, conn, "welcome")
		if id, _ := welcome["id"].(string); len(id) != 10 {
			t.Fatalf("unexpected welcome on %s: %+v", path, welcome)
		}
		readType(t, ctx, conn, "room_state")
	}
}

func TestPlainGetOnWebSocketPath(t *testing.T) {
	ts := startTestServer(t)

	for _, path := range []string{"/", "/ws"} {
		resp, err := ts.Client().Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUpgradeRequired {
			t.Fatalf("GET %s: expected 426, got %d", path, resp.StatusCode)
		}
	}

	families, err := ts.registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "partyrelay_connections_active" {
			continue
		}
		if v := mf.GetMetric()[0].GetGauge().GetValue(); v != 0 {
			t.Fatalf("plain requests opened %v connections", v)
		}
	}
}

func TestWebSocketJoinRelayAndHandoff(t *testing.T) {
	ts := startTestServer(t)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connX := ts.dial(t, ctx, "/")
	connY := ts.dial(t, ctx, "/ws")

	xID, state := joinRoom(t, ctx, connX, "r1", "")
	if state["hostId"] != xID {
		t.Fatalf("first joiner should be host: %+v", state)
	}
	peers, _ := state["peers"].([]any)
	if len(peers) != 1 {
		t.Fatalf("expected one peer, got %+v", state)
	}
	if p := peers[0].(map[string]any); p["id"] != xID || p["name"] != "Player" {
		t.Fatalf("unexpected self entry: %+v", p)
	}

	yID, state := joinRoom(t, ctx, connY, "r1", "Yuri")
	if state["hostId"] != xID {
		t.Fatalf("host should still be %s: %+v", xID, state)
	}
	if peers, _ := state["peers"].([]any); len(peers) != 2 {
		t.Fatalf("expected two peers, got %+v", state)
	}

	pj := readType(t, ctx, connX, "peer_join")
	if pj["id"] != yID || pj["name"] != "Yuri" {
		t.Fatalf("unexpected peer_join: %+v", pj)
	}

	// Garbage is dropped without closing the connection.
	if err := connX.Write(ctx, websocket.MessageText, []byte("not json")); err != nil {
		t.Fatalf("send garbage: %v", err)
	}
	if err := wsjson.Write(ctx, connX, map[string]any{"type": "input", "dx": 1}); err != nil {
		t.Fatalf("send input: %v", err)
	}
	in := readType(t, ctx, connY, "input")
	if in["dx"] != float64(1) || in["from"] != xID {
		t.Fatalf("unexpected relayed input: %+v", in)
	}

	connX.Close(websocket.StatusNormalClosure, "bye")

	hc := readType(t, ctx, connY, "host_changed")
	if hc["hostId"] != yID {
		t.Fatalf("unexpected host_changed: %+v", hc)
	}
	pl := readType(t, ctx, connY, "peer_leave")
	if pl["id"] != xID {
		t.Fatalf("unexpected peer_leave: %+v", pl)
	}

	if host, ok := ts.hub.Registry().CurrentHost("r1"); !ok || host != yID {
		t.Fatalf("registry host = %q, %v; want %s", host, ok, yID)
	}
}

func TestWebSocketOversizedFrameDisconnects(t *testing.T) {
	ts := startTestServer(t, func(c *config.Config) { c.MaxMessageBytes = 64 })

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connX := ts.dial(t, ctx, "/")
	connY := ts.dial(t, ctx, "/")
	xID, _ := joinRoom(t, ctx, connX, "r1", "")
	joinRoom(t, ctx, connY, "r1", "")
	readType(t, ctx, connX, "peer_join")

	big := `{"type":"snapshot","blob":"` + strings.Repeat("x", 256) + `"}`
	if err := connX.Write(ctx, websocket.MessageText, []byte(big)); err != nil {
		t.Fatalf("send big frame: %v", err)
	}

	readType(t, ctx, connY, "host_changed")
	pl := readType(t, ctx, connY, "peer_leave")
	if pl["id"] != xID {
		t.Fatalf("unexpected peer_leave: %+v", pl)
	}

	var frame map[string]any
	err := wsjson.Read(ctx, connX, &frame)
	if websocket.CloseStatus(err) != websocket.StatusMessageTooBig {
		t.Fatalf("expected message too big close, got %v", err)
	}
}

func TestWebSocketShutdownGoesAway(t *testing.T) {
	ts := startTestServer(t)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := ts.dial(t, ctx, "/")
	joinRoom(t, ctx, conn, "r1", "")

	ts.stopHub()

	var frame map[string]any
	err := wsjson.Read(ctx, conn, &frame)
	if websocket.CloseStatus(err) != websocket.StatusGoingAway {
		t.Fatalf("expected going away close, got %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := ts.hub.Room("r1"); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("room r1 still registered after shutdown")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
