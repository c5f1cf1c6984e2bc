package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/party-relay/internal/config"
)

func startApp(t *testing.T, mutate func(*config.Config)) (string, context.CancelFunc, <-chan error) {
	t.Helper()

	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.ShutdownTimeout = 2 * time.Second
	if mutate != nil {
		mutate(&cfg)
	}

	logger := zerolog.Nop()
	application, err := New(&cfg, &logger)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Serve(ctx, listener) }()
	t.Cleanup(cancel)

	return listener.Addr().String(), cancel, done
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.SendQueueSize = 0
	logger := zerolog.Nop()

	_, err := New(&cfg, &logger)
	assert.ErrorIs(t, err, config.ErrInvalidSendQueueSize)
}

func TestServeExposesMetricsAndShutsDown(t *testing.T) {
	addr, cancel, done := startApp(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn, _, err := websocket.Dial(ctx, "ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, wsjson.Write(ctx, conn, map[string]any{"type": "join", "room": "lan"}))
	var welcome map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &welcome))
	assert.Equal(t, "welcome", welcome["type"])

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "partyrelay_rooms_active 1"))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	// Drain room_state, then expect the going-away close.
	var frame map[string]any
	for {
		if err = wsjson.Read(ctx, conn, &frame); err != nil {
			break
		}
	}
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}

func TestMetricsDisabled(t *testing.T) {
	addr, _, _ := startApp(t, func(c *config.Config) { c.MetricsEnabled = false })

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLANAddrsSkipsLoopback(t *testing.T) {
	for _, ip := range lanAddrs() {
		parsed := net.ParseIP(ip)
		require.NotNil(t, parsed)
		assert.False(t, parsed.IsLoopback())
		assert.NotNil(t, parsed.To4())
	}
}
