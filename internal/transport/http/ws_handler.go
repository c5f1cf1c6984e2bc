package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/party-relay/internal/core"
)

var errServerClosing = errors.New("server shutting down")

// WSHandler upgrades HTTP connections and bridges them to a core.Session.
type WSHandler struct {
	hub             *core.Hub
	maxMessageBytes int64
	log             *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, maxMessageBytes int64, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, maxMessageBytes: maxMessageBytes, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if !isWebSocketUpgrade(r) {
		w.Header().Set("Upgrade", "websocket")
		stdhttp.Error(w, "websocket upgrade required", stdhttp.StatusUpgradeRequired)
		h.log.Debug().Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("plain http request on ws endpoint")
		return
	}

	session, err := h.hub.Connect()
	if err != nil {
		stdhttp.Error(w, err.Error(), stdhttp.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		session.Close()
		h.log.Warn().Err(err).Str("client_id", session.ID()).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	// Cleanup runs once the connection can no longer deliver frames.
	session.Close()

	status := websocket.StatusNormalClosure
	reason := "closing"
	switch {
	case errors.Is(err, errServerClosing):
		status = websocket.StatusGoingAway
		reason = errServerClosing.Error()
	case err != nil && !errors.Is(err, context.Canceled):
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", session.ID()).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, truncateReason(reason))
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	for {
		// Binary frames are decoded the same way as text frames.
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.log.Debug().Err(err).Str("client_id", session.ID()).Msg("read ws frame")
			return err
		}
		session.Handle(data)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	events := session.Peer().Events()
	for {
		select {
		case frame, ok := <-events:
			if !ok {
				return errServerClosing
			}
			if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
				h.log.Debug().Err(err).Str("client_id", session.ID()).Msg("write ws frame")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func isWebSocketUpgrade(r *stdhttp.Request) bool {
	return headerHasToken(r.Header, "Connection", "upgrade") &&
		headerHasToken(r.Header, "Upgrade", "websocket")
}

func headerHasToken(h stdhttp.Header, key, token string) bool {
	for _, v := range h.Values(key) {
		for _, t := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(t), token) {
				return true
			}
		}
	}
	return false
}

// Close reasons must fit in a control frame.
func truncateReason(reason string) string {
	const limit = 120
	if len(reason) > limit {
		return reason[:limit]
	}
	return reason
}
