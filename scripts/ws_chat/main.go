package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/party-relay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8765", "WebSocket address")
	name := flag.String("name", "cli", "display name")
	room := flag.String("room", "party", "room to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := wsjson.Write(ctx, conn, map[string]any{"type": proto.TypeJoin, "room": *room, "name": *name}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Printf("Connected to %s as %s in room %s\n", *addr, *name, *room)
	fmt.Println("Type a line to send it as input, /snap <text> to send a snapshot. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		msg, err := proto.Decode(data)
		if err != nil {
			log.Printf("bad frame: %v", err)
			continue
		}

		switch msg.Type {
		case proto.TypeWelcome:
			var evt proto.Welcome
			if json.Unmarshal(data, &evt) == nil {
				fmt.Printf("* you are %s\n", evt.ID)
			}
		case proto.TypeRoomState:
			var evt proto.RoomState
			if json.Unmarshal(data, &evt) == nil {
				names := make([]string, 0, len(evt.Peers))
				for _, p := range evt.Peers {
					names = append(names, p.Name+"("+p.ID+")")
				}
				fmt.Printf("* host %s, peers: %s\n", evt.HostID, strings.Join(names, ", "))
			}
		case proto.TypePeerJoin:
			var evt proto.PeerJoin
			if json.Unmarshal(data, &evt) == nil {
				fmt.Printf("* %s (%s) joined\n", evt.Name, evt.ID)
			}
		case proto.TypePeerLeave:
			var evt proto.PeerLeave
			if json.Unmarshal(data, &evt) == nil {
				fmt.Printf("* %s left\n", evt.ID)
			}
		case proto.TypeHostChanged:
			var evt proto.HostChanged
			if json.Unmarshal(data, &evt) == nil {
				fmt.Printf("* host is now %s\n", evt.HostID)
			}
		default:
			fmt.Printf("[%s from %v] %s\n", msg.Type, msg.Fields[proto.FieldFrom], data)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			frame := map[string]any{"type": proto.TypeInput, "text": text}
			if rest, ok := strings.CutPrefix(text, "/snap "); ok {
				frame = map[string]any{"type": proto.TypeSnapshot, "state": rest}
			}
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
