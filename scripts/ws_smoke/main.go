package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/party-relay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8765", "WebSocket address")
	name := flag.String("name", "smoke", "display name")
	room := flag.String("room", "smoke", "room to join")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := wsjson.Write(ctx, conn, map[string]any{"type": proto.TypeJoin, "room": *room, "name": *name}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, map[string]any{"type": proto.TypeInput, "seq": 1, "keys": []string{"up"}}); err != nil {
		return fmt.Errorf("send input: %w", err)
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				fmt.Println("timeout reached, done")
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		msg, err := proto.Decode(data)
		if err != nil {
			fmt.Printf("undecodable frame: %s\n", data)
			continue
		}
		fmt.Printf("Received: type=%s frame=%s\n", msg.Type, data)
	}
}
