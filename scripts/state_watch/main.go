package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/callstate/internal/proto"
	"github.com/vovakirdan/callstate/internal/state"
)

func main() {
	if err := run(); err != nil {
		log.Printf("state_watch: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	count := flag.Int("count", 5, "number of snapshots to print before exiting (0 = forever)")
	render := flag.String("render", "", "call id whose first remote stream to start rendering")
	timeout := flag.Duration("timeout", 30*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := send(ctx, conn, proto.InboundTypeHello, proto.HelloData{Client: "state_watch", Protocol: proto.ProtocolVersion}); err != nil {
		return err
	}

	rendered := *render == ""
	for seen := 0; *count == 0 || seen < *count; {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		switch outbound.Type {
		case proto.OutboundTypeWelcome:
			fmt.Printf("Welcome: %v\n", outbound.Data)
		case proto.OutboundTypeError:
			if outbound.Error != nil {
				fmt.Printf("Error: code=%s msg=%s\n", outbound.Error.Code, outbound.Error.Msg)
			}
		case proto.OutboundTypeSnapshot:
			snap, err := proto.DecodeSnapshot(outbound)
			if err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}
			printSnapshot(snap)
			seen++

			if !rendered {
				if id, ok := firstStream(snap.State, *render); ok {
					if err := send(ctx, conn, proto.InboundTypeStartRender, proto.RenderData{CallID: *render, StreamID: &id}); err != nil {
						return err
					}
					rendered = true
				}
			}
		}
	}
	return nil
}

func send(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

func printSnapshot(snap proto.Snapshot) {
	st := snap.State
	fmt.Printf("Snapshot #%d ts=%d user=%s calls=%d ended=%d incoming=%d\n",
		snap.Seq, snap.TS, st.UserID.RawID(), len(st.Calls), len(st.CallsEnded), len(st.IncomingCalls))

	ids := make([]string, 0, len(st.Calls))
	for id := range st.Calls {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		call := st.Calls[id]
		views := 0
		for _, p := range call.RemoteParticipants {
			for _, s := range p.VideoStreams {
				if s.View != nil {
					views++
				}
			}
		}
		fmt.Printf("  call %s state=%s muted=%t participants=%d rendered=%d\n",
			id, call.State, call.IsMuted, len(call.RemoteParticipants), views)
	}
}

func firstStream(st state.State, callID string) (int, bool) {
	call, ok := st.Calls[callID]
	if !ok {
		return 0, false
	}
	best, found := 0, false
	for _, p := range call.RemoteParticipants {
		for id := range p.VideoStreams {
			if !found || id < best {
				best, found = id, true
			}
		}
	}
	return best, found
}
