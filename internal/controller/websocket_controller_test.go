package controller

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/service"
	"github.com/benbeisheim/chessrules-backend/internal/ws"
)

func startServer(t *testing.T, opts ...service.Option) (string, *service.GameService) {
	t.Helper()
	app, gs := newTestApp(t, opts...)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.ShutdownWithTimeout(time.Second) })
	return ln.Addr().String(), gs
}

func dial(t *testing.T, ctx context.Context, url, playerID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"X-Player-ID": []string{playerID}},
	})
	if err != nil {
		t.Fatalf("dial %s as %s: %v", url, playerID, err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ ws.MessageType, payload string) {
	t.Helper()
	if err := wsjson.Write(ctx, conn, ws.Message{Type: typ, Payload: json.RawMessage(payload)}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func receive(t *testing.T, ctx context.Context, conn *websocket.Conn, want ws.MessageType, v interface{}) {
	t.Helper()
	var msg ws.Message
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != want {
		t.Fatalf("message type = %s (%s), want %s", msg.Type, msg.Payload, want)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		t.Fatalf("decode %s: %v", msg.Payload, err)
	}
}

func TestGameSocket(t *testing.T) {
	addr, gs := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := gs.CreateGame(ctx, model.CreateGameRequest{})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	for _, p := range []string{"alice", "bob"} {
		if _, err := gs.JoinGame(ctx, id, p); err != nil {
			t.Fatalf("JoinGame(%s): %v", p, err)
		}
	}

	url := "ws://" + addr + "/ws/game/" + id
	conn := dial(t, ctx, url, "alice")

	var state model.GameState
	receive(t, ctx, conn, ws.MessageTypeGameState, &state)
	if state.ID != id || state.MoveCount != 0 {
		t.Fatalf("initial state = %+v", state)
	}

	send(t, ctx, conn, ws.MessageTypeMove, `{"from":"e2","to":"e4"}`)
	receive(t, ctx, conn, ws.MessageTypeGameState, &state)
	if state.LastMove == nil || state.LastMove.Notation != "e4" || state.ToMove != model.Black {
		t.Fatalf("state after e4 = %+v", state)
	}

	send(t, ctx, conn, ws.MessageTypeLegalMoves, `{"from":"g8"}`)
	var legal ws.LegalMovesResponse
	receive(t, ctx, conn, ws.MessageTypeLegalMoves, &legal)
	if legal.From != "g8" || strings.Join(legal.Moves, ",") != "f6,h6" {
		t.Fatalf("legal moves = %+v", legal)
	}

	var e ws.ErrorPayload
	send(t, ctx, conn, ws.MessageTypeMove, `{"from":"d2","to":"d4"}`)
	receive(t, ctx, conn, ws.MessageTypeError, &e)
	if e.Code != CodeNotYourTurn {
		t.Fatalf("error = %+v", e)
	}

	send(t, ctx, conn, ws.MessageTypeMove, `{"from":"d2"}`)
	receive(t, ctx, conn, ws.MessageTypeError, &e)
	if e.Code != CodeInvalidRequest {
		t.Fatalf("error = %+v", e)
	}

	send(t, ctx, conn, "resign", `{}`)
	receive(t, ctx, conn, ws.MessageTypeError, &e)
	if e.Code != CodeInvalidRequest || !strings.Contains(e.Error, "unknown message type") {
		t.Fatalf("error = %+v", e)
	}

	// a second socket for the same player is turned away
	dup := dial(t, ctx, url, "alice")
	receive(t, ctx, dup, ws.MessageTypeError, &e)
	if e.Code != CodeAlreadyConnected {
		t.Fatalf("duplicate error = %+v", e)
	}
}

func TestGameSocketUnknownGame(t *testing.T) {
	addr, _ := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, "ws://"+addr+"/ws/game/missing", &websocket.DialOptions{
		HTTPHeader: http.Header{"X-Player-ID": []string{"alice"}},
	})
	if err == nil {
		t.Fatalf("dial succeeded for unknown game")
	}
	if resp == nil || resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("response = %+v", resp)
	}
}

func TestMatchmakingSocket(t *testing.T) {
	addr, gs := startServer(t, service.WithMatchInterval(10*time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws://" + addr + "/ws/matchmaking"
	first := dial(t, ctx, url, "a")
	second := dial(t, ctx, url, "b")

	var evA, evB model.MatchFoundEvent
	receive(t, ctx, first, ws.MessageTypeMatchFound, &evA)
	receive(t, ctx, second, ws.MessageTypeMatchFound, &evB)
	if evA.GameID == "" || evA.GameID != evB.GameID || evA.Color == evB.Color {
		t.Fatalf("events = %+v %+v", evA, evB)
	}

	state, err := gs.GetGameState(ctx, evA.GameID)
	if err != nil {
		t.Fatalf("GetGameState: %v", err)
	}
	if !state.Players.Full() {
		t.Fatalf("players = %+v", state.Players)
	}
}
