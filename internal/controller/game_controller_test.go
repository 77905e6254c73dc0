package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/service"
)

func newTestApp(t *testing.T, opts ...service.Option) (*fiber.App, *service.GameService) {
	t.Helper()
	gm := service.NewGameManager(opts...)
	t.Cleanup(gm.Close)
	gs := service.NewGameService(gm)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	Register(app, gs, RouteConfig{AllowedOrigins: []string{"*"}})
	return app, gs
}

type response struct {
	status      int
	contentType string
	body        []byte
}

func (r response) decode(t *testing.T, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.body, v); err != nil {
		t.Fatalf("decode %s: %v", r.body, err)
	}
}

func (r response) errorCode(t *testing.T) string {
	t.Helper()
	var e ErrorResponse
	r.decode(t, &e)
	return e.Code
}

func do(t *testing.T, app *fiber.App, method, target, playerID, body string) response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if playerID != "" {
		req.Header.Set("X-Player-ID", playerID)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return response{status: resp.StatusCode, contentType: resp.Header.Get("Content-Type"), body: data}
}

func createSeatedGame(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp := do(t, app, http.MethodPost, "/api/game/create", "alice", "")
	if resp.status != fiber.StatusCreated {
		t.Fatalf("create: %d %s", resp.status, resp.body)
	}
	var created struct {
		GameID string `json:"gameId"`
	}
	resp.decode(t, &created)

	for _, player := range []string{"alice", "bob"} {
		if resp := do(t, app, http.MethodPost, "/api/game/join/"+created.GameID, player, ""); resp.status != fiber.StatusOK {
			t.Fatalf("join %s: %d %s", player, resp.status, resp.body)
		}
	}
	return created.GameID
}

func TestHealthAndNewPlayer(t *testing.T) {
	app, _ := newTestApp(t)

	if resp := do(t, app, http.MethodGet, "/health", "", ""); resp.status != fiber.StatusOK {
		t.Fatalf("health: %d", resp.status)
	}

	resp := do(t, app, http.MethodPost, "/api/player", "", "")
	if resp.status != fiber.StatusCreated {
		t.Fatalf("new player: %d", resp.status)
	}
	var body struct {
		PlayerID string `json:"playerId"`
	}
	resp.decode(t, &body)
	if _, err := uuid.Parse(body.PlayerID); err != nil {
		t.Fatalf("player id %q: %v", body.PlayerID, err)
	}
}

func TestGameRoutesRequirePlayerID(t *testing.T) {
	app, _ := newTestApp(t)
	resp := do(t, app, http.MethodPost, "/api/game/create", "", "")
	if resp.status != fiber.StatusUnauthorized || resp.errorCode(t) != CodeUnauthorized {
		t.Fatalf("got %d %s", resp.status, resp.body)
	}
}

func TestJoinAssignsColors(t *testing.T) {
	app, _ := newTestApp(t)
	resp := do(t, app, http.MethodPost, "/api/game/create", "alice", "")
	var created struct {
		GameID string `json:"gameId"`
	}
	resp.decode(t, &created)

	for _, tc := range []struct {
		player string
		color  model.Color
	}{{"alice", model.White}, {"bob", model.Black}, {"alice", model.White}} {
		resp := do(t, app, http.MethodPost, "/api/game/join/"+created.GameID, tc.player, "")
		var joined struct {
			Color model.Color `json:"color"`
		}
		resp.decode(t, &joined)
		if resp.status != fiber.StatusOK || joined.Color != tc.color {
			t.Fatalf("join %s: %d %s", tc.player, resp.status, resp.body)
		}
	}

	resp = do(t, app, http.MethodPost, "/api/game/join/"+created.GameID, "carol", "")
	if resp.status != fiber.StatusConflict || resp.errorCode(t) != CodeGameFull {
		t.Fatalf("third player: %d %s", resp.status, resp.body)
	}

	resp = do(t, app, http.MethodPost, "/api/game/join/missing", "carol", "")
	if resp.status != fiber.StatusNotFound || resp.errorCode(t) != CodeGameNotFound {
		t.Fatalf("unknown game: %d %s", resp.status, resp.body)
	}
}

func TestSeatsSurviveLaterRequests(t *testing.T) {
	app, gs := newTestApp(t)
	id := createSeatedGame(t, app)

	for _, player := range []string{"mallory-the-spectator", "zed", "a-much-longer-visitor-identifier"} {
		if resp := do(t, app, http.MethodGet, "/api/game/"+id, player, ""); resp.status != fiber.StatusOK {
			t.Fatalf("GET as %s: %d", player, resp.status)
		}
		if resp := do(t, app, http.MethodPost, "/api/game/join/"+id, player, ""); resp.status != fiber.StatusConflict {
			t.Fatalf("join as %s: %d %s", player, resp.status, resp.body)
		}
	}

	state, err := gs.GetGameState(context.Background(), id)
	if err != nil {
		t.Fatalf("GetGameState: %v", err)
	}
	if state.Players.White.ID != "alice" || state.Players.Black.ID != "bob" {
		t.Fatalf("seats = white %q black %q", state.Players.White.ID, state.Players.Black.ID)
	}
	if resp := do(t, app, http.MethodDelete, "/api/game/"+id, "zed", ""); resp.status != fiber.StatusForbidden {
		t.Fatalf("visitor delete: %d", resp.status)
	}
	if resp := do(t, app, http.MethodPost, "/api/game/"+id+"/move", "alice", `{"from":"e2","to":"e4"}`); resp.status != fiber.StatusOK {
		t.Fatalf("seated move: %d %s", resp.status, resp.body)
	}
}

func TestMoveErrors(t *testing.T) {
	app, _ := newTestApp(t)
	id := createSeatedGame(t, app)
	target := "/api/game/" + id + "/move"

	cases := []struct {
		name   string
		player string
		body   string
		status int
		code   string
	}{
		{"missing field", "alice", `{"from":"e2"}`, fiber.StatusBadRequest, CodeInvalidRequest},
		{"off board", "alice", `{"from":"e2","to":"e9"}`, fiber.StatusBadRequest, CodeInvalidRequest},
		{"spectator", "carol", `{"from":"e2","to":"e4"}`, fiber.StatusForbidden, CodeNotInGame},
		{"wrong turn", "bob", `{"from":"e7","to":"e5"}`, fiber.StatusConflict, CodeNotYourTurn},
		{"illegal", "alice", `{"from":"e2","to":"e5"}`, fiber.StatusUnprocessableEntity, CodeInvalidMove},
		{"empty source", "alice", `{"from":"e4","to":"e5"}`, fiber.StatusUnprocessableEntity, CodeInvalidMove},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, app, http.MethodPost, target, tc.player, tc.body)
			if resp.status != tc.status || resp.errorCode(t) != tc.code {
				t.Fatalf("got %d %s", resp.status, resp.body)
			}
		})
	}

	resp := do(t, app, http.MethodPost, target, "alice", `{"from":"e2"}`)
	var e struct {
		Details []struct {
			Field string `json:"field"`
			Rule  string `json:"rule"`
		} `json:"details"`
	}
	resp.decode(t, &e)
	if len(e.Details) != 1 || e.Details[0].Field != "to" || e.Details[0].Rule != "required" {
		t.Fatalf("details = %+v", e.Details)
	}
}

func TestPlayGame(t *testing.T) {
	app, _ := newTestApp(t)
	id := createSeatedGame(t, app)

	resp := do(t, app, http.MethodGet, "/api/game/"+id+"/moves?from=b1", "carol", "")
	var legal struct {
		From  string   `json:"from"`
		Moves []string `json:"moves"`
	}
	resp.decode(t, &legal)
	if resp.status != fiber.StatusOK || strings.Join(legal.Moves, ",") != "a3,c3" {
		t.Fatalf("moves: %d %s", resp.status, resp.body)
	}
	if resp := do(t, app, http.MethodGet, "/api/game/"+id+"/moves", "carol", ""); resp.status != fiber.StatusBadRequest {
		t.Fatalf("moves without from: %d", resp.status)
	}
	if resp := do(t, app, http.MethodGet, "/api/game/"+id+"/moves?from=z9", "carol", ""); resp.errorCode(t) != CodeOutOfBounds {
		t.Fatalf("moves off board: %s", resp.body)
	}

	plays := []struct{ player, body string }{
		{"alice", `{"from":"e2","to":"e4"}`},
		{"bob", `{"from":"d7","to":"d5"}`},
		{"alice", `{"from":"e4","to":"d5"}`},
	}
	var state model.GameState
	for _, p := range plays {
		resp := do(t, app, http.MethodPost, "/api/game/"+id+"/move", p.player, p.body)
		if resp.status != fiber.StatusOK {
			t.Fatalf("%s %s: %d %s", p.player, p.body, resp.status, resp.body)
		}
		resp.decode(t, &state)
	}
	if state.LastMove == nil || state.LastMove.Notation != "exd5" {
		t.Fatalf("last move = %+v", state.LastMove)
	}
	if state.Material.White != 1 || state.ToMove != model.Black || state.MoveCount != 3 {
		t.Fatalf("state = %+v", state)
	}

	resp = do(t, app, http.MethodGet, "/api/game/"+id, "carol", "")
	var fetched model.GameState
	resp.decode(t, &fetched)
	if fetched.FEN != state.FEN || fetched.MoveCount != 3 {
		t.Fatalf("GET state = %+v", fetched)
	}
}

func TestBoardRendering(t *testing.T) {
	app, _ := newTestApp(t)
	id := createSeatedGame(t, app)

	resp := do(t, app, http.MethodGet, "/api/game/"+id+"/board.png?width=320&select=g1", "carol", "")
	if resp.status != fiber.StatusOK || resp.contentType != "image/png" {
		t.Fatalf("png: %d %s", resp.status, resp.contentType)
	}
	img, err := png.Decode(bytes.NewReader(resp.body))
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	if w := img.Bounds().Dx(); w != 320 {
		t.Fatalf("png width = %d", w)
	}

	if resp := do(t, app, http.MethodGet, "/api/game/"+id+"/board.png?width=100000", "carol", ""); resp.status != fiber.StatusBadRequest {
		t.Fatalf("oversized png: %d", resp.status)
	}

	resp = do(t, app, http.MethodGet, "/api/game/"+id+"/board.txt?ascii=true", "carol", "")
	text := string(resp.body)
	if resp.status != fiber.StatusOK || !strings.Contains(text, "White to move | White 0 - Black 0") {
		t.Fatalf("text: %d %q", resp.status, text)
	}
	if !strings.Contains(text, "8  r  n  b  q  k  b  n  r ") {
		t.Fatalf("text board missing rank 8: %q", text)
	}
}

func TestCreateFromFEN(t *testing.T) {
	app, _ := newTestApp(t)

	resp := do(t, app, http.MethodPost, "/api/game/create", "alice", `{"fen":"4k3/8/8/8/8/8/8/R3K3 b - - 0 1"}`)
	if resp.status != fiber.StatusCreated {
		t.Fatalf("create: %d %s", resp.status, resp.body)
	}
	var created struct {
		GameID string `json:"gameId"`
	}
	resp.decode(t, &created)
	var state model.GameState
	do(t, app, http.MethodGet, "/api/game/"+created.GameID, "alice", "").decode(t, &state)
	if state.ToMove != model.Black {
		t.Fatalf("to move = %s", state.ToMove)
	}

	resp = do(t, app, http.MethodPost, "/api/game/create", "alice", `{"fen":"not a position"}`)
	if resp.status != fiber.StatusBadRequest || resp.errorCode(t) != CodeInvalidRequest {
		t.Fatalf("bad fen: %d %s", resp.status, resp.body)
	}
}

func TestDeleteGame(t *testing.T) {
	app, _ := newTestApp(t)
	id := createSeatedGame(t, app)

	if resp := do(t, app, http.MethodDelete, "/api/game/"+id, "carol", ""); resp.status != fiber.StatusForbidden {
		t.Fatalf("spectator delete: %d", resp.status)
	}
	if resp := do(t, app, http.MethodDelete, "/api/game/"+id, "bob", ""); resp.status != fiber.StatusNoContent {
		t.Fatalf("delete: %d %s", resp.status, resp.body)
	}
	if resp := do(t, app, http.MethodGet, "/api/game/"+id, "bob", ""); resp.status != fiber.StatusNotFound {
		t.Fatalf("after delete: %d", resp.status)
	}
}

func TestMatchmakingRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	if resp := do(t, app, http.MethodPost, "/api/game/matchmaking/join", "alice", ""); resp.status != fiber.StatusOK {
		t.Fatalf("join queue: %d", resp.status)
	}
	resp := do(t, app, http.MethodPost, "/api/game/matchmaking/join", "alice", "")
	if resp.status != fiber.StatusConflict || resp.errorCode(t) != CodeAlreadyQueued {
		t.Fatalf("second join: %d %s", resp.status, resp.body)
	}
	resp = do(t, app, http.MethodPost, "/api/game/matchmaking/leave", "alice", "")
	var left struct {
		Removed bool `json:"removed"`
	}
	resp.decode(t, &left)
	if !left.Removed {
		t.Fatalf("leave: %s", resp.body)
	}
}
