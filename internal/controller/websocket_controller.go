package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/benbeisheim/chessrules-backend/internal/middleware"
	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/obslog"
	"github.com/benbeisheim/chessrules-backend/internal/service"
	"github.com/benbeisheim/chessrules-backend/internal/ws"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// wsConn serialises writes: broadcasts from other goroutines share the
// connection with the read loop's replies.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

func (w *wsConn) send(t ws.MessageType, payload interface{}) error {
	msg, err := ws.NewMessage(t, payload)
	if err != nil {
		return err
	}
	return w.WriteJSON(msg)
}

// RequireGame answers 404 before the upgrade when the game does not exist.
func (wsc *WebSocketController) RequireGame(c *fiber.Ctx) error {
	if _, err := wsc.gameService.GetGameState(c.UserContext(), c.Params("gameId")); err != nil {
		return err
	}
	return c.Next()
}

// HandleConnection serves /ws/game/:gameId. The client receives the game
// state on connect and after every change, and may send move and
// legalMoves messages.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	// the upgrade request's buffers are reused once the handler is hijacked
	gameID := utils.CopyString(c.Params("gameId"))
	playerID, _ := c.Locals(middleware.PlayerIDKey).(string)
	conn := &wsConn{conn: c}
	log := obslog.L().With(zap.String("game_id", gameID), zap.String("player_id", playerID))

	ctx := context.Background()
	if err := wsc.gameService.RegisterConnection(ctx, gameID, playerID, conn); err != nil {
		log.Warn("ws_register_failed", zap.Error(err))
		wsc.sendError(conn, err)
		_ = c.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, conn)
	log.Debug("ws_connected")

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debug("ws_closed", zap.Error(err))
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			wsc.sendError(conn, fiber.NewError(fiber.StatusBadRequest, "malformed message"))
			continue
		}
		if err := wsc.handleMessage(ctx, conn, gameID, playerID, msg); err != nil {
			log.Debug("ws_message_rejected", zap.String("type", string(msg.Type)), zap.Error(err))
			wsc.sendError(conn, err)
		}
	}
}

func (wsc *WebSocketController) handleMessage(ctx context.Context, conn *wsConn, gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var req model.MoveRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed move")
		}
		if err := middleware.Validate(&req); err != nil {
			return err
		}
		// the new state reaches this client through the broadcast
		_, err := wsc.gameService.HandleMove(ctx, gameID, playerID, req)
		return err

	case ws.MessageTypeLegalMoves:
		var req ws.LegalMovesRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed legalMoves request")
		}
		moves, err := wsc.gameService.LegalMoves(ctx, gameID, req.From)
		if err != nil {
			return err
		}
		return conn.send(ws.MessageTypeLegalMoves, ws.LegalMovesResponse{From: req.From, Moves: moves})

	case ws.MessageTypeGameState:
		state, err := wsc.gameService.GetGameState(ctx, gameID)
		if err != nil {
			return err
		}
		return conn.send(ws.MessageTypeGameState, state)
	}
	return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown message type: %s", msg.Type))
}

func (wsc *WebSocketController) sendError(conn *wsConn, err error) {
	_, resp := errorResponse(err)
	if werr := conn.send(ws.MessageTypeError, ws.ErrorPayload{Error: resp.Error, Code: resp.Code}); werr != nil {
		obslog.L().Debug("ws_error_not_sent", zap.Error(werr))
	}
}

// HandleMatchmaking serves /ws/matchmaking. It queues the player if they
// are not queued yet and sends one matchFound message when paired. Closing
// the socket leaves the queue.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID, _ := c.Locals(middleware.PlayerIDKey).(string)
	conn := &wsConn{conn: c}
	log := obslog.L().With(zap.String("player_id", playerID))

	matches := make(chan model.MatchFoundEvent, 1)
	wsc.gameService.RegisterMatchmakingChannel(playerID, matches)
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, matches)

	if err := wsc.gameService.JoinMatchmaking(playerID); err != nil && !errors.Is(err, service.ErrAlreadyQueued) {
		wsc.sendError(conn, err)
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event := <-matches:
		if err := conn.send(ws.MessageTypeMatchFound, event); err != nil {
			log.Warn("match_not_sent", zap.String("game_id", event.GameID), zap.Error(err))
		}
		_ = c.Close()
		<-closed
	case <-closed:
		wsc.gameService.LeaveMatchmaking(playerID)
		log.Debug("matchmaking_abandoned")
	}
}
