package service

import (
	"bytes"
	"context"

	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/render"
)

// GameService is the transport-facing API. It speaks in algebraic square
// names and leaves session bookkeeping to the GameManager.
type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) CreateGame(ctx context.Context, req model.CreateGameRequest) (string, error) {
	return gs.gameManager.CreateGame(ctx, req.FEN)
}

func (gs *GameService) JoinGame(ctx context.Context, gameID, playerID string) (model.Color, error) {
	return gs.gameManager.AddPlayerToGame(ctx, gameID, playerID)
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) LeaveMatchmaking(playerID string) bool {
	return gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) GetGameState(ctx context.Context, gameID string) (model.GameState, error) {
	return gs.gameManager.GetGameState(ctx, gameID)
}

// LegalMoves returns the destinations of the piece on from as square names.
func (gs *GameService) LegalMoves(ctx context.Context, gameID, from string) ([]string, error) {
	sq, err := model.ParseSquare(from)
	if err != nil {
		return nil, err
	}
	moves, err := gs.gameManager.LegalMoves(ctx, gameID, sq)
	if err != nil {
		return nil, err
	}
	return squareNames(moves), nil
}

func (gs *GameService) HandleMove(ctx context.Context, gameID, playerID string, req model.MoveRequest) (model.GameState, error) {
	move, err := req.Parse()
	if err != nil {
		return model.GameState{}, err
	}
	return gs.gameManager.MakeMove(ctx, gameID, playerID, move.From, move.To)
}

func (gs *GameService) DeleteGame(ctx context.Context, gameID, playerID string) error {
	return gs.gameManager.DeleteGame(ctx, gameID, playerID)
}

// RenderPNG draws the game. A non-empty selected square also marks its
// legal destinations.
func (gs *GameService) RenderPNG(ctx context.Context, gameID string, width int, selected string) ([]byte, error) {
	session, err := gs.gameManager.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	opts := render.PNGOptions{Width: width}
	if selected != "" {
		sq, err := model.ParseSquare(selected)
		if err != nil {
			return nil, err
		}
		targets, err := session.LegalMoves(sq)
		if err != nil {
			return nil, err
		}
		opts.Selected = &sq
		opts.Targets = targets
	}
	return render.RenderPNG(ctx, session.State(), opts)
}

func (gs *GameService) RenderText(ctx context.Context, gameID string, opts render.TextOptions) (string, error) {
	state, err := gs.gameManager.GetGameState(ctx, gameID)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := render.RenderText(&buf, state, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (gs *GameService) RegisterConnection(ctx context.Context, gameID, playerID string, conn Conn) error {
	return gs.gameManager.RegisterConnection(ctx, gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID, playerID string, conn Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}

func squareNames(squares []model.Square) []string {
	names := make([]string, len(squares))
	for i, sq := range squares {
		names[i] = sq.String()
	}
	return names
}
