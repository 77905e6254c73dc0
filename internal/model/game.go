package model

import (
	"encoding/json"
	"fmt"
)

// Game is a board plus the side to move. It is a plain value with no
// locking; callers sharing a Game across goroutines serialise access.
type Game struct {
	board *Board
	turn  Color
}

// NewGame starts from the standard position with White to move.
func NewGame() *Game {
	return &Game{board: NewBoard(), turn: White}
}

// NewGameFromBoard wraps an existing board, e.g. one decoded from FEN.
func NewGameFromBoard(b *Board, turn Color) (*Game, error) {
	if b == nil {
		return nil, fmt.Errorf("nil board")
	}
	if !turn.Valid() {
		return nil, fmt.Errorf("invalid side to move %q", turn)
	}
	return &Game{board: b, turn: turn}, nil
}

func (g *Game) Turn() Color {
	return g.turn
}

func (g *Game) SwitchTurn() {
	g.turn = g.turn.Opposite()
}

// Board returns a copy of the position; mutating it does not affect the game.
func (g *Game) Board() *Board {
	return g.board.Clone()
}

func (g *Game) Get(sq Square) (Piece, error) {
	return g.board.Get(sq)
}

// IsValidMove checks the move for the side to move.
func (g *Game) IsValidMove(from, to Square) bool {
	return g.board.IsValidMove(from, to, g.turn)
}

// LegalMoves lists the destinations of the piece on from for the side to move.
func (g *Game) LegalMoves(from Square) []Square {
	return g.board.LegalMoves(from, g.turn)
}

// ApplyMove validates, moves and switches the turn in one step. On error
// the game is left exactly as it was.
func (g *Game) ApplyMove(from, to Square) (Ply, error) {
	if err := checkBounds(from, to); err != nil {
		return Ply{}, err
	}
	if reason := g.board.checkMove(from, to, g.turn); reason != "" {
		return Ply{}, &IllegalMoveError{From: from, To: to, Piece: g.board.at(from), Reason: reason}
	}

	ply := g.makePly(from, to)
	if _, err := g.board.MovePiece(from, to); err != nil {
		return Ply{}, err
	}
	g.SwitchTurn()
	return ply, nil
}

func (g *Game) makePly(from, to Square) Ply {
	ply := Ply{
		Piece:    g.board.at(from),
		Color:    g.turn,
		From:     from,
		To:       to,
		Notation: g.getNotation(from, to),
	}
	if captured := g.board.at(to); !captured.IsZero() {
		ply.CapturedPiece = &captured
	}
	return ply
}

// getNotation writes the move in short algebraic form without check marks,
// e.g. "e4", "Nc3", "exd5", "Bxf7".
func (g *Game) getNotation(from, to Square) string {
	piece := g.board.at(from)
	prefix := piece.Type.getPieceNotation()
	capture := ""
	if !g.board.at(to).IsZero() {
		capture = "x"
	}
	pawnFile := ""
	if piece.Type == Pawn && from.Col != to.Col {
		pawnFile = from.getFileNotation()
	}
	return fmt.Sprintf("%s%s%s%s", prefix, pawnFile, capture, to)
}

// MaterialScore is the total value of opposing pieces side has captured.
func (g *Game) MaterialScore(side Color) int {
	return g.board.MaterialScore(side)
}

// CapturedPieces returns the captured pieces of the given colour in capture order.
func (g *Game) CapturedPieces(side Color) []Piece {
	return g.board.Captured(side)
}

func (g *Game) Clone() *Game {
	return &Game{board: g.board.Clone(), turn: g.turn}
}

type gameJSON struct {
	Board *Board `json:"board"`
	Turn  Color  `json:"turn"`
}

func (g *Game) MarshalJSON() ([]byte, error) {
	return json.Marshal(gameJSON{Board: g.board, Turn: g.turn})
}

func (g *Game) UnmarshalJSON(data []byte) error {
	var raw gameJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	next, err := NewGameFromBoard(raw.Board, raw.Turn)
	if err != nil {
		return fmt.Errorf("game: %w", err)
	}
	*g = *next
	return nil
}
