// Package notation converts between the engine's board and FEN.
package notation

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/benbeisheim/chessrules-backend/internal/model"
)

// StartFEN is the standard starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// fenDefaults fills the fields after piece placement when a short FEN is given.
var fenDefaults = []string{"w", "-", "-", "0", "1"}

var kindsToEngine = map[model.PieceType]nchess.PieceType{
	model.King:   nchess.King,
	model.Queen:  nchess.Queen,
	model.Rook:   nchess.Rook,
	model.Bishop: nchess.Bishop,
	model.Knight: nchess.Knight,
	model.Pawn:   nchess.Pawn,
}

var kindsFromEngine = map[nchess.PieceType]model.PieceType{
	nchess.King:   model.King,
	nchess.Queen:  model.Queen,
	nchess.Rook:   model.Rook,
	nchess.Bishop: model.Bishop,
	nchess.Knight: model.Knight,
	nchess.Pawn:   model.Pawn,
}

// Decode parses piece placement and side to move. Castling, en-passant and
// the move counters are accepted but ignored. Positions without kings are
// allowed.
func Decode(fen string) (*model.Game, error) {
	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty fen")
	}
	if len(fields) > 6 {
		return nil, fmt.Errorf("fen has %d fields", len(fields))
	}
	fields = append(fields, fenDefaults[len(fields)-1:]...)

	var pos nchess.Position
	if err := pos.UnmarshalText([]byte(strings.Join(fields, " "))); err != nil {
		return nil, fmt.Errorf("parse fen: %w", err)
	}

	board := model.EmptyBoard()
	for sq, p := range pos.Board().SquareMap() {
		if p == nchess.NoPiece {
			continue
		}
		kind, ok := kindsFromEngine[p.Type()]
		if !ok {
			return nil, fmt.Errorf("parse fen: unknown piece on %s", sq)
		}
		color := model.White
		if p.Color() == nchess.Black {
			color = model.Black
		}
		if err := board.Set(model.Sq(int(sq.Rank()), int(sq.File())), model.NewPiece(kind, color)); err != nil {
			return nil, fmt.Errorf("parse fen: %w", err)
		}
	}

	turn := model.White
	if pos.Turn() == nchess.Black {
		turn = model.Black
	}
	return model.NewGameFromBoard(board, turn)
}

// Encode writes placement and side to move. Castling and en-passant are
// always "-"; fullmove is derived from plies played since the position was
// set up, counting from whichever side moved first.
func Encode(b *model.Board, turn model.Color, plies int) string {
	squares := make(map[nchess.Square]nchess.Piece, 32)
	b.Each(func(sq model.Square, p model.Piece) {
		color := nchess.White
		if p.Color == model.Black {
			color = nchess.Black
		}
		squares[nchess.NewSquare(nchess.File(sq.Col), nchess.Rank(sq.Row))] = nchess.NewPiece(kindsToEngine[p.Type], color)
	})

	side := "w"
	if turn == model.Black {
		side = "b"
	}
	return fmt.Sprintf("%s %s - - 0 %d", nchess.NewBoard(squares).String(), side, fullmove(turn, plies))
}

// fullmove numbers moves from 1. A game set up with black to move starts
// half a move in, so black's first reply to it opens move 2.
func fullmove(turn model.Color, plies int) int {
	if plies < 0 {
		plies = 0
	}
	blackStarted := (turn == model.Black) == (plies%2 == 0)
	if blackStarted {
		plies++
	}
	return 1 + plies/2
}

// EncodeGame is Encode for a whole game.
func EncodeGame(g *model.Game, plies int) string {
	return Encode(g.Board(), g.Turn(), plies)
}

// Placement returns only the piece-placement field of fen.
func Placement(fen string) string {
	if i := strings.IndexByte(fen, ' '); i >= 0 {
		return fen[:i]
	}
	return fen
}
