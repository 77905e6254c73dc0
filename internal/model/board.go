package model

import (
	"encoding/json"
	"fmt"
)

var backRank = [BoardSize]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// CapturedPieces files removed pieces by their own colour, in capture order:
// White holds the white pieces black has taken.
type CapturedPieces struct {
	White []Piece `json:"white"`
	Black []Piece `json:"black"`
}

func (c *CapturedPieces) add(p Piece) {
	switch p.Color {
	case White:
		c.White = append(c.White, p)
	case Black:
		c.Black = append(c.Black, p)
	}
}

func (c CapturedPieces) of(color Color) []Piece {
	if color == White {
		return c.White
	}
	return c.Black
}

func (c CapturedPieces) clone() CapturedPieces {
	return CapturedPieces{
		White: append([]Piece(nil), c.White...),
		Black: append([]Piece(nil), c.Black...),
	}
}

// Board owns piece placement and the captured lists. The zero Board is empty.
type Board struct {
	squares  [BoardSize][BoardSize]Piece
	captured CapturedPieces
}

// NewBoard returns a board in the standard starting position.
func NewBoard() *Board {
	b := &Board{}
	for col, t := range backRank {
		b.squares[0][col] = NewPiece(t, White)
		b.squares[1][col] = NewPiece(Pawn, White)
		b.squares[6][col] = NewPiece(Pawn, Black)
		b.squares[7][col] = NewPiece(t, Black)
	}
	return b
}

// EmptyBoard returns a board with no pieces, for custom set-ups.
func EmptyBoard() *Board {
	return &Board{}
}

func (b *Board) at(sq Square) Piece {
	return b.squares[sq.Row][sq.Col]
}

// Get returns the piece on sq, or NoPiece when the square is empty.
func (b *Board) Get(sq Square) (Piece, error) {
	if err := checkBounds(sq); err != nil {
		return NoPiece, err
	}
	return b.at(sq), nil
}

// Set places p on sq, replacing whatever was there. Setting NoPiece clears it.
func (b *Board) Set(sq Square, p Piece) error {
	if err := checkBounds(sq); err != nil {
		return err
	}
	if !p.IsZero() && (!p.Type.Valid() || !p.Color.Valid()) {
		return fmt.Errorf("invalid piece %q/%q", p.Type, p.Color)
	}
	b.squares[sq.Row][sq.Col] = p
	return nil
}

// MovePiece moves whatever stands on from to to without checking legality.
// A piece on to is filed into the captured list of its own colour and returned.
func (b *Board) MovePiece(from, to Square) (Piece, error) {
	if err := checkBounds(from, to); err != nil {
		return NoPiece, err
	}
	piece := b.at(from)
	if piece.IsZero() {
		return NoPiece, fmt.Errorf("%w: %s", ErrNoPieceAtSource, from)
	}
	captured := b.at(to)
	if !captured.IsZero() {
		b.captured.add(captured)
	}
	b.squares[to.Row][to.Col] = piece
	b.squares[from.Row][from.Col] = NoPiece
	return captured, nil
}

// MaterialScore is the value of the opponent's pieces that color has captured.
func (b *Board) MaterialScore(color Color) int {
	total := 0
	for _, p := range b.captured.of(color.Opposite()) {
		total += p.PointValue()
	}
	return total
}

// Captured returns a copy of the captured pieces of the given colour, in
// capture order.
func (b *Board) Captured(color Color) []Piece {
	return append([]Piece(nil), b.captured.of(color)...)
}

func (b *Board) CapturedPieces() CapturedPieces {
	return b.captured.clone()
}

// PieceCount counts the pieces still on the grid.
func (b *Board) PieceCount() int {
	n := 0
	b.Each(func(Square, Piece) { n++ })
	return n
}

// Each calls fn for every occupied square, row 0 first.
func (b *Board) Each(fn func(Square, Piece)) {
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if p := b.squares[row][col]; !p.IsZero() {
				fn(Sq(row, col), p)
			}
		}
	}
}

// Grid returns the placement as rows of nullable pieces, row 0 first.
func (b *Board) Grid() [][]*Piece {
	grid := make([][]*Piece, BoardSize)
	for row := range grid {
		grid[row] = make([]*Piece, BoardSize)
		for col := range grid[row] {
			if p := b.squares[row][col]; !p.IsZero() {
				grid[row][col] = &p
			}
		}
	}
	return grid
}

func (b *Board) Clone() *Board {
	return &Board{
		squares:  b.squares,
		captured: b.captured.clone(),
	}
}

type boardJSON struct {
	Board    [][]*Piece     `json:"board"`
	Captured CapturedPieces `json:"capturedPieces"`
}

func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardJSON{Board: b.Grid(), Captured: b.captured})
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var raw boardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Board) != BoardSize {
		return fmt.Errorf("board: expected %d rows, got %d", BoardSize, len(raw.Board))
	}
	var next Board
	for row, cells := range raw.Board {
		if len(cells) != BoardSize {
			return fmt.Errorf("board: row %d has %d squares", row, len(cells))
		}
		for col, p := range cells {
			if p == nil {
				continue
			}
			if err := next.Set(Sq(row, col), *p); err != nil {
				return fmt.Errorf("board: %w", err)
			}
		}
	}
	next.captured = raw.Captured.clone()
	*b = next
	return nil
}
