package model

import "fmt"

type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

// PieceTypes lists every kind in back-rank order of value, pawn last.
var PieceTypes = []PieceType{King, Queen, Rook, Bishop, Knight, Pawn}

// Value is the material value of the kind. Kings are worth nothing.
func (p PieceType) Value() int {
	switch p {
	case Pawn:
		return 1
	case Knight, Bishop:
		return 3
	case Rook:
		return 5
	case Queen:
		return 9
	case King:
		return 0
	}
	return 0
}

func (p PieceType) getPieceNotation() string {
	switch p {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	case Pawn:
		return ""
	}
	return ""
}

func (p PieceType) Valid() bool {
	switch p {
	case King, Queen, Rook, Bishop, Knight, Pawn:
		return true
	}
	return false
}

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) Valid() bool {
	return c == White || c == Black
}

// ParseColor accepts "white"/"black" and the FEN letters "w"/"b".
func ParseColor(s string) (Color, error) {
	switch s {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return "", fmt.Errorf("unknown color %q", s)
}

// Piece is a value: moving a piece copies it to the new square.
// The zero Piece is NoPiece and marks an empty square.
type Piece struct {
	Type  PieceType `json:"type"`
	Color Color     `json:"color"`
}

var NoPiece = Piece{}

func NewPiece(t PieceType, c Color) Piece {
	return Piece{Type: t, Color: c}
}

func (p Piece) IsZero() bool {
	return p == NoPiece
}

func (p Piece) PointValue() int {
	return p.Type.Value()
}

// Symbol returns the Unicode chess glyph for the piece.
func (p Piece) Symbol() string {
	switch p.Color {
	case White:
		switch p.Type {
		case Pawn:
			return "♙"
		case Knight:
			return "♘"
		case Bishop:
			return "♗"
		case Rook:
			return "♖"
		case Queen:
			return "♕"
		case King:
			return "♔"
		}
	case Black:
		switch p.Type {
		case Pawn:
			return "♟"
		case Knight:
			return "♞"
		case Bishop:
			return "♝"
		case Rook:
			return "♜"
		case Queen:
			return "♛"
		case King:
			return "♚"
		}
	}
	return ""
}

// Letter returns the FEN letter: upper case for white, lower case for black.
func (p Piece) Letter() string {
	var l string
	switch p.Type {
	case Pawn:
		l = "P"
	case Knight:
		l = "N"
	case Bishop:
		l = "B"
	case Rook:
		l = "R"
	case Queen:
		l = "Q"
	case King:
		l = "K"
	default:
		return ""
	}
	if p.Color == Black {
		return string(l[0] ^ 0x20)
	}
	return l
}

func (p Piece) String() string {
	if p.IsZero() {
		return "empty"
	}
	return string(p.Color) + " " + string(p.Type)
}
