package model

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestNewBoardStartingPosition(t *testing.T) {
	b := NewBoard()
	if n := b.PieceCount(); n != 32 {
		t.Fatalf("expected 32 pieces, got %d", n)
	}
	for _, c := range []Color{White, Black} {
		if got := b.Captured(c); len(got) != 0 {
			t.Fatalf("expected no captured %s pieces, got %v", c, got)
		}
	}

	want := map[Square]Piece{
		Sq(0, 0): NewPiece(Rook, White),
		Sq(0, 3): NewPiece(Queen, White),
		Sq(0, 4): NewPiece(King, White),
		Sq(1, 4): NewPiece(Pawn, White),
		Sq(6, 0): NewPiece(Pawn, Black),
		Sq(7, 1): NewPiece(Knight, Black),
		Sq(7, 3): NewPiece(Queen, Black),
		Sq(7, 4): NewPiece(King, Black),
		Sq(4, 4): NoPiece,
	}
	for sq, p := range want {
		got, err := b.Get(sq)
		if err != nil {
			t.Fatalf("Get(%s): %v", sq, err)
		}
		if got != p {
			t.Fatalf("Get(%s) = %v, want %v", sq, got, p)
		}
	}
}

func TestBoardGetOutOfBounds(t *testing.T) {
	b := NewBoard()
	for _, sq := range []Square{Sq(-1, 0), Sq(0, 8), Sq(8, 8)} {
		if _, err := b.Get(sq); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("Get(%v): expected ErrOutOfBounds, got %v", sq, err)
		}
	}
}

func TestMovePieceFilesCaptureByColour(t *testing.T) {
	b := EmptyBoard()
	mustSet(t, b, Sq(3, 3), NewPiece(Rook, White))
	mustSet(t, b, Sq(3, 7), NewPiece(Knight, Black))

	captured, err := b.MovePiece(Sq(3, 3), Sq(3, 7))
	if err != nil {
		t.Fatalf("MovePiece: %v", err)
	}
	if captured != NewPiece(Knight, Black) {
		t.Fatalf("expected black knight captured, got %v", captured)
	}
	if got := b.Captured(Black); len(got) != 1 || got[0] != captured {
		t.Fatalf("expected knight in black's captured list, got %v", got)
	}
	if got := b.Captured(White); len(got) != 0 {
		t.Fatalf("expected white's captured list empty, got %v", got)
	}
	if got := b.MaterialScore(White); got != 3 {
		t.Fatalf("expected white material 3, got %d", got)
	}
	if got := b.MaterialScore(Black); got != 0 {
		t.Fatalf("expected black material 0, got %d", got)
	}
	if p, _ := b.Get(Sq(3, 3)); !p.IsZero() {
		t.Fatalf("expected source cleared, got %v", p)
	}
}

func TestMovePieceEmptySource(t *testing.T) {
	b := EmptyBoard()
	if _, err := b.MovePiece(Sq(2, 2), Sq(3, 3)); !errors.Is(err, ErrNoPieceAtSource) {
		t.Fatalf("expected ErrNoPieceAtSource, got %v", err)
	}
}

func TestMovePieceIgnoresRules(t *testing.T) {
	b := NewBoard()
	if _, err := b.MovePiece(Sq(0, 0), Sq(5, 5)); err != nil {
		t.Fatalf("MovePiece: %v", err)
	}
	if p, _ := b.Get(Sq(5, 5)); p != NewPiece(Rook, White) {
		t.Fatalf("expected rook on f6, got %v", p)
	}
}

func TestBoardCloneIsIndependent(t *testing.T) {
	b := NewBoard()
	c := b.Clone()
	if _, err := c.MovePiece(Sq(1, 4), Sq(6, 4)); err != nil {
		t.Fatalf("MovePiece: %v", err)
	}
	if p, _ := b.Get(Sq(1, 4)); p != NewPiece(Pawn, White) {
		t.Fatalf("original board changed: %v", p)
	}
	if len(b.Captured(Black)) != 0 {
		t.Fatalf("original captured list changed")
	}
}

func TestBoardJSON(t *testing.T) {
	b := NewBoard()
	if _, err := b.MovePiece(Sq(0, 1), Sq(6, 3)); err != nil {
		t.Fatalf("MovePiece: %v", err)
	}
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Board
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(&got, b) {
		t.Fatalf("decoded board differs\n got: %+v\nwant: %+v", got, *b)
	}
}

func TestBoardJSONRejectsBadShape(t *testing.T) {
	var b Board
	if err := json.Unmarshal([]byte(`{"board":[[null]]}`), &b); err == nil {
		t.Fatalf("expected error for short board")
	}
}

func TestPieceValuesAndSymbols(t *testing.T) {
	tests := []struct {
		piece  Piece
		value  int
		symbol string
		letter string
	}{
		{NewPiece(Pawn, White), 1, "♙", "P"},
		{NewPiece(Knight, White), 3, "♘", "N"},
		{NewPiece(Bishop, Black), 3, "♝", "b"},
		{NewPiece(Rook, Black), 5, "♜", "r"},
		{NewPiece(Queen, White), 9, "♕", "Q"},
		{NewPiece(King, Black), 0, "♚", "k"},
	}
	for _, tt := range tests {
		if got := tt.piece.PointValue(); got != tt.value {
			t.Fatalf("%v value = %d, want %d", tt.piece, got, tt.value)
		}
		if got := tt.piece.Symbol(); got != tt.symbol {
			t.Fatalf("%v symbol = %q, want %q", tt.piece, got, tt.symbol)
		}
		if got := tt.piece.Letter(); got != tt.letter {
			t.Fatalf("%v letter = %q, want %q", tt.piece, got, tt.letter)
		}
	}
}

func TestParseSquare(t *testing.T) {
	sq, err := ParseSquare("e2")
	if err != nil || sq != Sq(1, 4) {
		t.Fatalf("ParseSquare(e2) = %v, %v", sq, err)
	}
	if sq, err := ParseSquare("H8"); err != nil || sq != Sq(7, 7) {
		t.Fatalf("ParseSquare(H8) = %v, %v", sq, err)
	}
	for _, s := range []string{"", "i1", "a9", "a0", "e22"} {
		if _, err := ParseSquare(s); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("ParseSquare(%q): expected ErrOutOfBounds, got %v", s, err)
		}
	}
	if got := Sq(1, 4).String(); got != "e2" {
		t.Fatalf("String() = %q", got)
	}
}

func mustSet(t *testing.T, b *Board, sq Square, p Piece) {
	t.Helper()
	if err := b.Set(sq, p); err != nil {
		t.Fatalf("Set(%s, %v): %v", sq, p, err)
	}
}
