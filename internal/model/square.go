package model

import "fmt"

// BoardSize is the number of rows and columns.
const BoardSize = 8

// Square addresses the grid. Row 0 is white's back rank, column 0 is the a-file.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func Sq(row, col int) Square {
	return Square{Row: row, Col: col}
}

func (s Square) InBounds() bool {
	return s.Row >= 0 && s.Row < BoardSize && s.Col >= 0 && s.Col < BoardSize
}

func (s Square) getFileNotation() string {
	return fmt.Sprintf("%c", s.Col+'a')
}

// String renders the algebraic name, e.g. "e2" for (1,4).
func (s Square) String() string {
	if !s.InBounds() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return fmt.Sprintf("%c%d", s.Col+'a', s.Row+1)
}

// ParseSquare reads an algebraic square name such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrOutOfBounds, s)
	}
	file := s[0]
	if file >= 'A' && file <= 'H' {
		file += 'a' - 'A'
	}
	sq := Square{Row: int(s[1]) - '1', Col: int(file) - 'a'}
	if !sq.InBounds() {
		return Square{}, fmt.Errorf("%w: %q", ErrOutOfBounds, s)
	}
	return sq, nil
}

func checkBounds(squares ...Square) error {
	for _, sq := range squares {
		if !sq.InBounds() {
			return fmt.Errorf("%w: %s", ErrOutOfBounds, sq)
		}
	}
	return nil
}
