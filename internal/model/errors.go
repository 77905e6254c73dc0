package model

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds     = errors.New("square out of bounds")
	ErrNoPieceAtSource = errors.New("no piece at source square")
	ErrIllegalMove     = errors.New("illegal move")
)

// Reason says which rule rejected a move.
type Reason string

const (
	ReasonOutOfBounds Reason = "square out of bounds"
	ReasonNoPiece     Reason = "no piece at source square"
	ReasonWrongSide   Reason = "piece belongs to the other side"
	ReasonNullMove    Reason = "source and destination are the same square"
	ReasonSelfCapture Reason = "destination holds a piece of the same side"
	ReasonBlocked     Reason = "path is blocked"
	ReasonPawnCapture Reason = "pawns capture diagonally only"
	ReasonGeometry    Reason = "piece cannot move that way"
)

// IllegalMoveError is returned by Game.ApplyMove. It matches ErrIllegalMove
// under errors.Is.
type IllegalMoveError struct {
	From   Square
	To     Square
	Piece  Piece
	Reason Reason
}

func (e *IllegalMoveError) Error() string {
	if e.Piece.IsZero() {
		return fmt.Sprintf("illegal move %s-%s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("illegal move %s-%s (%s): %s", e.From, e.To, e.Piece, e.Reason)
}

func (e *IllegalMoveError) Unwrap() error {
	return ErrIllegalMove
}

// Is lets a rejected move from an empty square also match ErrNoPieceAtSource.
func (e *IllegalMoveError) Is(target error) bool {
	return target == ErrNoPieceAtSource && e.Reason == ReasonNoPiece
}
