package model

import "time"

type Material struct {
	White int `json:"white"`
	Black int `json:"black"`
}

// GameState is the read-only view of a session sent to clients.
type GameState struct {
	ID             string         `json:"id"`
	Board          [][]*Piece     `json:"board"`
	ToMove         Color          `json:"toMove"`
	CapturedPieces CapturedPieces `json:"capturedPieces"`
	Material       Material       `json:"material"`
	FEN            string         `json:"fen"`
	LastMove       *Ply           `json:"lastMove"`
	MoveCount      int            `json:"moveCount"`
	Players        Players        `json:"players"`
}

// Snapshot is everything needed to restore a session. Version grows with
// every change to the session, so a newer snapshot always has a higher one.
type Snapshot struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	Game      *Game     `json:"game"`
	Players   Players   `json:"players"`
	LastMove  *Ply      `json:"lastMove,omitempty"`
	MoveCount int       `json:"moveCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// State builds the client view of the snapshot. fen is supplied by the caller.
func (s Snapshot) State(fen string) GameState {
	board := s.Game.board
	captured := board.CapturedPieces()
	if captured.White == nil {
		captured.White = []Piece{}
	}
	if captured.Black == nil {
		captured.Black = []Piece{}
	}
	return GameState{
		ID:             s.ID,
		Board:          board.Grid(),
		ToMove:         s.Game.turn,
		CapturedPieces: captured,
		Material: Material{
			White: board.MaterialScore(White),
			Black: board.MaterialScore(Black),
		},
		FEN:       fen,
		LastMove:  s.LastMove,
		MoveCount: s.MoveCount,
		Players:   s.Players,
	}
}
