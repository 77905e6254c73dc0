package model

// Ply is one accepted half-move.
type Ply struct {
	Piece         Piece  `json:"piece"`
	Color         Color  `json:"color"`
	From          Square `json:"from"`
	To            Square `json:"to"`
	CapturedPiece *Piece `json:"capturedPiece"`
	Notation      string `json:"notation"`
}

type SimpleMove struct {
	From Square `json:"from"`
	To   Square `json:"to"`
}

func (m SimpleMove) String() string {
	return m.From.String() + m.To.String()
}

// MoveRequest is a move as clients send it, in algebraic square names.
type MoveRequest struct {
	From string `json:"from" validate:"required,square"`
	To   string `json:"to" validate:"required,square"`
}

// Parse converts the square names into a SimpleMove.
func (r MoveRequest) Parse() (SimpleMove, error) {
	from, err := ParseSquare(r.From)
	if err != nil {
		return SimpleMove{}, err
	}
	to, err := ParseSquare(r.To)
	if err != nil {
		return SimpleMove{}, err
	}
	return SimpleMove{From: from, To: to}, nil
}

// CreateGameRequest optionally seeds a game from a FEN position.
type CreateGameRequest struct {
	FEN string `json:"fen" validate:"omitempty,max=100"`
}

type MatchFoundEvent struct {
	GameID string `json:"gameId"`
	Color  Color  `json:"color"`
}
