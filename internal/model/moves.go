package model

// IsValidMove reports whether the piece on from may move to to for side.
// Only piece geometry and occupancy are checked; king safety is not.
func (b *Board) IsValidMove(from, to Square, side Color) bool {
	return b.checkMove(from, to, side) == ""
}

// checkMove returns the reason a move is rejected, or "" if it is legal.
func (b *Board) checkMove(from, to Square, side Color) Reason {
	if !from.InBounds() || !to.InBounds() {
		return ReasonOutOfBounds
	}
	piece := b.at(from)
	if piece.IsZero() {
		return ReasonNoPiece
	}
	if piece.Color != side {
		return ReasonWrongSide
	}
	if from == to {
		return ReasonNullMove
	}
	if target := b.at(to); !target.IsZero() && target.Color == side {
		return ReasonSelfCapture
	}

	switch piece.Type {
	case Pawn:
		return b.checkPawnMove(from, to, side)
	case Knight:
		return checkKnightMove(from, to)
	case Bishop:
		return b.checkBishopMove(from, to)
	case Rook:
		return b.checkRookMove(from, to)
	case Queen:
		return b.checkQueenMove(from, to)
	case King:
		return checkKingMove(from, to)
	}
	return ReasonGeometry
}

func pawnDirection(side Color) int {
	if side == White {
		return 1
	}
	return -1
}

func pawnStartRow(side Color) int {
	if side == White {
		return 1
	}
	return 6
}

func (b *Board) checkPawnMove(from, to Square, side Color) Reason {
	dir := pawnDirection(side)
	dr := to.Row - from.Row
	dc := to.Col - from.Col

	switch {
	case dc == 0 && dr == dir:
		if !b.at(to).IsZero() {
			return ReasonPawnCapture
		}
		return ""
	case dc == 0 && dr == 2*dir && from.Row == pawnStartRow(side):
		if !b.at(Sq(from.Row+dir, from.Col)).IsZero() {
			return ReasonBlocked
		}
		if !b.at(to).IsZero() {
			return ReasonPawnCapture
		}
		return ""
	case abs(dc) == 1 && dr == dir:
		// same-side occupancy was rejected by the caller
		if b.at(to).IsZero() {
			return ReasonPawnCapture
		}
		return ""
	}
	return ReasonGeometry
}

func checkKnightMove(from, to Square) Reason {
	dr := abs(to.Row - from.Row)
	dc := abs(to.Col - from.Col)
	if (dr == 2 && dc == 1) || (dr == 1 && dc == 2) {
		return ""
	}
	return ReasonGeometry
}

func (b *Board) checkBishopMove(from, to Square) Reason {
	if abs(to.Row-from.Row) != abs(to.Col-from.Col) {
		return ReasonGeometry
	}
	if !b.isPathClear(from, to) {
		return ReasonBlocked
	}
	return ""
}

func (b *Board) checkRookMove(from, to Square) Reason {
	if from.Row != to.Row && from.Col != to.Col {
		return ReasonGeometry
	}
	if !b.isPathClear(from, to) {
		return ReasonBlocked
	}
	return ""
}

func (b *Board) checkQueenMove(from, to Square) Reason {
	if from.Row == to.Row || from.Col == to.Col {
		return b.checkRookMove(from, to)
	}
	return b.checkBishopMove(from, to)
}

func checkKingMove(from, to Square) Reason {
	if abs(to.Row-from.Row) <= 1 && abs(to.Col-from.Col) <= 1 {
		return ""
	}
	return ReasonGeometry
}

// isPathClear walks from toward to one step at a time and reports whether
// every square strictly between them is empty. from and to must share a
// row, column or diagonal.
func (b *Board) isPathClear(from, to Square) bool {
	dr := sign(to.Row - from.Row)
	dc := sign(to.Col - from.Col)
	for sq := Sq(from.Row+dr, from.Col+dc); sq != to; sq = Sq(sq.Row+dr, sq.Col+dc) {
		if !b.at(sq).IsZero() {
			return false
		}
	}
	return true
}

// LegalMoves scans all 64 squares and returns the destinations the piece on
// from may reach for side.
func (b *Board) LegalMoves(from Square, side Color) []Square {
	var moves []Square
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if to := Sq(row, col); b.IsValidMove(from, to, side) {
				moves = append(moves, to)
			}
		}
	}
	return moves
}

// LegalMovesForColor lists every legal move of side's pieces.
func (b *Board) LegalMovesForColor(side Color) []SimpleMove {
	var moves []SimpleMove
	b.Each(func(from Square, p Piece) {
		if p.Color != side {
			return
		}
		for _, to := range b.LegalMoves(from, side) {
			moves = append(moves, SimpleMove{From: from, To: to})
		}
	})
	return moves
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
