package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/benbeisheim/chessrules-backend/internal/model"
)

// TextOptions controls RenderText.
type TextOptions struct {
	// Color paints squares with ANSI backgrounds.
	Color   bool
	// ASCII uses FEN letters instead of Unicode glyphs.
	ASCII   bool
	Targets []model.Square
}

var (
	lightBg  = color.New(color.BgHiYellow, color.FgBlack)
	darkBg   = color.New(color.BgYellow, color.FgBlack)
	targetBg = color.New(color.BgHiGreen, color.FgBlack)
	lastBg   = color.New(color.BgHiCyan, color.FgBlack)
)

func init() {
	for _, c := range []*color.Color{lightBg, darkBg, targetBg, lastBg} {
		c.EnableColor()
	}
}

// RenderText writes the board rank 8 first, followed by the turn banner,
// points and captured pieces.
func RenderText(w io.Writer, state model.GameState, opts TextOptions) error {
	targets := make(map[model.Square]bool, len(opts.Targets))
	for _, sq := range opts.Targets {
		targets[sq] = true
	}
	var last map[model.Square]bool
	if state.LastMove != nil {
		last = map[model.Square]bool{state.LastMove.From: true, state.LastMove.To: true}
	}

	var b strings.Builder
	for row := model.BoardSize - 1; row >= 0; row-- {
		fmt.Fprintf(&b, "%d ", row+1)
		for col := 0; col < model.BoardSize; col++ {
			sq := model.Sq(row, col)
			cell := cellText(state, sq, opts, targets[sq])
			if !opts.Color {
				b.WriteString(cell)
				continue
			}
			paint := lightBg
			switch {
			case targets[sq]:
				paint = targetBg
			case last[sq]:
				paint = lastBg
			case (row+col)%2 == 0:
				paint = darkBg
			}
			b.WriteString(paint.Sprint(cell))
		}
		b.WriteByte('\n')
	}
	b.WriteString("  ")
	for col := 0; col < model.BoardSize; col++ {
		fmt.Fprintf(&b, " %c ", 'a'+col)
	}
	b.WriteByte('\n')

	turn := "White"
	if state.ToMove == model.Black {
		turn = "Black"
	}
	fmt.Fprintf(&b, "%s to move | White %d - Black %d\n", turn, state.Material.White, state.Material.Black)
	fmt.Fprintf(&b, "White captured: %s\n", pieceList(state.CapturedPieces.Black, opts.ASCII))
	fmt.Fprintf(&b, "Black captured: %s\n", pieceList(state.CapturedPieces.White, opts.ASCII))

	_, err := io.WriteString(w, b.String())
	return err
}

func cellText(state model.GameState, sq model.Square, opts TextOptions, target bool) string {
	p := state.Board[sq.Row][sq.Col]
	switch {
	case p != nil && opts.ASCII:
		return " " + p.Letter() + " "
	case p != nil:
		return " " + p.Symbol() + " "
	case target && !opts.Color:
		return " * "
	case opts.Color:
		return "   "
	}
	return " . "
}

func pieceList(pieces []model.Piece, ascii bool) string {
	if len(pieces) == 0 {
		return "-"
	}
	parts := make([]string, len(pieces))
	for i, p := range pieces {
		if ascii {
			parts[i] = p.Letter()
		} else {
			parts[i] = p.Symbol()
		}
	}
	return strings.Join(parts, " ")
}
