package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/benbeisheim/chessrules-backend/internal/model"
)

const (
	squareSize  = 40
	boardPixels = squareSize * model.BoardSize
	sideMargin  = 24
	hudHeight   = 56
	footer      = 24
	baseWidth   = boardPixels + sideMargin*2
	baseHeight  = boardPixels + hudHeight + footer

	// MaxSize caps the requested output width.
	MaxSize = 2048
)

var (
	lightSquare    = color.RGBA{233, 207, 163, 255}
	darkSquare     = color.RGBA{187, 136, 96, 255}
	background     = color.RGBA{28, 31, 46, 255}
	hudText        = color.RGBA{236, 239, 255, 255}
	coordText      = color.RGBA{8, 214, 120, 255}
	lastMoveFill   = color.NRGBA{255, 228, 120, 140}
	selectedFill   = color.NRGBA{120, 200, 255, 150}
	targetDot      = color.NRGBA{30, 30, 30, 120}
	whitePieceFill = color.RGBA{250, 250, 245, 255}
	blackPieceFill = color.RGBA{35, 35, 40, 255}
	whitePieceInk  = color.RGBA{20, 20, 20, 255}
	blackPieceInk  = color.RGBA{240, 240, 240, 255}
	pieceOutline   = color.RGBA{90, 90, 90, 255}
)

// PNGOptions controls RenderPNG. Width 0 keeps the native size.
type PNGOptions struct {
	Width    int
	Selected *model.Square
	Targets  []model.Square
}

// RenderPNG draws the board with a HUD showing the side to move, material
// and captured pieces. The last move and any selected square are shaded.
func RenderPNG(ctx context.Context, state model.GameState, opts PNGOptions) ([]byte, error) {
	if len(state.Board) != model.BoardSize {
		return nil, fmt.Errorf("board has %d rows", len(state.Board))
	}
	if opts.Width < 0 || opts.Width > MaxSize {
		return nil, fmt.Errorf("width %d out of range", opts.Width)
	}

	img := image.NewRGBA(image.Rect(0, 0, baseWidth, baseHeight))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, xdraw.Src)
	origin := image.Point{X: sideMargin, Y: hudHeight}

	drawHUD(img, state)
	drawSquares(img, origin)
	if state.LastMove != nil {
		fillSquare(img, state.LastMove.From, origin, lastMoveFill)
		fillSquare(img, state.LastMove.To, origin, lastMoveFill)
	}
	if opts.Selected != nil {
		fillSquare(img, *opts.Selected, origin, selectedFill)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	for row, cells := range state.Board {
		if len(cells) != model.BoardSize {
			return nil, fmt.Errorf("row %d has %d squares", row, len(cells))
		}
		for col, p := range cells {
			if p != nil {
				drawPiece(img, model.Sq(row, col), *p, origin)
			}
		}
	}
	for _, sq := range opts.Targets {
		drawTarget(img, sq, origin)
	}
	drawCoordinates(img, origin)

	var out image.Image = img
	if opts.Width > 0 && opts.Width != baseWidth {
		height := opts.Width * baseHeight / baseWidth
		scaled := image.NewRGBA(image.Rect(0, 0, opts.Width, height))
		xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)
		out = scaled
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// squareRect maps a board square to pixels; row 7 is drawn at the top.
func squareRect(sq model.Square, origin image.Point) image.Rectangle {
	x := origin.X + sq.Col*squareSize
	y := origin.Y + (model.BoardSize-1-sq.Row)*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func drawSquares(img *image.RGBA, origin image.Point) {
	for row := 0; row < model.BoardSize; row++ {
		for col := 0; col < model.BoardSize; col++ {
			clr := lightSquare
			if (row+col)%2 == 0 {
				clr = darkSquare
			}
			xdraw.Draw(img, squareRect(model.Sq(row, col), origin), image.NewUniform(clr), image.Point{}, xdraw.Src)
		}
	}
}

func fillSquare(img *image.RGBA, sq model.Square, origin image.Point, clr color.Color) {
	if !sq.InBounds() {
		return
	}
	xdraw.Draw(img, squareRect(sq, origin), image.NewUniform(clr), image.Point{}, xdraw.Over)
}

func drawPiece(img *image.RGBA, sq model.Square, p model.Piece, origin image.Point) {
	r := squareRect(sq, origin)
	center := image.Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
	fill, ink := whitePieceFill, whitePieceInk
	if p.Color == model.Black {
		fill, ink = blackPieceFill, blackPieceInk
	}
	drawDisc(img, center, squareSize/2-4, pieceOutline)
	drawDisc(img, center, squareSize/2-6, fill)

	d := &font.Drawer{Dst: img, Src: image.NewUniform(ink), Face: basicfont.Face7x13}
	drawCentered(d, strings.ToUpper(p.Letter()), center.X, center.Y+basicfont.Face7x13.Ascent/2-1)
}

func drawTarget(img *image.RGBA, sq model.Square, origin image.Point) {
	if !sq.InBounds() {
		return
	}
	r := squareRect(sq, origin)
	drawDisc(img, image.Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}, squareSize/6, targetDot)
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	src := image.NewUniform(clr)
	rr := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > rr {
				continue
			}
			pt := image.Point{X: center.X + x, Y: center.Y + y}
			xdraw.Draw(img, image.Rectangle{Min: pt, Max: pt.Add(image.Point{X: 1, Y: 1})}, src, image.Point{}, xdraw.Over)
		}
	}
}

func drawHUD(img *image.RGBA, state model.GameState) {
	d := &font.Drawer{Dst: img, Src: image.NewUniform(hudText), Face: basicfont.Face7x13}

	turn := "White to move"
	if state.ToMove == model.Black {
		turn = "Black to move"
	}
	d.Dot = fixed.P(sideMargin, 18)
	d.DrawString(fmt.Sprintf("%s   White %d  Black %d", turn, state.Material.White, state.Material.Black))

	d.Dot = fixed.P(sideMargin, 34)
	d.DrawString("W took: " + letters(state.CapturedPieces.Black))
	d.Dot = fixed.P(sideMargin, 48)
	d.DrawString("B took: " + letters(state.CapturedPieces.White))
}

func letters(pieces []model.Piece) string {
	var b strings.Builder
	for _, p := range pieces {
		b.WriteString(p.Letter())
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

func drawCoordinates(img *image.RGBA, origin image.Point) {
	d := &font.Drawer{Dst: img, Src: image.NewUniform(coordText), Face: basicfont.Face7x13}
	for i := 0; i < model.BoardSize; i++ {
		r := squareRect(model.Sq(i, i), origin)
		drawCentered(d, string(rune('1'+i)), sideMargin/2, (r.Min.Y+r.Max.Y)/2+5)
		drawCentered(d, string(rune('a'+i)), (r.Min.X+r.Max.X)/2, origin.Y+boardPixels+16)
	}
}

func drawCentered(d *font.Drawer, text string, centerX, baseline int) {
	width := d.MeasureString(text).Round()
	d.Dot = fixed.P(centerX-width/2, baseline)
	d.DrawString(text)
}
