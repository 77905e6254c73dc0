package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/benbeisheim/chessrules-backend/internal/model"
)

func run(t *testing.T, s *Shell, out *bytes.Buffer, line string) string {
	t.Helper()
	out.Reset()
	if s.Execute(line) {
		t.Fatalf("%q ended the shell", line)
	}
	return out.String()
}

func newShell() (*Shell, *bytes.Buffer) {
	var out bytes.Buffer
	return New(&out, Options{ASCII: true}), &out
}

func TestMoveAndScore(t *testing.T) {
	s, out := newShell()

	if got := run(t, s, out, "move e2 e4"); !strings.HasPrefix(got, "1. e4\n") {
		t.Fatalf("move output = %q", got)
	}
	if s.Prompt() != "black> " {
		t.Fatalf("prompt = %q", s.Prompt())
	}
	run(t, s, out, "m d7d5")
	if got := run(t, s, out, "move e4 d5"); !strings.HasPrefix(got, "2. exd5\n") {
		t.Fatalf("capture output = %q", got)
	}
	if got := run(t, s, out, "score"); got != "White 1 - Black 0\n" {
		t.Fatalf("score = %q", got)
	}
	if got := run(t, s, out, "captured"); got != "White captured: pawn\nBlack captured: -\n" {
		t.Fatalf("captured = %q", got)
	}
	if got := run(t, s, out, "fen"); got != "rnbqkbnr/ppp1pppp/8/3P4/8/8/PPPP1PPP/RNBQKBNR b - - 0 2\n" {
		t.Fatalf("fen = %q", got)
	}
}

func TestIllegalMoveLeavesGame(t *testing.T) {
	s, out := newShell()

	got := run(t, s, out, "move e2 e5")
	if !strings.HasPrefix(got, "Error: illegal move e2-e5") {
		t.Fatalf("output = %q", got)
	}
	if s.Game().Turn() != model.White {
		t.Fatalf("turn changed after illegal move")
	}
	if got := run(t, s, out, "move e2"); got != "Error: usage: move <from> <to>\n" {
		t.Fatalf("usage = %q", got)
	}
	if got := run(t, s, out, "move i2 i4"); !strings.HasPrefix(got, "Error: square out of bounds") {
		t.Fatalf("bounds = %q", got)
	}
}

func TestMovesHighlightsTargets(t *testing.T) {
	s, out := newShell()

	got := run(t, s, out, "moves g1")
	if !strings.HasPrefix(got, "g1: f3 h3\n") {
		t.Fatalf("moves = %q", got)
	}
	if !strings.Contains(got, "3  .  .  .  .  .  *  .  * ") {
		t.Fatalf("targets not marked: %q", got)
	}
	if got := run(t, s, out, "moves e7"); got != "No moves from e7\n" {
		t.Fatalf("opponent piece = %q", got)
	}
}

func TestLoadAndNew(t *testing.T) {
	s, out := newShell()

	run(t, s, out, "load 4k3/8/8/8/8/8/8/R3K3 b")
	if s.Game().Turn() != model.Black {
		t.Fatalf("turn after load = %s", s.Game().Turn())
	}
	if got := run(t, s, out, "fen"); got != "4k3/8/8/8/8/8/8/R3K3 b - - 0 1\n" {
		t.Fatalf("fen = %q", got)
	}
	if got := run(t, s, out, "load nonsense"); !strings.HasPrefix(got, "Error:") {
		t.Fatalf("bad fen = %q", got)
	}

	run(t, s, out, "new")
	if got := run(t, s, out, "fen"); got != "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1\n" {
		t.Fatalf("fen after new = %q", got)
	}
}

func TestHelpAndQuit(t *testing.T) {
	s, out := newShell()

	got := run(t, s, out, "help")
	for _, name := range []string{"move", "moves", "board", "score", "captured", "fen", "new", "load", "quit"} {
		if !strings.Contains(got, name) {
			t.Fatalf("help is missing %s: %q", name, got)
		}
	}
	if got := run(t, s, out, "help load"); got != "load - Set up a position from FEN\nUsage: load <fen>\n" {
		t.Fatalf("help load = %q", got)
	}
	if got := run(t, s, out, "castle"); !strings.HasPrefix(got, "Unknown command: castle") {
		t.Fatalf("unknown = %q", got)
	}
	if !s.Execute("quit") || !s.Execute("q") {
		t.Fatalf("quit did not end the shell")
	}
	if s.Execute("   ") {
		t.Fatalf("blank line ended the shell")
	}
}
