// Package cli is a hot-seat command shell over a single local game.
package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/notation"
	"github.com/benbeisheim/chessrules-backend/internal/render"
)

// errQuit is returned by the quit handler to end the session.
var errQuit = errors.New("quit")

// Command is one shell command.
type Command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Handler     func(*Shell, []string) error
}

type Options struct {
	// Color enables ANSI colours for the board and errors.
	Color bool
	// ASCII draws pieces as FEN letters.
	ASCII bool
}

// Shell holds the game and the command table.
type Shell struct {
	out      io.Writer
	opts     Options
	errColor *color.Color

	game     *model.Game
	lastMove *model.Ply
	plies    int

	commands map[string]*Command
	names    []string
}

func New(out io.Writer, opts Options) *Shell {
	s := &Shell{
		out:      out,
		opts:     opts,
		errColor: color.New(color.FgRed),
		game:     model.NewGame(),
		commands: make(map[string]*Command),
	}
	if opts.Color {
		s.errColor.EnableColor()
	} else {
		s.errColor.DisableColor()
	}
	s.registerCommands()
	return s
}

func (s *Shell) Register(cmd *Command) {
	s.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		s.commands[cmd.ShortName] = cmd
	}
	s.names = append(s.names, cmd.Name)
}

// Game returns the shell's current game.
func (s *Shell) Game() *model.Game {
	return s.game
}

// Prompt names the side to move, e.g. "white> ".
func (s *Shell) Prompt() string {
	return string(s.game.Turn()) + "> "
}

// Execute runs one input line and reports whether the shell should exit.
// Command errors are printed, not returned.
func (s *Shell) Execute(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	cmd, ok := s.commands[strings.ToLower(parts[0])]
	if !ok {
		s.errColor.Fprintf(s.out, "Unknown command: %s\n", parts[0])
		fmt.Fprintln(s.out, "Type 'help' for available commands")
		return false
	}
	err := cmd.Handler(s, parts[1:])
	if errors.Is(err, errQuit) {
		return true
	}
	if err != nil {
		s.errColor.Fprintf(s.out, "Error: %v\n", err)
	}
	return false
}

func (s *Shell) registerCommands() {
	s.Register(&Command{Name: "move", ShortName: "m", Usage: "move <from> <to>", Description: "Play a move, e.g. move e2 e4", Handler: moveHandler})
	s.Register(&Command{Name: "moves", ShortName: "l", Usage: "moves <square>", Description: "Show where the piece on a square can go", Handler: movesHandler})
	s.Register(&Command{Name: "board", ShortName: "b", Usage: "board", Description: "Print the board", Handler: boardHandler})
	s.Register(&Command{Name: "score", Usage: "score", Description: "Show material won by each side", Handler: scoreHandler})
	s.Register(&Command{Name: "captured", Usage: "captured", Description: "List captured pieces", Handler: capturedHandler})
	s.Register(&Command{Name: "fen", Usage: "fen", Description: "Print the position as FEN", Handler: fenHandler})
	s.Register(&Command{Name: "new", Usage: "new", Description: "Start a new game", Handler: newHandler})
	s.Register(&Command{Name: "load", Usage: "load <fen>", Description: "Set up a position from FEN", Handler: loadHandler})
	s.Register(&Command{Name: "help", ShortName: "?", Usage: "help [command]", Description: "Show available commands", Handler: helpHandler})
	s.Register(&Command{Name: "quit", ShortName: "q", Usage: "quit", Description: "Exit", Handler: quitHandler})
}

func (s *Shell) state() model.GameState {
	snap := model.Snapshot{
		Game:      s.game.Clone(),
		LastMove:  s.lastMove,
		MoveCount: s.plies,
	}
	return snap.State(notation.EncodeGame(snap.Game, s.plies))
}

func (s *Shell) printBoard(targets []model.Square) error {
	return render.RenderText(s.out, s.state(), render.TextOptions{
		Color:   s.opts.Color,
		ASCII:   s.opts.ASCII,
		Targets: targets,
	})
}

func (s *Shell) reset(game *model.Game) {
	s.game = game
	s.lastMove = nil
	s.plies = 0
}

func moveHandler(s *Shell, args []string) error {
	// "move e2e4" is accepted as well as "move e2 e4"
	if len(args) == 1 && len(args[0]) == 4 {
		args = []string{args[0][:2], args[0][2:]}
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: move <from> <to>")
	}
	move, err := model.MoveRequest{From: args[0], To: args[1]}.Parse()
	if err != nil {
		return err
	}
	ply, err := s.game.ApplyMove(move.From, move.To)
	if err != nil {
		return err
	}
	s.lastMove = &ply
	s.plies++
	fmt.Fprintf(s.out, "%d. %s\n", (s.plies+1)/2, ply.Notation)
	return s.printBoard(nil)
}

func movesHandler(s *Shell, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: moves <square>")
	}
	from, err := model.ParseSquare(args[0])
	if err != nil {
		return err
	}
	targets := s.game.LegalMoves(from)
	if len(targets) == 0 {
		fmt.Fprintf(s.out, "No moves from %s\n", from)
		return nil
	}
	names := make([]string, len(targets))
	for i, sq := range targets {
		names[i] = sq.String()
	}
	fmt.Fprintf(s.out, "%s: %s\n", from, strings.Join(names, " "))
	return s.printBoard(targets)
}

func boardHandler(s *Shell, _ []string) error {
	return s.printBoard(nil)
}

func scoreHandler(s *Shell, _ []string) error {
	fmt.Fprintf(s.out, "White %d - Black %d\n", s.game.MaterialScore(model.White), s.game.MaterialScore(model.Black))
	return nil
}

func capturedHandler(s *Shell, _ []string) error {
	fmt.Fprintf(s.out, "White captured: %s\n", pieceNames(s.game.CapturedPieces(model.Black)))
	fmt.Fprintf(s.out, "Black captured: %s\n", pieceNames(s.game.CapturedPieces(model.White)))
	return nil
}

func pieceNames(pieces []model.Piece) string {
	if len(pieces) == 0 {
		return "-"
	}
	names := make([]string, len(pieces))
	for i, p := range pieces {
		names[i] = string(p.Type)
	}
	return strings.Join(names, ", ")
}

func fenHandler(s *Shell, _ []string) error {
	fmt.Fprintln(s.out, notation.EncodeGame(s.game, s.plies))
	return nil
}

func newHandler(s *Shell, _ []string) error {
	s.reset(model.NewGame())
	return s.printBoard(nil)
}

func loadHandler(s *Shell, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: load <fen>")
	}
	game, err := notation.Decode(strings.Join(args, " "))
	if err != nil {
		return err
	}
	s.reset(game)
	return s.printBoard(nil)
}

func helpHandler(s *Shell, args []string) error {
	if len(args) > 0 {
		cmd, ok := s.commands[args[0]]
		if !ok {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(s.out, "%s - %s\nUsage: %s\n", cmd.Name, cmd.Description, cmd.Usage)
		return nil
	}
	names := append([]string(nil), s.names...)
	sort.Strings(names)
	for _, name := range names {
		cmd := s.commands[name]
		fmt.Fprintf(s.out, "  %-18s %s\n", cmd.Usage, cmd.Description)
	}
	return nil
}

func quitHandler(*Shell, []string) error {
	return errQuit
}
