package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/benbeisheim/chessrules-backend/internal/cli"
)

func main() {
	ascii := flag.Bool("ascii", false, "draw pieces as letters instead of Unicode glyphs")
	noColor := flag.Bool("no-color", false, "disable colours")
	fen := flag.String("fen", "", "start from this position")
	flag.Parse()

	useColor := !*noColor && term.IsTerminal(int(os.Stdout.Fd()))
	color.NoColor = !useColor

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "white> ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer rl.Close()

	shell := cli.New(rl.Stdout(), cli.Options{Color: useColor, ASCII: *ascii})
	if *fen != "" {
		shell.Execute("load " + *fen)
	} else {
		shell.Execute("board")
	}
	fmt.Fprintln(rl.Stdout(), "Type 'help' for commands")

	for {
		rl.SetPrompt(shell.Prompt())
		line, err := rl.Readline()
		if errors.Is(err, io.EOF) {
			return
		}
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return
			}
			continue
		}
		if err != nil {
			continue
		}
		if shell.Execute(strings.TrimSpace(line)) {
			return
		}
	}
}

func historyFile() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return dir + string(os.PathSeparator) + ".chessrules_history"
}
