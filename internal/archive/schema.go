package archive

import "time"

// GameRecord is a row in chess_games.
type GameRecord struct {
	GameID     string
	InitialFEN string
	WhiteID    string
	BlackID    string
	CreatedAt  time.Time
}

// MoveRecord is a row in chess_moves. MoveNumber counts plies from 1.
type MoveRecord struct {
	GameID     string
	MoveNumber int
	From       string
	To         string
	Notation   string
	Color      string
	Captured   string
	FENAfter   string
	PlayedAt   time.Time
}

// Schema is valid for both sqlite3 and postgres.
const Schema = `
CREATE TABLE IF NOT EXISTS chess_games (
	game_id     TEXT PRIMARY KEY,
	initial_fen TEXT NOT NULL,
	white_id    TEXT NOT NULL DEFAULT '',
	black_id    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL,
	ended_at    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chess_moves (
	game_id     TEXT NOT NULL REFERENCES chess_games(game_id) ON DELETE CASCADE,
	move_number INTEGER NOT NULL,
	from_sq     TEXT NOT NULL,
	to_sq       TEXT NOT NULL,
	notation    TEXT NOT NULL,
	color       TEXT NOT NULL,
	captured    TEXT NOT NULL DEFAULT '',
	fen_after   TEXT NOT NULL,
	played_at   TIMESTAMP NOT NULL,
	PRIMARY KEY (game_id, move_number)
);

CREATE INDEX IF NOT EXISTS idx_chess_games_white ON chess_games(white_id);
CREATE INDEX IF NOT EXISTS idx_chess_games_black ON chess_games(black_id);
`
