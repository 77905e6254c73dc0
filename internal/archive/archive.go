// Package archive records finished and in-progress games in SQL. Writes are
// queued and applied by a single writer goroutine; reads are synchronous.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/benbeisheim/chessrules-backend/internal/obslog"
)

const queueSize = 1000

// writeOp is either a transactional write or, when done is set, a flush marker.
type writeOp struct {
	fn   func(*sql.Tx) error
	done chan struct{}
}

type Archive struct {
	db      *sql.DB
	driver  string
	writes  chan writeOp
	healthy atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Open connects with driver ("sqlite3" or "postgres"), creates the schema
// and starts the writer.
func Open(ctx context.Context, driver, dsn string) (*Archive, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("archive dsn required")
	}
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported archive driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == "sqlite3" {
		// one writer; sqlite serialises anyway
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	} else {
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	wctx, cancel := context.WithCancel(context.Background())
	a := &Archive{
		db:     db,
		driver: driver,
		writes: make(chan writeOp, queueSize),
		ctx:    wctx,
		cancel: cancel,
	}
	a.healthy.Store(true)
	a.wg.Add(1)
	go a.writerLoop()
	return a, nil
}

// IsHealthy is false once a write has failed; later writes are dropped.
func (a *Archive) IsHealthy() bool {
	return a.healthy.Load()
}

func (a *Archive) writerLoop() {
	defer a.wg.Done()
	for {
		select {
		case <-a.ctx.Done():
			for {
				select {
				case op := <-a.writes:
					a.execute(op)
				default:
					return
				}
			}
		case op := <-a.writes:
			a.execute(op)
		}
	}
}

func (a *Archive) execute(op writeOp) {
	if op.done != nil {
		close(op.done)
		return
	}
	if !a.healthy.Load() {
		return
	}
	tx, err := a.db.Begin()
	if err != nil {
		a.degrade("begin transaction", err)
		return
	}
	if err := op.fn(tx); err != nil {
		_ = tx.Rollback()
		a.degrade("write", err)
		return
	}
	if err := tx.Commit(); err != nil {
		a.degrade("commit", err)
	}
}

func (a *Archive) degrade(op string, err error) {
	obslog.L().Error("archive_degraded", zap.String("op", op), zap.Error(err))
	a.healthy.Store(false)
}

func (a *Archive) enqueue(kind string, fn func(*sql.Tx) error) {
	if !a.healthy.Load() {
		return
	}
	select {
	case a.writes <- writeOp{fn: fn}:
	default:
		obslog.L().Warn("archive_queue_full", zap.String("kind", kind))
	}
}

// rebind rewrites ? placeholders to $n for postgres.
func (a *Archive) rebind(query string) string {
	if a.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RecordGame inserts the game or updates its seats.
func (a *Archive) RecordGame(rec GameRecord) {
	q := a.rebind(`INSERT INTO chess_games (game_id, initial_fen, white_id, black_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (game_id) DO UPDATE SET white_id = excluded.white_id, black_id = excluded.black_id`)
	a.enqueue("game", func(tx *sql.Tx) error {
		_, err := tx.Exec(q, rec.GameID, rec.InitialFEN, rec.WhiteID, rec.BlackID, rec.CreatedAt.UTC())
		return err
	})
}

func (a *Archive) RecordMove(rec MoveRecord) {
	q := a.rebind(`INSERT INTO chess_moves
		(game_id, move_number, from_sq, to_sq, notation, color, captured, fen_after, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	a.enqueue("move", func(tx *sql.Tx) error {
		_, err := tx.Exec(q, rec.GameID, rec.MoveNumber, rec.From, rec.To, rec.Notation,
			rec.Color, rec.Captured, rec.FENAfter, rec.PlayedAt.UTC())
		return err
	})
}

// CloseGame stamps ended_at on the game.
func (a *Archive) CloseGame(gameID string, at time.Time) {
	q := a.rebind(`UPDATE chess_games SET ended_at = ? WHERE game_id = ?`)
	a.enqueue("close", func(tx *sql.Tx) error {
		_, err := tx.Exec(q, at.UTC(), gameID)
		return err
	})
}

// Flush blocks until every write queued before the call has been applied.
func (a *Archive) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case a.writes <- writeOp{done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Archive) Game(ctx context.Context, gameID string) (GameRecord, error) {
	var rec GameRecord
	err := a.db.QueryRowContext(ctx, a.rebind(`SELECT game_id, initial_fen, white_id, black_id, created_at
		FROM chess_games WHERE game_id = ?`), gameID).
		Scan(&rec.GameID, &rec.InitialFEN, &rec.WhiteID, &rec.BlackID, &rec.CreatedAt)
	if err != nil {
		return GameRecord{}, fmt.Errorf("load game %s: %w", gameID, err)
	}
	return rec, nil
}

// Moves returns the recorded plies of a game in order.
func (a *Archive) Moves(ctx context.Context, gameID string) ([]MoveRecord, error) {
	rows, err := a.db.QueryContext(ctx, a.rebind(`SELECT game_id, move_number, from_sq, to_sq, notation,
		color, captured, fen_after, played_at
		FROM chess_moves WHERE game_id = ? ORDER BY move_number`), gameID)
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	defer rows.Close()

	var out []MoveRecord
	for rows.Next() {
		var m MoveRecord
		if err := rows.Scan(&m.GameID, &m.MoveNumber, &m.From, &m.To, &m.Notation,
			&m.Color, &m.Captured, &m.FENAfter, &m.PlayedAt); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Close stops the writer after draining queued writes, then closes the database.
func (a *Archive) Close() error {
	a.cancel()
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		obslog.L().Warn("archive_shutdown_timeout")
	}
	return a.db.Close()
}
