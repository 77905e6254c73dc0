package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benbeisheim/chessrules-backend/internal/archive"
	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/notation"
	"github.com/benbeisheim/chessrules-backend/internal/obslog"
	"github.com/benbeisheim/chessrules-backend/internal/store"
)

// SnapshotStore persists sessions between restarts. Load returns
// store.ErrNotFound for unknown IDs.
type SnapshotStore interface {
	Save(ctx context.Context, snap model.Snapshot) error
	Load(ctx context.Context, id string) (model.Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// Archiver records games and accepted moves. Calls must not block.
type Archiver interface {
	RecordGame(rec archive.GameRecord)
	RecordMove(rec archive.MoveRecord)
	CloseGame(gameID string, at time.Time)
}

type Option func(*GameManager)

func WithStore(s SnapshotStore) Option {
	return func(gm *GameManager) { gm.store = s }
}

func WithArchive(a Archiver) Option {
	return func(gm *GameManager) { gm.archive = a }
}

// WithMatchInterval sets how often the matchmaking queue is polled.
func WithMatchInterval(d time.Duration) Option {
	return func(gm *GameManager) {
		if d > 0 {
			gm.matchInterval = d
		}
	}
}

type GameManager struct {
	games            map[string]*Session
	queue            *model.Queue
	matchingChannels map[string]chan model.MatchFoundEvent
	mu               sync.RWMutex

	store         SnapshotStore
	archive       Archiver
	matchInterval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewGameManager starts the matchmaking loop; Close stops it.
func NewGameManager(opts ...Option) *GameManager {
	gm := &GameManager{
		games:            make(map[string]*Session),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan model.MatchFoundEvent),
		matchInterval:    time.Second,
		done:             make(chan struct{}),
	}
	for _, opt := range opts {
		opt(gm)
	}

	ctx, cancel := context.WithCancel(context.Background())
	gm.cancel = cancel
	go gm.processMatchmaking(ctx)
	return gm
}

func (gm *GameManager) Close() {
	gm.cancel()
	<-gm.done
}

// CreateGame hosts a new session, from the standard position or from fen.
func (gm *GameManager) CreateGame(ctx context.Context, fen string) (string, error) {
	game := model.NewGame()
	if fen != "" {
		var err error
		if game, err = notation.Decode(fen); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPosition, err)
		}
	}

	session := newSession(uuid.New().String(), game)
	gm.mu.Lock()
	gm.games[session.ID] = session
	gm.mu.Unlock()

	snap := session.Snapshot()
	gm.persist(ctx, session, snap)
	gm.recordGame(snap)
	obslog.L().Info("game_created", zap.String("game_id", session.ID), zap.Bool("custom_position", fen != ""))
	return session.ID, nil
}

// GetGame returns the live session, reloading it from the store if this
// process has not seen it yet.
func (gm *GameManager) GetGame(ctx context.Context, gameID string) (*Session, error) {
	gm.mu.RLock()
	session, exists := gm.games[gameID]
	gm.mu.RUnlock()
	if exists {
		return session, nil
	}
	if gm.store == nil {
		return nil, ErrGameNotFound
	}

	snap, err := gm.store.Load(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()
	if session, exists := gm.games[gameID]; exists {
		return session, nil
	}
	session = restoreSession(snap)
	gm.games[gameID] = session
	obslog.L().Info("game_restored", zap.String("game_id", gameID), zap.Int("move_count", snap.MoveCount))
	return session, nil
}

func (gm *GameManager) AddPlayerToGame(ctx context.Context, gameID, playerID string) (model.Color, error) {
	session, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return "", err
	}
	color, err := session.AddPlayer(playerID)
	if err != nil {
		return "", err
	}

	snap := session.Snapshot()
	gm.persist(ctx, session, snap)
	gm.recordGame(snap)
	session.Broadcast()
	obslog.L().Info("player_joined",
		zap.String("game_id", gameID), zap.String("player_id", playerID), zap.String("color", string(color)))
	return color, nil
}

func (gm *GameManager) GetGameState(ctx context.Context, gameID string) (model.GameState, error) {
	session, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return session.State(), nil
}

func (gm *GameManager) LegalMoves(ctx context.Context, gameID string, from model.Square) ([]model.Square, error) {
	session, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return session.LegalMoves(from)
}

// MakeMove applies the move, persists and archives it, and broadcasts the
// new state. The returned state reflects the move.
func (gm *GameManager) MakeMove(ctx context.Context, gameID, playerID string, from, to model.Square) (model.GameState, error) {
	session, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return model.GameState{}, err
	}
	ply, snap, err := session.MakeMove(playerID, from, to)
	if err != nil {
		obslog.L().Debug("move_rejected",
			zap.String("game_id", gameID), zap.String("player_id", playerID),
			zap.Stringer("from", from), zap.Stringer("to", to), zap.Error(err))
		return model.GameState{}, err
	}

	state := stateOf(snap)
	gm.persist(ctx, session, snap)
	if gm.archive != nil {
		rec := archive.MoveRecord{
			GameID:     gameID,
			MoveNumber: snap.MoveCount,
			From:       from.String(),
			To:         to.String(),
			Notation:   ply.Notation,
			Color:      string(ply.Color),
			FENAfter:   state.FEN,
			PlayedAt:   snap.UpdatedAt,
		}
		if ply.CapturedPiece != nil {
			rec.Captured = ply.CapturedPiece.String()
		}
		gm.archive.RecordMove(rec)
	}
	session.Broadcast()
	obslog.L().Info("move_applied",
		zap.String("game_id", gameID), zap.String("player_id", playerID),
		zap.String("notation", ply.Notation), zap.Int("move_count", snap.MoveCount))
	return state, nil
}

// DeleteGame ends the session. Once a seat is taken only a seated player
// may delete it.
func (gm *GameManager) DeleteGame(ctx context.Context, gameID, playerID string) error {
	session, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	players := session.Players()
	if (players.White.Taken() || players.Black.Taken()) && !session.IsPlayerInGame(playerID) {
		return ErrPlayerNotInGame
	}

	gm.mu.Lock()
	delete(gm.games, gameID)
	gm.mu.Unlock()

	// a save already in flight finishes before the delete; later ones see closed
	session.persistMu.Lock()
	session.close()
	if gm.store != nil {
		if err := gm.store.Delete(ctx, gameID); err != nil {
			obslog.L().Warn("snapshot_delete_failed", zap.String("game_id", gameID), zap.Error(err))
		}
	}
	session.persistMu.Unlock()

	session.closeConnections()
	if gm.archive != nil {
		gm.archive.CloseGame(gameID, time.Now().UTC())
	}
	obslog.L().Info("game_deleted", zap.String("game_id", gameID), zap.String("player_id", playerID))
	return nil
}

func (gm *GameManager) RegisterConnection(ctx context.Context, gameID, playerID string, conn Conn) error {
	session, err := gm.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	return session.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID, playerID string, conn Conn) {
	gm.mu.RLock()
	session, exists := gm.games[gameID]
	gm.mu.RUnlock()
	if exists {
		session.UnregisterConnection(playerID, conn)
	}
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	if err := gm.queue.AddPlayer(model.Player{ID: playerID}); err != nil {
		return err
	}
	obslog.L().Info("matchmaking_joined", zap.String("player_id", playerID), zap.Int("queue_size", gm.queue.Size()))
	return nil
}

func (gm *GameManager) LeaveMatchmaking(playerID string) bool {
	return gm.queue.RemovePlayer(playerID)
}

// RegisterMatchmakingChannel sets where playerID's match-found event is
// delivered. The channel should have room for one event.
func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.matchingChannels[playerID] = ch
}

// UnregisterMatchmakingChannel forgets ch. The caller owns and closes it.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if gm.matchingChannels[playerID] == ch {
		delete(gm.matchingChannels, playerID)
	}
}

func (gm *GameManager) processMatchmaking(ctx context.Context) {
	defer close(gm.done)
	ticker := time.NewTicker(gm.matchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gm.matchQueued(ctx)
		}
	}
}

// matchQueued pairs everyone currently queued, oldest first.
func (gm *GameManager) matchQueued(ctx context.Context) {
	for {
		player1, player2, ok := gm.queue.GetNextPair()
		if !ok {
			return
		}

		session := newSession(uuid.New().String(), model.NewGame())
		p1Color, _ := session.AddPlayer(player1.ID)
		p2Color, _ := session.AddPlayer(player2.ID)

		gm.mu.Lock()
		gm.games[session.ID] = session
		gm.mu.Unlock()

		snap := session.Snapshot()
		gm.persist(ctx, session, snap)
		gm.recordGame(snap)

		gm.notifyMatch(player1.ID, model.MatchFoundEvent{GameID: session.ID, Color: p1Color})
		gm.notifyMatch(player2.ID, model.MatchFoundEvent{GameID: session.ID, Color: p2Color})
		obslog.L().Info("match_found",
			zap.String("game_id", session.ID), zap.String("white", player1.ID), zap.String("black", player2.ID))
	}
}

func (gm *GameManager) notifyMatch(playerID string, event model.MatchFoundEvent) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		obslog.L().Warn("match_not_delivered", zap.String("player_id", playerID), zap.String("game_id", event.GameID))
		return
	}
	select {
	case ch <- event:
		delete(gm.matchingChannels, playerID)
	default:
		obslog.L().Warn("match_channel_full", zap.String("player_id", playerID))
	}
}

// persist writes snap unless the store already holds a newer version or
// the session was deleted. Saves for one session never overlap.
func (gm *GameManager) persist(ctx context.Context, session *Session, snap model.Snapshot) {
	if gm.store == nil {
		return
	}
	session.persistMu.Lock()
	defer session.persistMu.Unlock()
	if session.isClosed() || snap.Version <= session.savedVersion {
		return
	}
	if err := gm.store.Save(ctx, snap); err != nil {
		obslog.L().Warn("snapshot_save_failed", zap.String("game_id", snap.ID), zap.Error(err))
		return
	}
	session.savedVersion = snap.Version
}

func (gm *GameManager) recordGame(snap model.Snapshot) {
	if gm.archive == nil {
		return
	}
	gm.archive.RecordGame(archive.GameRecord{
		GameID:     snap.ID,
		InitialFEN: notation.EncodeGame(snap.Game, snap.MoveCount),
		WhiteID:    snap.Players.White.ID,
		BlackID:    snap.Players.Black.ID,
		CreatedAt:  snap.CreatedAt,
	})
}
