package service

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/notation"
	"github.com/benbeisheim/chessrules-backend/internal/obslog"
	"github.com/benbeisheim/chessrules-backend/internal/ws"
)

// Conn is the part of a websocket connection a session writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// SessionConnections holds the live connections of one session, keyed by player ID.
type SessionConnections struct {
	connections map[string]Conn
	mu          sync.Mutex
}

func newSessionConnections() *SessionConnections {
	return &SessionConnections{connections: make(map[string]Conn)}
}

// Session is one hosted game: the rules state plus seats and observers.
// mu guards the game state, connections has its own lock so a slow client
// never holds up a move, and persistMu orders writes to the snapshot store.
type Session struct {
	ID          string
	mu          sync.Mutex
	game        *model.Game
	players     model.Players
	lastMove    *model.Ply
	moveCount   int
	version     int
	closed      bool
	createdAt   time.Time
	updatedAt   time.Time
	connections *SessionConnections

	persistMu sync.Mutex
	// savedVersion is the newest snapshot version written to the store.
	savedVersion int
}

func newSession(id string, game *model.Game) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          id,
		game:        game,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
		connections: newSessionConnections(),
	}
}

func restoreSession(snap model.Snapshot) *Session {
	s := newSession(snap.ID, snap.Game)
	s.version = snap.Version
	s.savedVersion = snap.Version
	s.players = snap.Players
	s.lastMove = snap.LastMove
	s.moveCount = snap.MoveCount
	if !snap.CreatedAt.IsZero() {
		s.createdAt = snap.CreatedAt
	}
	if !snap.UpdatedAt.IsZero() {
		s.updatedAt = snap.UpdatedAt
	}
	return s
}

// AddPlayer seats playerID: white first, then black. A player already
// seated gets their existing colour back.
func (s *Session) AddPlayer(playerID string) (model.Color, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrGameNotFound
	}
	if color, ok := s.players.Seat(playerID); ok {
		return color, nil
	}
	switch {
	case !s.players.White.Taken():
		s.players.White = model.ClientPlayer{ID: playerID, Color: model.White}
		s.touch()
		return model.White, nil
	case !s.players.Black.Taken():
		s.players.Black = model.ClientPlayer{ID: playerID, Color: model.Black}
		s.touch()
		return model.Black, nil
	}
	return "", ErrGameFull
}

func (s *Session) IsPlayerInGame(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.players.Seat(playerID)
	return ok
}

func (s *Session) Players() model.Players {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players
}

// MakeMove plays from-to for playerID. The seat and turn are checked before
// the rules; on any error the game is unchanged. The snapshot is taken in
// the same critical section as the move, so it shows exactly this move.
func (s *Session) MakeMove(playerID string, from, to model.Square) (model.Ply, model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.Ply{}, model.Snapshot{}, ErrGameNotFound
	}
	color, ok := s.players.Seat(playerID)
	if !ok {
		return model.Ply{}, model.Snapshot{}, ErrPlayerNotInGame
	}
	if color != s.game.Turn() {
		return model.Ply{}, model.Snapshot{}, ErrNotYourTurn
	}
	ply, err := s.game.ApplyMove(from, to)
	if err != nil {
		return model.Ply{}, model.Snapshot{}, err
	}
	s.lastMove = &ply
	s.moveCount++
	s.touch()
	return ply, s.snapshotLocked(), nil
}

// LegalMoves lists destinations for the piece on from, for the side to move.
func (s *Session) LegalMoves(from model.Square) ([]model.Square, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !from.InBounds() {
		return nil, fmt.Errorf("%w: %s", model.ErrOutOfBounds, from)
	}
	return s.game.LegalMoves(from), nil
}

func (s *Session) touch() {
	s.updatedAt = time.Now().UTC()
	s.version++
}

// close marks the session deleted. Later moves, joins and saves are refused.
func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Snapshot copies the session state; the copy shares nothing with s.
func (s *Session) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() model.Snapshot {
	var last *model.Ply
	if s.lastMove != nil {
		cp := *s.lastMove
		last = &cp
	}
	return model.Snapshot{
		ID:        s.ID,
		Version:   s.version,
		Game:      s.game.Clone(),
		Players:   s.players,
		LastMove:  last,
		MoveCount: s.moveCount,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

func (s *Session) State() model.GameState {
	return stateOf(s.Snapshot())
}

func stateOf(snap model.Snapshot) model.GameState {
	return snap.State(notation.EncodeGame(snap.Game, snap.MoveCount))
}

// RegisterConnection attaches conn for playerID. Seated players and
// spectators are both accepted; a second live connection for the same
// player is rejected.
func (s *Session) RegisterConnection(playerID string, conn Conn) error {
	s.connections.mu.Lock()
	if _, exists := s.connections.connections[playerID]; exists {
		s.connections.mu.Unlock()
		return ErrDuplicateConnection
	}
	s.connections.connections[playerID] = conn
	s.connections.mu.Unlock()

	s.Broadcast()
	return nil
}

// UnregisterConnection removes conn if it is still the one registered for playerID.
func (s *Session) UnregisterConnection(playerID string, conn Conn) {
	s.connections.mu.Lock()
	defer s.connections.mu.Unlock()
	if current, ok := s.connections.connections[playerID]; ok && current == conn {
		delete(s.connections.connections, playerID)
	}
}

func (s *Session) ConnectionCount() int {
	s.connections.mu.Lock()
	defer s.connections.mu.Unlock()
	return len(s.connections.connections)
}

// Broadcast sends the current state to every connection. Connections that
// fail to write are closed and dropped.
func (s *Session) Broadcast() {
	state := s.State()
	payload, err := json.Marshal(state)
	if err != nil {
		obslog.L().Error("broadcast_marshal_failed", zap.String("game_id", s.ID), zap.Error(err))
		return
	}
	msg := ws.Message{Type: ws.MessageTypeGameState, Payload: payload}

	s.connections.mu.Lock()
	defer s.connections.mu.Unlock()
	for playerID, conn := range s.connections.connections {
		if err := conn.WriteJSON(msg); err != nil {
			obslog.L().Warn("broadcast_failed",
				zap.String("game_id", s.ID), zap.String("player_id", playerID), zap.Error(err))
			_ = conn.Close()
			delete(s.connections.connections, playerID)
		}
	}
}

// closeConnections drops every connection, used when the game is deleted.
func (s *Session) closeConnections() {
	s.connections.mu.Lock()
	defer s.connections.mu.Unlock()
	for playerID, conn := range s.connections.connections {
		_ = conn.Close()
		delete(s.connections.connections, playerID)
	}
}
