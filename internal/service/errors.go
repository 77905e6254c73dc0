package service

import (
	"errors"

	"github.com/benbeisheim/chessrules-backend/internal/model"
)

var (
	ErrGameNotFound        = errors.New("game not found")
	ErrGameFull            = errors.New("game is full")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrPlayerNotInGame     = errors.New("player not in game")
	ErrAlreadyQueued       = model.ErrAlreadyQueued
	ErrInvalidPosition     = errors.New("invalid starting position")
	ErrDuplicateConnection = errors.New("connection already exists")
)
