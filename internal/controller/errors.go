package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/benbeisheim/chessrules-backend/internal/middleware"
	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/obslog"
	"github.com/benbeisheim/chessrules-backend/internal/service"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	CodeGameNotFound      = "GAME_NOT_FOUND"
	CodeInvalidMove       = "INVALID_MOVE"
	CodeNotYourTurn       = "NOT_YOUR_TURN"
	CodeGameFull          = "GAME_FULL"
	CodeNotInGame         = "PLAYER_NOT_IN_GAME"
	CodeAlreadyQueued     = "ALREADY_QUEUED"
	CodeAlreadyConnected  = "ALREADY_CONNECTED"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeOutOfBounds       = "OUT_OF_BOUNDS"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeNotFound          = "NOT_FOUND"
	CodeUpgradeRequired   = "UPGRADE_REQUIRED"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeInternal          = "INTERNAL_ERROR"
)

// classify maps an error to its HTTP status and error code.
func classify(err error) (int, string) {
	var verr *middleware.ValidationError
	var ferr *fiber.Error
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, service.ErrGameNotFound):
		return fiber.StatusNotFound, CodeGameNotFound
	case errors.Is(err, model.ErrIllegalMove):
		return fiber.StatusUnprocessableEntity, CodeInvalidMove
	case errors.Is(err, model.ErrOutOfBounds):
		return fiber.StatusBadRequest, CodeOutOfBounds
	case errors.Is(err, service.ErrNotYourTurn):
		return fiber.StatusConflict, CodeNotYourTurn
	case errors.Is(err, service.ErrGameFull):
		return fiber.StatusConflict, CodeGameFull
	case errors.Is(err, service.ErrPlayerNotInGame):
		return fiber.StatusForbidden, CodeNotInGame
	case errors.Is(err, service.ErrAlreadyQueued):
		return fiber.StatusConflict, CodeAlreadyQueued
	case errors.Is(err, service.ErrDuplicateConnection):
		return fiber.StatusConflict, CodeAlreadyConnected
	case errors.Is(err, service.ErrInvalidPosition):
		return fiber.StatusBadRequest, CodeInvalidRequest
	case errors.As(err, &ferr):
		switch ferr.Code {
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
			return ferr.Code, CodeInvalidRequest
		case fiber.StatusUnauthorized:
			return ferr.Code, CodeUnauthorized
		case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
			return ferr.Code, CodeNotFound
		case fiber.StatusUpgradeRequired:
			return ferr.Code, CodeUpgradeRequired
		case fiber.StatusTooManyRequests:
			return ferr.Code, CodeRateLimitExceeded
		}
		return ferr.Code, CodeInternal
	}
	return fiber.StatusInternalServerError, CodeInternal
}

// errorResponse builds the body for err. Internal errors are not echoed.
func errorResponse(err error) (int, ErrorResponse) {
	status, code := classify(err)
	resp := ErrorResponse{Error: err.Error(), Code: code}
	if status >= fiber.StatusInternalServerError {
		resp.Error = "internal server error"
	}
	var verr *middleware.ValidationError
	if errors.As(err, &verr) {
		resp.Details = verr.Fields
	}
	return status, resp
}

// ErrorHandler renders handler errors as ErrorResponse.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, resp := errorResponse(err)
	if status >= fiber.StatusInternalServerError {
		obslog.L().Error("request_failed",
			zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(resp)
}

// RateLimitReached is the limiter's LimitReached handler.
func RateLimitReached(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
		Error: "too many requests",
		Code:  CodeRateLimitExceeded,
	})
}
