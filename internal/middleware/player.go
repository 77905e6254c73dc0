package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/benbeisheim/chessrules-backend/internal/obslog"
)

// PlayerIDKey is the Locals key holding the caller's player ID.
const PlayerIDKey = "playerID"

const maxPlayerIDLength = 64

// EnsurePlayerID reads the player ID from the X-Player-ID header, falling
// back to the playerId query parameter, and stores a copy under PlayerIDKey.
// The copy outlives the request: seats, the queue and connection maps keep it.
func EnsurePlayerID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals(PlayerIDKey).(string); ok {
			return c.Next()
		}

		playerID := c.Get("X-Player-ID")
		if playerID == "" {
			playerID = c.Query("playerId")
		}
		if playerID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "player ID is required")
		}
		if len(playerID) > maxPlayerIDLength {
			return fiber.NewError(fiber.StatusBadRequest, "player ID is too long")
		}

		playerID = utils.CopyString(playerID)
		obslog.L().Debug("player_identified", zap.String("player_id", playerID), zap.String("path", c.Path()))
		c.Locals(PlayerIDKey, playerID)
		return c.Next()
	}
}

// PlayerID returns the ID stored by EnsurePlayerID, or "" if none.
func PlayerID(c *fiber.Ctx) string {
	id, _ := c.Locals(PlayerIDKey).(string)
	return id
}
