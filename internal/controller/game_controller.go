package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/benbeisheim/chessrules-backend/internal/middleware"
	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/render"
	"github.com/benbeisheim/chessrules-backend/internal/service"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

// NewPlayer hands out an anonymous player ID for clients that have none.
func (gc *GameController) NewPlayer(c *fiber.Ctx) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"playerId": uuid.New().String(),
	})
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	req := middleware.Body[model.CreateGameRequest](c)
	gameID, err := gc.gameService.CreateGame(c.UserContext(), *req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Game created",
		"gameId":  gameID,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	color, err := gc.gameService.JoinGame(c.UserContext(), gameID, middleware.PlayerID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Game joined",
		"gameId":  gameID,
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	state, err := gc.gameService.GetGameState(c.UserContext(), c.Params("gameId"))
	if err != nil {
		return err
	}
	return c.JSON(state)
}

// LegalMoves answers GET /:gameId/moves?from=e2.
func (gc *GameController) LegalMoves(c *fiber.Ctx) error {
	from := c.Query("from")
	if from == "" {
		return fiber.NewError(fiber.StatusBadRequest, "from is required")
	}
	moves, err := gc.gameService.LegalMoves(c.UserContext(), c.Params("gameId"), from)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"from":  from,
		"moves": moves,
	})
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	req := middleware.Body[model.MoveRequest](c)
	state, err := gc.gameService.HandleMove(c.UserContext(), c.Params("gameId"), middleware.PlayerID(c), *req)
	if err != nil {
		return err
	}
	return c.JSON(state)
}

func (gc *GameController) DeleteGame(c *fiber.Ctx) error {
	if err := gc.gameService.DeleteGame(c.UserContext(), c.Params("gameId"), middleware.PlayerID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// BoardPNG answers GET /:gameId/board.png?width=640&select=e2.
func (gc *GameController) BoardPNG(c *fiber.Ctx) error {
	width := c.QueryInt("width", 0)
	if width < 0 || width > render.MaxSize {
		return fiber.NewError(fiber.StatusBadRequest, "width out of range")
	}
	img, err := gc.gameService.RenderPNG(c.UserContext(), c.Params("gameId"), width, c.Query("select"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(img)
}

// BoardText answers GET /:gameId/board.txt?color=true&ascii=true.
func (gc *GameController) BoardText(c *fiber.Ctx) error {
	text, err := gc.gameService.RenderText(c.UserContext(), c.Params("gameId"), render.TextOptions{
		Color: c.QueryBool("color", false),
		ASCII: c.QueryBool("ascii", false),
	})
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(text)
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	if err := gc.gameService.JoinMatchmaking(middleware.PlayerID(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status": "queued",
	})
}

func (gc *GameController) LeaveMatchmaking(c *fiber.Ctx) error {
	removed := gc.gameService.LeaveMatchmaking(middleware.PlayerID(c))
	return c.JSON(fiber.Map{
		"status":  "left",
		"removed": removed,
	})
}

func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
