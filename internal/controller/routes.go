package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/benbeisheim/chessrules-backend/internal/middleware"
	"github.com/benbeisheim/chessrules-backend/internal/model"
	"github.com/benbeisheim/chessrules-backend/internal/service"
)

type RouteConfig struct {
	// AllowedOrigins is checked on websocket upgrades; "*" allows any.
	AllowedOrigins []string
}

// Register mounts the REST and websocket routes on app.
func Register(app *fiber.App, gameService *service.GameService, cfg RouteConfig) {
	gameController := NewGameController(gameService)
	wsController := NewWebSocketController(gameService)

	app.Get("/health", Health)

	wsConfig := websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         cfg.AllowedOrigins,
	}
	wsRoutes := app.Group("/ws", middleware.EnsurePlayerID(), middleware.WebSocketUpgrade())
	wsRoutes.Get("/game/:gameId", wsController.RequireGame, websocket.New(wsController.HandleConnection, wsConfig))
	wsRoutes.Get("/matchmaking", websocket.New(wsController.HandleMatchmaking, wsConfig))

	api := app.Group("/api")
	api.Post("/player", gameController.NewPlayer)

	gameRoutes := api.Group("/game", middleware.EnsurePlayerID())
	gameRoutes.Post("/matchmaking/join", gameController.JoinMatchmaking)
	gameRoutes.Post("/matchmaking/leave", gameController.LeaveMatchmaking)
	gameRoutes.Post("/create", middleware.ValidateBody[model.CreateGameRequest](), gameController.CreateGame)
	gameRoutes.Post("/join/:gameId", gameController.JoinGame)
	gameRoutes.Get("/:gameId", gameController.GetGameState)
	gameRoutes.Get("/:gameId/moves", gameController.LegalMoves)
	gameRoutes.Post("/:gameId/move", middleware.ValidateBody[model.MoveRequest](), gameController.MakeMove)
	gameRoutes.Get("/:gameId/board.png", gameController.BoardPNG)
	gameRoutes.Get("/:gameId/board.txt", gameController.BoardText)
	gameRoutes.Delete("/:gameId", gameController.DeleteGame)
}
