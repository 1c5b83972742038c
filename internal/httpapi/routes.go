package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/qrgame/qr-game-backend/internal/hub"
	"github.com/qrgame/qr-game-backend/internal/player"
	"github.com/qrgame/qr-game-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, store *player.Store, allowedOrigins []string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/api/player", CreatePlayer(store))
	r.Post("/api/room/create", CreateRoom(h, store, log))
	r.Post("/api/room/join", JoinRoom(h, store))
	r.Get("/api/room/players/{code}", ListPlayers(h))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, allowedOrigins, log))

	// The SPA is served from another origin.
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}
