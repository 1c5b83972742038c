package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/qrgame/qr-game-backend/internal/config"
	"github.com/qrgame/qr-game-backend/internal/httpapi"
	"github.com/qrgame/qr-game-backend/internal/hub"
	"github.com/qrgame/qr-game-backend/internal/player"
	"github.com/qrgame/qr-game-backend/internal/quiz"
)

func main() {
	// Optional .env for local runs; the environment wins in deployment.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Fatal(err)
		}
	}

	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	bank, err := quiz.Load()
	if err != nil {
		logger.Fatal("load question bank", zap.Error(err))
	}

	ctx := context.Background()
	h := hub.NewHub(ctx, bank, cfg.Timing, clockwork.NewRealClock(), logger)
	store := player.NewStore()

	handler := httpapi.SetupRoutes(h, store, cfg.AllowedOrigins, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
