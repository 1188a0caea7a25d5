package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "realtime-canvas/internal/app"
	core "realtime-canvas/internal/core"
	httpx "realtime-canvas/internal/http"
	ws "realtime-canvas/internal/ws"
	metrics "realtime-canvas/pkg/metrics"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Sync core: registries, dispatcher, protocol handler
	sessions := core.NewSessionRegistry(logger)
	rooms := core.NewRoomRegistry(cfg.RetainEmptyRooms)
	dispatch := core.NewDispatcher(logger)
	handler := core.NewHandler(logger, sessions, rooms, dispatch, cfg.ChatMaxLen)
	metrics.RegisterRoomGauges(rooms.Len, sessions.Len)

	// WebSocket hub + HTTP router
	hub := ws.NewHub(logger, cfg, handler, dispatch)
	router := httpx.NewRouter(cfg, hub, rooms)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr, "retain_empty_rooms", cfg.RetainEmptyRooms)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	// shutdown
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}
