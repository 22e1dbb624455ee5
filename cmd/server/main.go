package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wiki-annotator/internal/config"
	"wiki-annotator/internal/handler"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	container, err := config.NewContainer()
	if err != nil {
		log.Fatalf("failed to wire server: %v", err)
	}
	defer container.Close()
	cfg := container.Config

	noteHandler := handler.NewNoteHandler(
		container.NoteService,
		container.Logger,
	)

	// Anonymous callers are only allowed against the local store.
	defaultUserID := ""
	if cfg.GetNotesStore() == config.StoreSQLite {
		defaultUserID = cfg.GetDefaultUserID()
	}
	authMiddleware := handler.NewAuthMiddleware(
		container.AuthService,
		container.Logger,
		defaultUserID,
	)

	router := handler.NewRouter(
		handler.NewAuthHandler(container.Logger),
		noteHandler,
		authMiddleware.Middleware,
		cfg.GetAllowedOrigins(),
		container.Logger,
	)

	server := &http.Server{
		Addr:              ":" + cfg.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		container.Logger.Info("Server listening", "address", server.Addr, "store", cfg.GetNotesStore())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		container.Logger.Error("Server shutdown failed", err)
	}

	container.Logger.Info("Server exited")
}
