package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"userdirectory/internal/common"
	"userdirectory/internal/wire"
)

func main() {
	ctx := context.Background()

	app, cleanup, err := wire.InitializeMediaServer(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize media server: %v", err)
	}
	defer cleanup()

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%s", app.Config.Server.Host, app.Config.Server.MediaServerPort),
		Handler:     common.RequestID(common.Logging(app.Logger, app.Config.IsProduction())(app.Server)),
		ReadTimeout: time.Duration(app.Config.Server.ReadTimeout) * time.Second,
	}

	go func() {
		app.Logger.Info("Media server starting", "addr", server.Addr, "storage", app.Config.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("Media server forced to shutdown", "error", err)
	}
	app.Logger.Info("Media server stopped")
}
