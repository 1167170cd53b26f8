package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"userdirectory/internal/wire"
)

const healthRefreshInterval = 15 * time.Second

func main() {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	log.Println("Initializing application...")
	app, cleanup, err := wire.InitializeApplication(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer cleanup()

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", app.Config.Server.Host, app.Config.Server.Port),
		Handler:        setupRouter(app),
		ReadTimeout:    time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(app.Config.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", app.Config.Server.Host, app.Config.Server.GRPCPort))
	if err != nil {
		log.Fatalf("Failed to listen for gRPC: %v", err)
	}
	go app.GRPC.Monitor(ctx, healthRefreshInterval)
	go func() {
		app.Logger.Info("gRPC health server starting", "addr", lis.Addr().String())
		if err := app.GRPC.Serve(lis); err != nil {
			app.Logger.Error("gRPC server stopped", "error", err)
		}
	}()

	go func() {
		app.Logger.Info("HTTP server starting", "addr", server.Addr, "env", app.Config.Server.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app.GRPC.Stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("Server forced to shutdown", "error", err)
	}

	app.Logger.Info("Server gracefully stopped")
}
