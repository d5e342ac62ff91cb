package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bidhouse/api"
)

func main() {
	// a missing .env file is fine, flags and the environment still apply
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Fail to load .env file", slog.Any("error", err))
	}

	args, err := ParseArgs()
	if err != nil {
		slog.Error("Fail to parse arguments", slog.Any("error", err))
		os.Exit(1)
	}
	if err := args.Validate(); err != nil {
		slog.Error("Missing or invalid arguments", slog.Any("error", err))
		os.Exit(1)
	}

	server, err := api.NewServer(args.ServerConfig)
	if err != nil {
		slog.Error("Fail to create server", slog.Any("error", err))
		os.Exit(1)
	}
	defer server.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.EnsureAdmin(ctx); err != nil {
		slog.Error("Fail to bootstrap administrator", slog.Any("error", err))
		return
	}
	server.Start()

	httpServer := &http.Server{
		Addr:    args.ServerURL,
		Handler: server.Handler(),
	}
	httpServer.RegisterOnShutdown(server.CloseStreams)
	go func() {
		slog.Info("Listening", slog.String("addr", args.ServerURL))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), args.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Fail to shut down HTTP server", slog.Any("error", err))
	}
}
