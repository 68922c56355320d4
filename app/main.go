package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/folio/app/api"
	"github.com/lysyi3m/folio/app/blog"
	"github.com/lysyi3m/folio/app/cfg"
	"github.com/lysyi3m/folio/app/content"
	"github.com/lysyi3m/folio/app/database"
	"github.com/lysyi3m/folio/app/markdown"
	"github.com/lysyi3m/folio/app/tasks"
)

func main() {
	config, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if config == nil {
		// Help was shown
		return
	}

	level := slog.LevelInfo
	if config.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting Folio server", "version", config.Version)

	slog.Info("Opening database", "path", config.DBPath)
	db, err := database.NewConnection(config.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	viewRepo := database.NewViewRepository(db)

	slog.Info("Loading post registry", "file", config.RegistryFile)
	registry, err := blog.LoadRegistry(config.RegistryFile)
	if err != nil {
		slog.Error("Failed to load post registry", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded post registry", "posts", registry.Count())

	var store content.Store
	if config.ContentURL != "" {
		slog.Info("Using remote content store", "url", config.ContentURL)
		store = content.NewHTTPStore(config.ContentURL, &http.Client{}, config.UserAgent)
	} else {
		slog.Info("Using local content store", "dir", config.PostsDir)
		store = content.NewDirStore(config.PostsDir)
	}

	engine, err := markdown.NewEngine(config.Renderer, config.OrderedLists, config.Sanitize)
	if err != nil {
		slog.Error("Failed to create markdown engine", "error", err)
		os.Exit(1)
	}
	loader := content.NewLoader(store, engine)

	slog.Info("Starting background scheduler", "workers", config.WorkerCount, "interval", config.SchedulerInterval)
	scheduler := tasks.NewScheduler(registry, store, viewRepo)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(registry, loader, viewRepo, scheduler, config.SiteTitle)
	server := api.NewServer(handler, config.APIAccessKey, config.PostsDir)

	httpServer := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", config.Port, "renderer", config.Renderer)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Folio server shutdown complete")
}
