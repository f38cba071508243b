package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/GonzoDMX/modextract/internal/api"
	"github.com/GonzoDMX/modextract/internal/config"
	"github.com/GonzoDMX/modextract/internal/extractor"
	"github.com/GonzoDMX/modextract/internal/ipc"
	"github.com/GonzoDMX/modextract/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, addr, dataDir, dbName, logLevel string

	flagSet := pflag.NewFlagSet("modextract-server", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "YAML file overriding the built-in configuration")
	flagSet.StringVar(&addr, "addr", "", "listen address (default from config)")
	flagSet.StringVar(&dataDir, "data-dir", "", "directory holding databases (default ~/.modextract)")
	flagSet.StringVar(&dbName, "db", "", "database to activate at startup, created if missing")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// 1. Configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dataDir != "" {
		cfg.Server.DataDir = dataDir
	}
	if dbName != "" {
		cfg.Server.DefaultDB = dbName
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// 2. Setup Logger
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// 3. Storage
	logger.Info("initializing SQLite", "data_dir", cfg.Server.DataDir)
	manager, err := store.NewManager(cfg.Server.DataDir)
	if err != nil {
		return err
	}
	existing, err := manager.ListDatabases()
	if err != nil {
		return err
	}
	if !slices.Contains(existing, cfg.Server.DefaultDB) {
		if err := manager.CreateDatabase(cfg.Server.DefaultDB, "created at startup", cfg); err != nil {
			return err
		}
	}

	// 4. Python worker pools
	logger.Info("starting python workers", "count", cfg.Workers.Count)
	tokPool, err := ipc.NewWorkerPool(cfg.Workers.Python, cfg.Workers.TokenizerScript, cfg.Workers.Count)
	if err != nil {
		return fmt.Errorf("tokenizer workers: %w", err)
	}
	defer tokPool.Close()
	clsPool, err := ipc.NewWorkerPool(cfg.Workers.Python, cfg.Workers.ClassifierScript, cfg.Workers.Count)
	if err != nil {
		return fmt.Errorf("classifier workers: %w", err)
	}
	defer clsPool.Close()

	svc, err := extractor.New(ipc.NewTokenizerClient(tokPool), ipc.NewClassifierClient(clsPool), cfg, logger)
	if err != nil {
		return err
	}

	// 5. Router
	server := api.NewServer(cfg, manager, svc, logger)
	defer server.Close()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.UseDatabase(ctx, cfg.Server.DefaultDB); err != nil {
		return err
	}

	// 6. Start Server
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // whole handbooks are classified synchronously
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
