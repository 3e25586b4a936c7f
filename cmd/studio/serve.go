package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ciphersql/studio/internal/catalog"
	"github.com/ciphersql/studio/internal/config"
	"github.com/ciphersql/studio/internal/db"
	"github.com/ciphersql/studio/internal/hints"
	"github.com/ciphersql/studio/internal/logger"
	"github.com/ciphersql/studio/internal/progress"
	"github.com/ciphersql/studio/internal/sandbox"
	"github.com/ciphersql/studio/internal/server"
	"github.com/ciphersql/studio/internal/storage"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the studio API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if portFlag != 0 {
		cfg.Server.Port = portFlag
	}

	log, err := logger.New(cfg.Logging.Mode, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := db.NewConnection(ctx, cfg.Postgres.DBConfig(), log)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer conn.Close()

	store, err := storage.Open(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("opening catalog store: %w", err)
	}
	defer store.Close()

	catalogStore := catalog.NewStore(store)
	progressStore := progress.NewStore(store)

	sandboxSvc := sandbox.NewService(
		sandbox.NewProvisioner(conn, log),
		sandbox.NewExecutor(conn),
		log,
	)

	var hinter hints.Generator
	if gen, err := hints.NewOpenAIGenerator(cfg.Hints.APIKey, cfg.Hints.BaseURL, cfg.Hints.Model); err == nil {
		hinter = gen
	} else if errors.Is(err, hints.ErrNotConfigured) {
		log.Warn("hints disabled: no API key configured")
	} else {
		return fmt.Errorf("initializing hint generator: %w", err)
	}

	srv := server.New(cfg.Server, catalogStore, progressStore, sandboxSvc, hinter, conn, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}
