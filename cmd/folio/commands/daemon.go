package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/folio/internal/config"
	"git.home.luguber.info/inful/folio/internal/server"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct{}

func (*DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return RunDaemon(g.Logger, cfg)
}

// RunDaemon runs the sync loop and the read path until SIGINT or SIGTERM.
func RunDaemon(logger *slog.Logger, cfg *config.Config) error {
	logger.Info("Starting daemon mode", slog.String("data_dir", cfg.Sync.DataDir))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	d, err := rt.newDaemon()
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}
	artifacts, err := rt.newCache(ctx)
	if err != nil {
		return err
	}
	srv := server.New(rt.serverOptions(artifacts, d))

	if err := srv.Start(ctx); err != nil {
		return err
	}
	if err := d.Start(ctx); err != nil {
		return errors.Join(err, srv.Stop(context.Background()))
	}
	logger.Info("Daemon started, waiting for shutdown signal...")

	<-ctx.Done()
	logger.Info("Shutdown signal received, stopping daemon...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer stopCancel()
	var errs []error
	if err := srv.Stop(stopCtx); err != nil {
		errs = append(errs, err)
	}
	if err := d.Stop(stopCtx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop daemon: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Info("Daemon stopped successfully")
	return nil
}
