package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/folio/internal/config"
	"git.home.luguber.info/inful/folio/internal/logfields"
)

// SyncCmd implements the 'sync' command.
type SyncCmd struct {
	Collection string `short:"n" help:"Sync only this collection"`
}

func (s *SyncCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if s.Collection != "" {
		if _, ok := cfg.Collection(s.Collection); !ok {
			return fmt.Errorf("unknown collection %q", s.Collection)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	d, err := rt.newDaemon()
	if err != nil {
		return err
	}
	if s.Collection != "" {
		res, err := d.SyncOnce(ctx, s.Collection)
		if err != nil {
			return err
		}
		g.Logger.Info("Sync finished",
			logfields.Collection(s.Collection),
			logfields.PassID(res.ID),
			slog.String("outcome", string(res.Outcome)),
			logfields.Count(res.Artifacts))
		return nil
	}
	return d.SyncAll(ctx)
}
