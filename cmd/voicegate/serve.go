package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"voicegate/internal/api"
	"voicegate/internal/contract"
	"voicegate/internal/engine"
	"voicegate/internal/release"
	"voicegate/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the /generate and /version HTTP endpoints",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	doc, err := contract.Load(cfg.Contract.Path)
	if err != nil {
		return fmt.Errorf("failed to load voice contract: %w", err)
	}
	if cfg.Contract.LockPath != "" {
		if err := doc.VerifyLock(cfg.Contract.LockPath); err != nil {
			return fmt.Errorf("contract fingerprint lock: %w", err)
		}
	}
	if cfg.Release.VerifyOnStartup {
		if err := release.VerifyIdentityStrict(cfg.Release.Dir, doc, cfg.Engine, logger); err != nil {
			return err
		}
	}
	logger.Info("contract loaded",
		zap.String("path", cfg.Contract.Path),
		zap.String("version", doc.Version()),
		zap.String("fingerprint", doc.Fingerprint()))

	store, err := session.NewStore(cfg.Sessions.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	handler := &api.Handler{
		Engine:         engine.New(doc, engine.StubGenerator{}, logger),
		Sessions:       session.NewManager(store, logger),
		Identity:       cfg.Engine,
		MaxPromptChars: cfg.Server.MaxPromptChars,
		Logger:         logger,
	}
	server := api.NewServer(cfg.Server.Addr, handler,
		cfg.GetReadTimeout(), cfg.GetWriteTimeout(), cfg.GetShutdownTimeout())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	if cfg.Contract.WatchDrift {
		watcher, err := contract.NewWatcher(cfg.Contract.Path, doc, logger, nil)
		if err != nil {
			logger.Warn("contract drift watcher unavailable", zap.Error(err))
		} else {
			defer watcher.Close()
			group.Go(func() error {
				return watcher.Start(ctx)
			})
		}
	}

	group.Go(server.ListenAndServe)
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return server.Shutdown(context.Background())
	})

	return group.Wait()
}
