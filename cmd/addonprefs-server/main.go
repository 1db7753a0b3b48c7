// Package main is the entry point for the addonprefs-server application.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/CreativeUnicorns/addonprefs"
	"github.com/CreativeUnicorns/addonprefs/api"
	"github.com/CreativeUnicorns/addonprefs/events"
	"github.com/CreativeUnicorns/addonprefs/internal/config"
	"github.com/CreativeUnicorns/addonprefs/l10n"
)

func main() {
	envErr := config.LoadEnv()

	var cfg config.Config
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	logger := cfg.Logger()
	if envErr != nil {
		logger.Warn("Ignoring .env file", "error", envErr)
	}
	logger.Info("addonprefs server starting up")

	svc, err := cfg.OpenService(logger)
	if err != nil {
		logger.Error("Failed to open preference store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close preference store", "error", err)
		}
	}()

	bus := events.New(logger)
	opts := []addonprefs.ManagerOption{addonprefs.WithManagerLogger(logger)}
	if cfg.LocaleDir != "" {
		bundle, err := l10n.LoadFS(os.DirFS(cfg.LocaleDir), ".", "en")
		if err != nil {
			logger.Error("Failed to load message catalogs", "dir", cfg.LocaleDir, "error", err)
			os.Exit(1)
		}
		if catalog := bundle.Match(cfg.Locale); catalog != nil {
			opts = append(opts, addonprefs.WithLocalizer(catalog))
			logger.Info("Localizing panels", "locale", catalog.Locale())
		}
	}
	mgr := addonprefs.NewManager(svc, bus, opts...)

	if cfg.ManifestDir != "" {
		if err := enableManifests(mgr, cfg.ManifestDir, logger); err != nil {
			logger.Error("Failed to enable manifests", "dir", cfg.ManifestDir, "error", err)
			os.Exit(1)
		}
	}

	apiServer, err := api.NewServer(api.Config{
		ListenAddress: cfg.ListenAddr,
		Manager:       mgr,
		Preferences:   svc,
		Bus:           bus,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("Failed to create API server", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			logger.Error("API server error", "error", err)
		}
	}
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Stop(ctx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	logger.Info("Server exited gracefully")
}

// enableManifests enables every manifest in dir in id order.
func enableManifests(mgr *addonprefs.Manager, dir string, logger addonprefs.Logger) error {
	manifests, err := addonprefs.LoadFS(os.DirFS(dir))
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(manifests))
	for id := range manifests {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	ctx := context.Background()
	for _, id := range ids {
		if _, err := mgr.Enable(ctx, manifests[id].Preferences, id); err != nil {
			return err
		}
	}
	logger.Info("Enabled manifests", "count", len(ids))
	return nil
}
