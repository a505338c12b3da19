package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tailscale.com/tsnet"

	"vitalsync/internal/config"
	"vitalsync/internal/control"
	"vitalsync/internal/metrics"
	"vitalsync/internal/platform"
	"vitalsync/internal/prefs"
	"vitalsync/internal/server"
	"vitalsync/internal/syncer"
	"vitalsync/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("VitalSync starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	stateDir, err := cfg.Sync.ResolveStateDir()
	if err != nil {
		log.Error("failed to resolve state directory", "error", err)
		os.Exit(1)
	}
	store, err := prefs.Open(stateDir)
	if err != nil {
		log.Error("failed to open preference store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("preference store opened", "dir", stateDir)

	catalog := metrics.DefaultCatalog()

	platformClient := platform.NewClient(cfg.Platform.URL, cfg.Platform.Timeout())
	reader := platform.NewReader(platformClient, log)

	// Best-effort startup handshake. A missing or stingy platform is not
	// fatal; each sync pass degrades to empty reads until grants appear.
	ctx := context.Background()
	permissions := make([]string, 0, len(catalog))
	for _, c := range catalog {
		permissions = append(permissions, c.RecordType)
	}
	granted, err := platform.EnsureAccess(ctx, platformClient, permissions, log)
	if err != nil {
		log.Warn("permission request failed", "error", err)
	} else if granted {
		log.Info("platform access granted", "record_types", len(permissions))
	}

	uploadClient := upload.NewClient(cfg.Remote.URL, cfg.Remote.APIKey)
	engine := syncer.New(reader, uploadClient, catalog, syncer.Options{
		DedupeSources: cfg.Sync.Dedupe(),
	}, log)
	svc := control.NewService(engine, store, catalog, log)

	srv := server.New(svc, cfg.Auth.APIKey, log)

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Interval scheduler. interval_minutes: 0 disables periodic syncing;
	// triggers then come only from the HTTP API or MCP tools.
	schedCtx, stopSched := context.WithCancel(ctx)
	defer stopSched()
	if interval := cfg.Sync.Interval(); interval > 0 {
		go runScheduler(schedCtx, svc, interval, log)
		log.Info("scheduler started", "interval", interval.String())
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)
	stopSched()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

func runScheduler(ctx context.Context, svc *control.Service, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := svc.RunSync(ctx, "")
			if err != nil {
				log.Warn("scheduled sync skipped", "error", err)
				continue
			}
			log.Info("scheduled sync finished",
				"sync_id", res.ID, "success", res.Success, "records", res.BatchSize)
		}
	}
}
