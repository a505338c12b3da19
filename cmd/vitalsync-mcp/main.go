package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"vitalsync/internal/config"
	"vitalsync/internal/control"
	"vitalsync/internal/mcp"
	"vitalsync/internal/metrics"
	"vitalsync/internal/platform"
	"vitalsync/internal/prefs"
	"vitalsync/internal/syncer"
	"vitalsync/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("vitalsync-mcp", Version)
		return
	}

	// Stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

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

	catalog := metrics.DefaultCatalog()
	platformClient := platform.NewClient(cfg.Platform.URL, cfg.Platform.Timeout())
	reader := platform.NewReader(platformClient, log)
	uploadClient := upload.NewClient(cfg.Remote.URL, cfg.Remote.APIKey)
	engine := syncer.New(reader, uploadClient, catalog, syncer.Options{
		DedupeSources: cfg.Sync.Dedupe(),
	}, log)
	svc := control.NewService(engine, store, catalog, log)

	mcpServer := mcp.New(svc, Version, log)
	log.Info("VitalSync MCP server starting", "version", Version, "transport", "stdio")
	if err := server.ServeStdio(mcpServer); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
