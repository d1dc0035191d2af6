// File path: cmd/sfexporter/main.go
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/cloudblazer/sfexporter/internal/api"
	"github.com/cloudblazer/sfexporter/internal/common"
	"github.com/cloudblazer/sfexporter/internal/config"
	"github.com/cloudblazer/sfexporter/internal/drive"
	"github.com/cloudblazer/sfexporter/internal/files"
	"github.com/cloudblazer/sfexporter/internal/lucid"
	"github.com/cloudblazer/sfexporter/internal/run"
	"github.com/cloudblazer/sfexporter/internal/salesforce"
	"github.com/cloudblazer/sfexporter/internal/store"
)

func main() {
	logger := common.Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn("sfexporter: .env file not loaded", "error", err)
	} else {
		logger.Info("sfexporter: environment loaded from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("sfexporter: config load failed", "error", err)
		fmt.Println("config error:", err)
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.Addr, "listen address")
	inputDir := flag.String("input-dir", cfg.InputDir, "directory for normalized metadata CSVs")
	outputDir := flag.String("output-dir", cfg.OutputDir, "directory for generated export CSVs")
	historyPath := flag.String("history", cfg.HistoryPath, "path to the run-history SQLite database")
	flag.Parse()

	logger.Info("sfexporter: startup initiated", "addr", *addr, "app", cfg.AppName)

	fileSvc, err := files.NewService(*inputDir, *outputDir)
	if err != nil {
		logger.Error("sfexporter: artifact directories unavailable", "error", err)
		fmt.Println("files error:", err)
		os.Exit(1)
	}

	history, err := store.Open(*historyPath)
	if err != nil {
		logger.Error("sfexporter: history store unavailable", "error", err)
		fmt.Println("history store error:", err)
		os.Exit(1)
	}
	defer history.Close()

	retention, err := fileSvc.StartRetention(cfg.RetentionCron, time.Duration(cfg.RetentionDays)*24*time.Hour)
	if err != nil {
		logger.Error("sfexporter: retention scheduling failed", "error", err)
		fmt.Println("retention error:", err)
		os.Exit(1)
	}
	defer retention.Stop()

	sf := salesforce.NewFromEnv()
	runs := run.NewManager(sf, fileSvc, history, cfg.MaxRunLogEntries)
	driveClient := drive.New(drive.Config{ClientID: cfg.GoogleClientID, ClientSecret: cfg.GoogleSecret})
	lucidClient := lucid.New(lucid.Config{ClientID: cfg.LucidClientID, ClientSecret: cfg.LucidSecret})

	server := api.NewServer(cfg, sf, runs, fileSvc, driveClient, lucidClient)

	logger.Info("sfexporter: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	reachable := *addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("sfexporter: verify reachability", "suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("sfexporter: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}
