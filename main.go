package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"revflow/internal/api"
	"revflow/internal/change"
	"revflow/internal/config"
	"revflow/internal/content"
	"revflow/internal/diff"
	"revflow/internal/logging"
	"revflow/internal/middleware"
	"revflow/internal/repo"
	"revflow/internal/storage"
	shared "revflow/shared/types"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	// Initialize logger
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Initialize BadgerDB
	db, err := badger.Open(badger.DefaultOptions(cfg.Database.Path))
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	// Open the repository bundle, if one is configured
	var source shared.Repository
	var bundle *repo.Bundle
	if cfg.Repository.Bundle != "" {
		bundle, err = repo.Open(cfg.Repository.Bundle)
		if err != nil {
			logger.Fatal("failed to open bundle", zap.Error(err))
		}
		source = bundle
	}

	// Initialize content store
	blobRoot := cfg.Content.Root
	if blobRoot == "" {
		blobRoot = filepath.Join(cfg.Database.Path, "blobs")
	}
	contents, err := content.New(db, source, content.Options{
		Root:        blobRoot,
		CacheSize:   cfg.Content.CacheSize,
		CompressMin: cfg.Content.CompressMin,
	})
	if err != nil {
		logger.Fatal("failed to initialize content store", zap.Error(err))
	}
	defer contents.Close()

	// Initialize history manager
	sets := storage.NewStore[change.ChangeSet](db, "changeset")
	manager := change.NewManager(logger.Logger, nil, sets)

	if bundle != nil {
		if err := manager.Replay(context.Background(), bundle); err != nil {
			logger.Fatal("failed to replay bundle", zap.Error(err))
		}
		logger.Info("bundle replayed",
			zap.String("repo", bundle.ID()),
			zap.Int("nodes", manager.Graph().NodeCount()))
	}

	// Watch the working tree for local modifications
	if cfg.Repository.Root != "" {
		watcher, err := change.NewWatcher(manager, cfg.Repository.Root, cfg.Repository.Name, logger.Logger)
		if err != nil {
			logger.Fatal("failed to watch working tree", zap.Error(err))
		}
		defer watcher.Close()
	}

	// Initialize handlers
	historyHandler := api.NewHistoryHandler(manager, diff.NewEngine(nil), contents, cfg.Repository.Name)

	// Set up router
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthCheck)
	historyHandler.Register(mux)

	// Apply middleware
	handler := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recover(logger),
	)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy"}`))
}
