package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/OriginProtocol/bridge-server/pkg/config"
	"github.com/OriginProtocol/bridge-server/pkg/db"
	"github.com/OriginProtocol/bridge-server/pkg/ethereum"
	"github.com/OriginProtocol/bridge-server/pkg/indexer"
	"github.com/OriginProtocol/bridge-server/pkg/ipfs"
	"github.com/OriginProtocol/bridge-server/pkg/notifier"
	"github.com/OriginProtocol/bridge-server/pkg/pgutil"
	"github.com/OriginProtocol/bridge-server/pkg/search"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Marketplace Event Indexer")

	// Initialize database
	bunDB, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer bunDB.Close()
	store := db.NewStore(bunDB)

	// Initialize Ethereum client
	ethClient, err := ethereum.NewClient(&cfg.Ethereum, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Ethereum client", zap.Error(err))
	}
	defer ethClient.Close()

	// Initialize IPFS content resolver
	resolver := ipfs.NewShellResolver(cfg.IPFS.APIURL, cfg.IPFS.Timeout)

	// Initialize search store
	var searchStore search.Store
	if cfg.Search.Enabled {
		esClient, err := search.NewClient(&cfg.Search)
		if err != nil {
			logger.Fatal("Failed to initialize search client", zap.Error(err))
		}
		searchStore = search.NewIndexer(esClient, cfg.Search.Index, logger)
		logger.Info("Search indexing enabled", zap.String("index", cfg.Search.Index))
	}

	// Initialize notifier
	var notify notifier.Notifier = notifier.NopNotifier{}
	if cfg.Notifications.WebhookURL != "" {
		notify = notifier.NewWebhookNotifier(cfg.Notifications.WebhookURL, cfg.Notifications.Timeout, logger)
		logger.Info("Notifications enabled")
	}

	// Wire the pipeline
	fetcher := indexer.NewFetcher(ethClient)
	registry := common.HexToAddress(cfg.Ethereum.RegistryContract)
	handler := indexer.NewHandler(fetcher, store, resolver, searchStore, notify, registry, cfg.Indexer.TrackerID, logger)
	listener := indexer.NewListener(ethClient, store, handler, &cfg.Indexer, &cfg.Ethereum, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := listener.Run(ctx); err != nil {
			logger.Error("Event listener failed", zap.Error(err))
		}
	}()

	// Setup HTTP server for API and metrics
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint (liveness)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Readiness endpoint - returns 503 until the first poll cycle completes
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !listener.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("NOT_READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	})

	// Metrics endpoint
	if cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics enabled")
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/listings", handleListListings(store, logger))
		r.Get("/listings/{address}", handleGetListing(store, logger))
		r.Get("/listings/{address}/purchases", handleListPurchases(store, logger))
	})

	// Start HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("address", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received, gracefully shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Indexer stopped")
}

func handleListListings(store *db.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listings, err := store.ListListings(r.Context(), 100) // Default limit
		if err != nil {
			logger.Error("Failed to list listings", zap.Error(err))
			http.Error(w, "Failed to list listings", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{"listings": listings}); err != nil {
			logger.Error("Failed to encode response", zap.Error(err))
		}
	}
}

func handleGetListing(store *db.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := chi.URLParam(r, "address")
		if !common.IsHexAddress(address) {
			http.Error(w, "Invalid contract address", http.StatusBadRequest)
			return
		}

		listing, err := store.GetListing(r.Context(), common.HexToAddress(address).Hex())
		if errors.Is(err, db.ErrListingNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("Failed to get listing", zap.Error(err), zap.String("address", address))
			http.Error(w, "Failed to get listing", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(listing); err != nil {
			logger.Error("Failed to encode response", zap.Error(err))
		}
	}
}

func handleListPurchases(store *db.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := chi.URLParam(r, "address")
		if !common.IsHexAddress(address) {
			http.Error(w, "Invalid contract address", http.StatusBadRequest)
			return
		}

		purchases, err := store.ListPurchasesByListing(r.Context(), common.HexToAddress(address).Hex())
		if err != nil {
			logger.Error("Failed to list purchases", zap.Error(err), zap.String("address", address))
			http.Error(w, "Failed to list purchases", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{"purchases": purchases}); err != nil {
			logger.Error("Failed to encode response", zap.Error(err))
		}
	}
}
