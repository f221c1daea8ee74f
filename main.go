package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nathino/UQRCODE/cache"
	"github.com/Nathino/UQRCODE/config"
	"github.com/Nathino/UQRCODE/handler"
	"github.com/Nathino/UQRCODE/localstore"
	"github.com/Nathino/UQRCODE/logger"
	"github.com/Nathino/UQRCODE/middleware"
	"github.com/Nathino/UQRCODE/persistence"
	"github.com/Nathino/UQRCODE/remote"
	"github.com/Nathino/UQRCODE/scan"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title UQRCODE Persistence API
// @version 1.0
// @description QR code and document persistence service with a dual-store scheme: an authoritative Redis document store mirrored by a client-resident cache, with migration, scan tracking and derived statistics.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @tag.name QRCodes
// @tag.description Saving, listing, updating, importing and summarizing QR codes

// @tag.name Documents
// @tag.description Document metadata and the shared public registry

// @tag.name Scans
// @tag.description Scan tracking and analytics

// @tag.name System
// @tag.description Health checks and cache metrics

func main() {
	// Load configuration
	cfg := config.MustLoadConfig()

	// Initialize logger
	logger.Initialize(os.Getenv("UQRCODE_LOG_LEVEL"))
	log.Info().Msg("Configuration loaded successfully")

	// Remote store (authoritative)
	rdb := remote.NewClient(cfg.Redis)
	store := remote.NewStore(rdb, cfg.Redis)

	// Local mirror (offline fallback)
	local := localstore.New(cfg.LocalStore)

	// Hot-read cache (optional)
	var hot *cache.Cache
	if cfg.Cache.Enabled {
		var err error
		hot, err = cache.New(cfg.Cache)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize cache")
		}
	} else {
		log.Info().Msg("Cache disabled in configuration")
	}

	// Session-scoped persistence façade and scan tracker
	svc := persistence.New(store, local, hot, cfg.LocalStore)
	tracker := scan.NewTracker(svc)

	// Create handler with dependency injection
	h := handler.New(svc, tracker, store, hot, cfg)

	// Set up router
	r := mux.NewRouter()

	// Apply global middleware
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	r.Use(middleware.CORS)
	r.Use(middleware.RequestLogger)
	r.Use(rateLimiter.Limit)

	// Register routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/cache/metrics", h.CacheMetrics).Methods("GET")

	r.HandleFunc("/api/qrcodes", h.CreateQRCode).Methods("POST")
	r.HandleFunc("/api/qrcodes", h.ListQRCodes).Methods("GET")
	r.HandleFunc("/api/qrcodes/stats", h.GetQRCodeStats).Methods("GET")
	r.HandleFunc("/api/qrcodes/export", h.ExportQRCodes).Methods("GET")
	r.HandleFunc("/api/qrcodes/import", h.ImportQRCodes).Methods("POST")
	r.HandleFunc("/api/qrcodes/{id}", h.GetQRCode).Methods("GET")
	r.HandleFunc("/api/qrcodes/{id}", h.UpdateQRCode).Methods("PUT")
	r.HandleFunc("/api/qrcodes/{id}", h.DeleteQRCode).Methods("DELETE")
	r.HandleFunc("/api/qrcodes/{id}/toggle", h.ToggleQRCode).Methods("POST")
	r.HandleFunc("/api/qrcodes/{id}/download", h.DownloadQRCode).Methods("POST")
	r.HandleFunc("/api/qrcodes/{id}/image", h.QRCodeImage).Methods("GET")

	r.HandleFunc("/api/documents", h.CreateDocument).Methods("POST")
	r.HandleFunc("/api/documents", h.ListDocuments).Methods("GET")
	r.HandleFunc("/api/documents/{id}", h.GetDocument).Methods("GET")
	r.HandleFunc("/api/documents/{id}", h.DeleteDocument).Methods("DELETE")
	r.HandleFunc("/api/documents/{id}/publish", h.PublishDocument).Methods("POST")
	r.HandleFunc("/api/documents/{id}/publish", h.UnpublishDocument).Methods("DELETE")
	r.HandleFunc("/api/public/documents/{documentId}", h.GetPublicDocument).Methods("GET")

	r.HandleFunc("/api/scans", h.TrackScan).Methods("POST")
	r.HandleFunc("/api/scans/analytics", h.ScanAnalytics).Methods("GET")

	r.HandleFunc("/api/profile/{uid}", h.GetProfile).Methods("GET")
	r.HandleFunc("/api/profile/{uid}", h.SaveProfile).Methods("PUT")
	r.HandleFunc("/api/profile/{uid}/refresh", h.RefreshProfile).Methods("POST")

	// Swagger UI
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// Configure HTTP server
	serverAddress := fmt.Sprintf("%s:%s", cfg.WebServer.IP, cfg.WebServer.Port)
	server := &http.Server{
		Addr:         serverAddress,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.WebServer.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WebServer.WriteTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("address", serverAddress).
			Str("scheme", cfg.WebServer.Scheme).
			Msg("Starting server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.WebServer.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Tear down the session: stop subscriptions, close caches
	svc.Close()
	if hot != nil {
		hot.Close()
	}

	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Redis connection")
	}

	log.Info().Msg("Server stopped gracefully")
}
