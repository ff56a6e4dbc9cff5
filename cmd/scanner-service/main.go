package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/licenseguard/licenseguard-backend/internal/operator"
	"github.com/licenseguard/licenseguard-backend/internal/registry/events"
	"github.com/licenseguard/licenseguard-backend/internal/registry/repository"
	registrysvc "github.com/licenseguard/licenseguard-backend/internal/registry/service"
	"github.com/licenseguard/licenseguard-backend/internal/scanner/detector"
	"github.com/licenseguard/licenseguard-backend/internal/scanner/handler"
	"github.com/licenseguard/licenseguard-backend/internal/scanner/ocr"
	"github.com/licenseguard/licenseguard-backend/internal/scanner/pipeline"
	"github.com/licenseguard/licenseguard-backend/internal/scanner/storage"
	"github.com/licenseguard/licenseguard-backend/internal/stream"
	"github.com/licenseguard/licenseguard-backend/pkg/config"
	"github.com/licenseguard/licenseguard-backend/pkg/database"
	"github.com/licenseguard/licenseguard-backend/pkg/httputil"
	"github.com/licenseguard/licenseguard-backend/pkg/logger"
	"github.com/licenseguard/licenseguard-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.Load("scanner-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("scanner-service", cfg.Server.Environment)
	log.Info().Msg("starting Scanner Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := repository.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure licenses schema")
	}

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeScannerEvents, "scanner-service", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}
	emitter := events.NewEmitter(publisher, log)

	// Load detection models
	cardNet, err := detector.NewNet(detector.NetConfig{
		ModelPath:   cfg.Detector.CardModelPath,
		ClassNames:  []string{detector.CardClass},
		InputWidth:  cfg.Detector.InputWidth,
		InputHeight: cfg.Detector.InputHeight,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load card model")
	}
	defer cardNet.Close()

	fieldNet, err := detector.NewNet(detector.NetConfig{
		ModelPath:   cfg.Detector.FieldModelPath,
		ClassNames:  []string{"name", "dl_number", "valid_till"},
		InputWidth:  cfg.Detector.InputWidth,
		InputHeight: cfg.Detector.InputHeight,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load field model")
	}
	defer fieldNet.Close()

	cardDetector := detector.NewCardDetector(cardNet, cfg.Detector.CardConfidence, log)
	fieldDetector := detector.NewFieldDetector(fieldNet, cfg.Detector.FieldConfidence, log)

	// OCR engines
	paddle := ocr.NewPaddleEngine(cfg.OCR.PaddleURL, cfg.OCR.PaddleTimeout)
	tesseract := ocr.NewTesseractEngine(cfg.OCR.TesseractLang)
	recognizer := ocr.NewRecognizer(paddle, tesseract, cfg.OCR.LineConfidence, log)

	// Crop persistence
	crops, err := storage.NewCropStore(cfg.Storage.UploadDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create crop store")
	}

	// Registry
	licenseRepo := repository.NewLicenseRepository(db)
	registry := registrysvc.NewRegistryService(licenseRepo, emitter, log)

	// Verify pipeline
	extractor := pipeline.NewExtractor(fieldDetector, recognizer, log)
	verifier := pipeline.NewVerifier(registry, emitter, log)
	scanner := pipeline.NewScanner(cardDetector, pipeline.New(extractor, verifier), crops, emitter, log)

	// Operator auth
	credentials := operator.NewCredentials(&cfg.Operator)
	tokens := operator.NewTokenManager(&cfg.JWT)

	// Handlers
	scanHandler := handler.NewScanHandler(scanner, log)
	enrollHandler := handler.NewEnrollHandler(registry, credentials, tokens, log)
	streamHandler := handler.NewStreamHandler(func() *stream.Session {
		return stream.NewSession(&cfg.Detector, cardDetector, crops, emitter, log)
	}, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "scanner-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/detect", scanHandler.Detect)
		r.Post("/detect/frame", scanHandler.DetectFrame)
		r.Post("/verify", scanHandler.Verify)
		r.Get("/stream", streamHandler.Feed)

		r.Post("/operator/login", enrollHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(operator.RequireOperator(tokens))
			r.Post("/licenses", enrollHandler.Enroll)
		})
	})

	// Persisted crops, served for the verify UI
	r.Handle("/static/uploads/*", http.StripPrefix("/static/uploads/", http.FileServer(http.Dir(crops.Dir()))))

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout stays unset: the MJPEG feed writes for the
		// lifetime of the connection.
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
