package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ai-flashcards/internal/ai"
	"ai-flashcards/internal/api"
	"ai-flashcards/internal/config"
	"ai-flashcards/internal/db"
	"ai-flashcards/internal/ocr"
	"ai-flashcards/internal/services"
)

func setupLogger(cfg config.Config) *zap.Logger {
	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := setupLogger(cfg)
	defer func() { _ = logger.Sync() }()

	conn, err := db.Open(cfg.Database)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()

	aiClient, err := ai.New(cfg.AI, logger)
	if err != nil {
		logger.Fatal("init ai client", zap.Error(err))
	}
	engine, err := ocr.NewEngine(cfg.OCR, logger)
	if err != nil {
		logger.Fatal("init ocr engine", zap.Error(err))
	}
	ocrPool := ocr.NewPool(engine, cfg.OCR.Workers, logger)
	defer ocrPool.Close()

	flashcardService := services.NewFlashcardService(conn)
	documentService := services.NewDocumentService(conn, cfg.UploadDir)
	contentService := services.NewContentService(documentService, services.NewPDFService(), ocrPool, logger)
	generator := services.NewFlashcardGenerator(aiClient, aiClient, services.GeneratorOptions{
		ChunkMaxChars: cfg.ChunkMaxChars,
		Concurrency:   cfg.GenerationConcurrency,
	}, logger)

	server := api.NewServer(api.Services{
		Flashcards: flashcardService,
		Sessions:   services.NewStudySessionService(conn, flashcardService),
		Documents:  documentService,
		Ingestion:  services.NewIngestionService(contentService, generator, flashcardService, logger),
		Generator:  generator,
	}, api.Options{
		JWTSecret:      cfg.JWTSecret,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, logger)
	defer server.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
