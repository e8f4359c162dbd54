package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/dimstore/internal/api"
	"github.com/rpattn/dimstore/internal/config"
	"github.com/rpattn/dimstore/internal/db"
	"github.com/rpattn/dimstore/internal/ingestion"
	"github.com/rpattn/dimstore/internal/middleware"
	"github.com/rpattn/dimstore/internal/pipeline"
	"github.com/rpattn/dimstore/internal/repository"
)

func main() {
	initLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	stages := pipeline.New()
	for name, fields := range cfg.Fields {
		if err := stages.Register(name, pipeline.NewPropertyValidation(fields)); err != nil {
			logrus.Fatalf("Failed to register validation stage for %s: %v", name, err)
		}
	}

	repos := make(map[string]repository.RecordRepository, len(cfg.Dimensions))
	ingestors := make(map[string]*ingestion.Service, len(cfg.Dimensions))
	for _, dim := range cfg.Dimensions {
		repo := repository.NewRecordRepository(conn, dim, stages)
		repos[dim.Name] = repo
		ingestors[dim.Name] = ingestion.NewService(repo)
	}

	mux := http.NewServeMux()
	api.NewHandler(repos).Routes(mux)
	ingestion.NewHTTPHandler(ingestors).Routes(mux)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	handler := middleware.LoggingMiddleware(
		middleware.DataLoaderMiddleware(repos)(corsHandler.Handler(mux)),
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Starting dimension store on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func initLogger() {
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		logrus.Warnf("Invalid LOG_LEVEL %q, defaulting to INFO", levelStr)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
