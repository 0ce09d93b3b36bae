package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"threat-analysis-service/ai"
	"threat-analysis-service/api"
	"threat-analysis-service/config"
	"threat-analysis-service/logging"
	"threat-analysis-service/scoring"
	"threat-analysis-service/stats"
	"threat-analysis-service/trust"
	"threat-analysis-service/whitelist"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.Init("threat-analysis-service")

	// Whitelist store: Postgres when configured, in-memory otherwise.
	var store whitelist.Store
	storeKind := "memory"
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		pg, err := whitelist.NewPostgresStore(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Error("postgres whitelist unavailable", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
		storeKind = "postgres"
	} else {
		store = whitelist.NewMemoryStore()
	}

	classifier := trust.NewClassifier(
		store,
		trust.NewWhoisLookup(cfg.LookupTimeout),
		trust.NewTLSLookup(cfg.LookupTimeout),
		cfg.CacheTTL,
	)

	var analyzer *ai.Analyzer
	if cfg.GeminiAPIKey != "" {
		analyzer = ai.NewAnalyzer(ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel), cfg.AIRequestsPerMinute)
		log.Info("content analysis enabled", "model", cfg.GeminiModel)
	} else {
		log.Warn("GEMINI_API_KEY not set, content analysis disabled")
	}

	jobs := stats.NewJobStore(time.Hour)
	defer jobs.Close()

	server := &api.Server{
		Classifier:       classifier,
		Scorer:           scoring.NewScorer(),
		Analyzer:         analyzer,
		Whitelist:        store,
		Stats:            stats.NewStore(),
		Jobs:             jobs,
		StoreKind:        storeKind,
		BatchConcurrency: cfg.BatchMaxConcurrency,
	}

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Routes(),
		// WriteTimeout must outlast the 90s handler timeout so slow
		// assessments fail with a JSON body, not a dropped connection.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("listening", "port", cfg.Port, "whitelist_store", storeKind)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}
