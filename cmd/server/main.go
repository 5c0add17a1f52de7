package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/student3964/MindVault/internal/app"
	"github.com/student3964/MindVault/internal/config"
	"github.com/student3964/MindVault/internal/server"
	"github.com/student3964/MindVault/internal/util"
	"github.com/student3964/MindVault/internal/worker"
	"github.com/student3964/MindVault/pkg/ai"
	"github.com/student3964/MindVault/pkg/auth"
	"github.com/student3964/MindVault/pkg/queue"
	"github.com/student3964/MindVault/pkg/storage"
	"github.com/student3964/MindVault/pkg/store"
)

const defaultGeminiModel = "gemini-2.0-flash"

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	util.InitLogger(cfg.LogLevel)

	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	objects, err := newObjectStore(cfg)
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		log.Fatalf("failed to init AI provider: %v", err)
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour, "mindvault")
	if err != nil {
		log.Fatalf("failed to init token manager: %v", err)
	}

	jobQueue, err := queue.NewRedisJobQueue(queue.RedisQueueConfig{
		Addr:       cfg.RedisAddr,
		Password:   cfg.RedisPassword,
		MaxRetries: cfg.QueueMaxRetries,
	})
	if err != nil {
		log.Fatalf("failed to init job queue: %v", err)
	}

	appCore, err := app.New(app.Config{
		Store:     st,
		Objects:   objects,
		Generator: generator,
		Queue:     jobQueue,
		Tokens:    tokens,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	extractWorker, err := worker.New(worker.Config{
		Store:       st,
		Objects:     objects,
		Queue:       jobQueue,
		Concurrency: cfg.WorkerConcurrency,
		MaxRetries:  cfg.QueueMaxRetries,
	})
	if err != nil {
		log.Fatalf("failed to init worker: %v", err)
	}

	proxies, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                        appCore,
		RedisAddr:                  cfg.RedisAddr,
		RedisPassword:              cfg.RedisPassword,
		RegisterRateLimitPerMinute: cfg.RegisterRatePerMinute,
		LoginRateLimitPerMinute:    cfg.LoginRatePerMinute,
		MaxUploadBytes:             cfg.MaxUploadBytes,
		TrustedProxies:             proxies,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		extractWorker.Run(ctx)
		return nil
	})
	group.Go(func() error {
		appCore.RunDeadlineChecker(ctx, time.Duration(cfg.CheckerIntervalMins)*time.Minute)
		return nil
	})

	if err := group.Wait(); err != nil {
		slog.Error("server error", "err", err)
	}
}

func newObjectStore(cfg config.FileConfig) (storage.ObjectStore, error) {
	if cfg.StorageDriver == "local" {
		return storage.NewLocalStore(cfg.LocalStoragePath)
	}
	return storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
}

func newGenerator(cfg config.FileConfig) (ai.TextGenerator, error) {
	if cfg.AIProvider == "openai" {
		return ai.NewOpenAICompatGenerator(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel), nil
	}
	client, err := ai.NewGeminiClient(cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	model := cfg.AIModel
	if model == "" {
		model = defaultGeminiModel
	}
	return ai.NewGeminiGenerator(client, model), nil
}
