package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/MimeLyc/dualsub-engine/internal/acquire"
	"github.com/MimeLyc/dualsub-engine/internal/bridge"
	"github.com/MimeLyc/dualsub-engine/internal/cache"
	"github.com/MimeLyc/dualsub-engine/internal/config"
	"github.com/MimeLyc/dualsub-engine/internal/dict"
	"github.com/MimeLyc/dualsub-engine/internal/httpapi"
	"github.com/MimeLyc/dualsub-engine/internal/llm"
	"github.com/MimeLyc/dualsub-engine/internal/persistence"
	"github.com/MimeLyc/dualsub-engine/internal/service"
	"github.com/MimeLyc/dualsub-engine/internal/syncer"
	"github.com/MimeLyc/dualsub-engine/internal/translator"
	"github.com/MimeLyc/dualsub-engine/pkg/log"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	log.InitLogger(log.ParseLevel(cfg.Server.LogLevel))
	logger := log.GetLogger()

	store, err := persistence.NewSQLiteStore(cfg.Server.DBPath)
	if err != nil {
		log.Fatal("Failed to open database: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := config.NewRuntimeSettingsStore(ctx, store, cfg.RuntimeSettings())
	if err != nil {
		log.Fatal("Failed to load runtime settings: %v", err)
	}

	var dictionary *dict.Dictionary
	if cfg.Dict.WordsPath != "" {
		dictionary, err = dict.Load(cfg.Dict.WordsPath, cfg.Dict.PhrasesPath, logger)
		if err != nil {
			log.Fatal("Failed to load dictionary: %v", err)
		}
	}

	queue := httpapi.NewBridgeQueue()
	b := bridge.New(queue)
	playback := httpapi.NewPlaybackState(func(seconds float64) {
		seekCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := b.Seek(seekCtx, seconds); err != nil {
			logger.Warn("seek request failed: %v", err)
		}
	})

	translatorCfg := translator.DefaultConfig()
	translatorCfg.BatchSize = cfg.Translate.BatchSize

	hub := httpapi.NewStatusHub()
	engine := syncer.NewEngine(playback, hub, logger)

	svc := service.New(service.Deps{
		Tracks:     b,
		Chain:      acquire.DefaultChain(b, bridge.DefaultInterceptTimeout),
		Cache:      cache.New(store),
		Engine:     engine,
		Dictionary: dictionary,
		Settings:   settings,
		LLM: llm.Config{
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		},
		TranslatorConfig: translatorCfg,
		Notifier:         hub,
		Logger:           logger,
	})

	server := httpapi.NewServer(svc, queue, playback, b.HandleResponse, hub,
		httpapi.WithRuntimeSettingsStore(settings),
		httpapi.WithLogger(logger),
	)

	stopSweeper, err := svc.StartRetrySweeper(ctx, settings.GetRuntimeSettings().RetryCron)
	if err != nil {
		log.Fatal("Failed to schedule retry sweeper: %v", err)
	}
	defer stopSweeper()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("listening on %s", cfg.Server.ListenAddr)
		return server.ListenAndServe(cfg.Server.ListenAddr)
	})
	group.Go(func() error {
		<-ctx.Done()
		engine.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		log.Fatal("Server error: %v", err)
	}
	logger.Info("shutdown complete")
}
