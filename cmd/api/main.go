package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"vowel-quiz/internal/adapter"
	"vowel-quiz/internal/audio"
	"vowel-quiz/internal/cache"
	"vowel-quiz/internal/catalog"
	"vowel-quiz/internal/config"
	"vowel-quiz/internal/domain"
	"vowel-quiz/internal/handler"
	"vowel-quiz/internal/logger"
	"vowel-quiz/internal/middleware"
	"vowel-quiz/internal/service"
	"vowel-quiz/internal/speech"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Caching is optional; without redis the speech cache is a no-op.
	var cacheAdapter domain.Cache = adapter.NewNoopCache()
	var healthCache domain.Cache
	if cfg.CachingEnabled() {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without cache", zap.String("address", cfg.Redis.Address), zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
			healthCache = cacheAdapter
			appLogger.Info("Successfully connected to Redis", zap.String("address", cfg.Redis.Address))
		}
	}

	cat := catalog.Default()
	assets := audio.NewAssetStore(cfg.Audio.Root)

	sessionService := service.NewSessionService(cat, assets, service.SessionConfig{
		AdvanceDelay: cfg.Quiz.AdvanceDelay,
		InitialKey:   cfg.Quiz.InitialKey,
		IdleTTL:      cfg.Session.IdleTTL,
		VowelDir:     cfg.Audio.VowelDir,
		Extension:    cfg.Audio.Extension,
	})
	soundService := service.NewSoundService(cat, assets, cfg.Audio.VowelDir, cfg.Audio.Extension)

	synth := speech.NewSynthesizer(speech.NewEspeakEngine(cfg.Speech.Binary, afero.NewOsFs()), speech.Config{
		ConfigPath: cfg.Speech.ConfigPath,
		VoicePath:  cfg.Speech.VoicePath,
		Defaults: speech.Options{
			Amplitude: cfg.Speech.Amplitude,
			Speed:     cfg.Speech.Speed,
			Pitch:     cfg.Speech.Pitch,
			Variant:   cfg.Speech.Variant,
		},
		Cache:    cacheAdapter,
		CacheTTL: cfg.Cache.SpeechTTL,
		Timeout:  cfg.Speech.Timeout,
	})

	sessionHandler := handler.NewSessionHandler(sessionService, cat.Choices())
	soundHandler := handler.NewSoundHandler(sessionService, soundService)
	speechHandler := handler.NewSpeechHandler(synth, speech.ContentType)
	healthHandler := handler.NewHealthHandler(healthCache, "redis")
	validator := middleware.NewValidationMiddleware()

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    64 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/healthz", healthHandler.Health)
	app.Static("/audio", cfg.Audio.Root)

	apiGroup := app.Group("/api")
	apiGroup.Get("/choices", sessionHandler.GetChoices)
	apiGroup.Get("/speech", speechHandler.Speak)
	apiGroup.Get("/words/:word/sound", validator.ValidateWord(), soundHandler.WordSound)

	apiGroup.Post("/sessions", sessionHandler.CreateSession)
	sessionGroup := apiGroup.Group("/sessions/:id", validator.ValidateSessionID())
	sessionGroup.Get("/", sessionHandler.GetSession)
	sessionGroup.Delete("/", sessionHandler.CloseSession)
	sessionGroup.Post("/answer", sessionHandler.SubmitAnswer)
	sessionGroup.Post("/play", sessionHandler.PlayVowel)
	sessionGroup.Post("/words/:word/play", validator.ValidateWord(), sessionHandler.PlayWord)
	sessionGroup.Get("/sound", soundHandler.SessionSound)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// Warm the speech engine so the first request does not pay for it.
	g.Go(func() error {
		if err := synth.Init(gctx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Warn("Speech disabled", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		return sessionService.Run(gctx)
	})
	g.Go(func() error {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		return app.Listen(":" + strconv.Itoa(cfg.Server.Port))
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Fatal("Server stopped with error", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
