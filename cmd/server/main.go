package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindnest-backend/internal/config"
	"github.com/AnshRaj112/mindnest-backend/internal/database"
	"github.com/AnshRaj112/mindnest-backend/internal/handlers"
	"github.com/AnshRaj112/mindnest-backend/internal/logger"
	"github.com/AnshRaj112/mindnest-backend/internal/middleware"
	"github.com/AnshRaj112/mindnest-backend/internal/routes"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	if envErr != nil {
		log.Info("no .env file found, using process environment")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("connecting to PostgreSQL")
	db, err := database.ConnectPostgres(cfg.PostgresURI, log)
	if err != nil {
		return err
	}
	defer database.ClosePostgres(db)

	log.Info("connecting to Redis")
	rdb, err := database.ConnectRedis(cfg.RedisURI)
	if err != nil {
		return err
	}
	defer rdb.Close()

	var mirror services.ActivityMirror
	if cfg.MongoURI != "" {
		mongoClient, mongoDB, err := database.ConnectMongo(cfg.MongoURI)
		if err != nil {
			log.Warn("MongoDB unavailable, activity mirror disabled", zap.Error(err))
		} else {
			defer database.DisconnectMongo(mongoClient)
			m := services.NewMongoActivityMirror(mongoDB)
			ictx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := m.EnsureIndexes(ictx); err != nil {
				log.Warn("failed to ensure activity indexes", zap.Error(err))
			}
			cancel()
			mirror = m
			log.Info("activity mirror enabled", zap.String("database", mongoDB.Name()))
		}
	}

	var uploader services.ImageUploader
	if cfg.CloudinaryEnabled() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Warn("failed to initialize Cloudinary, photo uploads disabled", zap.Error(err))
		} else {
			uploader = cld
			log.Info("Cloudinary service initialized")
		}
	} else {
		log.Warn("Cloudinary credentials not found, photo uploads disabled")
	}

	var coach services.CoachModel = services.UnconfiguredCoach{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := services.NewGeminiCoach(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return err
		}
		defer gemini.Close()
		coach = gemini
		log.Info("Gemini coach ready", zap.String("model", cfg.GeminiModel))
	} else {
		log.Warn("GEMINI_API_KEY not set, AI chat will return the fallback reply")
	}

	hub := services.NewChatHub(rdb, log.Named("chat"))
	go hub.Run(ctx)

	activity := services.NewActivityService(db, mirror, log.Named("activity"))
	// Runs before the Mongo disconnect registered above.
	defer activity.Wait()
	chats := services.NewChatService(db, hub, cfg.ChatEnforceParticipants, log.Named("chat"))
	notes := services.NewNoteService(db, activity, log.Named("notes"))
	eq := services.NewEQService(db, coach, services.NewCacheService(rdb), activity, services.EQOptions{
		Location:       cfg.MoodLocation,
		CoachTimeout:   cfg.GeminiTimeout,
		HighEQCacheTTL: cfg.HighEQCacheTTL,
	}, log.Named("eq"))
	users := services.NewUserService(db, uploader, log.Named("users"))

	ipLimiter := middleware.NewIPLimiter(cfg.RateLimitPerMinute, cfg.RateLimitPerMinute)
	go ipLimiter.RunCleanup(ctx)
	window := middleware.NewWindowLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, log.Named("ratelimit"))
	window.BlockFor = cfg.RateLimitBlock
	window.Fallback = ipLimiter

	aiLimiter := middleware.NewIPLimiter(cfg.AIChatRatePerMinute, cfg.AIChatRatePerMinute)
	go aiLimiter.RunCleanup(ctx)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.SecurityHeaders)
	if cfg.IsProduction() {
		r.Use(middleware.HostCheck(cfg.AllowedHost))
		log.Info("host check enabled", zap.String("host", cfg.AllowedHost))
	}
	r.Use(middleware.WindowRateLimit(window, cfg.TrustProxy))

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	routes.SetupRoutes(r, routes.Handlers{
		Chats: handlers.NewChatHandler(chats, hub, cfg.AllowedOrigins, log.Named("chat")),
		Notes: handlers.NewNoteHandler(notes, log.Named("notes")),
		EQ:    handlers.NewEQHandler(eq, log.Named("eq")),
		Users: handlers.NewUserHandler(users, log.Named("users")),
		Deps: map[string]handlers.Pinger{
			"postgres": handlers.PingFunc(sqlDB.PingContext),
			"redis":    handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		},
		AIChat: middleware.RateLimit(aiLimiter, cfg.TrustProxy, "Too many AI chat requests, please slow down."),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("MindNest backend listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
