package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"mystery-server/internal/config"
	"mystery-server/internal/database"
	"mystery-server/internal/handler"
	"mystery-server/internal/messaging"
	"mystery-server/internal/middleware"
	"mystery-server/internal/repository"
	"mystery-server/internal/service"
	"mystery-server/pkg/ai"
	"mystery-server/pkg/logger"
)

func main() {
	// .env нужен только для локального запуска, в Docker значения приходят
	// из окружения и секретов.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)
	zap.L().Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	// --- External Connections ---
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := setupPostgres(ctx, cfg, log)
	if err != nil {
		zap.L().Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()

	if err := database.ApplyMigrations(pgPool, log); err != nil {
		zap.L().Fatal("Failed to apply database migrations", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	zap.L().Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))

	// RabbitMQ не критичен для пайплайна: события публикуются best-effort.
	var publisher messaging.EventPublisher
	mqConn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		zap.L().Warn("Failed to connect to RabbitMQ, game events disabled", zap.Error(err))
	} else {
		defer mqConn.Close()
		publisher, err = messaging.NewRabbitMQPublisher(mqConn, cfg.GameEventsQueue, log)
		if err != nil {
			zap.L().Warn("Failed to create event publisher, game events disabled", zap.Error(err))
			publisher = nil
		}
	}

	// --- AI / Image Clients ---
	aiClient, err := ai.New(ctx, ai.Config{
		ClientType:     cfg.AIClientType,
		APIKey:         cfg.AIAPIKey,
		Model:          cfg.AIModel,
		BaseURL:        cfg.AIBaseURL,
		Timeout:        cfg.AITimeout,
		MaxAttempts:    cfg.AIMaxAttempts,
		BaseRetryDelay: cfg.AIBaseRetryDelay,
	}, log)
	if err != nil {
		zap.L().Fatal("Failed to create AI client", zap.Error(err))
	}

	parser := ai.NewParser(log)
	imageClient := service.NewReplicateImageClient(cfg, log)

	promptBuilder, err := service.NewPromptBuilder(cfg.PromptsDir, log)
	if err != nil {
		zap.L().Fatal("Failed to load prompt templates", zap.Error(err))
	}

	// --- Dependency Injection ---
	userRepo := repository.NewPgUserRepository(pgPool, log)
	gameRepo := repository.NewPgGameRepository(pgPool, log)
	locker := repository.NewRedisGenerationLock(redisClient, cfg.GenerationLockTTL, log)

	generationSvc := service.NewGenerationService(
		userRepo, gameRepo, locker, aiClient, parser, promptBuilder, imageClient, publisher, log)
	gameSvc := service.NewGameService(gameRepo, parser, log)
	userSvc := service.NewUserService(userRepo, log)

	h := handler.New(generationSvc, gameSvc, userSvc, imageClient, aiClient, log)
	authMW := middleware.JWTAuth(cfg.JWTSecret, log)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.GinZapLogger(log))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	h.RegisterRoutes(router, authMW)

	// Prometheus middleware вешаем после регистрации роутов.
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.Port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}

// setupPostgres initializes the PostgreSQL connection pool with retry logic.
func setupPostgres(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var lastErr error
	maxRetries := 10
	retryDelay := 3 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		pool, lastErr = database.NewPool(ctx, cfg.GetDSN(), cfg.DBMaxConns, log)
		if lastErr == nil {
			return pool, nil
		}
		log.Warn("Postgres connection failed, retrying...",
			zap.Int("attempt", attempt), zap.Int("maxRetries", maxRetries), zap.Error(lastErr))
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return nil, lastErr
}
