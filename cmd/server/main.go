package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Negixaab/runningbuddy/internal/api"
	"github.com/Negixaab/runningbuddy/internal/auth"
	"github.com/Negixaab/runningbuddy/internal/config"
	"github.com/Negixaab/runningbuddy/internal/database"
	"github.com/Negixaab/runningbuddy/internal/middleware"
	"github.com/Negixaab/runningbuddy/internal/repository"
	"github.com/Negixaab/runningbuddy/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 初始化数据库
	if cfg.DBType == "sqlite" && cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			log.Fatal("Failed to create data directory:", err)
		}
	}
	db, err := database.Open(database.Config{
		Type: cfg.DBType,
		Path: cfg.DBPath,
		URL:  cfg.DBURL,
	})
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// 连续打卡缓存 (可选)
	var streakCache service.StreakCache = service.NopStreakCache{}
	rdb, err := database.ConnectRedis(context.Background(), cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Printf("Redis unavailable, streak cache disabled: %v", err)
	} else if rdb != nil {
		defer rdb.Close()
		streakCache = service.NewRedisStreakCache(rdb)
	}

	// 初始化服务
	runRepo := repository.NewRunRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)

	progressService := service.NewProgressService(runRepo)
	challengeService := service.NewChallengeService(challengeRepo, progressService, cfg.FallbackChallenge,
		service.WithTransactions(db, func(tx database.DBTX) service.ChallengeStore {
			return repository.NewChallengeRepository(tx)
		}))
	runService := service.NewRunService(runRepo, challengeService, streakCache, cfg.WeeklyGoalKm)
	streakService := service.NewStreakService(runRepo, streakCache)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer limiter.Close()

	// 初始化路由
	router := api.SetupRouter(api.Services{
		Runs:       runService,
		Challenges: challengeService,
		Streaks:    streakService,
		Verifier:   auth.NewJWTVerifier(cfg.JWTSecret),
		Limiter:    limiter,
	})

	// Live sessions hold the connection open, so there is no write timeout
	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
