package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"toex-backend/internal/config"
	"toex-backend/internal/database"
	"toex-backend/internal/handlers"
	"toex-backend/internal/middleware"
	"toex-backend/internal/repository"
	"toex-backend/internal/router"
	"toex-backend/internal/services"
	"toex-backend/internal/websocket"
	"toex-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting ToEx Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Printf("✓ Environment variables loaded (env: %s)", cfg.Env)

	boundaryLoc, err := time.LoadLocation(cfg.DayBoundaryTZ)
	if err != nil {
		log.Fatalf("✗ Invalid DAY_BOUNDARY_TZ %q: %v", cfg.DayBoundaryTZ, err)
	}

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	statsRepo := repository.NewStatsRepo(pool)
	questionRepo := repository.NewQuestionRepo(pool)
	vocabRepo := repository.NewVocabRepo(pool)
	resultRepo := repository.NewResultRepo(pool)
	progressRepo := repository.NewProgressRepo(pool)
	jobRepo := repository.NewJobRepo(pool)
	adminRepo := repository.NewAdminRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	authService := services.NewAuthService(userRepo, redisClients.Store, jwtAuth, emailService, cfg.GoogleClientID, cfg.AdminEmail)
	statsService := services.NewStatsService(statsRepo, redisClients.Store, boundaryLoc)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	sessionHandler := handlers.NewSessionHandler(statsService)
	statsHandler := handlers.NewStatsHandler(statsService)
	questionHandler := handlers.NewQuestionHandler(questionRepo, vocabRepo)
	vocabHandler := handlers.NewVocabHandler(vocabRepo)
	progressHandler := handlers.NewProgressHandler(progressRepo)
	resultHandler := handlers.NewResultHandler(resultRepo)
	dashboardHandler := handlers.NewDashboardHandler(statsService, resultRepo, progressRepo, cfg.StatsRefreshSeconds)
	userHandler := handlers.NewUserHandler(userRepo)
	jobHandler := handlers.NewJobHandler(jobRepo, redisClients.Store)
	adminHandler := handlers.NewAdminHandler(pool, adminRepo)

	// ──── Step 5: Start Job Worker Pool ────
	workerPool := worker.NewPool(redisClients.Store, jobRepo, questionRepo, cfg.ImportWorkers)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.ImportWorkers)

	streakScheduler := services.NewStreakScheduler(statsService, userRepo, emailService, time.Duration(cfg.StreakSweepHours)*time.Hour)
	streakScheduler.Start()
	log.Println("✓ Streak scheduler started")

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret, func(ctx context.Context, userID uuid.UUID) (interface{}, error) {
		return statsService.GetStats(ctx, userID)
	})
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		sessionHandler,
		statsHandler,
		questionHandler,
		vocabHandler,
		progressHandler,
		resultHandler,
		dashboardHandler,
		userHandler,
		jobHandler,
		adminHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()
		streakScheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ ToEx Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
