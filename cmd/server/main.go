package main // Entry point package

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/adrienvx/travel-agency-api/internal/config"
	"github.com/adrienvx/travel-agency-api/internal/database"
	"github.com/adrienvx/travel-agency-api/internal/handler"
	mw "github.com/adrienvx/travel-agency-api/internal/middleware"
	"github.com/adrienvx/travel-agency-api/internal/queue"
	"github.com/adrienvx/travel-agency-api/internal/repository"
	"github.com/adrienvx/travel-agency-api/internal/router"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the limiter and the response cache
	// are disabled and the API still serves traffic.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: rate limiting and response cache disabled")
	}

	destRepo := repository.NewDestinationRepo(db)
	clientRepo := repository.NewClientRepo(db)
	resRepo := repository.NewReservationRepo(db)

	dh := handler.NewDestinationHandler(destRepo)
	rh := handler.NewReservationHandler(destRepo, clientRepo, resRepo)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(mw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.Register(e, dh, rh, rdb)

	// Background consumer: reservation lifecycle events land in
	// logs/reservations.log even if the broker comes up after the API.
	go func() {
		if err := queue.StartConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM so in-flight bookings finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
}
