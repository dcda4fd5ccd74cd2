// Entry point: loads configuration, wires every dependency once and starts
// the HTTP server.  Store clients and settings are constructed here and
// passed down explicitly; nothing below this file reaches for globals.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/bugzot/backend/internal/auth"
	"github.com/bugzot/backend/internal/config"
	"github.com/bugzot/backend/internal/database"
	"github.com/bugzot/backend/internal/handler"
	"github.com/bugzot/backend/internal/middleware"
	"github.com/bugzot/backend/internal/notifier"
	"github.com/bugzot/backend/internal/queue"
	"github.com/bugzot/backend/internal/repository"
	"github.com/bugzot/backend/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName,
		cfg.DBMaxConns, cfg.DBConnLifetime)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancel()
		log.Fatalf("migrate database: %v", err)
	}
	cancel()

	// A nil redis client is tolerated: rate limiting fails open, logout
	// reports 503 until the store comes back.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable at startup; rate limiting disabled, logout will fail")
	}

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	keys := repository.NewActivationRepo(db)

	blacklist := auth.NewBlacklist(rdb)
	tokens := auth.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTTLMin)*time.Minute, blacklist)
	limiter := auth.NewRateLimiter(rdb, cfg.RateLimitMax, cfg.RateLimitWindow)

	svc := auth.NewService(users, roles, keys, tokens, limiter, notifier.NewEmailPublisher(), auth.ServiceConfig{
		BcryptCost:        cfg.BcryptCost,
		ActivationTTL:     time.Duration(cfg.ActivationTTLMin) * time.Minute,
		MXTimeout:         cfg.MXTimeout,
		DisposableDomains: cfg.DisposableEmails,
	})

	// Background worker rendering activation emails from the broker.
	go func() {
		if err := queue.StartActivationConsumer(); err != nil {
			log.Printf("activation consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewBodyValidator()
	e.Use(middleware.Audit())

	router.RegisterRoutes(e)
	authed := router.RegisterAuth(e, handler.NewAuthHandler(svc), tokens, users)
	router.RegisterDirectory(authed, handler.NewUserHandler(users), handler.NewRoleHandler(roles))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
