package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"blogapi/auth"
	"blogapi/config"
	"blogapi/database"
	"blogapi/handlers"
	"blogapi/logger"
	"blogapi/routes"
	"blogapi/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.Init(cfg); err != nil {
		log.Fatal("logger init failed:", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.GinMode)

	// Connect to MongoDB with retry
	var db *database.Mongo
	for i := 1; i <= 3; i++ {
		db, err = database.Connect(context.Background(), cfg)
		if err == nil {
			break
		}
		logger.S.Warnw("mongodb connection attempt failed", "attempt", i, "err", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		logger.S.Fatalw("could not connect to mongodb", "err", err)
	}
	logger.S.Infow("mongodb connected", "db", cfg.MongoDBName)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.S.Warnw("redis unreachable, token blacklist falls back to memory", "err", err)
		}
		cancel()
	}

	tokens := auth.NewManager(cfg, rdb)
	handlers.Init(cfg, store.New(db), tokens)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      routes.SetupRouter(cfg, tokens),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.S.Infow("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.S.Fatalw("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.S.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.S.Errorw("forced shutdown", "err", err)
	}
	if err := db.Disconnect(shutdownCtx); err != nil {
		logger.S.Errorw("mongodb disconnect failed", "err", err)
	}

	logger.S.Info("server stopped")
}
