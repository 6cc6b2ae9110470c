package main

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"chatd/internal/broker"
	"chatd/internal/chat"
	"chatd/internal/config"
	"chatd/internal/database"
	"chatd/internal/lock"
	"chatd/internal/server"
	"chatd/internal/ws"
)

func main() {
	cfg := config.Load()

	// Connect to DB (if DB not available, Connect will return an error)
	if err := database.Connect(cfg.DSN); err != nil {
		log.Fatalf("DB connect error: %v", err)
	}

	// Run migrations if files exist (RunMigrations is tolerant if dir missing)
	if err := database.RunMigrations("migrations"); err != nil {
		log.Fatalf("migrations error: %v", err)
	}

	// Redis backs the per-room send lock and the cross-instance broker
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis url error: %v", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("redis connect error: %v", err)
	}
	logrus.Info("Redis connected")

	logger := logrus.StandardLogger()

	registry := ws.NewRegistry()
	store := chat.NewSQLStore(database.GetDB())
	locker := lock.NewRedisLocker(rdb)
	bus := broker.NewRedisBroker(rdb, logger)

	dispatcher := chat.NewDispatcher(bus.Consumer(), registry, store, bus, logger)
	chatSvc := chat.NewService(store, locker, dispatcher, dispatcher.InstanceID(), cfg.LockWait, cfg.LockLease, logger)

	// Every instance consumes every delivery event, so each instance gets
	// its own consumer group over the shared stream.
	group := fmt.Sprintf("%s-%s", chat.GroupMessages, bus.Consumer())
	go func() {
		if err := bus.Subscribe(context.Background(), chat.TopicMessages, group, dispatcher.HandleBrokerPayload); err != nil {
			logrus.WithError(err).Error("broker subscription stopped")
		}
	}()

	// Start server
	srv := server.NewServer(":"+cfg.Port, database.GetDB(), chatSvc, registry, cfg.JWTSecret, cfg.JWTTTLHrs)
	if err := srv.Run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
