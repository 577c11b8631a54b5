package main

import (
	"log"

	"wavechat/config"
	"wavechat/internal/directory"
	"wavechat/internal/domain/chat"
	"wavechat/internal/events"
	"wavechat/internal/handler"
	"wavechat/internal/presence"
	appredis "wavechat/internal/redis"
	"wavechat/internal/repository"
	"wavechat/internal/server"
	"wavechat/internal/services"
	"wavechat/pkg/database"
	"wavechat/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode != "debug" {
		mode = logger.ProductionMode
	}
	appLogger := logger.New(mode)
	defer appLogger.Logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := db.AutoMigrate(
		&chat.Conversation{},
		&chat.Participant{},
		&chat.Message{},
		&chat.MessageReaction{},
		&chat.MessageHide{},
		&directory.Profile{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	redisClient := appredis.NewClient(appredis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := appredis.Ping(redisClient); err != nil {
		log.Fatalf("redis: %v", err)
	}

	bus := events.NewRedisBus(redisClient, appLogger)
	presenceStore := presence.NewStore(redisClient, bus, cfg.PresenceTTL)

	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)

	conversationService := services.NewConversationService(db, convRepo, appLogger)
	messageService := services.NewMessageService(msgRepo, convRepo, bus, appLogger)

	profiles := directory.NewCachedDirectory(directory.NewGormDirectory(db), redisClient)

	srv := server.New(cfg, appLogger, server.Handlers{
		Conversations: handler.NewConversationHandler(conversationService, messageService, profiles),
		Messages:      handler.NewMessageHandler(messageService),
		Presence:      handler.NewPresenceHandler(presenceStore),
		Stream:        server.NewStreamHandler(bus, messageService, presenceStore, cfg.TypingIdle, appLogger),
	})

	if err := srv.Run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}
