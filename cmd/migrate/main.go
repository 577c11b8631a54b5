package main

import (
	"log"

	"wavechat/config"
	"wavechat/internal/directory"
	"wavechat/internal/domain/chat"
	"wavechat/pkg/database"
)

func main() {
	cfg := config.LoadConfig()

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

	log.Println("migrations applied")
}
