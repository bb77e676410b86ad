package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"story-loop-api/internal/config"
	"story-loop-api/internal/infrastructure/persistence/postgres"
	"story-loop-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting schema bootstrap...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	client, cleanup, err := wire.InitializeMigrator(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect postgres: %v", err)
	}
	defer cleanup()

	if err := postgres.AutoMigrate(ctx, client.DB()); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	fmt.Println("Bootstrap completed successfully.")
}
