package main

import (
	"context"
	"log"

	"procurement/internal/config"
	"procurement/internal/db"
	"procurement/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	applied, err := migrations.Apply(ctx, pool)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if len(applied) == 0 {
		log.Println("Schema is up to date.")
		return
	}
	for _, name := range applied {
		log.Printf("Applied %s", name)
	}
}
