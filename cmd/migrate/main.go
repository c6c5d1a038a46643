// Command migrate applies the database schema.
package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/fuelops/fuel-station/internal/adapter/storage"
	"github.com/fuelops/fuel-station/internal/config"
)

func main() {
	cfg := config.Load()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("ping postgres: %v", err)
	}
	if err := storage.ApplySchema(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("schema applied")
}
