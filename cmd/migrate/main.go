package main

import (
	"context"
	"flag"
	"log"
	"os"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/KiiTuNp/SUPERvote/internal/infrastructure/database"
	"github.com/KiiTuNp/SUPERvote/pkg/config"
)

func main() {
	down := flag.Bool("down", false, "revert the embedded migrations instead of applying them")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.Driver != config.StoreDriverPostgres {
		log.Fatalf("STORE_DRIVER=%s has no schema to migrate", cfg.Database.Driver)
	}

	db, err := database.NewPostgresDB(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.CloseDB(db) }()

	direction := migrate.Up
	if *down {
		direction = migrate.Down
	}

	log.Println("🔄 Applying embedded migrations...")
	n, err := database.Migrate(db, direction)
	if err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}

	log.Printf("✅ Successfully applied %d migration(s)!\n", n)
}
