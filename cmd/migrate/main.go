package main

import (
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"

	"trainingdesk/internal/config"
	"trainingdesk/internal/database"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("dotenv_load_failed error=%v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL, database.Options{MaxOpenConns: 1})
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	for _, m := range database.Models() {
		if !db.Migrator().HasTable(m) {
			log.Fatalf("migrate incomplete: table for %T missing", m)
		}
	}

	log.Printf("migrate completed: db=%s tables=%d", cfg.DatabaseKind(), len(database.Models()))
}
