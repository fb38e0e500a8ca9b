package main

import (
	"context"
	"log"
	"net/http"

	"asset-tracker-api/internal"
	"asset-tracker-api/internal/config"
	"asset-tracker-api/internal/store"
)

func main() {
	// Load and validate configuration
	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Postgres when a DSN is configured, in-memory otherwise
	var st store.Store
	if cfg.DBDSN != "" {
		pg, err := store.NewPostgres(context.Background(), cfg.DBDSN)
		if err != nil {
			log.Fatalf("Store initialization failed: %v", err)
		}
		defer pg.Close()
		st = pg
		log.Println("Using postgres state store")
	} else {
		st = store.NewMemory()
		log.Println("DB_DSN not set, using in-memory state store")
	}

	srv := internal.NewServer(cfg, st)

	log.Println("Starting Asset Tracker API server...")
	log.Printf("JWT Issuer: %s", cfg.JWTIssuer)
	log.Printf("JWT Audience: %s", cfg.JWTAudience)
	log.Printf("JWT Expiry: %v", cfg.JWTExpiry)
	log.Printf("Position history limit: %d", cfg.HistoryLimit)
	log.Printf("Listening on %s", cfg.HTTPAddr)

	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, srv.Router))
}
