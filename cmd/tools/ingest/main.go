package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"asset-tracker-api/internal/store"
	"asset-tracker-api/pkg/reconciler"
)

// Feeds a saved webhook payload through the reconciler, against either a
// postgres state store or a throwaway in-memory one.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: ingest --file=payload.json [--mapping=configs/aliases.yaml] [--dry-run]")
		os.Exit(1)
	}

	var filePath, mappingPath string
	dryRun := false

	for _, arg := range os.Args[1:] {
		if strings.HasPrefix(arg, "--file=") {
			filePath = strings.TrimPrefix(arg, "--file=")
		} else if strings.HasPrefix(arg, "--mapping=") {
			mappingPath = strings.TrimPrefix(arg, "--mapping=")
		} else if arg == "--dry-run" {
			dryRun = true
		}
	}

	if filePath == "" {
		fmt.Println("Error: file is required")
		fmt.Println("Usage: ingest --file=payload.json [--mapping=...] [--dry-run]")
		os.Exit(1)
	}

	payload, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("Failed to read payload file: %v", err)
	}

	aliases := reconciler.DefaultAliases()
	if mappingPath != "" {
		aliases, err = reconciler.LoadAliases(mappingPath)
		if err != nil {
			log.Fatalf("Failed to load alias mapping: %v", err)
		}
	}

	ctx := context.Background()

	var st store.Store
	dsn := os.Getenv("DB_DSN")
	if dsn != "" && !dryRun {
		pg, err := store.NewPostgres(ctx, dsn)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pg.Close()
		st = pg
	} else {
		if dsn == "" && !dryRun {
			log.Println("DB_DSN not set, reconciling against a throwaway in-memory store")
		}
		st = store.NewMemory()
	}

	rec := reconciler.New(st, reconciler.Options{Aliases: aliases})
	sum := rec.Reconcile(ctx, payload)

	out, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode summary: %v", err)
	}
	fmt.Println(string(out))
}
