package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"pricing-portal/config"
	"pricing-portal/internal/fallback"
	"pricing-portal/internal/models"
	"pricing-portal/internal/store"
)

// One-off migration script: creates the portal schema and seeds empty
// inventory tables from the embedded fallback snapshots.

var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'member',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS adjustment_rules (
		id BIGSERIAL PRIMARY KEY,
		scope TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		table_name TEXT NOT NULL,
		percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
		exact_amount DOUBLE PRECISION,
		min_price DOUBLE PRECISION,
		max_price DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_rules_scope_table ON adjustment_rules (scope, table_name)`,
	`CREATE INDEX IF NOT EXISTS idx_rules_user ON adjustment_rules (user_id) WHERE scope = 'user'`,

	`CREATE TABLE IF NOT EXISTS publications (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		genre TEXT NOT NULL DEFAULT '',
		domain_authority INT NOT NULL DEFAULT 0,
		turnaround TEXT NOT NULL DEFAULT '',
		price DOUBLE PRECISION
	)`,

	`CREATE TABLE IF NOT EXISTS social_posts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		account TEXT NOT NULL,
		followers BIGINT NOT NULL DEFAULT 0,
		platforms JSONB NOT NULL DEFAULT '[]',
		prices JSONB NOT NULL DEFAULT '[]'
	)`,

	`CREATE TABLE IF NOT EXISTS digital_tv (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		network TEXT NOT NULL,
		program TEXT NOT NULL DEFAULT '',
		format TEXT NOT NULL DEFAULT '',
		price TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS best_sellers (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		list TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		guarantee BOOLEAN NOT NULL DEFAULT FALSE,
		timeline TEXT NOT NULL DEFAULT '',
		price DOUBLE PRECISION
	)`,

	`CREATE TABLE IF NOT EXISTS listicles (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		outlet TEXT NOT NULL,
		topic TEXT NOT NULL DEFAULT '',
		bundles JSONB NOT NULL DEFAULT '[]'
	)`,

	`CREATE TABLE IF NOT EXISTS prints (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		category TEXT NOT NULL,
		magazines JSONB NOT NULL DEFAULT '[]'
	)`,

	`CREATE TABLE IF NOT EXISTS broadcast_tv (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		station TEXT NOT NULL,
		market TEXT NOT NULL DEFAULT '',
		slot TEXT NOT NULL DEFAULT '',
		price TEXT
	)`,
}

func main() {
	seed := flag.Bool("seed", true, "seed empty inventory tables from the fallback snapshots")
	flag.Parse()

	cfg := config.Load()

	db, err := store.NewStore(cfg.Database.URL,
		cfg.Pricing.RetryAttempts,
		time.Duration(cfg.Pricing.RetryBaseDelayMs)*time.Millisecond)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	for _, stmt := range schema {
		if _, err := db.GetDB().ExecContext(ctx, stmt); err != nil {
			log.Fatalf("Migration failed: %v\nstatement: %s", err, stmt)
		}
	}
	log.Println("Schema migrated")

	if !*seed {
		return
	}

	source := fallback.NewSource()
	for _, table := range models.TableNames() {
		if err := seedTable(ctx, db, source, table); err != nil {
			log.Fatalf("Failed to seed %s: %v", table, err)
		}
	}
	log.Println("Seeding complete")
}

func seedTable(ctx context.Context, db *store.Store, source *fallback.Source, table string) error {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if err := db.GetDB().GetContext(ctx, &count, query); err != nil {
		return err
	}
	if count > 0 {
		log.Printf("Skipping %s: %d rows present", table, count)
		return nil
	}

	rows, err := source.Rows(table)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := db.InsertRow(ctx, table, row); err != nil {
			return err
		}
	}

	log.Printf("Seeded %s: %d rows", table, len(rows))
	return nil
}
