//go:build ignore
// +build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"loan-underwriting-engine/internal/config"
	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/services/database"
	"loan-underwriting-engine/internal/standards"
)

func main() {
	fmt.Println("=== Database Initialization Script ===")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if !cfg.HasDatabase() {
		fmt.Println("❌ DATABASE_URL or DB_HOST must be set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Println("📡 Connecting to database...")
	conn, err := pgx.Connect(ctx, cfg.DatabaseURL())
	if err != nil {
		fmt.Printf("❌ Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	fmt.Println("📖 Reading SQL schema file...")
	sqlBytes, err := os.ReadFile("scripts/init_database.sql")
	if err != nil {
		fmt.Printf("❌ Failed to read SQL file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("🚀 Executing database schema...")
	if _, err := conn.Exec(ctx, string(sqlBytes)); err != nil {
		fmt.Printf("❌ Failed to execute SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ Database schema executed successfully!")
	fmt.Println()

	// Seed the default table so operators can tune values in place.
	db, err := database.New(ctx, cfg)
	if err != nil {
		fmt.Printf("❌ Failed to open pool: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewStandardsRepository(db)
	seeded := 0
	for _, path := range models.ProductLines() {
		for key, value := range standards.Defaults(path) {
			var exists bool
			err := db.QueryRowContext(ctx, `
				SELECT EXISTS(SELECT 1 FROM banking_standards
				WHERE business_path = $1 AND category = $2 AND name = $3 AND bank_id IS NULL)`,
				string(path), key.Category, key.Name,
			).Scan(&exists)
			if err != nil {
				fmt.Printf("❌ Failed to check %s %s: %v\n", path, key, err)
				os.Exit(1)
			}
			if exists {
				continue
			}

			err = repo.Upsert(ctx, &models.BankingStandard{
				BusinessPath: path,
				Category:     key.Category,
				Name:         key.Name,
				Value:        value,
			})
			if err != nil {
				fmt.Printf("❌ %v\n", err)
				os.Exit(1)
			}
			seeded++
		}
	}

	fmt.Printf("   📦 Seeded %d default standards (defaults version %s)\n", seeded, standards.DefaultsVersion)
	fmt.Println()
	fmt.Println("🎉 Database initialization completed successfully!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Test the connection: go run scripts/test_connection.go")
	fmt.Println("  2. Evaluate a request: go run ./cmd/underwrite evaluate mortgage --file request.json")
}
