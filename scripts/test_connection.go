//go:build ignore
// +build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️  No .env file found, using environment variables")
	}

	fmt.Println("🔍 Testing backing store connections...")
	fmt.Println()

	fmt.Println("1️⃣  Checking Environment Variables:")
	checkEnvVar("AWS_REGION")
	checkEnvVar("S3_BUCKET")
	checkEnvVar("DATABASE_URL")
	checkEnvVar("REDIS_ADDR")
	checkEnvVar("STANDARDS_SOURCE")
	checkEnvVar("SES_SENDER_EMAIL")
	fmt.Println()

	fmt.Println("2️⃣  Testing Database Connection:")
	testDatabaseConnection()
	fmt.Println()

	fmt.Println("3️⃣  Testing Redis Connection:")
	testRedisConnection()
	fmt.Println()

	fmt.Println("✅ Connection tests complete!")
}

func checkEnvVar(name string) {
	value := os.Getenv(name)
	if value == "" {
		fmt.Printf("   ❌ %s: NOT SET\n", name)
	} else {
		// Mask sensitive values
		masked := value
		if len(value) > 8 && name == "DATABASE_URL" {
			masked = value[:8] + "..." + value[len(value)-4:]
		}
		fmt.Printf("   ✅ %s: %s\n", name, masked)
	}
}

func testDatabaseConnection() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		fmt.Println("   ❌ DATABASE_URL not set, skipping database test")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		fmt.Printf("   ❌ Database connection failed: %v\n", err)
		return
	}
	defer conn.Close(ctx)

	fmt.Println("   ✅ Database connection successful!")

	var tableCount int
	err = conn.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name IN ('banking_standards', 'loan_evaluations', 'evaluation_criteria')
	`).Scan(&tableCount)
	if err == nil {
		fmt.Printf("   📊 Tables found: %d/3 (banking_standards, loan_evaluations, evaluation_criteria)\n", tableCount)
	}

	var standardCount int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM banking_standards WHERE is_active").Scan(&standardCount); err == nil {
		fmt.Printf("   📏 Active banking standards: %d\n", standardCount)
	}
}

func testRedisConnection() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		fmt.Println("   ⏭️  REDIS_ADDR not set, skipping Redis test")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		fmt.Printf("   ❌ Redis ping failed: %v\n", err)
		return
	}

	keys, err := client.Keys(ctx, "standards:*").Result()
	if err != nil {
		fmt.Printf("   ⚠️  Could not list cached standards: %v\n", err)
		return
	}
	fmt.Printf("   ✅ Redis connection successful! %d cached standards hashes\n", len(keys))
}
